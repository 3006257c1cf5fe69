package postgres

const (
	qUserInsert = `
INSERT INTO users (username, email, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	qUserSelect        = `SELECT id, username, email, password_hash, created_at, updated_at FROM users`
	qUserByID          = qUserSelect + ` WHERE id = $1`
	qUserByUsername    = qUserSelect + ` WHERE username = $1`
	qUserByEmail       = qUserSelect + ` WHERE email = $1`
	qUserDelete        = `DELETE FROM users WHERE id = $1`
	qRoomInsert        = `
INSERT INTO rooms (title, max_members, is_private, creator_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	qRoomSelect = `SELECT id, title, max_members, is_private, creator_id, created_at, updated_at FROM rooms`
	qRoomByID   = qRoomSelect + ` WHERE id = $1`
	qRoomLock   = qRoomSelect + ` WHERE id = $1 FOR UPDATE`
	qRoomDelete = `DELETE FROM rooms WHERE id = $1`
	qRoomList   = `
SELECT r.id, r.title, r.max_members, r.is_private, r.creator_id, r.created_at, r.updated_at,
       COUNT(m.user_id)
FROM rooms AS r
LEFT JOIN room_members AS m ON m.room_id = r.id
GROUP BY r.id
ORDER BY r.id`
	qRoomListByUser = `
SELECT r.id, r.title, r.max_members, r.is_private, r.creator_id, r.created_at, r.updated_at,
       COUNT(m.user_id)
FROM rooms AS r
JOIN room_members AS mine ON mine.room_id = r.id AND mine.user_id = $1
LEFT JOIN room_members AS m ON m.room_id = r.id
GROUP BY r.id
ORDER BY r.id`

	qMemberInsert = `INSERT INTO room_members (room_id, user_id, joined_at, last_seen) VALUES ($1, $2, $3, $4)`
	qMemberExists = `SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`
	qMemberCount  = `SELECT COUNT(*) FROM room_members WHERE room_id = $1`
	qMemberList   = `
SELECT m.user_id, u.username, m.joined_at, m.last_seen
FROM room_members AS m
JOIN users AS u ON u.id = m.user_id
WHERE m.room_id = $1
ORDER BY m.joined_at, m.user_id`
	qMemberDelete       = `DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`
	qMemberTouch        = `UPDATE room_members SET last_seen = $3 WHERE room_id = $1 AND user_id = $2`
	qMemberDeleteByRoom = `DELETE FROM room_members WHERE room_id = $1`
	qMemberCountByUser  = `SELECT COUNT(*) FROM room_members WHERE user_id = $1`

	qInviteInsert = `
INSERT INTO invite_codes (room_id, code, created_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	qInviteSelect        = `SELECT id, room_id, code, created_at, expires_at FROM invite_codes`
	qInviteByRoom        = qInviteSelect + ` WHERE room_id = $1`
	qInviteByCode        = qInviteSelect + ` WHERE code = $1`
	qInviteDeleteByRoom  = `DELETE FROM invite_codes WHERE room_id = $1`
	qInviteDeleteExpired = `DELETE FROM invite_codes WHERE expires_at <= $1`

	qMessageInsert = `
INSERT INTO messages (room_id, author_id, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	qMessageSelect = `
SELECT m.id, m.room_id, m.author_id, COALESCE(u.username, ''), m.content, m.created_at, m.updated_at
FROM messages AS m
LEFT JOIN users AS u ON u.id = m.author_id`
	qMessageByID         = qMessageSelect + ` WHERE m.id = $1`
	qMessageByRoom       = qMessageSelect + ` WHERE m.room_id = $1 ORDER BY m.created_at, m.id`
	qMessageUpdate       = `UPDATE messages SET content = $2, updated_at = $3 WHERE id = $1`
	qMessageDeleteByRoom = `DELETE FROM messages WHERE room_id = $1`
)

package domain

import "time"

const DefaultInviteTTL = time.Hour

type InviteCode struct {
	ID        int64
	RoomID    RoomID
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func NewInviteCode(room RoomID, code string, ttl time.Duration, now time.Time) (*InviteCode, error) {
	if len(code) != 6 {
		return nil, Validation("invite code must be 6 digits")
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return nil, Validation("invite code must be 6 digits")
		}
	}
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	return &InviteCode{
		RoomID:    room,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Expired: код истёк, если expires_at <= now.
func (c *InviteCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

package badgerstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func mustUser(t *testing.T, s *Store, name string) domain.UserID {
	t.Helper()
	u, err := domain.NewUser(name, name+"@example.com", "hash", t0)
	require.NoError(t, err)
	id, err := s.Users().Create(context.Background(), u)
	require.NoError(t, err)
	return id
}

func mustRoom(t *testing.T, s *Store, creator domain.UserID, max int) domain.RoomID {
	t.Helper()
	r, err := domain.NewRoom(creator, "room", max, false, t0)
	require.NoError(t, err)
	id, err := s.Rooms().Create(context.Background(), r)
	require.NoError(t, err)
	require.NoError(t, s.Members().Add(context.Background(), domain.NewMembership(id, creator, t0)))
	return id
}

func TestUsers_UniqueIndexes(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	id := mustUser(t, s, "alice")
	req.Equal(domain.UserID(1), id)

	dup, err := domain.NewUser("alice", "other@example.com", "hash", t0)
	req.NoError(err)
	_, err = s.Users().Create(ctx, dup)
	req.ErrorIs(err, repository.ErrAlreadyExists)

	dup, err = domain.NewUser("alice2", "alice@example.com", "hash", t0)
	req.NoError(err)
	_, err = s.Users().Create(ctx, dup)
	req.ErrorIs(err, repository.ErrAlreadyExists)

	u, err := s.Users().GetByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(id, u.ID)

	req.NoError(s.Users().Delete(ctx, id))
	_, err = s.Users().GetByUsername(ctx, "alice")
	req.ErrorIs(err, repository.ErrNotFound)

	// имя освободилось
	mustUser(t, s, "alice")
}

func TestRooms_ListWithCountsAndByUser(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	r1 := mustRoom(t, s, alice, 5)
	r2 := mustRoom(t, s, bob, 2)
	req.NoError(s.Members().Add(ctx, domain.NewMembership(r1, bob, t0.Add(time.Second))))

	all, err := s.Rooms().List(ctx)
	req.NoError(err)
	req.Len(all, 2)
	req.Equal(r1, all[0].ID)
	req.Equal(2, all[0].MemberCount)
	req.Equal(1, all[1].MemberCount)

	mine, err := s.Rooms().ListByUser(ctx, bob)
	req.NoError(err)
	req.Len(mine, 2)
	req.ElementsMatch([]domain.RoomID{r1, r2}, []domain.RoomID{mine[0].ID, mine[1].ID})

	n, err := s.Members().CountByUser(ctx, alice)
	req.NoError(err)
	req.Equal(1, n)

	members, err := s.Members().ListByRoom(ctx, r1)
	req.NoError(err)
	req.Len(members, 2)
	req.Equal("alice", members[0].Username)
	req.Equal("bob", members[1].Username)

	req.ErrorIs(s.Members().Add(ctx, domain.NewMembership(r1, bob, t0)), repository.ErrAlreadyExists)
	req.NoError(s.Members().Remove(ctx, r1, bob))
	req.ErrorIs(s.Members().Remove(ctx, r1, bob), repository.ErrNotFound)
}

func TestInvites_UniquePerRoomAndExpiry(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	r1 := mustRoom(t, s, alice, 5)
	r2 := mustRoom(t, s, alice, 5)

	c1, err := domain.NewInviteCode(r1, "000123", time.Hour, t0)
	req.NoError(err)
	_, err = s.Invites().Create(ctx, c1)
	req.NoError(err)

	again, err := domain.NewInviteCode(r1, "999999", time.Hour, t0)
	req.NoError(err)
	_, err = s.Invites().Create(ctx, again)
	req.ErrorIs(err, repository.ErrAlreadyExists)

	sameCode, err := domain.NewInviteCode(r2, "000123", time.Hour, t0)
	req.NoError(err)
	_, err = s.Invites().Create(ctx, sameCode)
	req.ErrorIs(err, repository.ErrAlreadyExists)

	c2, err := domain.NewInviteCode(r2, "555555", 2*time.Hour, t0)
	req.NoError(err)
	_, err = s.Invites().Create(ctx, c2)
	req.NoError(err)

	got, err := s.Invites().GetByCode(ctx, "000123")
	req.NoError(err)
	req.Equal(r1, got.RoomID)

	n, err := s.Invites().DeleteExpired(ctx, t0.Add(time.Hour))
	req.NoError(err)
	req.EqualValues(1, n)

	_, err = s.Invites().GetByCode(ctx, "000123")
	req.ErrorIs(err, repository.ErrNotFound)
	_, err = s.Invites().GetByRoom(ctx, r2)
	req.NoError(err)
}

func TestMessages_OrderedAndEditable(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	room := mustRoom(t, s, alice, 5)

	var ids []domain.MessageID
	for i, at := range []time.Time{t0.Add(2 * time.Second), t0, t0} {
		m, err := domain.NewMessage(room, alice, string(rune('a'+i)), at)
		req.NoError(err)
		id, err := s.Messages().Create(ctx, m)
		req.NoError(err)
		ids = append(ids, id)
	}

	list, err := s.Messages().ListByRoom(ctx, room)
	req.NoError(err)
	req.Len(list, 3)
	req.Equal([]domain.MessageID{ids[1], ids[2], ids[0]}, []domain.MessageID{list[0].ID, list[1].ID, list[2].ID})
	req.Equal("alice", list[0].AuthorName)

	m, err := s.Messages().Get(ctx, ids[0])
	req.NoError(err)
	req.NoError(m.Edit(alice, "edited", t0.Add(time.Minute)))
	req.NoError(s.Messages().Update(ctx, m))

	m, err = s.Messages().Get(ctx, ids[0])
	req.NoError(err)
	req.Equal("edited", m.Content)
	req.Equal(t0.Add(2*time.Second), m.CreatedAt.UTC())

	req.NoError(s.Messages().DeleteByRoom(ctx, room))
	_, err = s.Messages().Get(ctx, ids[0])
	req.ErrorIs(err, repository.ErrNotFound)
}

func TestInTx_RollbackOnError(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	room := mustRoom(t, s, alice, 5)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Members().DeleteByRoom(ctx, room); err != nil {
			return err
		}
		if err := tx.Rooms().Delete(ctx, room); err != nil {
			return err
		}
		return boom
	})
	req.ErrorIs(err, boom)

	_, err = s.Rooms().Get(ctx, room)
	req.NoError(err)
	n, err := s.Members().Count(ctx, room)
	req.NoError(err)
	req.Equal(1, n)
}

package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func TestRoomService_CreateRoom(t *testing.T) {
	f := newFixture(t).quiet()
	req := require.New(t)

	alice := f.user("alice")
	room, err := f.rooms.CreateRoom(f.ctx, alice, "  general ", 5, true)
	req.NoError(err)
	req.Equal("general", room.Title)
	req.True(room.IsPrivate)
	req.Equal(f.clock.Now(), room.CreatedAt)

	ok, err := f.rooms.IsMember(f.ctx, room.ID, alice)
	req.NoError(err)
	req.True(ok)

	_, err = f.rooms.CreateRoom(f.ctx, alice, "", 5, false)
	req.ErrorIs(err, domain.ErrValidation)
	_, err = f.rooms.CreateRoom(f.ctx, alice, "x", 21, false)
	req.ErrorIs(err, domain.ErrValidation)
	_, err = f.rooms.CreateRoom(f.ctx, 999, "x", 2, false)
	req.ErrorIs(err, domain.ErrUserNotFound)
}

func TestRoomService_JoinRoom(t *testing.T) {
	f := newFixture(t).quiet()
	req := require.New(t)

	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")
	room := f.room(alice, 2)

	_, err := f.rooms.JoinRoom(f.ctx, bob, room)
	req.NoError(err)

	_, err = f.rooms.JoinRoom(f.ctx, bob, room)
	req.ErrorIs(err, domain.ErrAlreadyJoined)
	req.ErrorIs(err, domain.ErrConflict)

	_, err = f.rooms.JoinRoom(f.ctx, carol, room)
	req.ErrorIs(err, domain.ErrCapacity)

	_, err = f.rooms.JoinRoom(f.ctx, carol, 404)
	req.ErrorIs(err, domain.ErrRoomNotFound)
	_, err = f.rooms.JoinRoom(f.ctx, 404, room)
	req.ErrorIs(err, domain.ErrUserNotFound)
}

func TestRoomService_ConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	f := newFixture(t).quiet()
	req := require.New(t)

	owner := f.user("owner")
	room := f.room(owner, 4)

	users := make([]domain.UserID, 12)
	for i := range users {
		users[i] = f.user(fmt.Sprintf("user%02d", i))
	}

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		joined, full  int
		unexpectedErr error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u domain.UserID) {
			defer wg.Done()
			_, err := f.rooms.JoinRoom(f.ctx, u, room)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case domain.KindOf(err) == domain.KindCapacity:
				full++
			default:
				unexpectedErr = err
			}
		}(u)
	}
	wg.Wait()

	req.NoError(unexpectedErr)
	req.Equal(3, joined)
	req.Equal(9, full)

	n, err := f.store.Members().Count(f.ctx, room)
	req.NoError(err)
	req.Equal(4, n)
}

func TestRoomService_ListRoomsAndMembers(t *testing.T) {
	f := newFixture(t).quiet()
	req := require.New(t)

	alice, bob, eve := f.user("alice"), f.user("bob"), f.user("eve")
	r1 := f.room(alice, 5)
	r2 := f.room(bob, 5)
	_, err := f.rooms.JoinRoom(f.ctx, bob, r1)
	req.NoError(err)

	all, err := f.rooms.ListRooms(f.ctx, eve)
	req.NoError(err)
	req.Len(all, 2)

	mine, err := f.rooms.ListUserRooms(f.ctx, alice)
	req.NoError(err)
	req.Len(mine, 1)
	req.Equal(r1, mine[0].ID)
	req.Equal(2, mine[0].MemberCount)

	members, err := f.rooms.ListMembers(f.ctx, r1, bob)
	req.NoError(err)
	req.Len(members, 2)

	_, err = f.rooms.ListMembers(f.ctx, r2, eve)
	req.ErrorIs(err, domain.ErrForbidden)
	_, err = f.rooms.ListMembers(f.ctx, 404, eve)
	req.ErrorIs(err, domain.ErrNotFound)
}

func TestRoomService_LeaveOrDelete(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	var events []domain.Event
	f.pub.EXPECT().Publish(gomock.Any()).Do(func(ev domain.Event) { events = append(events, ev) }).AnyTimes()

	alice, bob, eve := f.user("alice"), f.user("bob"), f.user("eve")
	room := f.room(alice, 5)
	_, err := f.rooms.JoinRoom(f.ctx, bob, room)
	req.NoError(err)

	// создатель не может уйти, пока в комнате есть другие
	_, err = f.rooms.LeaveOrDelete(f.ctx, alice, room)
	req.ErrorIs(err, domain.ErrForbidden)
	req.ErrorIs(err, domain.ErrCreatorCannotLeave)

	// не-участник: no-op, комната остаётся
	res, err := f.rooms.LeaveOrDelete(f.ctx, eve, room)
	req.NoError(err)
	req.Equal(domain.LeftRoom, res)

	res, err = f.rooms.LeaveOrDelete(f.ctx, bob, room)
	req.NoError(err)
	req.Equal(domain.LeftRoom, res)
	_, err = f.rooms.GetRoom(f.ctx, room)
	req.NoError(err)

	_, err = f.chat.SendMessage(f.ctx, alice, room, "bye")
	req.NoError(err)
	_, err = f.invites.CreateInviteCode(f.ctx, alice, room)
	req.NoError(err)

	res, err = f.rooms.LeaveOrDelete(f.ctx, alice, room)
	req.NoError(err)
	req.Equal(domain.RoomDeleted, res)

	_, err = f.rooms.GetRoom(f.ctx, room)
	req.ErrorIs(err, domain.ErrRoomNotFound)
	_, err = f.store.Invites().GetByRoom(f.ctx, room)
	req.Error(err)
	msgs, err := f.store.Messages().ListByRoom(f.ctx, room)
	req.NoError(err)
	req.Empty(msgs)

	_, err = f.rooms.LeaveOrDelete(f.ctx, alice, room)
	req.ErrorIs(err, domain.ErrRoomNotFound)

	kinds := make([]domain.EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	req.Equal([]domain.EventKind{
		domain.EventMemberJoined,
		domain.EventMemberLeft,
		domain.EventMessageCreated,
		domain.EventRoomDeleted,
	}, kinds)
}

func TestRoomService_TouchHeartbeat(t *testing.T) {
	f := newFixture(t).quiet()
	req := require.New(t)

	alice, bob := f.user("alice"), f.user("bob")
	room := f.room(alice, 5)

	f.clock.Advance(time.Minute)
	req.NoError(f.rooms.TouchHeartbeat(f.ctx, room, alice))
	req.ErrorIs(f.rooms.TouchHeartbeat(f.ctx, room, bob), domain.ErrNotInRoom)

	members, err := f.rooms.ListMembers(f.ctx, room, alice)
	req.NoError(err)
	req.Equal(f.clock.Now(), members[0].LastSeen.UTC())
}

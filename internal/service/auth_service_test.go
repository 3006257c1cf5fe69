package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	res, err := f.auth.Register(f.ctx, RegisterInput{Username: " alice ", Email: "Alice@Example.com", Password: "password-alice"})
	req.NoError(err)
	req.Equal("alice", res.User.Username)
	req.Equal("alice@example.com", res.User.Email)
	req.NotEqual("password-alice", res.User.PasswordHash)
	req.NotEmpty(res.Token)

	_, err = f.auth.Register(f.ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "password-x"})
	req.ErrorIs(err, domain.ErrUsernameTaken)
	_, err = f.auth.Register(f.ctx, RegisterInput{Username: "alice2", Email: "ALICE@example.com", Password: "password-x"})
	req.ErrorIs(err, domain.ErrEmailTaken)

	bad := []RegisterInput{
		{Username: "al", Email: "al@example.com", Password: "password-x"},
		{Username: "albert", Email: "not-an-email", Password: "password-x"},
		{Username: "albert", Email: "al@example.com", Password: "short"},
	}
	for _, in := range bad {
		_, err := f.auth.Register(f.ctx, in)
		req.ErrorIs(err, domain.ErrValidation, "%+v", in)
	}
}

func TestAuthService_LoginAndVerify(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	id := f.user("alice")

	res, err := f.auth.Login(f.ctx, "ALICE@example.com", "password-alice")
	req.NoError(err)
	req.Equal(id, res.User.ID)

	got, err := f.auth.Verify(res.Token)
	req.NoError(err)
	req.Equal(id, got)

	_, err = f.auth.Login(f.ctx, "alice@example.com", "wrong-password")
	req.ErrorIs(err, ErrInvalidCredentials)
	_, err = f.auth.Login(f.ctx, "nobody@example.com", "password-alice")
	req.ErrorIs(err, ErrInvalidCredentials)

	_, err = f.auth.Verify("")
	req.ErrorIs(err, ErrUnauthenticated)
	_, err = f.auth.Verify("garbage")
	req.ErrorIs(err, ErrUnauthenticated)

	f.clock.Advance(2 * time.Hour)
	_, err = f.auth.Verify(res.Token)
	req.ErrorIs(err, ErrUnauthenticated)
}

func TestAuthService_DeleteUser(t *testing.T) {
	f := newFixture(t).quiet()
	req := require.New(t)

	alice, bob := f.user("alice"), f.user("bob")
	room := f.room(alice, 5)
	_, err := f.rooms.JoinRoom(f.ctx, bob, room)
	req.NoError(err)
	_, err = f.chat.SendMessage(f.ctx, bob, room, "bye")
	req.NoError(err)

	req.ErrorIs(f.auth.DeleteUser(f.ctx, bob), domain.ErrUserHasRooms)

	_, err = f.rooms.LeaveOrDelete(f.ctx, bob, room)
	req.NoError(err)
	req.NoError(f.auth.DeleteUser(f.ctx, bob))

	_, err = f.auth.Me(f.ctx, bob)
	req.ErrorIs(err, domain.ErrUserNotFound)
	req.ErrorIs(f.auth.DeleteUser(f.ctx, bob), domain.ErrNotFound)

	// сообщения удалённого автора остаются в истории
	list, err := f.chat.GetMessages(f.ctx, alice, room)
	req.NoError(err)
	req.Len(list, 1)
	req.Empty(list[0].AuthorName)

	// имя и email снова свободны
	_, err = f.auth.Register(f.ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password-bob"})
	req.NoError(err)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/mocks"
	"github.com/cwrk-planet/chat-service/internal/security"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	clock   *clock
	pub     *mocks.MockPublisher
	store   *badgerstore.Store
	auth    *AuthService
	rooms   *RoomService
	invites *InviteService
	chat    *ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store, err := badgerstore.Open(badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	clk := &clock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	signer, err := security.NewJWTSigner(security.JWTConfig{
		Secret: []byte("test-secret-0123456789"),
		Issuer: "chat-service-test",
		TTL:    time.Hour,
	}, clk.Now)
	require.NoError(t, err)

	pub := mocks.NewMockPublisher(ctrl)
	locks := NewRoomLocks()

	return &fixture{
		t:       t,
		ctx:     context.Background(),
		clock:   clk,
		pub:     pub,
		store:   store,
		auth:    NewAuthService(store, signer, security.BcryptConfig{Cost: bcrypt.MinCost}, clk.Now),
		rooms:   NewRoomService(store, locks, pub, clk.Now),
		invites: NewInviteService(store, locks, pub, time.Hour, clk.Now),
		chat:    NewChatService(store, pub, clk.Now),
	}
}

// quiet разрешает любые события, когда тест их не проверяет.
func (f *fixture) quiet() *fixture {
	f.pub.EXPECT().Publish(gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) user(name string) domain.UserID {
	f.t.Helper()
	res, err := f.auth.Register(f.ctx, RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password-" + name,
	})
	require.NoError(f.t, err)
	return res.User.ID
}

func (f *fixture) room(creator domain.UserID, max int) domain.RoomID {
	f.t.Helper()
	r, err := f.rooms.CreateRoom(f.ctx, creator, "room", max, false)
	require.NoError(f.t, err)
	return r.ID
}

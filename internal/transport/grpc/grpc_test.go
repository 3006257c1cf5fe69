package grpcx

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/transport/dto"
)

func newClient(t *testing.T) *Client {
	t.Helper()

	store, err := badgerstore.Open(badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	signer, err := security.NewJWTSigner(security.JWTConfig{Secret: []byte("grpc-test-secret-0123456789"), Issuer: "grpc-test"}, nil)
	require.NoError(t, err)

	locks := service.NewRoomLocks()
	auth := service.NewAuthService(store, signer, security.BcryptConfig{Cost: bcrypt.MinCost}, nil)
	srv := NewServer(
		auth,
		service.NewRoomService(store, locks, nil, nil),
		service.NewInviteService(store, locks, nil, time.Hour, nil),
		service.NewChatService(store, nil, nil),
	)

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		UnaryServerInterceptor(),
		AuthInterceptor(auth, PublicMethods()...),
	))
	Register(gs, srv)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func codeOf(err error) codes.Code { return status.Code(err) }

func TestChatService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	aliceAuth, err := c.Register(ctx, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password-alice"})
	require.NoError(t, err)
	_, err = c.Register(ctx, dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password-bob"})
	require.NoError(t, err)
	bobAuth, err := c.Login(ctx, "bob@example.com", "password-bob")
	require.NoError(t, err)

	alice, bob := c.WithToken(aliceAuth.Token), c.WithToken(bobAuth.Token)

	room, err := alice.CreateRoom(ctx, dto.CreateRoomRequest{Title: "general", MaxMembers: 1})
	require.NoError(t, err)
	require.Equal(t, aliceAuth.UserID, room.CreatorID)

	_, err = bob.JoinRoom(ctx, room.ID)
	require.Equal(t, codes.ResourceExhausted, codeOf(err))

	code, err := alice.CreateInviteCode(ctx, room.ID)
	require.NoError(t, err)
	_, err = alice.CreateInviteCode(ctx, room.ID)
	require.Equal(t, codes.AlreadyExists, codeOf(err))

	m, err := bob.RedeemInviteCode(ctx, code.Code)
	require.NoError(t, err)
	require.Equal(t, room.ID, m.RoomID)

	members, err := bob.ListMembers(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, members.Items, 2)

	sent, err := bob.SendMessage(ctx, room.ID, "hi")
	require.NoError(t, err)
	_, err = alice.EditMessage(ctx, sent.ID, "nope")
	require.Equal(t, codes.PermissionDenied, codeOf(err))
	_, err = bob.EditMessage(ctx, sent.ID, "hi there")
	require.NoError(t, err)

	history, err := alice.GetMessages(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	require.Equal(t, "hi there", history.Items[0].Content)
	require.True(t, history.Items[0].Edited)

	mine, err := bob.ListUserRooms(ctx)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)

	left, err := bob.LeaveOrDelete(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, "left", left.Result)
	deleted, err := alice.LeaveOrDelete(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, "deleted", deleted.Result)

	all, err := alice.ListRooms(ctx)
	require.NoError(t, err)
	require.Empty(t, all.Items)

	require.NoError(t, bob.DeleteUser(ctx))
}

func TestChatService_Errors(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.ListRooms(ctx)
	require.Equal(t, codes.Unauthenticated, codeOf(err))
	_, err = c.WithToken("garbage").ListRooms(ctx)
	require.Equal(t, codes.Unauthenticated, codeOf(err))

	_, err = c.Login(ctx, "nobody@example.com", "whatever-pass")
	require.Equal(t, codes.Unauthenticated, codeOf(err))

	_, err = c.Register(ctx, dto.RegisterRequest{Username: "x", Email: "bad", Password: "1"})
	require.Equal(t, codes.InvalidArgument, codeOf(err))

	auth, err := c.Register(ctx, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password-alice"})
	require.NoError(t, err)
	alice := c.WithToken(auth.Token)

	_, err = alice.JoinRoom(ctx, 404)
	require.Equal(t, codes.NotFound, codeOf(err))
	_, err = alice.RedeemInviteCode(ctx, "123456")
	require.Equal(t, codes.NotFound, codeOf(err))
	_, err = alice.SendMessage(ctx, 404, "hi")
	require.Equal(t, codes.NotFound, codeOf(err))
}

func TestUnaryServerInterceptor_RecoversPanics(t *testing.T) {
	ic := UnaryServerInterceptor()
	_, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Boom"},
		func(context.Context, any) (any, error) { panic("boom") })
	require.Equal(t, codes.Internal, codeOf(err))

	var deadline bool
	_, err = ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Ok"},
		func(ctx context.Context, _ any) (any, error) {
			_, deadline = ctx.Deadline()
			return nil, nil
		})
	require.NoError(t, err)
	require.True(t, deadline)
}

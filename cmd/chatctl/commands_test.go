package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
)

func startServer(t *testing.T) *grpcx.Client {
	t.Helper()

	store, err := badgerstore.Open(badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	signer, err := security.NewJWTSigner(security.JWTConfig{Secret: []byte("chatctl-test-secret-0123456789"), Issuer: "chatctl"}, nil)
	require.NoError(t, err)

	locks := service.NewRoomLocks()
	auth := service.NewAuthService(store, signer, security.BcryptConfig{Cost: bcrypt.MinCost}, nil)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(), grpcx.AuthInterceptor(auth, grpcx.PublicMethods()...)))
	grpcx.Register(gs, grpcx.NewServer(auth,
		service.NewRoomService(store, locks, nil, nil),
		service.NewInviteService(store, locks, nil, time.Hour, nil),
		service.NewChatService(store, nil, nil),
	))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpcx.NewClient(conn)
}

type session struct {
	t      *testing.T
	client *grpcx.Client
	out    bytes.Buffer
}

func (s *session) run(args ...string) (string, error) {
	s.out.Reset()
	c := &cli{
		client:   s.client,
		out:      &s.out,
		password: func(io.Writer) (string, error) { return "password-123", nil },
	}
	err := c.run(context.Background(), args)
	return s.out.String(), err
}

var tokenLine = regexp.MustCompile(`(?m)^eyJ[\w-]+\.[\w-]+\.[\w-]+$`)

func (s *session) login(name string) *session {
	s.t.Helper()
	out, err := s.run("register", name, name+"@example.com")
	require.NoError(s.t, err)
	tok := tokenLine.FindString(out)
	require.NotEmpty(s.t, tok, out)
	return &session{t: s.t, client: s.client.WithToken(tok)}
}

func TestCLI_Flow(t *testing.T) {
	anon := &session{t: t, client: startServer(t)}
	alice := anon.login("alice")
	bob := anon.login("bob")

	out, err := anon.run("login", "alice@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "logged in as alice")

	out, err = alice.run("create", "general", "1")
	require.NoError(t, err)
	require.Contains(t, out, `room 1 "general" created`)

	out, err = bob.run("rooms")
	require.NoError(t, err)
	require.Contains(t, out, "general")

	_, err = bob.run("join", "1")
	require.Error(t, err)
	require.Contains(t, describe(err), "resourceexhausted")

	out, err = alice.run("invite", "1")
	require.NoError(t, err)
	code := regexp.MustCompile(`\b\d{6}\b`).FindString(out)
	require.NotEmpty(t, code, out)

	_, err = bob.run("redeem", code)
	require.NoError(t, err)

	_, err = bob.run("send", "1", "hello", "there")
	require.NoError(t, err)

	out, err = alice.run("history", "1")
	require.NoError(t, err)
	require.Contains(t, out, "hello there")
	require.Contains(t, out, "bob")

	out, err = alice.run("members", "1")
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "bob")

	out, err = bob.run("leave", "1")
	require.NoError(t, err)
	require.Contains(t, out, "left room 1")
	out, err = alice.run("leave", "1")
	require.NoError(t, err)
	require.Contains(t, out, "room 1 deleted")
}

func TestCLI_Usage(t *testing.T) {
	s := &session{t: t}
	for _, args := range [][]string{{"join"}, {"join", "x"}, {"create", "t"}, {"send", "1"}, {"redeem"}} {
		_, err := s.run(args...)
		require.ErrorIs(t, err, errUsage, "%v", args)
	}
	_, err := s.run("frobnicate")
	require.ErrorContains(t, err, "unknown command")
}

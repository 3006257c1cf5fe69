// chatctl: консольный клиент chat.v1.ChatService.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gookit/color"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
)

const usage = `usage: chatctl [-addr host:port] [-token jwt] <command> [args]

commands:
  register <username> <email>   create an account (password is prompted)
  login <email>                 print an access token (password is prompted)
  rooms                         list rooms visible to you
  mine                          list rooms you belong to
  members <room>                list room members
  history <room>                print room messages
  create <title> <max>          create a room (max 1..20)
  join <room>                   join a room directly
  invite <room>                 issue an invite code (creator only)
  redeem <code>                 join by invite code
  send <room> <text>            post a message
  leave <room>                  leave, or delete the room if you are its last member
`

func main() {
	addr := flag.String("addr", envOr("CHAT_GRPC_ADDR", "localhost:9090"), "chat-service gRPC address")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "access token (or CHAT_TOKEN)")
	timeout := flag.Duration("timeout", 10*time.Second, "per-call timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fail(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cli := &cli{
		client:   grpcx.NewClient(conn).WithToken(*token),
		out:      os.Stdout,
		password: readPassword,
	}
	if err := cli.run(ctx, flag.Args()); err != nil {
		fail(err)
	}
}

func fail(err error) {
	color.Error.Println(describe(err))
	os.Exit(1)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

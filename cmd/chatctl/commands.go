package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
	"google.golang.org/grpc/status"

	"github.com/cwrk-planet/chat-service/internal/transport/dto"
	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
)

var errUsage = errors.New("bad arguments, see chatctl -h")

// readPassword: seam для тестов вместо term.ReadPassword.
func readPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

type cli struct {
	client   *grpcx.Client
	out      io.Writer
	password func(io.Writer) (string, error)
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		if len(rest) != 2 {
			return errUsage
		}
		pw, err := c.password(c.out)
		if err != nil {
			return err
		}
		res, err := c.client.Register(ctx, dto.RegisterRequest{Username: rest[0], Email: rest[1], Password: pw})
		if err != nil {
			return err
		}
		c.ok("registered %s (id %d)", res.Username, res.UserID)
		fmt.Fprintln(c.out, res.Token)

	case "login":
		if len(rest) != 1 {
			return errUsage
		}
		pw, err := c.password(c.out)
		if err != nil {
			return err
		}
		res, err := c.client.Login(ctx, rest[0], pw)
		if err != nil {
			return err
		}
		c.ok("logged in as %s (id %d)", res.Username, res.UserID)
		fmt.Fprintln(c.out, res.Token)

	case "rooms", "mine":
		list := c.client.ListRooms
		if cmd == "mine" {
			list = c.client.ListUserRooms
		}
		res, err := list(ctx)
		if err != nil {
			return err
		}
		c.roomsTable(res.Items)

	case "members":
		id, err := roomArg(rest)
		if err != nil {
			return err
		}
		res, err := c.client.ListMembers(ctx, id)
		if err != nil {
			return err
		}
		c.membersTable(res.Items)

	case "history":
		id, err := roomArg(rest)
		if err != nil {
			return err
		}
		res, err := c.client.GetMessages(ctx, id)
		if err != nil {
			return err
		}
		c.messagesTable(res.Items)

	case "create":
		if len(rest) != 2 {
			return errUsage
		}
		maxMembers, err := strconv.Atoi(rest[1])
		if err != nil {
			return errUsage
		}
		room, err := c.client.CreateRoom(ctx, dto.CreateRoomRequest{Title: rest[0], MaxMembers: maxMembers})
		if err != nil {
			return err
		}
		c.ok("room %d %q created", room.ID, room.Title)

	case "join":
		id, err := roomArg(rest)
		if err != nil {
			return err
		}
		if _, err := c.client.JoinRoom(ctx, id); err != nil {
			return err
		}
		c.ok("joined room %d", id)

	case "invite":
		id, err := roomArg(rest)
		if err != nil {
			return err
		}
		code, err := c.client.CreateInviteCode(ctx, id)
		if err != nil {
			return err
		}
		c.ok("invite code %s (expires %s)", code.Code, code.ExpiresAt.Local().Format(time.Kitchen))

	case "redeem":
		if len(rest) != 1 {
			return errUsage
		}
		m, err := c.client.RedeemInviteCode(ctx, rest[0])
		if err != nil {
			return err
		}
		c.ok("joined room %d", m.RoomID)

	case "send":
		if len(rest) < 2 {
			return errUsage
		}
		id, err := roomArg(rest[:1])
		if err != nil {
			return err
		}
		msg, err := c.client.SendMessage(ctx, id, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		c.ok("message %d sent", msg.ID)

	case "leave":
		id, err := roomArg(rest)
		if err != nil {
			return err
		}
		res, err := c.client.LeaveOrDelete(ctx, id)
		if err != nil {
			return err
		}
		if res.Result == "deleted" {
			c.ok("room %d deleted", id)
		} else {
			c.ok("left room %d", id)
		}

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func roomArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

func (c *cli) ok(format string, args ...any) {
	fmt.Fprintln(c.out, color.Green.Sprintf(format, args...))
}

func (c *cli) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(c.out)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	return t
}

func (c *cli) roomsTable(rooms []dto.RoomItem) {
	t := c.table([]string{"ID", "Title", "Members", "Private", "Creator"})
	for _, r := range rooms {
		members := fmt.Sprintf("%d/%d", r.MemberCount, r.MaxMembers)
		if r.IsFull {
			members = color.Yellow.Sprint(members)
		}
		t.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			members,
			strconv.FormatBool(r.IsPrivate),
			strconv.FormatInt(r.CreatorID, 10),
		})
	}
	t.Render()
}

func (c *cli) membersTable(members []dto.MemberItem) {
	t := c.table([]string{"User", "Name", "Joined", "Last seen"})
	for _, m := range members {
		t.Append([]string{
			strconv.FormatInt(m.UserID, 10),
			m.Username,
			m.JoinedAt.Local().Format(time.DateTime),
			m.LastSeen.Local().Format(time.DateTime),
		})
	}
	t.Render()
}

func (c *cli) messagesTable(msgs []dto.MessageItem) {
	t := c.table([]string{"ID", "Time", "Author", "Text"})
	for _, m := range msgs {
		author := m.AuthorName
		if author == "" {
			author = color.Gray.Sprint("(deleted)")
		}
		text := m.Content
		if m.Edited {
			text += color.Gray.Sprint(" (edited)")
		}
		t.Append([]string{
			strconv.FormatInt(m.ID, 10),
			m.CreatedAt.Local().Format(time.TimeOnly),
			author,
			text,
		})
	}
	t.Render()
}

// describe делает из gRPC-статуса короткое сообщение.
func describe(err error) string {
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s: %s", strings.ToLower(st.Code().String()), st.Message())
	}
	return err.Error()
}

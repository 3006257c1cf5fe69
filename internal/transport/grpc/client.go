package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cwrk-planet/chat-service/internal/transport/dto"
)

// Client: клиент chat.v1.ChatService поверх любого grpc.ClientConnInterface.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// WithToken возвращает копию клиента, подписывающую вызовы токеном.
func (c *Client) WithToken(token string) *Client {
	return &Client{cc: c.cc, token: token}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, mdAuthorization, "Bearer "+c.token)
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

func (c *Client) Register(ctx context.Context, in dto.RegisterRequest) (out dto.AuthResponse, err error) {
	err = c.invoke(ctx, MethodRegister, in, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (out dto.AuthResponse, err error) {
	err = c.invoke(ctx, MethodLogin, dto.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context) error {
	return c.invoke(ctx, MethodDeleteUser, Empty{}, nil)
}

func (c *Client) CreateRoom(ctx context.Context, in dto.CreateRoomRequest) (out dto.RoomItem, err error) {
	err = c.invoke(ctx, MethodCreateRoom, in, &out)
	return out, err
}

func (c *Client) JoinRoom(ctx context.Context, roomID int64) (out dto.MembershipItem, err error) {
	err = c.invoke(ctx, MethodJoinRoom, RoomRequest{RoomID: roomID}, &out)
	return out, err
}

func (c *Client) ListRooms(ctx context.Context) (out dto.RoomsListResponse, err error) {
	err = c.invoke(ctx, MethodListRooms, Empty{}, &out)
	return out, err
}

func (c *Client) ListUserRooms(ctx context.Context) (out dto.RoomsListResponse, err error) {
	err = c.invoke(ctx, MethodListUserRooms, Empty{}, &out)
	return out, err
}

func (c *Client) ListMembers(ctx context.Context, roomID int64) (out dto.MembersResponse, err error) {
	err = c.invoke(ctx, MethodListMembers, RoomRequest{RoomID: roomID}, &out)
	return out, err
}

func (c *Client) LeaveOrDelete(ctx context.Context, roomID int64) (out LeaveResponse, err error) {
	err = c.invoke(ctx, MethodLeaveOrDelete, RoomRequest{RoomID: roomID}, &out)
	return out, err
}

func (c *Client) CreateInviteCode(ctx context.Context, roomID int64) (out dto.InviteCodeResponse, err error) {
	err = c.invoke(ctx, MethodCreateInviteCode, RoomRequest{RoomID: roomID}, &out)
	return out, err
}

func (c *Client) RedeemInviteCode(ctx context.Context, code string) (out dto.MembershipItem, err error) {
	err = c.invoke(ctx, MethodRedeemInviteCode, dto.RedeemRequest{Code: code}, &out)
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, roomID int64, content string) (out dto.MessageItem, err error) {
	err = c.invoke(ctx, MethodSendMessage, SendMessageRequest{RoomID: roomID, Content: content}, &out)
	return out, err
}

func (c *Client) GetMessages(ctx context.Context, roomID int64) (out dto.MessagesResponse, err error) {
	err = c.invoke(ctx, MethodGetMessages, RoomRequest{RoomID: roomID}, &out)
	return out, err
}

func (c *Client) EditMessage(ctx context.Context, messageID int64, content string) (out dto.MessageItem, err error) {
	err = c.invoke(ctx, MethodEditMessage, EditMessageRequest{MessageID: messageID, Content: content}, &out)
	return out, err
}

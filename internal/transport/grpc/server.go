package grpcx

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/transport/apierr"
	"github.com/cwrk-planet/chat-service/internal/transport/dto"
)

type RoomRequest struct {
	RoomID int64 `json:"room_id"`
}

type SendMessageRequest struct {
	RoomID  int64  `json:"room_id"`
	Content string `json:"content"`
}

type EditMessageRequest struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

type LeaveResponse struct {
	RoomID int64  `json:"room_id"`
	Result string `json:"result"`
}

type Empty struct{}

type Server struct {
	auth    *service.AuthService
	rooms   *service.RoomService
	invites *service.InviteService
	chat    *service.ChatService
}

func NewServer(auth *service.AuthService, rooms *service.RoomService, invites *service.InviteService, chat *service.ChatService) *Server {
	return &Server{auth: auth, rooms: rooms, invites: invites, chat: chat}
}

var _ ChatServiceServer = (*Server)(nil)

// -------- helpers --------

// call разбирает запрос в Req, вызывает fn и упаковывает ответ.
func call[Req, Resp any](ctx context.Context, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request body")
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := apierr.Message(err)
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return status.Error(codes.InvalidArgument, msg)
	case domain.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case domain.KindConflict:
		return status.Error(codes.AlreadyExists, msg)
	case domain.KindCapacity:
		return status.Error(codes.ResourceExhausted, msg)
	case domain.KindForbidden:
		return status.Error(codes.PermissionDenied, msg)
	}
	if apierr.Kind(err) == apierr.KindUnauthenticated {
		return status.Error(codes.Unauthenticated, msg)
	}
	return status.Error(codes.Internal, msg)
}

func authResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{UserID: int64(res.User.ID), Username: res.User.Username, Token: res.Token}
}

// -------- methods --------

func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r dto.RegisterRequest) (dto.AuthResponse, error) {
		res, err := s.auth.Register(ctx, service.RegisterInput{Username: r.Username, Email: r.Email, Password: r.Password})
		if err != nil {
			return dto.AuthResponse{}, err
		}
		return authResponse(res), nil
	})
}

func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r dto.LoginRequest) (dto.AuthResponse, error) {
		res, err := s.auth.Login(ctx, r.Email, r.Password)
		if err != nil {
			return dto.AuthResponse{}, err
		}
		return authResponse(res), nil
	})
}

func (s *Server) DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, _ Empty) (Empty, error) {
		return Empty{}, s.auth.DeleteUser(ctx, UserIDFromCtx(ctx))
	})
}

func (s *Server) CreateRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r dto.CreateRoomRequest) (dto.RoomItem, error) {
		room, err := s.rooms.CreateRoom(ctx, UserIDFromCtx(ctx), r.Title, r.MaxMembers, r.IsPrivate)
		if err != nil {
			return dto.RoomItem{}, err
		}
		return dto.Room(domain.RoomSummary{Room: *room, MemberCount: 1}), nil
	})
}

func (s *Server) JoinRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r RoomRequest) (dto.MembershipItem, error) {
		m, err := s.rooms.JoinRoom(ctx, UserIDFromCtx(ctx), domain.RoomID(r.RoomID))
		if err != nil {
			return dto.MembershipItem{}, err
		}
		return dto.Membership(m), nil
	})
}

func (s *Server) ListRooms(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, _ Empty) (dto.RoomsListResponse, error) {
		rooms, err := s.rooms.ListRooms(ctx, UserIDFromCtx(ctx))
		return dto.Rooms(rooms), err
	})
}

func (s *Server) ListUserRooms(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, _ Empty) (dto.RoomsListResponse, error) {
		rooms, err := s.rooms.ListUserRooms(ctx, UserIDFromCtx(ctx))
		return dto.Rooms(rooms), err
	})
}

func (s *Server) ListMembers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r RoomRequest) (dto.MembersResponse, error) {
		members, err := s.rooms.ListMembers(ctx, domain.RoomID(r.RoomID), UserIDFromCtx(ctx))
		return dto.Members(members), err
	})
}

func (s *Server) LeaveOrDelete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r RoomRequest) (LeaveResponse, error) {
		res, err := s.rooms.LeaveOrDelete(ctx, UserIDFromCtx(ctx), domain.RoomID(r.RoomID))
		return LeaveResponse{RoomID: r.RoomID, Result: res.String()}, err
	})
}

func (s *Server) CreateInviteCode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r RoomRequest) (dto.InviteCodeResponse, error) {
		code, err := s.invites.CreateInviteCode(ctx, UserIDFromCtx(ctx), domain.RoomID(r.RoomID))
		if err != nil {
			return dto.InviteCodeResponse{}, err
		}
		return dto.InviteCode(code), nil
	})
}

func (s *Server) RedeemInviteCode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r dto.RedeemRequest) (dto.MembershipItem, error) {
		m, err := s.invites.RedeemInviteCode(ctx, UserIDFromCtx(ctx), r.Code)
		if err != nil {
			return dto.MembershipItem{}, err
		}
		return dto.Membership(m), nil
	})
}

func (s *Server) SendMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r SendMessageRequest) (dto.MessageItem, error) {
		msg, err := s.chat.SendMessage(ctx, UserIDFromCtx(ctx), domain.RoomID(r.RoomID), r.Content)
		if err != nil {
			return dto.MessageItem{}, err
		}
		return dto.Message(*msg), nil
	})
}

func (s *Server) GetMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r RoomRequest) (dto.MessagesResponse, error) {
		msgs, err := s.chat.GetMessages(ctx, UserIDFromCtx(ctx), domain.RoomID(r.RoomID))
		return dto.Messages(msgs), err
	})
}

func (s *Server) EditMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return call(ctx, in, func(ctx context.Context, r EditMessageRequest) (dto.MessageItem, error) {
		msg, err := s.chat.EditMessage(ctx, UserIDFromCtx(ctx), domain.MessageID(r.MessageID), r.Content)
		if err != nil {
			return dto.MessageItem{}, err
		}
		return dto.Message(*msg), nil
	})
}

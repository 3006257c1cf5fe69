package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chat.v1.ChatService"

const (
	MethodRegister         = "Register"
	MethodLogin            = "Login"
	MethodDeleteUser       = "DeleteUser"
	MethodCreateRoom       = "CreateRoom"
	MethodJoinRoom         = "JoinRoom"
	MethodListRooms        = "ListRooms"
	MethodListUserRooms    = "ListUserRooms"
	MethodListMembers      = "ListMembers"
	MethodLeaveOrDelete    = "LeaveOrDelete"
	MethodCreateInviteCode = "CreateInviteCode"
	MethodRedeemInviteCode = "RedeemInviteCode"
	MethodSendMessage      = "SendMessage"
	MethodGetMessages      = "GetMessages"
	MethodEditMessage      = "EditMessage"
)

func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// ChatServiceServer: серверная сторона chat.v1.ChatService.
type ChatServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRooms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUserRooms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMembers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LeaveOrDelete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateInviteCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RedeemInviteCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFn func(ChatServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn unaryFn) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(ChatServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(ChatServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, ChatServiceServer.Register),
		unary(MethodLogin, ChatServiceServer.Login),
		unary(MethodDeleteUser, ChatServiceServer.DeleteUser),
		unary(MethodCreateRoom, ChatServiceServer.CreateRoom),
		unary(MethodJoinRoom, ChatServiceServer.JoinRoom),
		unary(MethodListRooms, ChatServiceServer.ListRooms),
		unary(MethodListUserRooms, ChatServiceServer.ListUserRooms),
		unary(MethodListMembers, ChatServiceServer.ListMembers),
		unary(MethodLeaveOrDelete, ChatServiceServer.LeaveOrDelete),
		unary(MethodCreateInviteCode, ChatServiceServer.CreateInviteCode),
		unary(MethodRedeemInviteCode, ChatServiceServer.RedeemInviteCode),
		unary(MethodSendMessage, ChatServiceServer.SendMessage),
		unary(MethodGetMessages, ChatServiceServer.GetMessages),
		unary(MethodEditMessage, ChatServiceServer.EditMessage),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chat/v1/chat.proto",
}

func Register(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

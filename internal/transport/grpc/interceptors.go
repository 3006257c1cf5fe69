package grpcx

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
)

const mdAuthorization = "authorization"

// дефолтный guard, если у вызова нет deadline
const defaultDeadline = 10 * time.Second

type ctxKey struct{}

type Authenticator interface {
	Verify(token string) (domain.UserID, error)
}

func UserIDFromCtx(ctx context.Context) domain.UserID {
	id, _ := ctx.Value(ctxKey{}).(domain.UserID)
	return id
}

// UnaryServerInterceptor: logging + recovery + timeout guard.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultDeadline)
			defer cancel()
		}
		log := logger.FromContext(ctx).With("method", info.FullMethod)
		ctx = logger.WithContext(ctx, log)

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc unary panic", "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			code := status.Code(err)
			attrs := []any{"code", code.String(), "dur_ms", time.Since(start).Milliseconds()}
			if code == codes.Internal || code == codes.Unknown {
				log.Error("grpc unary", append(attrs, "err", errString(err))...)
				return
			}
			log.Info("grpc unary", attrs...)
		}()

		return handler(ctx, req)
	}
}

// AuthInterceptor проверяет bearer-токен в metadata для всех методов, кроме public.
func AuthInterceptor(a Authenticator, public ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if lo.Contains(public, info.FullMethod) {
			return handler(ctx, req)
		}
		token, err := tokenFromMD(ctx)
		if err != nil {
			return nil, err
		}
		uid, err := a.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		ctx = context.WithValue(ctx, ctxKey{}, uid)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user", uid))
		return handler(ctx, req)
	}
}

// PublicMethods не требуют токена.
func PublicMethods() []string {
	return []string{FullMethod(MethodRegister), FullMethod(MethodLogin)}
}

func tokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	// authorization: Bearer <access_token>
	auth := first(md.Get(mdAuthorization))
	if auth == "" {
		return "", status.Error(codes.Unauthenticated, "missing authorization")
	}
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") || len(auth) <= 7 {
		return "", status.Error(codes.Unauthenticated, "invalid authorization")
	}
	return strings.TrimSpace(auth[7:]), nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"
)

var validate = validator.New()

// TokenIssuer выпускает и проверяет access-токены.
type TokenIssuer interface {
	Sign(userID domain.UserID) (string, error)
	Verify(token string) (domain.UserID, error)
}

type RegisterInput struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
}

type AuthResult struct {
	User  *domain.User
	Token string
}

type AuthService struct {
	store      repository.Store
	tokens     TokenIssuer
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(store repository.Store, tokens TokenIssuer, passPolicy security.BcryptConfig, now func() time.Time) *AuthService {
	return &AuthService{store: store, tokens: tokens, passPolicy: passPolicy, now: nowOr(now)}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	users := s.store.Users()
	if _, err := users.GetByUsername(ctx, in.Username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password, s.passPolicy)
	if err != nil {
		return nil, domain.Validation(err.Error())
	}
	u, err := domain.NewUser(in.Username, in.Email, hash, s.now())
	if err != nil {
		return nil, err
	}

	id, err := users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.Conflict("username or email already taken")
		}
		logger.FromContext(ctx).Error("auth.register.create failed", slog.Any("err", err))
		return nil, err
	}
	u.ID = id

	return s.issue(u)
}

// Login аутентифицирует по email и паролю.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.Users().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.issue(u)
}

// DeleteUser удаляет аккаунт, только если пользователь не состоит ни в одной комнате.
func (s *AuthService) DeleteUser(ctx context.Context, userID domain.UserID) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if _, err := ensureUser(ctx, tx.Users(), userID); err != nil {
			return err
		}
		n, err := tx.Members().CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrUserHasRooms
		}
		return notFound(tx.Users().Delete(ctx, userID), domain.ErrUserNotFound)
	})
}

func (s *AuthService) Me(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return ensureUser(ctx, s.store.Users(), userID)
}

// Verify: Authenticator для транспортов.
func (s *AuthService) Verify(token string) (domain.UserID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrUnauthenticated
	}
	id, err := s.tokens.Verify(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return id, nil
}

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	tok, err := s.tokens.Sign(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{User: u, Token: tok}, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.Validation(fmt.Sprintf("%s: failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return domain.Validation(err.Error())
}

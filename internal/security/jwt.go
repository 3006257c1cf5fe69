package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired or not valid yet")
	ErrInvalidSubject = errors.New("invalid subject")
)

type JWTConfig struct {
	Secret    []byte
	Issuer    string
	Audience  string
	TTL       time.Duration
	ClockSkew time.Duration
}

// JWTSigner выпускает и проверяет access-токены (HS256).
type JWTSigner struct {
	cfg JWTConfig
	now func() time.Time
}

func NewJWTSigner(cfg JWTConfig, now func() time.Time) (*JWTSigner, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &JWTSigner{cfg: cfg, now: now}, nil
}

func (s *JWTSigner) TTL() time.Duration { return s.cfg.TTL }

// Sign выпускает JWT с sub=userID и exp=now+ttl.
func (s *JWTSigner) Sign(userID domain.UserID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(int64(userID), 10),
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-s.cfg.ClockSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

// Verify проверяет подпись, issuer, audience и сроки; возвращает id пользователя.
func (s *JWTSigner) Verify(token string) (domain.UserID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithLeeway(s.cfg.ClockSkew),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return domain.UserID(id), nil
}

package auth

import (
	"StoreChat/entity"
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/lib/validate"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
}

func NewAuthService(logger *slog.Logger, secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		log:    logger.With(sl.Module("auth-service")),
	}
}

// AuthenticateByToken verifies an HS256 token and returns the user it names.
func (s *Service) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("token auth disabled: %w", entity.ErrNotAuthorized)
	}
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", entity.ErrNotAuthorized)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.log.Debug("expired token")
		}
		return nil, fmt.Errorf("parse token: %v: %w", err, entity.ErrNotAuthorized)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", entity.ErrNotAuthorized)
	}

	user := &entity.UserAuth{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}
	if err = validate.Struct(user); err != nil {
		return nil, fmt.Errorf("token claims: %v: %w", err, entity.ErrNotAuthorized)
	}
	return user, nil
}

func (s *Service) GenerateToken(user *entity.UserAuth) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("token auth disabled: %w", entity.ErrNotAuthorized)
	}
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

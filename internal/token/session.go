package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	minSecretBytes    = 32
)

var (
	ErrMissingSecret = errors.New("jwt signing secret must be at least 32 bytes")

	// ErrTokenInvalid is what callers check. The two causes below only
	// exist so the gate can log them differently.
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = fmt.Errorf("token expired: %w", ErrTokenInvalid)
	ErrTokenMalformed = fmt.Errorf("token malformed: %w", ErrTokenInvalid)
)

// Claims is the session token payload.
type Claims struct {
	UserID int64       `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 session tokens.
type Service struct {
	key []byte
	ttl time.Duration
}

func NewService(secret []byte, ttl time.Duration) (*Service, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{key: secret, ttl: ttl}, nil
}

func (s *Service) Issue(userID int64, role domain.Role) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, domain.ErrInvalidRole
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *Service) Verify(raw string) (domain.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrTokenExpired
		}
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.UserID <= 0 || !claims.Role.Valid() {
		return domain.Principal{}, ErrTokenMalformed
	}
	return domain.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

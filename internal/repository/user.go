package repository

import (
	"context"
	"io"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
)

// UserRepository is the single source of truth for users and their reset-token state.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	ListAll(ctx context.Context) ([]domain.UserSummary, error)
	ListNGOs(ctx context.Context) ([]domain.NGOListing, error)
	ListVolunteers(ctx context.Context) ([]domain.VolunteerListing, error)
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	UpdateProfile(ctx context.Context, id int64, fields map[domain.ProfileField]any) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	DeleteByID(ctx context.Context, id int64) error

	SaveResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	ClearResetToken(ctx context.Context, tokenHash string) error
	// ConsumeResetToken swaps the password and clears the token in one statement.
	// It returns domain.ErrResetTokenInvalid if the token is unknown or expired.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (int64, error)
	PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}

// DocumentStore holds volunteer uploads as opaque objects.
type DocumentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, string, error)
	Delete(ctx context.Context, key string) error
}

// LoginThrottle counts failed logins per email inside a rolling window.
type LoginThrottle interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/metrics"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 10

// bcrypt silently ignores bytes past 72; reject instead.
const maxPasswordBytes = 72

var (
	ErrEmptyPassword   = domain.Invalid("password", "cannot be empty")
	ErrPasswordTooLong = domain.Invalid("password", "must be at most 72 bytes")
	// ErrMalformedHash means the stored hash is unusable, not that the password is wrong.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Hasher hashes and verifies passwords with bcrypt. At most `workers`
// bcrypt computations run at the same time.
type Hasher struct {
	cost int
	sem  chan struct{}
}

func New(cost, workers int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if workers < 1 {
		return nil, fmt.Errorf("hash workers must be >= 1, got %d", workers)
	}
	return &Hasher{cost: cost, sem: make(chan struct{}, workers)}, nil
}

func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := checkPassword(plaintext); err != nil {
		return "", err
	}
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify returns (false, nil) for a wrong password. An error is returned only
// when the stored hash cannot be parsed or the context is cancelled.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.release()

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").With("cause", err.Error()).Wrap(ErrMalformedHash)
	}
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		metrics.HashesInFlight.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() {
	metrics.HashesInFlight.Dec()
	<-h.sem
}

func checkPassword(p string) error {
	if p == "" {
		return ErrEmptyPassword
	}
	if len(p) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

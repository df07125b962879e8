package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHasher(t *testing.T, workers int) *Hasher {
	t.Helper()
	h, err := New(bcrypt.MinCost, workers)
	require.NoError(t, err)
	return h
}

func TestHashVerify_RoundTrip(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	for _, p := range []string{"correct horse battery staple", "p", "ünïcødé-pässwörd", strings.Repeat("x", 72)} {
		hash, err := h.Hash(ctx, p)
		require.NoError(t, err)
		assert.NotEqual(t, p, hash)

		ok, err := h.Verify(ctx, p, hash)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", p)
	}
}

func TestVerify_WrongPassword_ReturnsFalseWithoutError(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "first-password")
	require.NoError(t, err)

	ok, err := h.Verify(ctx, "second-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_IsSalted(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	a, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_UsesConfiguredCost(t *testing.T) {
	h, err := New(DefaultCost, 1)
	require.NoError(t, err)

	hash, err := h.Hash(context.Background(), "cost-check")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestVerify_MalformedHash_ReturnsCodedError(t *testing.T) {
	h := newTestHasher(t, 1)

	ok, err := h.Verify(context.Background(), "whatever", "not-a-bcrypt-hash")
	assert.False(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedHash)

	oopsErr, isOops := oops.AsOops(err)
	require.True(t, isOops)
	assert.Equal(t, "AUTH_INVALID_HASH", oopsErr.Code())
}

func TestHash_RejectsEmptyAndOverlong(t *testing.T) {
	h := newTestHasher(t, 1)

	_, err := h.Hash(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.Hash(context.Background(), strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNew_RejectsBadParameters(t *testing.T) {
	_, err := New(bcrypt.MinCost-1, 1)
	assert.Error(t, err)
	_, err = New(bcrypt.MaxCost+1, 1)
	assert.Error(t, err)
	_, err = New(DefaultCost, 0)
	assert.Error(t, err)
}

func TestHash_WaitsForFreeWorker(t *testing.T) {
	h := newTestHasher(t, 1)
	h.sem <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "blocked")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	<-h.sem
}

func TestHasher_BoundsConcurrency(t *testing.T) {
	const workers = 2
	h := newTestHasher(t, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	peak := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Hash(context.Background(), "concurrent")
			assert.NoError(t, err)
			mu.Lock()
			if n := len(h.sem); n > peak {
				peak = n
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, workers)
	assert.Equal(t, 0, len(h.sem))
}

package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

const (
	DefaultResetTTL = time.Hour
	resetTokenBytes = 32
)

// ResetToken is handed out once. Raw goes to the user, Hash to storage.
type ResetToken struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

func NewResetToken(ttl time.Duration) (ResetToken, error) {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	buf := make([]byte, resetTokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return ResetToken{}, fmt.Errorf("generate reset token: %w", err)
	}
	raw := hex.EncodeToString(buf)
	return ResetToken{
		Raw:       raw,
		Hash:      HashResetToken(raw),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

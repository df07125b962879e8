package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/credential"
	"github.com/ErlanBelekov/cyberaid/internal/domain"
)

var errNotStubbed = errors.New("not stubbed")

// ---- user repository ----

type fakeUserRepo struct {
	create                  func(ctx context.Context, u *domain.User) (*domain.User, error)
	findByEmail             func(ctx context.Context, email string) (*domain.User, error)
	findByID                func(ctx context.Context, id int64) (*domain.User, error)
	listAll                 func(ctx context.Context) ([]domain.UserSummary, error)
	listNGOs                func(ctx context.Context) ([]domain.NGOListing, error)
	listVolunteers          func(ctx context.Context) ([]domain.VolunteerListing, error)
	updateRole              func(ctx context.Context, id int64, role domain.Role) error
	updateProfile           func(ctx context.Context, id int64, fields map[domain.ProfileField]any) error
	updatePassword          func(ctx context.Context, id int64, hash string) error
	deleteByID              func(ctx context.Context, id int64) error
	saveResetToken          func(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	findByResetToken        func(ctx context.Context, tokenHash string) (*domain.User, error)
	clearResetToken         func(ctx context.Context, tokenHash string) error
	consumeResetToken       func(ctx context.Context, tokenHash, passwordHash string) (int64, error)
	purgeExpiredResetTokens func(ctx context.Context, before time.Time) (int64, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if r.create == nil {
		return nil, errNotStubbed
	}
	return r.create(ctx, u)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.findByEmail == nil {
		return nil, errNotStubbed
	}
	return r.findByEmail(ctx, email)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.findByID == nil {
		return nil, errNotStubbed
	}
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]domain.UserSummary, error) {
	if r.listAll == nil {
		return nil, errNotStubbed
	}
	return r.listAll(ctx)
}

func (r *fakeUserRepo) ListNGOs(ctx context.Context) ([]domain.NGOListing, error) {
	if r.listNGOs == nil {
		return nil, errNotStubbed
	}
	return r.listNGOs(ctx)
}

func (r *fakeUserRepo) ListVolunteers(ctx context.Context) ([]domain.VolunteerListing, error) {
	if r.listVolunteers == nil {
		return nil, errNotStubbed
	}
	return r.listVolunteers(ctx)
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	if r.updateRole == nil {
		return errNotStubbed
	}
	return r.updateRole(ctx, id, role)
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id int64, fields map[domain.ProfileField]any) error {
	if r.updateProfile == nil {
		return errNotStubbed
	}
	return r.updateProfile(ctx, id, fields)
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if r.updatePassword == nil {
		return errNotStubbed
	}
	return r.updatePassword(ctx, id, hash)
}

func (r *fakeUserRepo) DeleteByID(ctx context.Context, id int64) error {
	if r.deleteByID == nil {
		return errNotStubbed
	}
	return r.deleteByID(ctx, id)
}

func (r *fakeUserRepo) SaveResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	if r.saveResetToken == nil {
		return errNotStubbed
	}
	return r.saveResetToken(ctx, email, tokenHash, expiresAt)
}

func (r *fakeUserRepo) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	if r.findByResetToken == nil {
		return nil, errNotStubbed
	}
	return r.findByResetToken(ctx, tokenHash)
}

func (r *fakeUserRepo) ClearResetToken(ctx context.Context, tokenHash string) error {
	if r.clearResetToken == nil {
		return errNotStubbed
	}
	return r.clearResetToken(ctx, tokenHash)
}

func (r *fakeUserRepo) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (int64, error) {
	if r.consumeResetToken == nil {
		return 0, errNotStubbed
	}
	return r.consumeResetToken(ctx, tokenHash, passwordHash)
}

func (r *fakeUserRepo) PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	if r.purgeExpiredResetTokens == nil {
		return 0, errNotStubbed
	}
	return r.purgeExpiredResetTokens(ctx, before)
}

// resetTokenTable mimics the single-token-per-user column semantics of the store.
type resetTokenTable struct {
	mu        sync.Mutex
	byEmail   map[string]string // email -> token hash
	passwords map[string]string // email -> password hash
	ids       map[string]int64
}

func newResetTokenTable(emails ...string) *resetTokenTable {
	t := &resetTokenTable{byEmail: map[string]string{}, passwords: map[string]string{}, ids: map[string]int64{}}
	for i, e := range emails {
		t.ids[e] = int64(i + 1)
	}
	return t
}

func (t *resetTokenTable) wire(repo *fakeUserRepo) {
	repo.saveResetToken = func(_ context.Context, email, tokenHash string, _ time.Time) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.ids[email]; !ok {
			return domain.ErrUserNotFound
		}
		t.byEmail[email] = tokenHash
		return nil
	}
	repo.consumeResetToken = func(_ context.Context, tokenHash, passwordHash string) (int64, error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		for email, h := range t.byEmail {
			if h == tokenHash {
				delete(t.byEmail, email)
				t.passwords[email] = passwordHash
				return t.ids[email], nil
			}
		}
		return 0, domain.ErrResetTokenInvalid
	}
}

// ---- hasher / session issuer ----

type fakeHasher struct {
	mu          sync.Mutex
	verifyCalls int
	verified    []string // stored hashes Verify was asked about
	hashErr     error
	hashFails   int // the next hashFails calls to Hash fail with context.Canceled
	verifyErr   error
}

func (h *fakeHasher) Hash(_ context.Context, p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	h.mu.Lock()
	if h.hashFails > 0 {
		h.hashFails--
		h.mu.Unlock()
		return "", context.Canceled
	}
	h.mu.Unlock()
	if p == "" {
		return "", domain.Invalid("password", "cannot be empty")
	}
	return "hashed:" + p, nil
}

func (h *fakeHasher) Verify(_ context.Context, p, hash string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	h.verified = append(h.verified, hash)
	h.mu.Unlock()
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return hash == "hashed:"+p, nil
}

// recordingHasher wraps a real hasher and remembers the hashes Verify saw.
type recordingHasher struct {
	*credential.Hasher
	mu       sync.Mutex
	verified []string
}

func (h *recordingHasher) Verify(ctx context.Context, p, hash string) (bool, error) {
	h.mu.Lock()
	h.verified = append(h.verified, hash)
	h.mu.Unlock()
	return h.Hasher.Verify(ctx, p, hash)
}

func (h *recordingHasher) lastVerified() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.verified) == 0 {
		return ""
	}
	return h.verified[len(h.verified)-1]
}

type fakeIssuer struct {
	issued []domain.Principal
}

func (f *fakeIssuer) Issue(userID int64, role domain.Role) (string, time.Time, error) {
	f.issued = append(f.issued, domain.Principal{UserID: userID, Role: role})
	return "session-token", time.Now().Add(24 * time.Hour), nil
}

// ---- email ----

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to, subject, body string
}

func (s *fakeEmailSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{to, subject, body})
	return nil
}

// rawTokenFrom pulls the token query parameter out of a reset email body.
func rawTokenFrom(body string) string {
	idx := strings.Index(body, "?token=")
	if idx == -1 {
		return ""
	}
	return strings.SplitN(body[idx+len("?token="):], `"`, 2)[0]
}

// ---- throttle ----

type fakeThrottle struct {
	blocked    bool
	blockedErr error
	failures   map[string]int
	resets     []string
}

func (f *fakeThrottle) Blocked(_ context.Context, _ string) (bool, error) {
	return f.blocked, f.blockedErr
}

func (f *fakeThrottle) RecordFailure(_ context.Context, email string) error {
	if f.failures == nil {
		f.failures = map[string]int{}
	}
	f.failures[email]++
	return nil
}

func (f *fakeThrottle) Reset(_ context.Context, email string) error {
	f.resets = append(f.resets, email)
	return nil
}

// ---- documents ----

type fakeDocs struct {
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeDocs() *fakeDocs { return &fakeDocs{objects: map[string][]byte{}} }

func (d *fakeDocs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if d.putErr != nil {
		return d.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.objects[key] = b
	return nil
}

func (d *fakeDocs) Get(_ context.Context, key string) (io.ReadCloser, int64, string, error) {
	b, ok := d.objects[key]
	if !ok {
		return nil, 0, "", domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), "application/pdf", nil
}

func (d *fakeDocs) Delete(_ context.Context, key string) error {
	d.deleted = append(d.deleted, key)
	delete(d.objects, key)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

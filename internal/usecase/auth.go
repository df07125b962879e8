package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/email"
	"github.com/ErlanBelekov/cyberaid/internal/metrics"
	"github.com/ErlanBelekov/cyberaid/internal/repository"
	"github.com/ErlanBelekov/cyberaid/internal/token"
)

const defaultMaxDocumentBytes = 10 << 20

type passwordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

type sessionIssuer interface {
	Issue(userID int64, role domain.Role) (string, time.Time, error)
}

type AuthOptions struct {
	ResetTTL         time.Duration
	ResetLinkBaseURL string
	MaxDocumentBytes int64
}

// AuthUsecase implements registration, login, profile and password-reset flows.
type AuthUsecase struct {
	users    repository.UserRepository
	docs     repository.DocumentStore
	throttle repository.LoginThrottle
	hasher   passwordHasher
	sessions sessionIssuer
	email    email.Sender
	logger   *slog.Logger
	opts     AuthOptions

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAuthUsecase(
	users repository.UserRepository,
	hasher passwordHasher,
	sessions sessionIssuer,
	sender email.Sender,
	logger *slog.Logger,
	opts AuthOptions,
) *AuthUsecase {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = token.DefaultResetTTL
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	return &AuthUsecase{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		email:    sender,
		logger:   logger.With("component", "auth_usecase"),
		opts:     opts,
	}
}

// WithDocuments enables volunteer document uploads.
func (u *AuthUsecase) WithDocuments(docs repository.DocumentStore) *AuthUsecase {
	u.docs = docs
	return u
}

// WithThrottle enables per-email login failure throttling.
func (u *AuthUsecase) WithThrottle(t repository.LoginThrottle) *AuthUsecase {
	u.throttle = t
	return u
}

// Register creates an ngo or volunteer account. Documents are uploaded before
// the row is written and removed again if the insert fails.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !in.Role.SelfRegistrable() {
		return nil, domain.ErrRoleNotAllowed
	}
	if in.Role != domain.RoleVolunteer && (in.CriminalBackgroundCheck != nil || in.Resume != nil) {
		return nil, domain.Invalid("documents", "only volunteers can upload documents")
	}

	hash, err := u.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := in.toUser(hash)
	uploaded, err := u.uploadDocuments(ctx, user, in)
	if err != nil {
		return nil, err
	}

	created, err := u.users.Create(ctx, user)
	if err != nil {
		u.removeDocuments(ctx, uploaded...)
		return nil, err
	}

	u.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "role", created.Role)
	return created, nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong
// password, and spends one bcrypt verification either way.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (*LoginResult, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || password == "" {
		return nil, domain.Invalid("", "email and password are required")
	}

	if u.throttled(ctx, emailAddr) {
		metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		return nil, domain.ErrTooManyAttempts
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if errors.Is(err, domain.ErrUserNotFound) {
		_, _ = u.hasher.Verify(ctx, password, u.dummy(ctx))
		u.recordFailure(ctx, emailAddr)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := u.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		u.logger.ErrorContext(ctx, "stored password hash is unusable", "user_id", user.ID, "error", err)
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		u.recordFailure(ctx, emailAddr)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	signed, expiresAt, err := u.sessions.Issue(user.ID, user.Role)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue session: %w", err)
	}

	if u.throttle != nil {
		if err := u.throttle.Reset(ctx, emailAddr); err != nil {
			u.logger.WarnContext(ctx, "reset login throttle", "error", err)
		}
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (u *AuthUsecase) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return u.users.FindByID(ctx, userID)
}

// UpdateProfile accepts only whitelisted fields that fit the caller's role.
func (u *AuthUsecase) UpdateProfile(ctx context.Context, p domain.Principal, raw map[string]any) error {
	fields, err := profileFields(p.Role, raw)
	if err != nil {
		return err
	}
	return u.users.UpdateProfile(ctx, p.UserID, fields)
}

// DeleteAccount removes the caller's account. Stored documents are removed best effort.
func (u *AuthUsecase) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.users.DeleteByID(ctx, userID); err != nil {
		return err
	}
	u.removeDocuments(ctx, documentKeys(user)...)
	u.logger.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

// ForgotPassword never tells the caller whether the email is registered. Only a
// failed lookup is returned; anything after it happens for registered emails
// alone, so it is logged instead.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return domain.Invalid("email", "is required")
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if errors.Is(err, domain.ErrUserNotFound) {
		metrics.PasswordResetsTotal.WithLabelValues("unknown_email").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if err := u.sendResetLink(ctx, user); err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("failed").Inc()
		u.logger.ErrorContext(ctx, "password reset request", "user_id", user.ID, "error", err)
		return nil
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	return nil
}

func (u *AuthUsecase) sendResetLink(ctx context.Context, user *domain.User) error {
	rt, err := token.NewResetToken(u.opts.ResetTTL)
	if err != nil {
		return err
	}
	if err := u.users.SaveResetToken(ctx, user.Email, rt.Hash, rt.ExpiresAt); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// deleted between lookup and save
			return nil
		}
		return fmt.Errorf("save reset token: %w", err)
	}

	body, err := email.ResetPasswordBody(user.FirstName, u.resetLink(rt.Raw), u.opts.ResetTTL)
	if err != nil {
		return err
	}
	if err := u.email.Send(ctx, user.Email, email.ResetPasswordSubject, body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword hashes first and then consumes the token in one statement, so a
// token can change the password at most once.
func (u *AuthUsecase) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if strings.TrimSpace(rawToken) == "" {
		return domain.ErrResetTokenInvalid
	}

	hash, err := u.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	userID, err := u.users.ConsumeResetToken(ctx, token.HashResetToken(rawToken), hash)
	if err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}

	if u.throttle != nil {
		if user, err := u.users.FindByID(ctx, userID); err == nil {
			_ = u.throttle.Reset(ctx, user.Email)
		}
	}
	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	u.logger.InfoContext(ctx, "password reset", "user_id", userID)
	return nil
}

func (u *AuthUsecase) resetLink(raw string) string {
	return strings.TrimRight(u.opts.ResetLinkBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(raw)
}

// throttled fails open: a throttle outage must not lock everyone out.
func (u *AuthUsecase) throttled(ctx context.Context, emailAddr string) bool {
	if u.throttle == nil {
		return false
	}
	blocked, err := u.throttle.Blocked(ctx, emailAddr)
	if err != nil {
		u.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		return false
	}
	return blocked
}

func (u *AuthUsecase) recordFailure(ctx context.Context, emailAddr string) {
	if u.throttle == nil {
		return
	}
	if err := u.throttle.RecordFailure(ctx, emailAddr); err != nil {
		u.logger.WarnContext(ctx, "record login failure", "error", err)
	}
}

// dummy returns a bcrypt hash to verify against when the email is unknown.
// It is built detached from the request so a cancelled login cannot leave it
// empty, and a failed build is retried on the next call.
func (u *AuthUsecase) dummy(ctx context.Context) string {
	u.dummyMu.Lock()
	defer u.dummyMu.Unlock()
	if u.dummyHash != "" {
		return u.dummyHash
	}
	h, err := u.hasher.Hash(context.WithoutCancel(ctx), "not-a-real-password")
	if err != nil {
		u.logger.WarnContext(ctx, "build dummy hash", "error", err)
		return ""
	}
	u.dummyHash = h
	return h
}

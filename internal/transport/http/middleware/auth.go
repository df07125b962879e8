package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	ctxlog "github.com/ErlanBelekov/cyberaid/internal/log"
	"github.com/ErlanBelekov/cyberaid/internal/metrics"
	"github.com/ErlanBelekov/cyberaid/internal/token"
	"github.com/gin-gonic/gin"
)

const (
	errAccessDenied = "Access denied"
	errInvalidToken = "Invalid token"
	errForbidden    = "Forbidden"

	principalKey = "principal"
)

// TokenVerifier is satisfied by *token.Service.
type TokenVerifier interface {
	Verify(raw string) (domain.Principal, error)
}

// Authenticate checks the bearer session token. A missing credential is 401,
// a bad or expired one is 403. It never touches the database.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "auth_middleware")
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAccessDenied})
			return
		}

		p, err := verifier.Verify(raw)
		if err != nil {
			reason := "malformed_token"
			if errors.Is(err, token.ErrTokenExpired) {
				reason = "expired_token"
			}
			logger.DebugContext(c.Request.Context(), "token rejected", "reason", reason, "error", err)
			metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errInvalidToken})
			return
		}

		SetPrincipal(c, p)
		c.Request = c.Request.WithContext(ctxlog.WithAttrs(c.Request.Context(),
			slog.Int64("user_id", p.UserID),
			slog.String("role", string(p.Role)),
		))
		c.Next()
	}
}

// RequireRole runs after Authenticate and lets through only the listed roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAccessDenied})
			return
		}
		if !slices.Contains(roles, p.Role) {
			metrics.AuthRejectionsTotal.WithLabelValues("wrong_role").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		c.Next()
	}
}

// SetPrincipal attaches p to the request.
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the identity set by Authenticate.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func bearer(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	errInternalServer = "Internal server error"
	errInvalidUserID  = "Invalid user id"
	errAccessDenied   = "Access denied"
	errNotFound       = "Not found"
)

var statusByKind = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
}

// respondError maps err onto the error taxonomy. Anything unclassified is
// logged and reported as a bare 500.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	for _, k := range statusByKind {
		if errors.Is(err, k.kind) {
			c.JSON(k.status, gin.H{"error": clientMessage(err, k.kind)})
			return
		}
	}
	logger.ErrorContext(c.Request.Context(), op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
}

// clientMessage picks the most specific message that is safe to show.
func clientMessage(err, kind error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return kind.Error()
}

// bindingError turns a gin binding failure into a 400.
func bindingError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		c.JSON(http.StatusBadRequest, gin.H{"error": lowerFirst(fe.Field()) + ": " + describeTag(fe.Tag())})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "is not a valid address"
	default:
		return "failed " + tag + " validation"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

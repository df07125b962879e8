package handler

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/transport/http/middleware"
	"github.com/ErlanBelekov/cyberaid/internal/usecase"
	"github.com/gin-gonic/gin"
)

const forgotPasswordMessage = "If that email is registered, a reset link has been sent"

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, p domain.Principal, raw map[string]any) error
	DeleteAccount(ctx context.Context, userID int64) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

// registerRequest binds from JSON or multipart/form-data. Documents are only
// accepted as multipart files.
type registerRequest struct {
	FirstName             string `json:"firstName"             form:"firstName"             binding:"required"`
	LastName              string `json:"lastName"              form:"lastName"              binding:"required"`
	Email                 string `json:"email"                 form:"email"                 binding:"required"`
	Password              string `json:"password"              form:"password"              binding:"required"`
	Role                  string `json:"role"                  form:"role"                  binding:"required"`
	OrganizationName      string `json:"organizationName"      form:"organizationName"`
	AreasOfConcern        string `json:"areasOfConcern"        form:"areasOfConcern"`
	HoursAvailablePerWeek int    `json:"hoursAvailablePerWeek" form:"hoursAvailablePerWeek"`
}

func (r registerRequest) input() usecase.RegisterInput {
	return usecase.RegisterInput{
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		Email:                 r.Email,
		Password:              r.Password,
		Role:                  domain.Role(strings.ToLower(strings.TrimSpace(r.Role))),
		OrganizationName:      r.OrganizationName,
		AreasOfConcern:        r.AreasOfConcern,
		HoursAvailablePerWeek: r.HoursAvailablePerWeek,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		bindingError(c, err)
		return
	}
	in := req.input()

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var closers []func() error
		defer func() {
			for _, cl := range closers {
				_ = cl()
			}
		}()
		for field, dst := range map[domain.DocumentKind]**usecase.Upload{
			domain.DocumentCriminalBackgroundCheck: &in.CriminalBackgroundCheck,
			domain.DocumentResume:                  &in.Resume,
		} {
			fh, err := c.FormFile(string(field))
			if err != nil {
				continue
			}
			up, closeFn, err := openUpload(fh)
			if err != nil {
				respondError(c, h.logger, "open upload", err)
				return
			}
			closers = append(closers, closeFn)
			*dst = up
		}
	}

	user, err := h.authUsecase.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": toUserResponse(user)})
}

func openUpload(fh *multipart.FileHeader) (*usecase.Upload, func() error, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	return &usecase.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f.Close, nil
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	res, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUserResponse(res.User),
	})
}

// GET /auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.authUsecase.Profile(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, h.logger, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// PATCH /auth/profile
// Only whitelisted fields matching the caller's role are accepted.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.authUsecase.UpdateProfile(c.Request.Context(), p, raw); err != nil {
		respondError(c, h.logger, "update profile", err)
		return
	}
	user, err := h.authUsecase.Profile(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, h.logger, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// DELETE /auth/delete-profile
func (h *AuthHandler) DeleteProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.authUsecase.DeleteAccount(c.Request.Context(), p.UserID); err != nil {
		respondError(c, h.logger, "delete profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/forgot-password
// 200 with the same body for registered and unknown emails. Only a failed
// lookup, which does not depend on the email, becomes a 500.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.authUsecase.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, "forgot password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

type resetPasswordRequest struct {
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// principal writes a 401 when the gate did not run.
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errAccessDenied})
	}
	return p, ok
}

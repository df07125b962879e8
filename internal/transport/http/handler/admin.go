package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/usecase"
	"github.com/gin-gonic/gin"
)

type adminUsecaser interface {
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	AddUser(ctx context.Context, actor domain.Principal, in usecase.RegisterInput) (*domain.User, error)
	UpdateRole(ctx context.Context, actor domain.Principal, id int64, role domain.Role) error
	DeleteUser(ctx context.Context, actor domain.Principal, id int64) error
}

type AdminHandler struct {
	adminUsecase adminUsecaser
	logger       *slog.Logger
}

func NewAdminHandler(adminUsecase adminUsecaser, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase, logger: logger.With("component", "admin_handler")}
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminUsecase.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list users", err)
		return
	}
	c.JSON(http.StatusOK, toUserSummaries(users))
}

// POST /admin/add-user
func (h *AdminHandler) AddUser(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	user, err := h.adminUsecase.AddUser(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, h.logger, "add user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User added successfully", "user": toUserResponse(user)})
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// PATCH /admin/users/:id
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, ok := userID(c)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if err := h.adminUsecase.UpdateRole(c.Request.Context(), actor, id, role); err != nil {
		respondError(c, h.logger, "update role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.adminUsecase.DeleteUser(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.logger, "delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidUserID})
		return 0, false
	}
	return id, true
}

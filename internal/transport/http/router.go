package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/transport/http/handler"
	"github.com/ErlanBelekov/cyberaid/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Admin     *handler.AdminHandler
	Directory *handler.DirectoryHandler
}

type Options struct {
	CORSAllowedOrigins []string
	// MaxMultipartMemory bounds in-memory multipart parsing; larger files spill to disk.
	MaxMultipartMemory int64
}

func NewRouter(logger *slog.Logger, h Handlers, verifier middleware.TokenVerifier, opts Options) *gin.Engine {
	r := gin.New()
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(opts.CORSAllowedOrigins))
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithRequestID: false,
		Filters:       []sloggin.Filter{sloggin.IgnorePath("/favicon.ico")},
	}))
	r.Use(middleware.Metrics())
	r.NoRoute(handler.NotFound)

	authenticate := middleware.Authenticate(verifier, logger)

	// Public auth routes
	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)

	// Session routes, any role
	session := r.Group("", authenticate)
	session.GET("/auth/profile", h.Auth.Profile)
	session.GET("/profile", h.Auth.Profile)
	session.PATCH("/auth/profile", h.Auth.UpdateProfile)
	session.DELETE("/auth/delete-profile", h.Auth.DeleteProfile)

	admin := r.Group("/admin", authenticate, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users", h.Admin.ListUsers)
	admin.POST("/add-user", h.Admin.AddUser)
	admin.PATCH("/users/:id", h.Admin.UpdateRole)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	r.POST("/auth/admin/add-user", authenticate, middleware.RequireRole(domain.RoleAdmin), h.Admin.AddUser)

	r.GET("/volunteers", authenticate, middleware.RequireRole(domain.RoleNGO), h.Directory.ListVolunteers)
	r.GET("/volunteers/:id/documents/:kind", authenticate,
		middleware.RequireRole(domain.RoleNGO, domain.RoleAdmin), h.Directory.VolunteerDocument)
	r.GET("/ngos", authenticate, middleware.RequireRole(domain.RoleVolunteer), h.Directory.ListNGOs)

	return r
}

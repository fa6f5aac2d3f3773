package bootstrap

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/furniscan/furniscan-backend/internal/api/http"
	"github.com/furniscan/furniscan-backend/internal/api/http/middleware"
	"github.com/furniscan/furniscan-backend/internal/auth"
	"github.com/furniscan/furniscan-backend/internal/export"
	"github.com/furniscan/furniscan-backend/internal/projects"
	"github.com/furniscan/furniscan-backend/internal/scans"
	"github.com/furniscan/furniscan-backend/internal/storage"
	"github.com/furniscan/furniscan-backend/internal/users"
	"github.com/furniscan/furniscan-backend/internal/ws"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	DB             *pgxpool.Pool
	Redis          *redis.Client
	Verifier       auth.TokenVerifier
	AuthService    *auth.Service
	Storage        *storage.Client
	ScanService    *scans.Service
	ExportService  *export.Service
	ExportLogs     *export.LogRepository
	Hub            *ws.Hub
	Logger         *slog.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.AllowedOrigins) == 1 && dep.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = dep.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	userRepo := users.NewRepo(dep.DB)
	projectRepo := projects.NewRepo(dep.DB)
	requireUser := auth.RequireUser(dep.Verifier, userRepo)

	auth.Register(api.Group("/auth"), dep.AuthService, userRepo, requireUser)

	projectsGroup := api.Group("/projects")
	projectsGroup.Use(requireUser)
	projects.Register(projectsGroup, projectRepo, dep.Storage, dep.Logger)
	export.Register(projectsGroup, dep.ExportService, projectRepo, dep.ExportLogs)

	scansGroup := api.Group("/scans")
	scansGroup.Use(requireUser)
	scans.Register(scansGroup, dep.ScanService, projectRepo, dep.Hub, dep.Logger)

	return r
}

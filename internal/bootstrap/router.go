package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http/middleware"
	nfthttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/http"
	projecthttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Health         map[string]httpapi.Pinger

	// Auth guards every route that acts for a user.
	Auth gin.HandlerFunc
	// GenerateLimit throttles endpoints that call the generator or composite.
	GenerateLimit *middleware.IPRateLimiter

	Projects *projecthttp.Handler
	NFTs     *nfthttp.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.RecoveryMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     dep.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Id", "X-Request-Id"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Health)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	dep.NFTs.RegisterPublicRoutes(api)

	authed := api.Group("")
	authed.Use(dep.Auth)

	var limited []gin.HandlerFunc
	if dep.GenerateLimit != nil {
		limited = append(limited, middleware.RateLimitMiddleware(dep.GenerateLimit))
	}

	projects := authed.Group("/projects")
	dep.Projects.Register(projects, limited...)
	dep.NFTs.RegisterProjectRoutes(projects, limited...)

	dep.Projects.RegisterExtract(authed)
	dep.NFTs.RegisterRoutes(authed, limited...)

	return r
}

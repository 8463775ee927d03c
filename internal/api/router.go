package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storeline/commerce-api/internal/api/handler"
	"github.com/storeline/commerce-api/internal/api/middleware"
	"github.com/storeline/commerce-api/internal/core/ports"
	"github.com/storeline/commerce-api/internal/core/service"
	"github.com/storeline/commerce-api/internal/infrastructure/config"
	mongodb "github.com/storeline/commerce-api/internal/infrastructure/db/mongo"
	redisdb "github.com/storeline/commerce-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, mailQueue ports.MailQueue, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("storefront"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	codec := service.NewTokenCodec(cfg.JWTSessionSecret, cfg.JWTResetSecret)
	dispatcher := service.NewDispatcher(userRepo, hasher, codec)
	denylist := redisdb.NewTokenDenylist(rdb)
	limiter := redisdb.NewLoginLimiter(rdb)

	authService := service.NewAuthService(userRepo, hasher, codec, dispatcher, denylist, limiter, mailQueue, log)
	userService := service.NewUserService(userRepo, hasher, codec, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	authMW := middleware.Auth(authService, log)
	adminMW := middleware.RequireAdmin()

	// --- Public auth routes ---
	e.POST("/api/users/register", authHandler.Register)
	e.POST("/api/users/login", authHandler.Login)
	e.POST("/api/users/reset-password", authHandler.RequestPasswordReset)
	e.PUT("/api/users/reset-password/:token", authHandler.ResetPassword)

	// --- Authenticated self-service ---
	e.GET("/api/users/profile", userHandler.Profile, authMW)
	e.PUT("/api/users/profile", userHandler.UpdateProfile, authMW)

	// --- Admin-only user management ---
	e.GET("/api/users", userHandler.List, authMW, adminMW)
	e.GET("/api/users/:id", userHandler.Get, authMW, adminMW)
	e.DELETE("/api/users/:id", userHandler.Delete, authMW, adminMW)
	e.PUT("/api/users/:id/role", userHandler.SetRole, authMW, adminMW)
	e.GET("/api/dashboard", userHandler.Dashboard, authMW, adminMW)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/joho/godotenv"

	"saasbase/internal/caching"
	"saasbase/internal/handlers"
	"saasbase/internal/jobs/background"
	"saasbase/internal/middleware"
	"saasbase/internal/repositories"
	"saasbase/internal/services"
	"saasbase/pkg/database"
)

const version = "1.0.0"

func main() {
	// Load .env in development; missing file is fine
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}
	tokenTTL := envInt("TOKEN_TTL_SECONDS", 900)
	refreshTTL := envInt("REFRESH_TTL_SECONDS", 30*24*3600)

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := envInt("REDIS_DB", 0)

	// MinIO configuration
	minioEndpoint := envOr("MINIO_ENDPOINT", "localhost:9000")
	minioAccessKey := envOr("MINIO_ACCESS_KEY", "minioadmin")
	minioSecretKey := envOr("MINIO_SECRET_KEY", "minioadmin")
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"

	avatarSvc, err := services.NewAvatarService(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize avatar storage: %v", err)
	}
	if err := avatarSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARNING: could not ensure avatar bucket: %v", err)
	}

	// Store and repositories
	store := repositories.NewStore(pool)

	// Cache, notifications
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)
	notificationSvc := services.NewNotificationService(redisAddr, redisPassword, redisDB)

	// Core services
	membershipSvc := services.NewMembershipService(store, cacheSvc, cacheSvc, notificationSvc)
	identityBinder := services.NewIdentityBinder(store)
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, tokenTTL, refreshTTL)

	// Background jobs: invitation expiry and tenant purge
	scheduler, err := background.NewJobScheduler(store)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, identityBinder, store.Users(), cacheSvc)
	tenantHandlers := handlers.NewTenantHandlers(membershipSvc)
	membershipHandlers := handlers.NewMembershipHandlers(membershipSvc, store.Users())
	profileHandlers := handlers.NewProfileHandlers(avatarSvc, store.Users())

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", handlers.HealthCheck)
	e.GET("/health/ready", handlers.ReadinessCheck)
	e.GET("/health/detailed", func(c echo.Context) error {
		return handlers.HealthCheckDetailed(c, pool)
	})

	// API routes
	v1 := e.Group("/v1")

	// Authentication routes (no JWT required for signup/login)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))

	protected.GET("/me", authHandlers.Me)
	protected.POST("/me/avatar", profileHandlers.UploadAvatar)
	protected.GET("/me/avatar", profileHandlers.GetAvatar)

	// Tenant routes
	protected.POST("/tenants", tenantHandlers.CreateTenant)
	protected.GET("/tenants", tenantHandlers.ListTenants)
	protected.GET("/tenants/:id", tenantHandlers.GetTenant)
	protected.PUT("/tenants/:id", tenantHandlers.UpdateTenant)
	protected.DELETE("/tenants/:id", tenantHandlers.DeleteTenant)
	protected.POST("/tenants/:id/switch", tenantHandlers.SwitchTenant)

	// Membership & invitation routes
	protected.GET("/tenants/:id/members", membershipHandlers.ListMembers)
	protected.POST("/tenants/:id/invitations", membershipHandlers.Invite)
	protected.GET("/invitations", membershipHandlers.ListInvitations)
	protected.POST("/memberships/:id/accept", membershipHandlers.Accept)
	protected.POST("/memberships/:id/decline", membershipHandlers.Decline)
	protected.DELETE("/memberships/:id", membershipHandlers.Remove)
	protected.POST("/memberships/:id/transfer", membershipHandlers.Transfer)

	// Start server
	port := envInt("PORT", 8080)
	log.Printf("saasbase server v%s starting on port %d", version, port)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := e.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

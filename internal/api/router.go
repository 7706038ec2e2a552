package api

import (
	"database/sql"
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/api/handler"
	"github.com/opsgate/identity/internal/api/middleware"
	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/service"
	"github.com/opsgate/identity/internal/infrastructure/config"
	"github.com/opsgate/identity/internal/infrastructure/crypto"
	"github.com/opsgate/identity/internal/infrastructure/db/postgres"
	redisdb "github.com/opsgate/identity/internal/infrastructure/db/redis"
	"github.com/opsgate/identity/internal/infrastructure/queue"
	"github.com/opsgate/identity/internal/infrastructure/secrets"
)

// NewRouter builds the Echo instance with all routes registered. The
// returned dispatcher must be started by the caller and closed on
// shutdown so buffered audit entries drain.
func NewRouter(db *sql.DB, rdb *goredis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, *queue.AuditDispatcher, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Persistence ---
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	secretRepo := postgres.NewTenantSecretRepository(db)

	// --- Audit pipeline ---
	dispatcher := queue.NewAuditDispatcher(cfg.AuditWorkers, auditRepo, log)
	auditService := service.NewAuditService(dispatcher, log)

	// --- Secrets ---
	box, err := crypto.NewBox(cfg.SecretboxKey)
	if err != nil {
		return nil, nil, fmt.Errorf("secretbox key: %w", err)
	}
	secretProvider := secrets.NewCachingProvider(secretRepo, box, secrets.DefaultCacheTTL, log)

	// --- Services ---
	accountService := service.NewAccountService(userRepo, auditService, service.Policy{}, log)
	roleService := service.NewRoleService(roleRepo, log)
	loginService := service.NewLoginService(userRepo, accountService, roleService, auditService, log)
	replayGuard := redisdb.NewReplayGuard(rdb)
	webhookService := service.NewWebhookService(secretProvider, replayGuard, auditService, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(accountService, loginService, cfg.JWTSecret, cfg.JWTTTL)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	roleHandler := handler.NewRoleHandler(roleService, auditService)
	userHandler := handler.NewUserHandler(accountService, auditService)
	tenantHandler := handler.NewTenantHandler(secretProvider, auditService)

	authed := middleware.Auth(cfg.JWTSecret)
	tenantAdmin := middleware.RequireRole(roleService, domain.RoleTenantAdmin)
	superAdmin := middleware.RequireRole(roleService, domain.RoleSuperAdmin)
	selfOrAdmin := middleware.SelfOrRole(roleService, domain.RoleTenantAdmin)

	// --- Auth routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)
	e.PUT("/v1/auth/password", authHandler.ChangePassword, authed)

	// --- Webhooks (authenticated by signature, not by JWT) ---
	e.POST("/v1/webhooks/:tool", webhookHandler.Receive)

	// --- Tenant administration ---
	e.PUT("/v1/tenants/:tenant/users/:user/role", roleHandler.Assign, authed, tenantAdmin)
	e.DELETE("/v1/tenants/:tenant/users/:user/role", roleHandler.Revoke, authed, tenantAdmin)
	e.PUT("/v1/tenants/:tenant/secret", tenantHandler.SetSecret, authed, superAdmin)

	// --- User administration ---
	e.GET("/v1/users/:user/roles", roleHandler.List, authed, selfOrAdmin)
	e.GET("/v1/users/:user/auth-events", userHandler.AuthEvents, authed, selfOrAdmin)
	e.DELETE("/v1/users/:user", userHandler.Delete, authed, superAdmin)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, dispatcher, nil
}

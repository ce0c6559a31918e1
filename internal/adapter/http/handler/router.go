package handler

import (
	"btc-fund-manager/internal/adapter/http/middleware"
	redisStore "btc-fund-manager/internal/adapter/storage/redis"
	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	ClientSvc      ports.ClientService
	TransactionSvc ports.TransactionService
	BalanceSvc     ports.BalanceService
	PriceSource    ports.PriceSource
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	authHandler := NewAuthHandler(deps.AuthSvc)
	clientHandler := NewClientHandler(deps.ClientSvc)
	txHandler := NewTransactionHandler(deps.TransactionSvc)
	balanceHandler := NewBalanceHandler(deps.BalanceSvc, deps.PriceSource)

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	v1.GET("/public/btc-price", rl("public"), balanceHandler.BTCPrice)

	auth := v1.Group("/auth")
	{
		auth.POST("/admin/login", rl("auth_login"), authHandler.AdminLogin)
		auth.POST("/login", rl("auth_login"), authHandler.ClientLogin)
		auth.POST("/signup", rl("auth_signup"), authHandler.Signup)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	// --- Back office (ADMIN) ---
	admin := v1.Group("", jwtAuth, middleware.RequireRole(domain.RoleAdmin), rl("api"))
	{
		admin.GET("/clients", clientHandler.List)
		admin.POST("/clients", clientHandler.Create)
		admin.GET("/clients/:id", clientHandler.Get)
		admin.PUT("/clients/:id", clientHandler.Update)
		admin.DELETE("/clients/:id", clientHandler.Delete)
		admin.GET("/clients/:id/transactions", txHandler.List)
		admin.POST("/clients/:id/transactions", txHandler.Record)
		admin.GET("/clients/:id/balance", balanceHandler.ClientBalance)
		admin.GET("/fund/stats", balanceHandler.FundStats)
	}

	// --- Client self-service (CLIENT) ---
	me := v1.Group("/me", jwtAuth, middleware.RequireRole(domain.RoleClient), rl("api"))
	{
		me.GET("", clientHandler.Me)
		me.GET("/balance", balanceHandler.MyBalance)
		me.GET("/transactions", txHandler.ListMine)
		me.POST("/transactions", txHandler.RecordMine)
	}

	return r
}

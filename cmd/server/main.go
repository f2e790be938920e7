package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	sessionsredis "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ElectricBrains530/atomic-crm/internal/auth"
	"github.com/ElectricBrains530/atomic-crm/internal/config"
	"github.com/ElectricBrains530/atomic-crm/internal/constants"
	"github.com/ElectricBrains530/atomic-crm/internal/database"
	"github.com/ElectricBrains530/atomic-crm/internal/handlers"
	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/logger"
	"github.com/ElectricBrains530/atomic-crm/internal/membership"
	"github.com/ElectricBrains530/atomic-crm/internal/middleware"
	"github.com/ElectricBrains530/atomic-crm/internal/recordstore"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
	"github.com/ElectricBrains530/atomic-crm/internal/services"
	"github.com/ElectricBrains530/atomic-crm/internal/session"
	"github.com/ElectricBrains530/atomic-crm/internal/tenant"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to the trusted store
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Redis backs both the cookie sessions and the active-context store
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	tenantStore := tenant.NewRedisStore(redisClient)

	// Repositories
	db := database.GetDB()
	memberRepo := repository.NewOrgMemberRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	initRepo := repository.NewInitStateRepository(db)
	authUserRepo := repository.NewAuthUserRepository(db)

	// Identity provider
	var identities idp.Provider
	switch cfg.IdentityProvider {
	case "http":
		identities = idp.NewHTTPProvider(cfg.IdentityBaseURL, cfg.IdentityServiceKey)
	default:
		identities = idp.NewLocalProvider(authUserRepo, cfg.JWTSecret)
	}

	// Record store clients. The tenant client stamps every request with the
	// caller's active organization; the admin client bypasses scoping and
	// stays behind the privileged service.
	orgSource := recordstore.OrgSourceFunc(tenant.RequestSource(tenantStore, appLog.WithField("component", "tenant")))
	recordClient, err := recordstore.New(cfg.RecordStoreURL, cfg.RecordStoreAPIKey, orgSource, appLog.WithField("component", "recordstore"))
	if err != nil {
		log.Fatalf("Failed to create record store client: %v", err)
	}

	// Membership resolution and authorization
	source := membership.NewRecordStoreSource(recordClient)
	resolver := membership.NewResolver(source, tenantStore, session.ContextReader{}, appLog.WithField("component", "membership"))
	provider := auth.NewProvider(resolver, initRepo, appLog.WithField("component", "auth"))

	// Services
	provisioner := services.NewGormProvisioner(memberRepo, employeeRepo)
	userService := services.NewUserService(memberRepo, employeeRepo, identities, provisioner, appLog.WithField("component", "users"))
	authService := services.NewAuthService(identities, orgRepo, memberRepo, employeeRepo, initRepo, appLog.WithField("component", "auth"))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, provider, tenantStore, appLog.WithField("component", "auth"))
	userHandler := handlers.NewUserHandler(userService, appLog.WithField("component", "users"))
	recordHandler := handlers.NewRecordHandler(recordClient, appLog.WithField("component", "records"))

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	store, err := sessionsredis.NewStore(
		10,
		"tcp",
		cfg.RedisAddr(),
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis session store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(middleware.SessionCaller())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Privileged user-management endpoint. Called cross-origin with a bearer
	// token, never the cookie session, so it sits outside the session gate
	// and carries its own CORS policy.
	users := r.Group("/api/users")
	users.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", constants.OrganizationHeader},
		AllowCredentials: false,
	}))
	users.Any("", userHandler.Handle)

	// API routes
	api := r.Group("/api")
	api.Use(middleware.CheckAuth(provider, identities, appLog.WithField("component", "middleware")))
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/sign-up", authHandler.SignUp)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", middleware.RequireAuth(), authHandler.Me)
			authRoutes.POST("/switch-organization", middleware.RequireAuth(), authHandler.SwitchOrganization)
			authRoutes.POST("/can-access", middleware.RequireAuth(), authHandler.CanAccess)
		}

		records := api.Group("/records")
		records.Use(middleware.RequireAuth())
		{
			records.GET("/:collection", recordHandler.Query)
			records.POST("/:collection", recordHandler.Insert)
			records.PATCH("/:collection", recordHandler.Update)
		}

		rpc := api.Group("/rpc")
		rpc.Use(middleware.RequireAuth())
		{
			rpc.POST("/:fn", recordHandler.RPC)
		}
	}

	// Start server
	appLog.WithField("addr", cfg.Addr()).Info("server starting")
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

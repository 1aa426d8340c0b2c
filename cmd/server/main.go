package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"campusstay_echo/internal/config"
	"campusstay_echo/internal/handlers"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/middleware"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

func main() {
	applog.Init("server")
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		applog.Log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		applog.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		applog.Log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Firebase backs sessions, account activation and (optionally) uploads
	var (
		sessions services.SessionAuthenticator
		identity services.IdentityProvisioner
		store    services.FileStore
	)
	app, err := services.InitFirebase(cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
	if err != nil {
		applog.Log.Warnf("Firebase initialization failed: %v", err)
		applog.Log.Warn("Auth features will not work until valid credentials are provided")
	} else if fb, err := services.NewFirebaseIdentity(app); err != nil {
		applog.Log.Warnf("Firebase auth unavailable: %v", err)
	} else {
		sessions = fb
		identity = fb
	}
	if app != nil && cfg.FirebaseStorageBucket != "" {
		store = services.NewBucketFileStore(app)
	} else {
		local, err := services.NewLocalFileStore(cfg.UploadDir)
		if err != nil {
			applog.Log.Fatalf("Failed to prepare upload directory: %v", err)
		}
		store = local
	}

	var flashes services.FlashStore = services.NewMemoryFlashStore()
	if cfg.RedisURL != "" {
		cache, err := services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			applog.Log.Warnf("Redis unavailable, keeping flash messages in memory: %v", err)
		} else {
			defer cache.Close()
			flashes = services.NewRedisFlashStore(cache, cfg.FlashMessageTTL)
		}
	}

	levy := services.LevySettingsFromConfig(cfg)
	gateway := services.NewPaystackService(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.GatewayTimeout)
	accounts := services.NewAccountService(db, identity, cfg.InviteTokenTTL)

	authHandler := handlers.NewAuthHandler(sessions, cfg)
	dashboardHandler := handlers.NewDashboardHandler(db, flashes)
	roomHandler := handlers.NewRoomHandler(services.NewRoomService(db, levy), flashes)
	levyHandler := handlers.NewLevyHandler(services.NewLevyService(db, gateway, levy), cfg.PaystackPublicKey)
	bookingHandler := handlers.NewBookingHandler(services.NewBookingService(db))
	documentHandler := handlers.NewDocumentHandler(services.NewDocumentService(db, store, services.DocumentLimits{
		OwnerDocMaxBytes:  cfg.OwnerDocMaxBytes,
		AgreementMaxBytes: cfg.AgreementMaxBytes,
	}))
	confirmationHandler := handlers.NewConfirmationHandler(services.NewConfirmationService(db, gateway), flashes)
	accountHandler := handlers.NewAccountHandler(accounts)
	preferenceHandler := handlers.NewUserPreferenceHandler(db)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.CustomErrorHandler

	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("25M"))

	e.Static("/static", "web/static")

	// Public routes
	e.GET("/login", authHandler.LoginPage)
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)
	e.GET("/accounts/activate", accountHandler.ActivatePage)
	e.POST("/accounts/activate", accountHandler.Activate)

	// Protected routes
	protected := e.Group("")
	protected.Use(middleware.RequireAuth(sessions, accounts))
	protected.GET("/", handlers.Home)
	protected.GET("/payments/confirmation", confirmationHandler.Show)
	protected.GET("/account/notifications", preferenceHandler.GetUserPreference)
	protected.POST("/account/notifications", preferenceHandler.UpdateUserPreference)

	owner := protected.Group("/owner", middleware.RequireRole(models.RolePropertyOwner))
	owner.GET("/dashboard", dashboardHandler.OwnerDashboard)
	owner.POST("/rooms", roomHandler.RegisterRoom)
	owner.POST("/levy/intents", levyHandler.BuildIntent)
	owner.GET("/levy/intents/:reference", levyHandler.GetIntent)
	owner.POST("/levy/verify", levyHandler.Verify)
	owner.POST("/bookings/cash", bookingHandler.RecordCashPayment)
	owner.POST("/documents", documentHandler.SubmitOwnerDocuments)
	owner.POST("/agreements", documentHandler.UploadAgreement)

	student := protected.Group("/student", middleware.RequireRole(models.RoleStudent))
	student.GET("/dashboard", dashboardHandler.StudentDashboard)

	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.POST("/owner-documents/:owner_id/review", documentHandler.ReviewOwnerDocuments)

	go func() {
		applog.Log.Infof("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		applog.Log.Errorf("Graceful shutdown failed: %v", err)
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usermgmt/api/handler"
	apiMiddleware "usermgmt/api/middleware"
	"usermgmt/api/routes"
	"usermgmt/config"
	"usermgmt/internal/repository"
	"usermgmt/internal/repository/memory"
	"usermgmt/internal/service"
	"usermgmt/internal/utils"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.LogrusLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}

	jwtManager := utils.JWTManager{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		SessionTTL: cfg.SessionTTL,
	}
	credentials := service.NewCredentialStore(store, service.BcryptPasswordHasher{Cost: cfg.BcryptCost}, cfg.HashConcurrency)
	roles := service.NewRoleRegistry(store)

	authService := service.NewAuthService(
		store,
		credentials,
		roles,
		service.JWTSessionIssuer{Manager: &jwtManager},
		service.NewTOTPProvider(cfg.MFAIssuer),
		service.RealClock{},
		logger,
		service.AuthConfig{UniformSignInErrors: cfg.UniformSignInErrors},
	)
	adminService := service.NewAdminService(store, roles, logger)

	if cfg.BootstrapAdminEmail != "" {
		admin, err := authService.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			logger.WithError(err).Fatal("bootstrap admin")
		}
		logger.WithField("user_id", admin.ID).Info("bootstrap admin ready")
	}

	validate := handler.NewValidator()
	authHandler := handler.NewAuthHandler(authService, validate, logger)
	adminHandler := handler.NewAdminHandler(adminService, logger)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{Resolver: authService}
	router := routes.NewRouter(app, authHandler, adminHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := serve(ctx, app, server, shutdownTimeout, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func openStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (repository.Store, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(), nil
	}
	db, err := config.ConnectionDb(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")
	return repository.NewGormStore(db, cfg.DatastoreTimeout), nil
}

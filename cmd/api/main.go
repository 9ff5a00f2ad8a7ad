package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/portal-api/internal/config"
	"github.com/carebridge/portal-api/internal/handler"
	"github.com/carebridge/portal-api/internal/middleware"
	"github.com/carebridge/portal-api/internal/repository/postgres"
	"github.com/carebridge/portal-api/internal/router"
	authService "github.com/carebridge/portal-api/internal/service/auth"
	doctorService "github.com/carebridge/portal-api/internal/service/doctor"
	invitationService "github.com/carebridge/portal-api/internal/service/invitation"
	joinrequestService "github.com/carebridge/portal-api/internal/service/joinrequest"
	matcherService "github.com/carebridge/portal-api/internal/service/matcher"
	notificationService "github.com/carebridge/portal-api/internal/service/notification"
	practiceService "github.com/carebridge/portal-api/internal/service/practice"
	"github.com/carebridge/portal-api/pkg/auth"
	"github.com/carebridge/portal-api/pkg/logger"
	redisbroker "github.com/carebridge/portal-api/pkg/messaging/redis"
	"github.com/carebridge/portal-api/pkg/metrics"
	"github.com/carebridge/portal-api/pkg/realtime"
)

func main() {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database.DSN())
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to message broker")
	}
	defer broker.Close()

	m := metrics.NewMetrics("portal", "api")
	hub := realtime.NewHub(broker, log)

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	practiceRepo := postgres.NewPracticeRepository(base)
	staffRepo := postgres.NewStaffRepository(base)
	invitationRepo := postgres.NewInvitationRepository(base)
	joinRequestRepo := postgres.NewJoinRequestRepository(base)
	doctorRepo := postgres.NewDoctorRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})

	authSvc := authService.NewService(userRepo, jwtSvc, log)
	practiceSvc := practiceService.NewService(practiceRepo, staffRepo, log)
	notificationSvc := notificationService.NewService(notificationRepo, hub, log)
	invitationSvc := invitationService.NewService(invitationRepo, practiceSvc, outboxRepo, notificationSvc, cfg.Portal.SiteURL, log)
	joinRequestSvc := joinrequestService.NewService(joinRequestRepo, staffRepo, practiceSvc, notificationSvc, log)
	doctorSvc := doctorService.NewService(doctorRepo, hub, log)

	gateway := matcherService.NewGatewayClient(matcherService.GatewayConfig{
		URL:     cfg.Matcher.GatewayURL,
		APIKey:  cfg.Matcher.APIKey,
		Model:   cfg.Matcher.Model,
		Timeout: cfg.Matcher.Timeout,
	})
	matcherSvc := matcherService.NewService(gateway, m, log)

	handlers := router.Handlers{
		Health:       handler.NewHealthHandler(db),
		Auth:         handler.NewAuthHandler(authSvc),
		Practice:     handler.NewPracticeHandler(practiceSvc),
		Invitation:   handler.NewInvitationHandler(invitationSvc),
		JoinRequest:  handler.NewJoinRequestHandler(joinRequestSvc),
		Doctor:       handler.NewDoctorHandler(doctorSvc, hub, m),
		Notification: handler.NewNotificationHandler(notificationSvc, hub, m),
		Matcher:      handler.NewMatcherHandler(matcherSvc),
	}

	engine := router.New(cfg, handlers, middleware.NewAuthMiddleware(authSvc), log, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}
	log.Info("server stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/carebridge/portal-api/internal/config"
	"github.com/carebridge/portal-api/internal/email"
	"github.com/carebridge/portal-api/internal/repository/postgres"
	"github.com/carebridge/portal-api/pkg/logger"
	redisbroker "github.com/carebridge/portal-api/pkg/messaging/redis"
	"github.com/carebridge/portal-api/pkg/metrics"
	"github.com/carebridge/portal-api/pkg/worker"
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

	m := metrics.NewMetrics("portal", "worker")

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	invitationRepo := postgres.NewInvitationRepository(base)

	mailer := worker.NewInvitationMailer(broker, email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}), log)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxConfig{
		BatchSize:     cfg.Worker.BatchSize,
		PollInterval:  cfg.Worker.PollInterval,
		RetryAttempts: cfg.Worker.RetryAttempts,
		RetryDelay:    cfg.Worker.RetryDelay,
	}, m, log)

	sweeper := worker.NewInvitationSweeper(invitationRepo, cfg.Worker.SweepInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := mailer.Run(ctx); err != nil {
			log.Error(err, "invitation mailer failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	cancel()
	wg.Wait()
	log.Info("worker stopped")
}

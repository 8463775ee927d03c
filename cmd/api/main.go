// Command api is the entry point for the storefront commerce API server.
//
// Startup wires the stack in dependency order: logger, configuration,
// MongoDB (with index bootstrap), Redis, the SMTP mail dispatcher, and
// finally the HTTP router. No business logic lives here.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/storeline/commerce-api/internal/api"
	"github.com/storeline/commerce-api/internal/infrastructure/config"
	mongodb "github.com/storeline/commerce-api/internal/infrastructure/db/mongo"
	redisdb "github.com/storeline/commerce-api/internal/infrastructure/db/redis"
	"github.com/storeline/commerce-api/internal/infrastructure/mail"
	"github.com/storeline/commerce-api/internal/infrastructure/queue"
	"github.com/storeline/commerce-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; there is nothing better than a panic here.
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index bootstrap failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	mailer := mail.New(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Pass:     cfg.SMTP.Pass,
		From:     cfg.SMTP.From,
		Security: cfg.SMTP.Security,
		ResetURL: cfg.SMTP.ResetURL,
	}, log)

	mailQueue := queue.NewMailDispatcher(cfg.MailWorkers, mailer, log)
	mailQueue.Start(ctx)

	e := api.NewRouter(db, rdb, cfg, mailQueue, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/platformkit/identity-service/internal/cache"
	"github.com/platformkit/identity-service/internal/config"
	"github.com/platformkit/identity-service/internal/database"
	"github.com/platformkit/identity-service/internal/filestore"
	"github.com/platformkit/identity-service/internal/modules/user"
	"github.com/platformkit/identity-service/internal/notification"
	"github.com/platformkit/identity-service/internal/notification/templates"
	"github.com/platformkit/identity-service/internal/otp"
	"github.com/platformkit/identity-service/internal/server"
	"github.com/platformkit/identity-service/internal/token"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// --- Database & Cache ---
		dbPool := database.NewPostgresPool(cfg.Database.URL)
		if dbPool == nil {
			logger.Error("failed to connect to postgres")
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")

		redisClient := cache.NewRedisClient(cfg.Redis.URL)
		if redisClient == nil {
			logger.Error("failed to connect to redis")
			os.Exit(1)
		}
		hooks.OnStop(func() { redisClient.Close() })
		logger.Info("successfully connected to redis")

		// --- Shared services ---
		tokens := token.NewService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

		emailSender := notification.NewSMTPEmailSender(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger,
		)
		notifier := notification.NewService(logger, emailSender)
		templateEngine := templates.NewEngine()

		avatarStore, err := filestore.NewCloudinaryStore(
			cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret,
		)
		if err != nil {
			logger.Error("failed to initialize avatar store", "error", err)
			os.Exit(1)
		}

		codeIssuer := otp.NewIssuer(
			otp.NewPostgresStore(dbPool),
			otp.NewRedisCooldown(redisClient),
			otp.Config{
				TTL:            time.Duration(cfg.OTP.TTLMinutes) * time.Minute,
				CodeLength:     cfg.OTP.CodeLength,
				ResendCooldown: time.Duration(cfg.OTP.ResendCooldownSeconds) * time.Second,
			},
			logger,
		)

		// --- User module ---
		userRepo := user.NewRepository(dbPool)
		userService := user.NewService(&user.Config{
			Repo:      userRepo,
			Codes:     codeIssuer,
			Tokens:    tokens,
			Tickets:   user.NewRedisTicketStore(redisClient),
			Notifier:  notifier,
			Templates: templateEngine,
			Files:     avatarStore,
			Logger:    logger,
			Config:    cfg,
		})

		router := server.New(cfg, logger, userService, tokens)
		hooks.OnStart(func() {
			// Garbage-collect abandoned federation round-trips.
			go func() {
				ticker := time.NewTicker(time.Hour)
				defer ticker.Stop()
				for range ticker.C {
					if err := userRepo.DeleteExpiredOAuthStates(context.Background()); err != nil {
						logger.Warn("oauth state cleanup failed", "error", err)
					}
				}
			}()

			logger.Info(fmt.Sprintf("Starting server on port %d...", options.Port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", options.Port), router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	"github.com/khdigital94/hdforms/internal/admin"
	"github.com/khdigital94/hdforms/internal/auth"
	"github.com/khdigital94/hdforms/internal/config"
	"github.com/khdigital94/hdforms/internal/database"
	"github.com/khdigital94/hdforms/internal/formatter"
	"github.com/khdigital94/hdforms/internal/forms"
	"github.com/khdigital94/hdforms/internal/httpapi"
	"github.com/khdigital94/hdforms/internal/intake"
	"github.com/khdigital94/hdforms/internal/mailer"
	"github.com/khdigital94/hdforms/internal/notify"
	"github.com/khdigital94/hdforms/internal/ratelimit"
	"github.com/khdigital94/hdforms/internal/telegram"
	"github.com/khdigital94/hdforms/internal/upload"
)

const (
	csrfMaxAge      = 12 * time.Hour
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting hd forms server", "addr", cfg.HTTPAddr)

	// Connect to database
	db, err := database.New(cfg.DatabasePath, cfg.TablePrefix)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	loc := cfg.Location()

	// Rate limiting
	limiter := ratelimit.NewLimiter(db, logger)
	limiter.StartJanitor(ctx, cfg.SweepInterval)

	burst := ratelimit.NewBurstStore(cfg.BurstRPS, cfg.BurstSize, cfg.BurstIdleTTL)
	burst.StartJanitor(ctx, cfg.BurstIdleTTL)

	// Intake statistics (optional)
	var stats ratelimit.StatsRecorder
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, intake statistics disabled", "error", err)
		} else {
			stats = ratelimit.NewRedisStats(rdb, cfg.StatsPrefix, cfg.StatsTTL)
			logger.Info("intake statistics enabled", "addr", cfg.RedisAddr)
		}
		pingCancel()
	}

	// Create components
	uploads := upload.NewStore(cfg.UploadDir, cfg.PublicBaseURL, logger)
	registry := forms.NewRegistry(db, logger)
	console := admin.NewService(db, uploads, admin.Defaults{
		FromName:  cfg.SiteName,
		FromEmail: cfg.AdminEmail,
	}, loc, logger)

	// Mail delivery (optional)
	var sender notify.Sender
	if cfg.SMTPEnabled() {
		var archive mailer.Archiver
		if cfg.IMAPArchiveEnabled() {
			archive = mailer.NewIMAPArchive(mailer.IMAPConfig{
				Server:      cfg.IMAPArchiveServer,
				Username:    cfg.IMAPArchiveUsername,
				Password:    cfg.IMAPArchivePassword,
				Mailbox:     cfg.IMAPArchiveMailbox,
				DialTimeout: cfg.IMAPDialTimeout,
			}, logger)
			logger.Info("imap archive enabled", "mailbox", cfg.IMAPArchiveMailbox)
		}
		sender = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, archive, logger)
		logger.Info("smtp delivery enabled", "host", cfg.SMTPHost)
	} else {
		logger.Warn("SMTP_HOST not set, email notifications disabled")
	}

	// Telegram alerts (optional)
	var alerters []notify.Alerter
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(telegram.BotDeps{
			Token:     cfg.TelegramToken,
			ChatID:    cfg.TelegramChatID,
			TopicID:   cfg.TelegramTopicID,
			Console:   console,
			Formatter: formatter.NewTelegramFormatter(loc),
			Logger:    logger,
		})
		if err != nil {
			logger.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		alerters = append(alerters, bot)
		go bot.Start(ctx)
	}

	dispatcher := notify.NewDispatcher(console, sender, loc, logger, alerters...)
	intakeSvc := intake.NewService(limiter, db, dispatcher, stats, logger)

	router := httpapi.New(httpapi.Deps{
		Intake:     intakeSvc,
		Uploads:    uploads,
		Forms:      registry,
		Admin:      console,
		CSRF:       auth.NewCSRF([]byte(cfg.CSRFKey), csrfMaxAge),
		Burst:      burst,
		JWTSecret:  cfg.JWTSecret,
		TrustProxy: cfg.TrustProxyHeaders,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Setup graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		logger.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("server is running, press Ctrl+C to stop")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"communityevents/config"
	_ "communityevents/docs"
	authadapter "communityevents/internal/adapters/auth"
	"communityevents/internal/adapters/email"
	"communityevents/internal/adapters/ical"
	httpdelivery "communityevents/internal/delivery/http"
	"communityevents/internal/delivery/http/controllers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
	"communityevents/internal/live"
	"communityevents/internal/repository/postgres"
	"communityevents/internal/seed"
	"communityevents/internal/services"
)

const (
	serviceTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	bcryptCost      = 12
)

// @title Community Events API
// @version 1.0
// @description REST API for community events: event management, attendance, comments with scores, live snapshots, and a creator dashboard.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer " followed by the JWT.
func main() {
	app := &cli.App{
		Name:  "eventsd",
		Usage: "Community events API server.",
		Commands: []*cli.Command{
			serveCommand(),
			seedCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger := config.NewLogger(cfg.Environment)

			db, err := openDB(cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("connected to database")

			eventRepo := postgres.NewEventRepository(db)
			commentRepo := postgres.NewCommentRepository(db)
			userRepo := postgres.NewUserRepository(db)
			reminderRepo := postgres.NewReminderRepository(db)

			eventBroker := live.NewBroker[[]*domain.Event]()
			commentHub := live.NewHub[[]*domain.Comment]()

			mailer, err := email.NewMailer(email.MailerConfig{
				Provider:    cfg.Mailer.Provider,
				FromAddress: cfg.Mailer.FromAddress,
				FromName:    cfg.Mailer.FromName,
				SES: email.SESConfig{
					Region:          cfg.Mailer.SESRegion,
					AccessKeyID:     cfg.Mailer.SESAccessKeyID,
					SecretAccessKey: cfg.Mailer.SESSecretKey,
				},
			})
			if err != nil {
				return fmt.Errorf("creating mailer: %w", err)
			}
			emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

			issuer, verifier := authadapter.NewJWTTokens(cfg.JWTSecret)

			eventService := services.NewEventService(eventRepo, ical.NewRenderer(), eventBroker, serviceTimeout)
			commentService := services.NewCommentService(commentRepo, eventRepo, userRepo, commentHub, serviceTimeout)
			authService := services.NewAuthService(
				userRepo,
				authadapter.NewBcryptHasher(bcryptCost),
				issuer,
				authadapter.NewFederatedVerifier(
					authadapter.ProviderCredentials{ClientID: cfg.Google.ClientID, ClientSecret: cfg.Google.ClientSecret},
					authadapter.ProviderCredentials{ClientID: cfg.Facebook.ClientID, ClientSecret: cfg.Facebook.ClientSecret},
				),
				emailService,
				cfg.JWTExpiry,
			)
			dashboardService := services.NewDashboardService(eventRepo, serviceTimeout)

			reminders := services.NewReminderService(eventRepo, reminderRepo, userRepo, emailService, cfg.ReminderLead, logger)
			if err := reminders.Start(cfg.ReminderCron); err != nil {
				return fmt.Errorf("starting reminder schedule: %w", err)
			}
			defer reminders.Stop()

			mux := httpdelivery.NewRouter(
				controllers.NewEventController(logger, eventService),
				controllers.NewCommentController(logger, commentService),
				controllers.NewAuthController(logger, authService),
				controllers.NewDashboardController(logger, dashboardService),
				verifier,
			)

			var handler http.Handler = mux
			handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
			handler = middleware.LoggingMiddleware(logger, handler)

			server := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: handler,
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert sample events into an empty database.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger := config.NewLogger(cfg.Environment)

			db, err := openDB(cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = seed.Run(c.Context, logger, postgres.NewEventRepository(db))
			return err
		},
	}
}

func openDB(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

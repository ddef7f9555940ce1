package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventticketing/config"
	_ "eventticketing/docs"
	"eventticketing/internal/adapters/auth"
	"eventticketing/internal/adapters/email"
	"eventticketing/internal/adapters/payment"
	"eventticketing/internal/clock"
	"eventticketing/internal/credential"
	deliveryhttp "eventticketing/internal/delivery/http"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
	"eventticketing/internal/ical"
	"eventticketing/internal/repository/memory"
	"eventticketing/internal/repository/postgres"
	"eventticketing/internal/services"
	"eventticketing/migrations"
)

const (
	shutdownTimeout = 10 * time.Second
	devUserID       = "00000000-0000-0000-0000-000000000001"
	devUserEmail    = "dev@eventticketing.local"
)

type repositories struct {
	events      domain.EventRepository
	ticketTypes domain.TicketTypeRepository
	tickets     domain.TicketRepository
	calendar    domain.CalendarRepository
	reminders   domain.ReminderRepository
	contacts    domain.ContactDirectory
}

// @title Event Ticketing API
// @version 1.0
// @description Ticket issuance, check-in and calendar reminders for events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	clk := clock.NewSystem()
	issuer := credential.NewIssuer(cfg.CredentialSecret, cfg.ScanBaseURL)
	if cfg.CredentialSecret == "" {
		logger.Warn("CREDENTIAL_SECRET not set, ticket credentials are unsigned")
	}
	encoder := ical.NewEncoder(cfg.CalendarDomain, clk)
	payments := payment.NewAuthorizer(cfg.PaymentLimit, logger.With("component", "payments"))

	eventService := services.NewEventService(repos.events, clk, cfg.RequestTimeout)
	inventoryService := services.NewInventoryService(eventService, repos.ticketTypes, clk, cfg.RequestTimeout, logger.With("component", "inventory"))
	calendarService := services.NewCalendarService(eventService, repos.calendar, repos.reminders, encoder, clk, cfg.RequestTimeout, logger.With("component", "calendar"))
	ledgerService := services.NewLedgerService(
		eventService,
		inventoryService,
		repos.tickets,
		issuer,
		payments,
		clk,
		cfg.RequestTimeout,
		logger.With("component", "ledger"),
		services.WithCalendar(calendarService),
	)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	notifier := email.NewReminderNotifier(mailer, email.NewTemplateRenderer(), repos.contacts, logger.With("component", "notifier"))
	dispatcher := services.NewReminderDispatcher(calendarService, repos.calendar, notifier, clk, logger.With("component", "dispatcher"))

	verifier := auth.NewJWTVerifier(cfg.JWTSecret, clk)
	if !cfg.IsProduction() {
		token, err := auth.NewJWTIssuer(cfg.JWTSecret, clk).Issue(devUserID, devUserEmail, nil, 24*time.Hour)
		if err != nil {
			return err
		}
		logger.Info("development bearer token", "user_id", devUserID, "token", token)
	}

	router := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Events:   controllers.NewEventController(logger, eventService, inventoryService, calendarService),
		Tickets:  controllers.NewTicketController(logger, ledgerService, issuer),
		Calendar: controllers.NewCalendarController(logger, calendarService, clk),
	}, verifier, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, router)),
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	go runDispatcher(ctx, dispatcher, cfg.ReminderPollInterval, logger)

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "port", cfg.Port, "store", cfg.Store, "env", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories, func(), error) {
	if cfg.Store == config.StoreMemory {
		store := memory.NewStore()
		contacts := store.Contacts()
		contacts.SetEmail(devUserID, devUserEmail)
		logger.Warn("using in-memory store, data is lost on restart")
		return repositories{
			events:      store.Events(),
			ticketTypes: store.TicketTypes(),
			tickets:     store.Tickets(),
			calendar:    store.Calendar(),
			reminders:   store.Reminders(),
			contacts:    contacts,
		}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return repositories{}, nil, err
	}
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(startupCtx); err != nil {
		db.Close()
		return repositories{}, nil, err
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		db.Close()
		return repositories{}, nil, err
	}
	return repositories{
		events:      postgres.NewEventRepository(db),
		ticketTypes: postgres.NewTicketTypeRepository(db),
		tickets:     postgres.NewTicketRepository(db),
		calendar:    postgres.NewCalendarRepository(db),
		reminders:   postgres.NewReminderRepository(db),
		contacts:    postgres.NewContactDirectory(db),
	}, func() { db.Close() }, nil
}

// runDispatcher delivers due reminders every interval until ctx is done.
func runDispatcher(ctx context.Context, dispatcher domain.ReminderDispatcher, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := dispatcher.DispatchDue(ctx)
			if err != nil {
				logger.Error("reminder dispatch failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("reminders dispatched", "count", n)
			}
		}
	}
}

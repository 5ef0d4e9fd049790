// Package app wires the HealthMate modules together and runs the service.
//
// It owns the bootstrap order: record store, generation client, messaging
// channel, session store, reminder registry, idle reaper and router, then
// the inbound message loop until the process is signalled to stop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/healthmate/internal/genai"
	"github.com/carebridge/healthmate/internal/lockfile"
	"github.com/carebridge/healthmate/internal/messaging"
	"github.com/carebridge/healthmate/internal/reminder"
	"github.com/carebridge/healthmate/internal/router"
	"github.com/carebridge/healthmate/internal/session"
	"github.com/carebridge/healthmate/internal/store"
	"github.com/carebridge/healthmate/internal/twiliowhatsapp"
	"github.com/carebridge/healthmate/internal/whatsapp"
)

// Channel names accepted by WithChannel.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelTwilio   = "twilio"
)

// DefaultWebhookAddr is where the Twilio webhook server listens.
const DefaultWebhookAddr = ":8085"

// DefaultStateDir is the default state directory guarded by the instance lock.
const DefaultStateDir = "/var/lib/healthmate"

// Opts holds application-level configuration.
type Opts struct {
	Channel       string
	StateDir      string
	WebhookAddr   string
	ReminderDelay time.Duration
	IdleThreshold time.Duration
	SweepSchedule string
}

// Option defines an application configuration option.
type Option func(*Opts)

// WithChannel selects the messaging channel ("whatsapp" or "twilio").
func WithChannel(channel string) Option {
	return func(o *Opts) { o.Channel = channel }
}

// WithStateDir sets the state directory guarded by the instance lock.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

// WithWebhookAddr sets the listen address for the Twilio inbound webhook.
func WithWebhookAddr(addr string) Option {
	return func(o *Opts) { o.WebhookAddr = addr }
}

// WithReminderDelay overrides the deferred-assessment reminder delay.
func WithReminderDelay(d time.Duration) Option {
	return func(o *Opts) { o.ReminderDelay = d }
}

// WithIdleThreshold overrides the session idle expiry threshold.
func WithIdleThreshold(d time.Duration) Option {
	return func(o *Opts) { o.IdleThreshold = d }
}

// WithSweepSchedule overrides the idle reaper cron schedule.
func WithSweepSchedule(expr string) Option {
	return func(o *Opts) { o.SweepSchedule = expr }
}

// Run bootstraps every module and blocks until SIGINT/SIGTERM.
func Run(waOpts []whatsapp.Option, storeOpts []store.Option, genaiOpts []genai.Option, appOpts []Option) error {
	cfg := Opts{
		Channel:       ChannelWhatsApp,
		StateDir:      DefaultStateDir,
		WebhookAddr:   DefaultWebhookAddr,
		ReminderDelay: router.DefaultReminderDelay,
		IdleThreshold: session.DefaultIdleThreshold,
		SweepSchedule: session.DefaultSweepSchedule,
	}
	for _, opt := range appOpts {
		opt(&cfg)
	}

	// A second instance on the same state directory would double-process
	// inbound messages and race the record and WhatsApp databases.
	lock, err := lockfile.Acquire(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to lock state directory: %w", err)
	}
	defer lock.Release()

	records, err := buildRecordStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	defer records.Close()

	gen, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize generation client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgService, webhook, err := buildMessagingService(cfg, waOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging service: %w", err)
	}

	sessions := session.NewMemoryStore()
	reminders := reminder.NewRegistry()
	rt := router.NewRouter(sessions, records, gen, msgService, reminders,
		router.WithReminderDelay(cfg.ReminderDelay))

	reaper := session.NewReaper(sessions, reminders.Cancel,
		session.WithIdleThreshold(cfg.IdleThreshold),
		session.WithSweepSchedule(cfg.SweepSchedule))
	if err := reaper.Start(); err != nil {
		return fmt.Errorf("failed to start idle reaper: %w", err)
	}
	defer reaper.Stop()

	go reminders.Run(ctx)

	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer msgService.Stop()

	var webhookServer *http.Server
	if webhook != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/twilio/webhook", webhook)
		webhookServer = &http.Server{Addr: cfg.WebhookAddr, Handler: mux}
		go func() {
			slog.Info("Twilio webhook server listening", "addr", cfg.WebhookAddr)
			if err := webhookServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Twilio webhook server failed", "error", err)
			}
		}()
	}

	go drainReceipts(ctx, msgService)

	slog.Info("HealthMate running", "channel", cfg.Channel)
	runMessageLoop(ctx, msgService, rt)

	if webhookServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := webhookServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Twilio webhook server shutdown failed", "error", err)
		}
	}

	slog.Info("HealthMate stopped")
	return nil
}

// buildRecordStore selects the storage backend from the configured DSN,
// falling back to the in-memory store when none is given.
func buildRecordStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("No database DSN configured, records will not survive restart")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Info("Using PostgreSQL record store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Info("Using SQLite record store", "path", cfg.DSN)
	return store.NewSQLiteStore(storeOpts...)
}

// buildMessagingService constructs the configured channel. The second return
// value is the Twilio webhook handler, nil for WhatsApp.
func buildMessagingService(cfg Opts, waOpts []whatsapp.Option) (messaging.Service, http.HandlerFunc, error) {
	switch cfg.Channel {
	case ChannelTwilio:
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, nil, err
		}
		service := messaging.NewTwilioService(client)
		return service, service.WebhookHandler, nil
	case ChannelWhatsApp:
		client, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewWhatsAppService(client), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown messaging channel %q", cfg.Channel)
	}
}

// runMessageLoop consumes inbound messages until the context is cancelled or
// the responses channel closes. Each message is handled on its own
// goroutine; the session store serializes per-identity state.
func runMessageLoop(ctx context.Context, svc messaging.Service, rt *router.Router) {
	for {
		select {
		case resp, ok := <-svc.Responses():
			if !ok {
				slog.Info("Responses channel closed, message loop exiting")
				return
			}
			slog.Debug("Inbound message received", "from", resp.From, "body_length", len(resp.Body))
			go rt.HandleMessage(ctx, resp.From, resp.Body)
		case <-ctx.Done():
			slog.Info("Shutdown signal received, message loop exiting")
			return
		}
	}
}

// drainReceipts consumes delivery receipts so the channel never blocks the
// sender. Receipts are logged only.
func drainReceipts(ctx context.Context, svc messaging.Service) {
	for {
		select {
		case receipt, ok := <-svc.Receipts():
			if !ok {
				return
			}
			slog.Debug("Delivery receipt", "to", receipt.To, "status", receipt.Status)
		case <-ctx.Done():
			return
		}
	}
}

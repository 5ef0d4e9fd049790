package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/carebridge/healthmate/internal/app"
	"github.com/carebridge/healthmate/internal/genai"
	"github.com/carebridge/healthmate/internal/router"
	"github.com/carebridge/healthmate/internal/session"
	"github.com/carebridge/healthmate/internal/store"
	"github.com/carebridge/healthmate/internal/util"
	"github.com/carebridge/healthmate/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for HealthMate state data
	DefaultStateDir = "/var/lib/healthmate"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "healthmate.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow SQLite filename
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	waOpts := buildWhatsAppOptions(flags)
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	appOpts := buildAppOptions(flags, config)

	slog.Info("Bootstrapping HealthMate with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "channel", *flags.channel)
	if err := app.Run(waOpts, storeOpts, genaiOpts, appOpts); err != nil {
		slog.Error("HealthMate failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("HealthMate exited successfully")
}

// Config holds environment configuration
type Config struct {
	Channel       string
	DatabaseURL   string
	WhatsAppDSN   string
	StateDir      string
	OpenAIKey     string
	WebhookAddr   string
	SweepSchedule string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput    *string
	numeric     *bool
	stateDir    *string
	dbDSN       *string
	waDSN       *string
	openaiKey   *string
	channel     *string
	webhookAddr *string
}

// initializeLogger sets up structured logging. HEALTHMATE_DEBUG=true raises
// the level to debug.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("HEALTHMATE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		Channel:       os.Getenv("CHANNEL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		WhatsAppDSN:   os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:      os.Getenv("HEALTHMATE_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		WebhookAddr:   os.Getenv("WEBHOOK_ADDR"),
		SweepSchedule: os.Getenv("REAPER_SCHEDULE"),
	}

	if config.Channel == "" {
		config.Channel = app.ChannelWhatsApp
	}
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No HEALTHMATE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}

	slog.Debug("environment variables loaded",
		"CHANNEL", config.Channel,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"HEALTHMATE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"WEBHOOK_ADDR", config.WebhookAddr,
		"REAPER_SCHEDULE", config.SweepSchedule)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:    flag.String("qr-output", "", "path to write login QR code"),
		numeric:     flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for HealthMate data (overrides $HEALTHMATE_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "record store DSN (overrides $DATABASE_URL)"),
		waDSN:       flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "whatsmeow database DSN (overrides $WHATSAPP_DB_DSN)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		channel:     flag.String("channel", config.Channel, "messaging channel: whatsapp or twilio (overrides $CHANNEL)"),
		webhookAddr: flag.String("webhook-addr", config.WebhookAddr, "Twilio webhook listen address (overrides $WEBHOOK_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"waDSN_set", *flags.waDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"channel", *flags.channel,
		"webhookAddr", *flags.webhookAddr)

	return flags
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.waDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.waDSN))
	}
	return waOpts
}

// buildStoreOptions constructs record store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildAppOptions constructs application-level options
func buildAppOptions(flags Flags, config Config) []app.Option {
	appOpts := []app.Option{
		app.WithChannel(*flags.channel),
		app.WithStateDir(*flags.stateDir),
		app.WithReminderDelay(util.ParseDurationEnv("REMINDER_DELAY", router.DefaultReminderDelay)),
		app.WithIdleThreshold(util.ParseDurationEnv("SESSION_IDLE_THRESHOLD", session.DefaultIdleThreshold)),
	}
	if *flags.webhookAddr != "" {
		appOpts = append(appOpts, app.WithWebhookAddr(*flags.webhookAddr))
	}
	if config.SweepSchedule != "" {
		appOpts = append(appOpts, app.WithSweepSchedule(config.SweepSchedule))
	}
	return appOpts
}

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"streamstats-backend/internal/chrono"
	"streamstats-backend/internal/directory"
	"streamstats-backend/internal/pendingqueue"
	"streamstats-backend/internal/statsstore"
	"streamstats-backend/internal/telemetry"
	"streamstats-backend/lib/configutil"
	"streamstats-backend/lib/serviceutil"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
)

const defaultReconcileCron = "@every 15m"

type Config struct {
	Database statsstore.Config `json:"database"`
	// QueueDir holds the pending queue partitions, defaults to fails_storage.
	QueueDir string `json:"queue_dir"`
	// Timezone is the IANA name observation dates are written in, defaults
	// to the local timezone.
	Timezone      string           `json:"timezone"`
	ReconcileCron string           `json:"reconcile_cron"`
	Directory     directory.Config `json:"directory"`
}

func (c *Config) Validate() error {
	if c.Database.File == "" && c.Database.Url == "" {
		return errors.New("database.file or database.url must be set")
	}
	if c.QueueDir == "" {
		c.QueueDir = pendingqueue.DefaultDir
	}
	if c.ReconcileCron == "" {
		c.ReconcileCron = defaultReconcileCron
	}
	_, err := cron.ParseStandard(c.ReconcileCron)
	if err != nil {
		return fmt.Errorf("reconcile_cron: %w", err)
	}
	return nil
}

// env is everything a command needs, built from the config file.
type env struct {
	config Config
	clock  chrono.StandardImpl
	queue  *pendingqueue.Queue
	tel    telemetry.API
}

func loadEnv() env {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("read config", fmt.Errorf("%s: %w", *configPath, err))
	}
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	tel, err := telemetry.NewSlogAPI(otel.Meter("streamstats"))
	if err != nil {
		slog.Warn("failed to create count gauge, counts are only logged", "err", err)
	}

	return env{
		config: cfg,
		clock:  clock,
		queue:  pendingqueue.Open(cfg.QueueDir),
		tel:    tel,
	}
}

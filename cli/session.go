package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/ppal/config"
	ppalotel "github.com/petal-labs/ppal/otel"
	"github.com/petal-labs/ppal/ppal"
	"github.com/petal-labs/ppal/snapshot"
)

// session bundles what a command needs: resolved config, logger,
// telemetry and a client.
type session struct {
	cfg       config.Config
	logger    *slog.Logger
	telemetry *ppalotel.Telemetry
	client    *ppal.Client
}

func openSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	baseURL, _ := flags.GetString("base-url")
	timeout, _ := flags.GetDuration("timeout")
	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")

	if verbose && quiet {
		return nil, exitError(exitUsage, "--verbose and --quiet are mutually exclusive")
	}
	if timeout < 0 {
		return nil, exitError(exitUsage, "--timeout must not be negative")
	}

	cfg, err := config.Load(configPath, config.Overrides{BaseURL: baseURL, Timeout: timeout})
	if err != nil {
		return nil, exitError(exitUsage, "loading config: %v", err)
	}

	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.Source != "" {
		logger.Debug("loaded config", "path", cfg.Source)
	}

	telemetry, err := ppalotel.Setup(cmd.Context(), ppalotel.TelemetryConfig{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, exitError(exitUsage, "setting up telemetry: %v", err)
	}
	observer, err := ppalotel.NewInvocationObserver(telemetry.Meter, telemetry.Tracer)
	if err != nil {
		_ = telemetry.Shutdown(cmd.Context())
		return nil, exitError(exitFailure, "creating invocation observer: %v", err)
	}

	client, err := ppal.New(cfg.ClientConfig(logger, observer))
	if err != nil {
		_ = telemetry.Shutdown(cmd.Context())
		return nil, exitError(exitUsage, "%v", err)
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		telemetry: telemetry,
		client:    client,
	}, nil
}

func (s *session) close() {
	if s == nil || s.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Warn("flushing telemetry", "error", err)
	}
}

// openStore opens the snapshot database, honoring the --db flag.
func (s *session) openStore(cmd *cobra.Command) (*snapshot.SQLiteStore, error) {
	path := s.cfg.Snapshots.Path
	if flag := cmd.Flags().Lookup("db"); flag != nil && flag.Changed {
		path = flag.Value.String()
	}
	store, err := snapshot.NewSQLiteStore(snapshot.SQLiteStoreConfig{DSN: path})
	if err != nil {
		return nil, exitError(exitFailure, "opening snapshot store: %v", err)
	}
	s.logger.Debug("opened snapshot store", "path", path)
	return store, nil
}

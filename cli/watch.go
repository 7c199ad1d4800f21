package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	ppalotel "github.com/petal-labs/ppal/otel"
	"github.com/petal-labs/ppal/snapshot"
)

// NewWatchCmd creates the "watch" subcommand.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Capture project snapshots on a cron schedule until interrupted",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runWatch,
	}
	cmd.Flags().String("schedule", "", "Five-field UTC cron expression (default from config, */5 * * * *)")
	cmd.Flags().Int("keep", -1, "Snapshots to retain after each capture (default from config; 0 keeps all)")
	cmd.Flags().String("db", "", "Path to the snapshot database (default: ~/.ppal/snapshots.db)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	schedule := s.cfg.Snapshots.Schedule
	if flag, _ := cmd.Flags().GetString("schedule"); flag != "" {
		schedule = flag
	}
	keep := s.cfg.Snapshots.Keep
	if flag, _ := cmd.Flags().GetInt("keep"); flag >= 0 {
		keep = flag
	}

	store, err := s.openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	metrics, err := ppalotel.NewCaptureMetrics(s.telemetry.Meter)
	if err != nil {
		return exitError(exitFailure, "creating capture metrics: %v", err)
	}
	scheduler, err := snapshot.NewScheduler(snapshot.SchedulerConfig{
		Reader:   s.client,
		Store:    store,
		BaseURL:  s.client.BaseURL(),
		Schedule: schedule,
		Keep:     keep,
		Logger:   s.logger,
		Observer: metrics,
	})
	if err != nil {
		return exitError(exitUsage, "%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		return exitError(exitFailure, "starting scheduler: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (schedule %q, next capture %s)\n",
		s.client.BaseURL(), schedule, scheduler.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		return exitError(exitFailure, "stopping scheduler: %v", err)
	}
	return nil
}

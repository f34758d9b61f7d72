package commands

import (
	"log/slog"
	"streamstats-backend/internal/chrono"
	"streamstats-backend/internal/statsstore"
	"streamstats-backend/lib/serviceutil"
	"streamstats-backend/lib/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var daemonNow *bool

func init() {
	daemonNow = daemonCmd.Flags().Bool("now", false, "Reconcile once immediately on start.")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--now]",
	Short: "Keeps a database session open and reconciles the pending queue on a schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := loadEnv()

		meter := otel.Meter("streamstats")
		perfStats, err := telemetry.RegisterPerfStats(meter)
		if err != nil {
			slog.WarnContext(ctx, "failed to register perf stats", "err", err)
		} else {
			defer perfStats.Unregister()
		}
		queueGauges, err := e.queue.RegisterGauges(meter)
		if err != nil {
			slog.WarnContext(ctx, "failed to register pending queue gauges", "err", err)
		} else {
			defer queueGauges.Unregister()
		}

		session, err := statsstore.Open(ctx, e.config.Database, e.clock.Location())
		if err != nil {
			serviceutil.Fatal("open database", err)
		}
		defer session.Close()

		run := func() {
			_, err := reconcileOnce(ctx, e, session)
			if err != nil {
				slog.ErrorContext(ctx, "reconcile", "err", err)
			}
		}
		if *daemonNow {
			run()
		}

		scheduler := chrono.NewStandardCron(e.tel, e.clock.Location())
		err = scheduler.Cron(e.config.ReconcileCron, run)
		if err != nil {
			serviceutil.Fatal("schedule reconciliation", err)
		}
		scheduler.Start()
		slog.InfoContext(ctx, "reconciling on schedule", "cron", e.config.ReconcileCron, "queue", e.queue.Dir())

		<-ctx.Done()
		scheduler.Stop()
		slog.Info("stopped")
	},
}

package commands

import (
	"context"
	"log/slog"
	"streamstats-backend/internal/persist"
	"streamstats-backend/internal/statsstore"
	"streamstats-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func reconcileOnce(ctx context.Context, e env, s *statsstore.Session) ([]persist.PartitionReport, error) {
	reconciler := persist.NewReconciler(s, e.queue, e.tel)
	reports, err := reconciler.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		slog.InfoContext(
			ctx, "finished reconciling partition",
			"kind", r.Kind,
			"pending", r.Pending,
			"recovered", r.Recovered,
			"still_failing", r.StillFailing,
		)
	}
	return reports, nil
}

func renderReports(reports []persist.PartitionReport) {
	t := newTable()
	t.AppendHeader(table.Row{"Partition", "Pending", "Recovered", "Still failing", "Error"})
	for _, r := range reports {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Kind, r.Pending, r.Recovered, r.StillFailing, errText})
	}
	t.Render()
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Replays the pending queue into the database once.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := loadEnv()

		var reports []persist.PartitionReport
		err := statsstore.WithSession(ctx, e.config.Database, e.clock.Location(), func(s *statsstore.Session) error {
			var err error
			reports, err = reconcileOnce(ctx, e, s)
			return err
		})
		if err != nil {
			serviceutil.Fatal("reconcile", err)
		}
		renderReports(reports)
	},
}

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"
	"streamstats-backend/internal/records"
	"streamstats-backend/internal/statsstore"
	"streamstats-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsKind *string
var statsSummary *bool
var statsMinAppearances *int
var statsSince *string

func init() {
	statsKind = statsCmd.Flags().String("kind", string(records.KindStreamer), "The observations to list, 'streamer' or 'game'.")
	statsSummary = statsCmd.Flags().Bool("summary", false, "Aggregate observations per name instead of listing them.")
	statsMinAppearances = statsCmd.Flags().Int("min-appearances", statsstore.DefaultMinAppearances, "With --summary, only keep names observed at least this many times.")
	statsSince = statsCmd.Flags().String("since", "", "With --summary, only consider observations from this date on, formatted like 24/07/2023 00:00.")
	rootCmd.AddCommand(statsCmd)
}

func listObservations(ctx context.Context, s *statsstore.Session, kind records.Kind, t table.Writer) error {
	switch kind {
	case records.KindStreamer:
		rows, err := s.Streamers(ctx)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"Name", "Viewers", "Category", "Language", "Date"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Name, r.Viewers, r.Category, r.Language, r.Time.Format(records.DateLayout)})
		}
	case records.KindGame:
		rows, err := s.Games(ctx)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"Name", "Viewers", "Categories", "Date"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Name, r.Viewers, strings.Join(r.Categories, ", "), r.Time.Format(records.DateLayout)})
		}
	}
	return nil
}

func summarizeObservations(ctx context.Context, s *statsstore.Session, kind records.Kind, filter statsstore.SummaryFilter, t table.Writer) error {
	switch kind {
	case records.KindStreamer:
		rows, err := s.StreamerSummaries(ctx, filter)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"Name", "Appearances", "Mean viewers", "Live time", "Top category", "Top language"})
		for _, r := range rows {
			t.AppendRow(table.Row{
				r.Name,
				r.Appearances,
				fmt.Sprintf("%.0f", r.MeanViewers),
				r.LiveTime.Round(time.Minute).String(),
				r.TopCategory,
				r.TopLanguage,
			})
		}
	case records.KindGame:
		rows, err := s.GameSummaries(ctx, filter)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"Name", "Appearances", "Mean viewers", "Categories"})
		for _, r := range rows {
			t.AppendRow(table.Row{
				r.Name,
				r.Appearances,
				fmt.Sprintf("%.0f", r.MeanViewers),
				strings.Join(r.Categories, ", "),
			})
		}
	}
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats [--kind <streamer|game>] [--summary [--min-appearances <n>] [--since <date>]]",
	Short: "Lists or aggregates the observations stored in the database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := loadEnv()

		kind, err := records.ParseKind(*statsKind)
		if err != nil {
			serviceutil.Fatal("parse kind", err)
		}

		filter := statsstore.SummaryFilter{MinAppearances: *statsMinAppearances}
		if *statsSince != "" {
			filter.Since, err = time.ParseInLocation(records.DateLayout, *statsSince, e.clock.Location())
			if err != nil {
				serviceutil.Fatal("parse --since", err)
			}
		}

		t := newTable()
		err = statsstore.WithSession(ctx, e.config.Database, e.clock.Location(), func(s *statsstore.Session) error {
			if *statsSummary {
				return summarizeObservations(ctx, s, kind, filter, t)
			}
			return listObservations(ctx, s, kind, t)
		})
		if err != nil {
			serviceutil.Fatal("read observations", err)
		}
		t.Render()
	},
}

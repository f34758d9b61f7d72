package commands

import (
	"strings"
	"streamstats-backend/internal/records"
	"streamstats-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var pendingKind *string

func init() {
	pendingKind = pendingCmd.Flags().String("kind", "", "Only list one partition, 'streamer' or 'game'.")
	rootCmd.AddCommand(pendingCmd)
}

func recordDetails(rec records.Record) string {
	switch {
	case rec.Streamer != nil:
		return rec.Streamer.Category + " / " + rec.Streamer.Language
	case rec.Game != nil:
		return strings.Join(rec.Game.Categories, ", ")
	}
	return ""
}

var pendingCmd = &cobra.Command{
	Use:   "pending [--kind <streamer|game>]",
	Short: "Lists the records waiting in the pending queue.",
	Run: func(cmd *cobra.Command, args []string) {
		e := loadEnv()

		kinds := records.Kinds
		if *pendingKind != "" {
			kind, err := records.ParseKind(*pendingKind)
			if err != nil {
				serviceutil.Fatal("parse kind", err)
			}
			kinds = []records.Kind{kind}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Partition", "Name", "Views", "Date", "Details"})
		partitions := newTable()
		partitions.AppendHeader(table.Row{"Partition", "Records", "Bytes"})
		for _, kind := range kinds {
			size, err := e.queue.Size(kind)
			if err != nil {
				serviceutil.Fatal("stat pending queue", err)
			}
			var pending []records.Record
			if size > 0 {
				pending, err = e.queue.Load(kind)
				if err != nil {
					serviceutil.Fatal("load pending queue", err)
				}
			}
			for _, rec := range pending {
				t.AppendRow(table.Row{kind, rec.Name(), rec.Views(), rec.Date(), recordDetails(rec)})
			}
			partitions.AppendRow(table.Row{kind, len(pending), size})
		}
		t.Render()
		partitions.Render()
	},
}

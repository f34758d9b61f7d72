package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"streamstats-backend/internal/directory"
	"streamstats-backend/internal/persist"
	"streamstats-backend/internal/records"
	"streamstats-backend/internal/statsstore"
	"streamstats-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var ingestKind *string
var ingestFile *string
var ingestHtml *string
var ingestLang *string

func init() {
	ingestKind = ingestCmd.Flags().String("kind", "", "The kind of records in the batch, 'streamer' or 'game'.")
	ingestFile = ingestCmd.Flags().String("file", "", "A json batch mapping each name to its fields.")
	ingestHtml = ingestCmd.Flags().String("html", "", "A saved directory page to extract the batch from.")
	ingestLang = ingestCmd.Flags().String("lang", "", "The language filter the streamers page was saved with.")
	ingestCmd.MarkFlagRequired("kind")
	ingestCmd.MarkFlagsMutuallyExclusive("file", "html")
	ingestCmd.MarkFlagsOneRequired("file", "html")
	rootCmd.AddCommand(ingestCmd)
}

func readBatch(ctx context.Context, e env, kind records.Kind) ([]records.Record, error) {
	if *ingestFile != "" {
		contents, err := os.ReadFile(*ingestFile)
		if err != nil {
			return nil, err
		}
		return records.DecodeBatch(kind, contents)
	}

	page, err := os.Open(*ingestHtml)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	parser := directory.NewParser(e.config.Directory, e.tel)
	date := e.clock.Now().Format(records.DateLayout)
	return parser.Parse(ctx, kind, page, *ingestLang, date)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest --kind <streamer|game> (--file <batch.json> | --html <page.html> [--lang <language>])",
	Short: "Persists one batch of observations, records that fail are queued for reconciliation.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e := loadEnv()

		kind, err := records.ParseKind(*ingestKind)
		if err != nil {
			serviceutil.Fatal("parse kind", err)
		}
		batch, err := readBatch(ctx, e, kind)
		if err != nil {
			serviceutil.Fatal("read batch", err)
		}

		var outcome persist.Outcome
		err = statsstore.WithSession(ctx, e.config.Database, e.clock.Location(), func(s *statsstore.Session) error {
			sink := persist.NewSink(s, e.queue, e.tel)
			outcome, err = sink.Persist(ctx, persist.Batch{Kind: kind, Records: batch})
			return err
		})
		if errors.Is(err, persist.ErrQueueWrite) {
			slog.Error("some failed records could not be queued", "err", err)
		} else if err != nil {
			serviceutil.Fatal("persist batch", err)
		}

		slog.Info(
			"persisted batch",
			"kind", kind,
			"succeeded", outcome.Succeeded,
			"failed", outcome.Failed,
		)
		if outcome.Failed > 0 {
			fmt.Printf(
				"%d of %d records failed and were queued in %s\n",
				outcome.Failed, len(batch), e.queue.Dir(),
			)
		}
		if err != nil {
			os.Exit(1)
		}
	},
}

package statsstore

import (
	"context"
	"math"
	"time"
	"streamstats-backend/internal/db"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMinAppearances keeps streamers seen more than 15 times.
	DefaultMinAppearances = 16
	// MaxSightingGap is the longest gap between two sightings that still
	// counts as the same stream.
	MaxSightingGap = 2000 * time.Second
)

// SummaryFilter selects the observations a summary is computed over.
type SummaryFilter struct {
	// Since drops observations dated before it, the zero value keeps all.
	Since time.Time
	// MinAppearances drops names observed fewer times.
	MinAppearances int
}

func (f SummaryFilter) since() int64 {
	if f.Since.IsZero() {
		return math.MinInt64
	}
	return f.Since.Unix()
}

type StreamerSummary struct {
	Name        string
	Appearances int64
	MeanViewers float64
	// LiveTime estimates how long the streamer was live, the number of
	// sightings times the mean gap between consecutive sightings.
	LiveTime    time.Duration
	TopCategory string
	TopLanguage string
}

type GameSummary struct {
	Name        string
	Appearances int64
	MeanViewers float64
	Categories  []string
}

// StreamerSummaries aggregates the streamers passing filter, most watched
// first. Ties in the most frequent category or language go to the one that
// sorts first.
func (s *Session) StreamerSummaries(ctx context.Context, filter SummaryFilter) ([]StreamerSummary, error) {
	ctx, span := tracer.Start(ctx, "StreamerSummaries")
	defer span.End()

	if !s.Connected() {
		return nil, ErrNotConnected
	}

	rows, err := s.qry.StreamerSummaries(ctx, db.StreamerSummariesParams{
		Since:          filter.since(),
		MinAppearances: int64(filter.MinAppearances),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	gap, err := s.qry.MeanSightingGap(ctx, db.MeanSightingGapParams{
		Since:          filter.since(),
		MinAppearances: int64(filter.MinAppearances),
		MaxGap:         int64(MaxSightingGap / time.Second),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("streamers", len(rows)))

	out := make([]StreamerSummary, len(rows))
	for i, r := range rows {
		var liveTime time.Duration
		if gap.Valid {
			liveTime = time.Duration(float64(r.Appearances) * gap.Float64 * float64(time.Second))
		}
		out[i] = StreamerSummary{
			Name:        r.StreamerName,
			Appearances: r.Appearances,
			MeanViewers: r.MeanViewers,
			LiveTime:    liveTime,
			TopCategory: r.TopCategory,
			TopLanguage: r.TopLang,
		}
	}
	return out, nil
}

// GameSummaries aggregates the games passing filter, most watched first.
func (s *Session) GameSummaries(ctx context.Context, filter SummaryFilter) ([]GameSummary, error) {
	ctx, span := tracer.Start(ctx, "GameSummaries")
	defer span.End()

	if !s.Connected() {
		return nil, ErrNotConnected
	}

	rows, err := s.qry.GameSummaries(ctx, db.GameSummariesParams{
		Since:          filter.since(),
		MinAppearances: int64(filter.MinAppearances),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]GameSummary, len(rows))
	for i, r := range rows {
		categories, err := s.qry.ListGameCategories(ctx, r.Name)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out[i] = GameSummary{
			Name:        r.Name,
			Appearances: r.Appearances,
			MeanViewers: r.MeanViewers,
			Categories:  categories,
		}
	}
	return out, nil
}

// Package statsstore persists streamer and game observations into the
// relational database.
package statsstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"streamstats-backend/internal/db"
	"streamstats-backend/internal/records"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/statsstore")

// ErrNotConnected is returned by operations on a session that is not open.
var ErrNotConnected = errors.New("not connected to the database")

// Session is one open connection to the database, owned by a single caller.
// It must be released with Close.
type Session struct {
	db       *sql.DB
	qry      *db.Queries
	location *time.Location
}

// Open connects to the database described by config and applies the schema.
// Record dates are interpreted in location.
func Open(ctx context.Context, config Config, location *time.Location) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()

	database, err := config.openDB(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	err = migrate(ctx, database)
	if err != nil {
		database.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if location == nil {
		location = time.Local
	}
	return &Session{
		db:       database,
		qry:      db.New(database),
		location: location,
	}, nil
}

// WithSession opens a session, runs fn and closes the session on every exit
// path.
func WithSession(ctx context.Context, config Config, location *time.Location, fn func(s *Session) error) (err error) {
	session, err := Open(ctx, config, location)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := session.Close()
		if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(session)
}

func (s *Session) Connected() bool {
	return s != nil && s.db != nil
}

// Close releases the connection, closing a closed session is a no-op.
func (s *Session) Close() error {
	if !s.Connected() {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.qry = nil
	if err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Insert persists a single observation. Values are always bound as
// parameters, names may contain any character.
func (s *Session) Insert(ctx context.Context, rec records.Record) error {
	ctx, span := tracer.Start(ctx, "Insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("kind", string(rec.Kind)),
		attribute.String("name", rec.Name()),
	)

	err := s.insert(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Session) insert(ctx context.Context, rec records.Record) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	err := rec.Validate()
	if err != nil {
		return err
	}
	date, err := rec.Time(s.location)
	if err != nil {
		return err
	}
	viewers, err := records.ParseViewCount(rec.Views())
	if err != nil {
		return err
	}

	switch rec.Kind {
	case records.KindStreamer:
		err = s.qry.InsertStreamer(ctx, db.InsertStreamerParams{
			StreamerName:  rec.Streamer.Name,
			StreamerViews: rec.Streamer.Views,
			Viewers:       viewers,
			CategoryName:  rec.Streamer.Category,
			Lang:          rec.Streamer.Language,
			Date:          date.Unix(),
		})
		if err != nil {
			return fmt.Errorf("insert streamer '%s': %w", rec.Streamer.Name, err)
		}
		return nil
	case records.KindGame:
		return db.WithTx(ctx, s.db, func(txqry *db.Queries) error {
			err := txqry.InsertGame(ctx, db.InsertGameParams{
				Name:    rec.Game.Name,
				Views:   rec.Game.Views,
				Viewers: viewers,
				Date:    date.Unix(),
			})
			if err != nil {
				return fmt.Errorf("insert game '%s': %w", rec.Game.Name, err)
			}
			for _, category := range rec.Game.Categories {
				err = txqry.InsertGameCategory(ctx, db.InsertGameCategoryParams{
					GameName: rec.Game.Name,
					Category: category,
				})
				if err != nil {
					return fmt.Errorf("insert category '%s' of game '%s': %w", category, rec.Game.Name, err)
				}
			}
			return nil
		})
	}
	return fmt.Errorf("%w '%s'", records.ErrUnknownKind, rec.Kind)
}

type StoredStreamer struct {
	Name     string
	Views    string
	Viewers  int64
	Category string
	Language string
	Time     time.Time
}

type StoredGame struct {
	Name       string
	Views      string
	Viewers    int64
	Categories []string
	Time       time.Time
}

// Streamers returns every persisted streamer observation in insertion order.
func (s *Session) Streamers(ctx context.Context) ([]StoredStreamer, error) {
	if !s.Connected() {
		return nil, ErrNotConnected
	}
	rows, err := s.qry.ListStreamers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StoredStreamer, len(rows))
	for i, r := range rows {
		out[i] = StoredStreamer{
			Name:     r.StreamerName,
			Views:    r.StreamerViews,
			Viewers:  r.Viewers,
			Category: r.CategoryName,
			Language: r.Lang,
			Time:     time.Unix(r.Date, 0).In(s.location),
		}
	}
	return out, nil
}

// Games returns every persisted game observation in insertion order along
// with the categories known for the game.
func (s *Session) Games(ctx context.Context) ([]StoredGame, error) {
	if !s.Connected() {
		return nil, ErrNotConnected
	}
	rows, err := s.qry.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StoredGame, len(rows))
	for i, r := range rows {
		categories, err := s.qry.ListGameCategories(ctx, r.Name)
		if err != nil {
			return nil, err
		}
		out[i] = StoredGame{
			Name:       r.Name,
			Views:      r.Views,
			Viewers:    r.Viewers,
			Categories: categories,
			Time:       time.Unix(r.Date, 0).In(s.location),
		}
	}
	return out, nil
}

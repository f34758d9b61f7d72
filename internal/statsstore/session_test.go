package statsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	"streamstats-backend/internal/records"
	"streamstats-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("test:statsstore")
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func openMemory(t *testing.T) *Session {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	session, err := Open(ctx, Config{File: ":memory:"}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		session.Close()
	})
	return session
}

func TestInsertStreamer(t *testing.T) {
	session := openMemory(t)
	ctx := context.Background()

	err := session.Insert(ctx, records.NewStreamer(records.StreamerObservation{
		Name:     "O'Brien",
		Views:    "1.1K viewers",
		Category: "Assassin's Creed",
		Language: "English",
		Date:     "24/07/2023 13:05",
	}))
	require.NoError(t, err)

	// observations are never deduplicated
	err = session.Insert(ctx, records.NewStreamer(records.StreamerObservation{
		Name:     "O'Brien",
		Views:    "950 viewers",
		Category: "Just Chatting",
		Language: "English",
		Date:     "24/07/2023 13:05",
	}))
	require.NoError(t, err)

	res, err := session.Streamers(ctx)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, StoredStreamer{
		Name:     "O'Brien",
		Views:    "1.1K viewers",
		Viewers:  1100,
		Category: "Assassin's Creed",
		Language: "English",
		Time:     time.Date(2023, time.July, 24, 13, 5, 0, 0, time.UTC),
	}, res[0])
	require.Equal(t, int64(950), res[1].Viewers)
}

func TestInsertGame(t *testing.T) {
	session := openMemory(t)
	ctx := context.Background()

	game := records.NewGame(records.GameObservation{
		Name:       "Counter-Strike",
		Views:      "25.3K",
		Categories: []string{"FPS", "Shooter"},
		Date:       "24/07/2023 13:05",
	})
	require.NoError(t, session.Insert(ctx, game))

	again := records.NewGame(records.GameObservation{
		Name:       "Counter-Strike",
		Views:      "26K",
		Categories: []string{"FPS", "Action"},
		Date:       "24/07/2023 13:10",
	})
	require.NoError(t, session.Insert(ctx, again))

	require.NoError(t, session.Insert(ctx, records.NewGame(records.GameObservation{
		Name:  "Chess",
		Views: "900",
		Date:  "24/07/2023 13:05",
	})))

	res, err := session.Games(ctx)
	require.NoError(t, err)
	require.Len(t, res, 3)
	require.Equal(t, int64(25_300), res[0].Viewers)
	require.Equal(t, []string{"Action", "FPS", "Shooter"}, res[0].Categories)
	require.Equal(t, int64(26_000), res[1].Viewers)
	require.Empty(t, res[2].Categories)
}

func TestInsertRejectsMalformedRecords(t *testing.T) {
	session := openMemory(t)
	ctx := context.Background()

	err := session.Insert(ctx, records.NewStreamer(records.StreamerObservation{
		Name:  "streamer1",
		Views: "1K",
		Date:  "2023-07-24T13:05",
	}))
	require.ErrorIs(t, err, records.ErrMalformedDate)

	err = session.Insert(ctx, records.NewGame(records.GameObservation{
		Views: "1K",
		Date:  "24/07/2023 13:05",
	}))
	require.ErrorIs(t, err, records.ErrEmptyName)

	res, err := session.Streamers(ctx)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestNotConnected(t *testing.T) {
	session := openMemory(t)
	require.True(t, session.Connected())
	require.NoError(t, session.Close())
	require.False(t, session.Connected())
	require.NoError(t, session.Close(), "closing twice is a no-op")

	err := session.Insert(context.Background(), records.NewGame(records.GameObservation{
		Name: "Chess", Views: "900", Date: "24/07/2023 13:05",
	}))
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = session.Games(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)

	var nilSession *Session
	require.False(t, nilSession.Connected())
}

func TestWithSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.db")
	ctx := context.Background()

	var captured *Session
	err := WithSession(ctx, Config{File: path}, time.UTC, func(s *Session) error {
		captured = s
		return s.Insert(ctx, records.NewStreamer(records.StreamerObservation{
			Name: "streamer1", Views: "12", Category: "FPS", Language: "English", Date: "24/07/2023 13:05",
		}))
	})
	require.NoError(t, err)
	require.False(t, captured.Connected())

	failure := errors.New("callback failed")
	err = WithSession(ctx, Config{File: path}, time.UTC, func(s *Session) error {
		captured = s
		return failure
	})
	require.ErrorIs(t, err, failure)
	require.False(t, captured.Connected(), "the session is closed on error paths too")

	err = WithSession(ctx, Config{File: path}, time.UTC, func(s *Session) error {
		res, err := s.Streamers(ctx)
		require.NoError(t, err)
		require.Len(t, res, 1, "data survives reopening the file")
		return nil
	})
	require.NoError(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Config{}, time.UTC)
	require.Error(t, err)
}

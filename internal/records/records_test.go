package records

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseViewCount(t *testing.T) {
	cases := []struct {
		views  string
		expect int64
		fail   bool
	}{
		{views: "1.1K viewers", expect: 1100},
		{views: "1.1k", expect: 1100},
		{views: "2,3M", expect: 2_300_000},
		{views: "950 spectators", expect: 950},
		{views: "12", expect: 12},
		{views: "0.5K espectadores", expect: 500},
		{views: "", fail: true},
		{views: "viewers", fail: true},
		{views: "1.5 viewers", fail: true},
		{views: "-3K", fail: true},
		{views: "9223372036854775807", fail: true},
		{views: "99999999999999999999M viewers", fail: true},
		{views: "1e30", fail: true},
		{views: "9000000000000M", expect: 9_000_000_000_000_000_000},
	}

	for _, test := range cases {
		res, err := ParseViewCount(test.views)
		if test.fail {
			require.ErrorIs(t, err, ErrMalformedViews, test.views)
			continue
		}
		require.NoError(t, err, test.views)
		require.Equal(t, test.expect, res, test.views)
	}
}

func TestValidateRejectsOverflowingViews(t *testing.T) {
	rec := NewStreamer(StreamerObservation{
		Name:     "streamer1",
		Views:    "99999999999999999999M viewers",
		Category: "FPS",
		Language: "English",
		Date:     "24/07/2023 13:05",
	})
	require.ErrorIs(t, rec.Validate(), ErrMalformedViews)
}

func TestValidate(t *testing.T) {
	valid := NewStreamer(StreamerObservation{
		Name:     "streamer1",
		Views:    "1.1K viewers",
		Category: "FPS",
		Language: "English",
		Date:     "24/07/2023 13:05",
	})
	require.NoError(t, valid.Validate())

	game := NewGame(GameObservation{
		Name:  "game1",
		Views: "25.3K",
		Date:  "24/07/2023 13:05",
	})
	require.NoError(t, game.Validate(), "games may have no categories")

	cases := []struct {
		name   string
		record Record
		expect error
	}{
		{
			name:   "unknown kind",
			record: Record{Kind: "clip", Streamer: valid.Streamer},
			expect: ErrUnknownKind,
		},
		{
			name:   "payload mismatch",
			record: Record{Kind: KindGame, Streamer: valid.Streamer},
			expect: ErrPayloadMismatch,
		},
		{
			name:   "both payloads",
			record: Record{Kind: KindGame, Streamer: valid.Streamer, Game: game.Game},
			expect: ErrPayloadMismatch,
		},
		{
			name: "empty name",
			record: NewStreamer(StreamerObservation{
				Views: "1K", Date: "24/07/2023 13:05",
			}),
			expect: ErrEmptyName,
		},
		{
			name: "malformed date",
			record: NewGame(GameObservation{
				Name: "game1", Views: "1K", Date: "2023-07-24 13:05",
			}),
			expect: ErrMalformedDate,
		},
		{
			name: "malformed views",
			record: NewGame(GameObservation{
				Name: "game1", Views: "lots", Date: "24/07/2023 13:05",
			}),
			expect: ErrMalformedViews,
		},
	}

	for _, test := range cases {
		err := test.record.Validate()
		require.True(t, errors.Is(err, test.expect), "%s: got %v", test.name, err)
	}
}

func TestTime(t *testing.T) {
	rec := NewStreamer(StreamerObservation{Name: "a", Views: "1", Date: "24/07/2023 13:05"})
	res, err := rec.Time(time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, time.July, 24, 13, 5, 0, 0, time.UTC), res)
}

func TestJSONRoundTrip(t *testing.T) {
	original := []Record{
		NewStreamer(StreamerObservation{
			Name:     "O'Brien",
			Views:    "1.1K viewers",
			Category: "Just Chatting",
			Language: "English",
			Date:     "24/07/2023 13:05",
		}),
		NewGame(GameObservation{
			Name:       "Counter-Strike",
			Views:      "25.3K",
			Categories: []string{"FPS", "Shooter"},
			Date:       "24/07/2023 13:05",
		}),
		NewGame(GameObservation{
			Name:       "Chess",
			Views:      "900",
			Categories: []string{},
			Date:       "24/07/2023 13:06",
		}),
	}

	for _, rec := range original {
		encoded, err := json.Marshal(rec)
		require.NoError(t, err)
		var decoded Record
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		if diff := cmp.Diff(rec, decoded); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeBatch(t *testing.T) {
	streamers, err := DecodeBatch(KindStreamer, []byte(`{
		"zeta": {"views": "1.1K viewers", "category": "FPS", "date": "24/07/2023 13:05", "lang": "English"},
		"alpha": {"views": "2.3K viewers", "category": "RPG", "date": "24/07/2023 13:05", "lang": "Spanish"},
		"zeta": {"views": "1.2K viewers", "category": "FPS", "date": "24/07/2023 13:06", "lang": "English"}
	}`))
	require.NoError(t, err)
	require.Len(t, streamers, 3)

	names := []string{}
	for _, s := range streamers {
		require.Equal(t, KindStreamer, s.Kind)
		names = append(names, s.Name())
	}
	require.Equal(t, []string{"zeta", "alpha", "zeta"}, names)
	require.Equal(t, "Spanish", streamers[1].Streamer.Language)

	games, err := DecodeBatch(KindGame, []byte(`{
		"Counter-Strike": {"views": "25.3K", "category": ["FPS", "Shooter"], "date": "24/07/2023 13:05"},
		"Chess": {"views": "900", "category": [], "date": "24/07/2023 13:05"}
	}`))
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.Equal(t, []string{"FPS", "Shooter"}, games[0].Game.Categories)
	require.Empty(t, games[1].Game.Categories)

	_, err = DecodeBatch(KindGame, []byte(`["not", "an", "object"]`))
	require.Error(t, err)
	_, err = DecodeBatch(KindGame, []byte(`{"x": 1}`))
	require.Error(t, err)
	_, err = DecodeBatch("clip", []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownKind)
}

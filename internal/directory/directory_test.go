package directory

import (
	"context"
	"strings"
	"testing"
	"streamstats-backend/internal/records"
	"streamstats-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	Games: Selectors{
		Card:  "article.game",
		Name:  "h2",
		Views: "p.viewers",
		Tag:   "button.tag span",
	},
	Streamers: Selectors{
		Card:     "article.channel",
		Name:     "p.channel-name",
		Views:    "div.stat",
		Category: "a.category",
	},
}

const gamesPage = `
<html><body>
	<article class="game">
		<h2>Counter-Strike</h2>
		<p class="viewers">25,3K&nbsp;viewers</p>
		<button class="tag"><span>FPS</span></button>
		<button class="tag"><span>Shooter</span></button>
	</article>
	<article class="game">
		<h2>Chess</h2>
		<p class="viewers">900 viewers</p>
	</article>
	<article class="game">
		<p class="viewers">1 viewers</p>
	</article>
</body></html>
`

const streamersPage = `
<html><body>
	<article class="channel">
		<p class="channel-name">O'Brien</p>
		<div class="stat">1.1K viewers</div>
		<a class="category">Just Chatting</a>
	</article>
	<article class="channel">
		<p class="channel-name">  second
			streamer </p>
		<div class="stat">12 viewers</div>
		<a class="category">FPS</a>
	</article>
</body></html>
`

func TestParseGames(t *testing.T) {
	tel := telemetry.NewRecorder()
	parser := NewParser(testConfig, tel)

	res, err := parser.ParseGames(context.Background(), strings.NewReader(gamesPage), "24/07/2023 13:05")
	require.NoError(t, err)
	require.Equal(t, []records.Record{
		records.NewGame(records.GameObservation{
			Name:       "Counter-Strike",
			Views:      "25,3K viewers",
			Categories: []string{"FPS", "Shooter"},
			Date:       "24/07/2023 13:05",
		}),
		records.NewGame(records.GameObservation{
			Name:       "Chess",
			Views:      "900 viewers",
			Categories: []string{},
			Date:       "24/07/2023 13:05",
		}),
	}, res)
	require.Len(t, tel.Find("warning", "directory: directory.card"), 1)

	for _, rec := range res {
		require.NoError(t, rec.Validate())
	}
}

func TestParseStreamers(t *testing.T) {
	parser := NewParser(testConfig, telemetry.NewRecorder())

	res, err := parser.Parse(
		context.Background(), records.KindStreamer,
		strings.NewReader(streamersPage), "English", "24/07/2023 13:05",
	)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, records.StreamerObservation{
		Name:     "O'Brien",
		Views:    "1.1K viewers",
		Category: "Just Chatting",
		Language: "English",
		Date:     "24/07/2023 13:05",
	}, *res[0].Streamer)
	require.Equal(t, "second streamer", res[1].Name())
}

func TestParseRequiresSelectors(t *testing.T) {
	parser := NewParser(Config{}, telemetry.NewRecorder())

	_, err := parser.ParseGames(context.Background(), strings.NewReader(gamesPage), "24/07/2023 13:05")
	require.ErrorIs(t, err, ErrMissingSelector)

	_, err = parser.Parse(context.Background(), "clip", strings.NewReader(""), "", "")
	require.ErrorIs(t, err, records.ErrUnknownKind)
}

package commands

import (
	"os"
	"path/filepath"
	"testing"
	"streamstats-backend/lib/configutil"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		database: { file: "stats.db" },
		directory: {
			games: { card: "article", name: "h2", views: "p", tag: "span" },
		},
	}`), 0644))

	cfg, err := configutil.ReadConfig[Config](path)
	require.NoError(t, err)
	require.Equal(t, "fails_storage", cfg.QueueDir)
	require.Equal(t, defaultReconcileCron, cfg.ReconcileCron)
	require.Equal(t, "article", cfg.Directory.Games.Card)
}

func TestConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	missingDb := filepath.Join(dir, "missing.json5")
	require.NoError(t, os.WriteFile(missingDb, []byte(`{ queue_dir: "q" }`), 0644))
	_, err := configutil.ReadConfig[Config](missingDb)
	require.Error(t, err)

	badCron := filepath.Join(dir, "cron.json5")
	require.NoError(t, os.WriteFile(badCron, []byte(`{
		database: { file: "stats.db" },
		reconcile_cron: "every now and then",
	}`), 0644))
	_, err = configutil.ReadConfig[Config](badCron)
	require.ErrorContains(t, err, "reconcile_cron")
}

package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testDatabase struct {
	File string `json:"file"`
	Url  string `json:"url"`
}

type testConfig struct {
	QueueDir string       `json:"queue_dir"`
	Cron     string       `json:"cron"`
	Database testDatabase `json:"database"`
}

type validatedConfig struct {
	QueueDir string `json:"queue_dir"`
}

func (c *validatedConfig) Validate() error {
	if c.QueueDir == "" {
		return errors.New("queue_dir is required")
	}
	return nil
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments and trailing commas are json5
		queue_dir: "fails_storage",
		cron: "@every 5m",
		database: { file: "stats.db" },
	}`), 0644))

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		QueueDir: "fails_storage",
		Cron:     "@every 5m",
		Database: testDatabase{File: "stats.db"},
	}, cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		database: { url: "libsql://stats.example.com" },
	}`), 0644))

	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "fails_storage", cfg.QueueDir)
	require.Equal(t, "stats.db", cfg.Database.File)
	require.Equal(t, "libsql://stats.example.com", cfg.Database.Url)
}

func TestReadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ queue_dir: "" }`), 0644))

	_, err := ReadConfig[validatedConfig](path)
	require.ErrorContains(t, err, "queue_dir is required")
}

func TestReadConfigInvalidSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ queue_dir: `), 0644))

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.False(t, errors.Is(err, os.ErrNotExist))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "streamstats-test.json5"),
		[]byte(`{ queue_dir: "found" }`),
		0644,
	))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("streamstats-test.json5")
	require.NoError(t, err)
	require.Equal(t, "found", cfg.QueueDir)
}

func TestSplitExt(t *testing.T) {
	name, ext := splitExt("config.json5")
	require.Equal(t, "config", name)
	require.Equal(t, "json5", ext)

	name, ext = splitExt("config")
	require.Equal(t, "config", name)
	require.Equal(t, "", ext)
}

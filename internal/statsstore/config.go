package statsstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"streamstats-backend/internal/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config selects the backing database. A local sqlite file is used unless Url
// points at a remote libsql server.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func (config Config) openDB(ctx context.Context) (*sql.DB, error) {
	if config.Url != "" {
		return config.openRemote(ctx)
	}
	return config.openLocal(ctx)
}

func (config Config) openRemote(ctx context.Context) (*sql.DB, error) {
	dsn, err := url.Parse(config.Url)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	if config.AuthToken != "" {
		query := dsn.Query()
		query.Set("authToken", config.AuthToken)
		dsn.RawQuery = query.Encode()
	}

	database, err := sql.Open("libsql", dsn.String())
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	database.SetMaxOpenConns(1)
	err = database.PingContext(ctx)
	if err != nil {
		database.Close()
		return nil, wrapOpenDB(err)
	}
	return database, nil
}

func (config Config) openLocal(ctx context.Context) (*sql.DB, error) {
	if config.File == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}
	if config.File != ":memory:" {
		err := os.MkdirAll(filepath.Dir(config.File), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	database, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// it also keeps a `:memory:` database alive for the whole session.
	database.SetMaxOpenConns(1)
	_, err = database.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	if err != nil {
		database.Close()
		return nil, wrapOpenDB(err)
	}
	return database, nil
}

func migrate(ctx context.Context, database *sql.DB) error {
	for _, stmt := range strings.Split(db.Schema, ";") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		_, err := database.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

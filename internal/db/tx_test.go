package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() {
		database.Close()
	})
	_, err = database.Exec(Schema)
	require.NoError(t, err)
	return database
}

func TestWithTxCommits(t *testing.T) {
	database := openMemory(t)
	ctx := context.Background()

	err := WithTx(ctx, database, func(qry *Queries) error {
		err := qry.InsertGame(ctx, InsertGameParams{Name: "game1", Views: "1K", Viewers: 1000, Date: 60})
		if err != nil {
			return err
		}
		return qry.InsertGameCategory(ctx, InsertGameCategoryParams{GameName: "game1", Category: "FPS"})
	})
	require.NoError(t, err)

	games, err := New(database).ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	categories, err := New(database).ListGameCategories(ctx, "game1")
	require.NoError(t, err)
	require.Equal(t, []string{"FPS"}, categories)
}

func TestWithTxRollsBack(t *testing.T) {
	database := openMemory(t)
	ctx := context.Background()

	failure := errors.New("category rejected")
	err := WithTx(ctx, database, func(qry *Queries) error {
		err := qry.InsertGame(ctx, InsertGameParams{Name: "game1", Views: "1K", Viewers: 1000, Date: 60})
		if err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	games, err := New(database).ListGames(ctx)
	require.NoError(t, err)
	require.Empty(t, games)

	// the connection is usable after the rollback
	err = New(database).InsertGame(ctx, InsertGameParams{Name: "game2", Views: "2K", Viewers: 2000, Date: 60})
	require.NoError(t, err)
}

package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

type Streamer struct {
	ID            int64
	StreamerName  string
	StreamerViews string
	Viewers       int64
	CategoryName  string
	Lang          string
	Date          int64
}

type Game struct {
	ID      int64
	Name    string
	Views   string
	Viewers int64
	Date    int64
}

type Category struct {
	GameName string
	Category string
}

const insertStreamer = `
insert into streamers (streamer_name, streamer_views, viewers, category_name, lang, date)
values (?, ?, ?, ?, ?, ?)
`

type InsertStreamerParams struct {
	StreamerName  string
	StreamerViews string
	Viewers       int64
	CategoryName  string
	Lang          string
	Date          int64
}

func (q *Queries) InsertStreamer(ctx context.Context, arg InsertStreamerParams) error {
	_, err := q.db.ExecContext(ctx, insertStreamer,
		arg.StreamerName,
		arg.StreamerViews,
		arg.Viewers,
		arg.CategoryName,
		arg.Lang,
		arg.Date,
	)
	return err
}

const insertGame = `
insert into games (name, views, viewers, date)
values (?, ?, ?, ?)
`

type InsertGameParams struct {
	Name    string
	Views   string
	Viewers int64
	Date    int64
}

func (q *Queries) InsertGame(ctx context.Context, arg InsertGameParams) error {
	_, err := q.db.ExecContext(ctx, insertGame,
		arg.Name,
		arg.Views,
		arg.Viewers,
		arg.Date,
	)
	return err
}

const insertGameCategory = `
insert into categories (game_name, category)
values (?, ?)
on conflict do nothing
`

type InsertGameCategoryParams struct {
	GameName string
	Category string
}

func (q *Queries) InsertGameCategory(ctx context.Context, arg InsertGameCategoryParams) error {
	_, err := q.db.ExecContext(ctx, insertGameCategory, arg.GameName, arg.Category)
	return err
}

const listStreamers = `
select id, streamer_name, streamer_views, viewers, category_name, lang, date
from streamers
order by id
`

func (q *Queries) ListStreamers(ctx context.Context) ([]Streamer, error) {
	rows, err := q.db.QueryContext(ctx, listStreamers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Streamer
	for rows.Next() {
		var i Streamer
		if err := rows.Scan(
			&i.ID,
			&i.StreamerName,
			&i.StreamerViews,
			&i.Viewers,
			&i.CategoryName,
			&i.Lang,
			&i.Date,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listGames = `
select id, name, views, viewers, date
from games
order by id
`

func (q *Queries) ListGames(ctx context.Context) ([]Game, error) {
	rows, err := q.db.QueryContext(ctx, listGames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Game
	for rows.Next() {
		var i Game
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Views,
			&i.Viewers,
			&i.Date,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listGameCategories = `
select game_name, category
from categories
where game_name = ?
order by category
`

func (q *Queries) ListGameCategories(ctx context.Context, gameName string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listGameCategories, gameName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.GameName, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i.Category)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const streamerSummaries = `
with observed as (
    select streamer_name, viewers, category_name, lang
    from streamers
    where date >= ?
),
popular as (
    select streamer_name, count(*) as appearances, avg(viewers) as mean_viewers
    from observed
    group by streamer_name
    having count(*) >= ?
),
category_counts as (
    select streamer_name, category_name, count(*) as n
    from observed
    group by streamer_name, category_name
),
lang_counts as (
    select streamer_name, lang, count(*) as n
    from observed
    group by streamer_name, lang
)
select
    p.streamer_name,
    p.appearances,
    p.mean_viewers,
    (
        select c.category_name from category_counts c
        where c.streamer_name = p.streamer_name
        order by c.n desc, c.category_name
        limit 1
    ) as top_category,
    (
        select l.lang from lang_counts l
        where l.streamer_name = p.streamer_name
        order by l.n desc, l.lang
        limit 1
    ) as top_lang
from popular p
order by p.mean_viewers desc, p.streamer_name
`

type StreamerSummariesParams struct {
	Since          int64
	MinAppearances int64
}

type StreamerSummariesRow struct {
	StreamerName string
	Appearances  int64
	MeanViewers  float64
	TopCategory  string
	TopLang      string
}

func (q *Queries) StreamerSummaries(ctx context.Context, arg StreamerSummariesParams) ([]StreamerSummariesRow, error) {
	rows, err := q.db.QueryContext(ctx, streamerSummaries, arg.Since, arg.MinAppearances)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StreamerSummariesRow
	for rows.Next() {
		var i StreamerSummariesRow
		if err := rows.Scan(
			&i.StreamerName,
			&i.Appearances,
			&i.MeanViewers,
			&i.TopCategory,
			&i.TopLang,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// gaps between consecutive sightings of the same streamer, only counting
// streamers that pass the appearance threshold
const meanSightingGap = `
with observed as (
    select streamer_name, date
    from streamers
    where date >= ?
),
popular as (
    select streamer_name
    from observed
    group by streamer_name
    having count(*) >= ?
),
gaps as (
    select o.date - lag(o.date) over (
        partition by o.streamer_name
        order by o.date
    ) as gap
    from observed o
    join popular p on p.streamer_name = o.streamer_name
)
select avg(gap)
from gaps
where gap is not null and gap <= ?
`

type MeanSightingGapParams struct {
	Since          int64
	MinAppearances int64
	MaxGap         int64
}

func (q *Queries) MeanSightingGap(ctx context.Context, arg MeanSightingGapParams) (sql.NullFloat64, error) {
	row := q.db.QueryRowContext(ctx, meanSightingGap, arg.Since, arg.MinAppearances, arg.MaxGap)
	var avg sql.NullFloat64
	err := row.Scan(&avg)
	return avg, err
}

const gameSummaries = `
select name, count(*) as appearances, avg(viewers) as mean_viewers
from games
where date >= ?
group by name
having count(*) >= ?
order by mean_viewers desc, name
`

type GameSummariesParams struct {
	Since          int64
	MinAppearances int64
}

type GameSummariesRow struct {
	Name        string
	Appearances int64
	MeanViewers float64
}

func (q *Queries) GameSummaries(ctx context.Context, arg GameSummariesParams) ([]GameSummariesRow, error) {
	rows, err := q.db.QueryContext(ctx, gameSummaries, arg.Since, arg.MinAppearances)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GameSummariesRow
	for rows.Next() {
		var i GameSummariesRow
		if err := rows.Scan(&i.Name, &i.Appearances, &i.MeanViewers); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

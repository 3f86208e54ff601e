// Package pgsync copies plays and computed views into Postgres for hosted
// dashboards. Each sync replaces the tables wholesale inside one transaction.
package pgsync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/export"
	"github.com/ademuri/listen-trends/internal/play"
	"github.com/ademuri/listen-trends/internal/rollup"
)

// Table is one destination table with the rows to copy into it.
type Table struct {
	Name    string
	Create  string
	Indexes []string
	Columns []string
	Rows    [][]interface{}
}

const createPlays = `
CREATE TABLE plays (
	played_at TIMESTAMPTZ NOT NULL,
	ms_played BIGINT NOT NULL,
	track_name TEXT,
	artist_name TEXT,
	album_name TEXT,
	track_uri TEXT,
	date DATE,
	year INTEGER,
	month INTEGER,
	year_month VARCHAR(7),
	dow INTEGER,
	dow_name VARCHAR(20),
	hour INTEGER
)`

const createEvolution = `
CREATE TABLE artist_evolution (
	year_quarter VARCHAR(7) NOT NULL,
	track_name TEXT,
	artist_name TEXT NOT NULL,
	rank INTEGER NOT NULL,
	hours DOUBLE PRECISION NOT NULL
)`

const createArtists = `
CREATE TABLE artists (
	artist_name TEXT PRIMARY KEY,
	genres TEXT
)`

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// PlaysTable holds one row per event with its calendar keys.
func PlaysTable(events []play.Bucketed) Table {
	rows := make([][]interface{}, 0, len(events))
	for _, b := range events {
		e, k := b.Event, b.Bucket
		date, _ := time.Parse("2006-01-02", k.Date)
		rows = append(rows, []interface{}{
			e.PlayedAt, e.MsPlayed,
			nullable(e.Track), nullable(e.Artist), nullable(e.Album), nullable(e.TrackURI),
			date, k.Year, k.Month, k.YearMonth, k.Weekday, k.WeekdayName, k.Hour,
		})
	}
	return Table{
		Name:   "plays",
		Create: createPlays,
		Indexes: []string{
			"CREATE INDEX idx_plays_year_month ON plays(year_month)",
			"CREATE INDEX idx_plays_date ON plays(date)",
		},
		Columns: []string{
			"played_at", "ms_played", "track_name", "artist_name", "album_name", "track_uri",
			"date", "year", "month", "year_month", "dow", "dow_name", "hour",
		},
		Rows: rows,
	}
}

func EvolutionTable(evolution []export.EvolutionRow) Table {
	rows := make([][]interface{}, 0, len(evolution))
	for _, r := range evolution {
		rows = append(rows, []interface{}{r.YearQuarter, nullable(r.TrackName), r.ArtistName, r.Rank, r.Hours})
	}
	return Table{
		Name:    "artist_evolution",
		Create:  createEvolution,
		Indexes: []string{"CREATE INDEX idx_artist_evolution_quarter ON artist_evolution(year_quarter)"},
		Columns: []string{"year_quarter", "track_name", "artist_name", "rank", "hours"},
		Rows:    rows,
	}
}

// ArtistsTable lists every artist in events with their comma-separated broad
// genres, sorted by name. A nil lookup leaves genres empty.
func ArtistsTable(events []play.Bucketed, lookup rollup.GenreLookup) Table {
	seen := make(map[string]bool)
	var names []string
	for _, b := range events {
		if a, ok := play.Artist.Key(b.Event); ok && !seen[a] {
			seen[a] = true
			names = append(names, a)
		}
	}
	sort.Strings(names)

	rows := make([][]interface{}, 0, len(names))
	for _, name := range names {
		var genres interface{}
		if lookup != nil {
			genres = nullable(strings.Join(lookup(name), ", "))
		}
		rows = append(rows, []interface{}{name, genres})
	}
	return Table{
		Name:    "artists",
		Create:  createArtists,
		Columns: []string{"artist_name", "genres"},
		Rows:    rows,
	}
}

type Syncer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens a connection pool to url.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Syncer, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnIdleTime = 5 * time.Minute
	config.MaxConnLifetime = 1 * time.Hour
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Syncer{pool: pool, logger: logger}, nil
}

func (s *Syncer) Close() {
	s.pool.Close()
}

// Sync drops and recreates each table, copies its rows and builds its
// indexes. Nothing is visible until every table has been copied.
func (s *Syncer) Sync(ctx context.Context, tables []Table) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tables {
		start := time.Now()
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{t.Name}.Sanitize()+" CASCADE"); err != nil {
			return fmt.Errorf("dropping %s: %w", t.Name, err)
		}
		if _, err := tx.Exec(ctx, t.Create); err != nil {
			return fmt.Errorf("creating %s: %w", t.Name, err)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, pgx.CopyFromRows(t.Rows))
		if err != nil {
			return fmt.Errorf("copying %s: %w", t.Name, err)
		}
		for _, index := range t.Indexes {
			if _, err := tx.Exec(ctx, index); err != nil {
				return fmt.Errorf("indexing %s: %w", t.Name, err)
			}
		}
		s.logger.Info("synced table",
			zap.String("table", t.Name),
			zap.Int64("rows", n),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Package export computes every dashboard view from one event set and writes
// the views to disk.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/listen-trends/internal/leaderboard"
	"github.com/ademuri/listen-trends/internal/play"
	"github.com/ademuri/listen-trends/internal/rollup"
)

// EvolutionRow is a leaderboard entry with its category key split into
// display names.
type EvolutionRow struct {
	YearQuarter string  `json:"year_quarter" yaml:"year_quarter"`
	TrackName   string  `json:"track_name,omitempty" yaml:"track_name,omitempty"`
	ArtistName  string  `json:"artist_name" yaml:"artist_name"`
	Rank        int     `json:"rank" yaml:"rank"`
	Hours       float64 `json:"hours" yaml:"hours"`
}

// Views holds every computed view.
type Views struct {
	Summary       rollup.Summary
	Monthly       []rollup.MonthlyRow
	DayOfWeek     []rollup.DayOfWeekRow
	Hourly        []rollup.HourRow
	TopArtists    []rollup.TopRow
	TopTracks     []rollup.TopRow
	Evolution     []EvolutionRow
	DiscoveryRate []rollup.DiscoveryRow
	Genres        []rollup.GenreRow
}

type Options struct {
	// TopN limits the monthly top lists. Zero keeps everything.
	TopN int

	// Dimension and Leaderboard configure the evolution view.
	Dimension   play.Dimension
	Leaderboard leaderboard.Options

	// Genres supplies each artist's broad genres. Nil skips the genre view.
	Genres rollup.GenreLookup
}

// EvolutionRows converts leaderboard entries for dim into output rows.
func EvolutionRows(entries []leaderboard.Entry, dim play.Dimension) []EvolutionRow {
	rows := make([]EvolutionRow, 0, len(entries))
	for _, e := range entries {
		name, artist := dim.SplitKey(e.Category)
		row := EvolutionRow{
			YearQuarter: e.Quarter,
			ArtistName:  artist,
			Rank:        e.Rank,
			Hours:       e.Hours,
		}
		if dim == play.Track {
			row.TrackName = name
		}
		rows = append(rows, row)
	}
	return rows
}

// Build computes all views. Timestamps in the summary are rendered in loc.
func Build(events []play.Bucketed, loc *time.Location, opts Options) Views {
	entries := leaderboard.Compute(events, opts.Dimension, opts.Leaderboard)
	return Views{
		Summary:       rollup.Summarize(events, loc),
		Monthly:       rollup.Monthly(events),
		DayOfWeek:     rollup.DayOfWeek(events),
		Hourly:        rollup.Hourly(events),
		TopArtists:    rollup.Top(events, play.Artist, opts.TopN),
		TopTracks:     rollup.Top(events, play.Track, opts.TopN),
		Evolution:     EvolutionRows(entries, opts.Dimension),
		DiscoveryRate: rollup.DiscoveryRate(events),
		Genres:        rollup.Genres(events, opts.Genres),
	}
}

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// Manifest describes one export run.
type Manifest struct {
	RunID         string   `json:"run_id" yaml:"run_id"`
	GeneratedAt   string   `json:"generated_at" yaml:"generated_at"`
	Timezone      string   `json:"timezone" yaml:"timezone"`
	Events        int      `json:"events" yaml:"events"`
	FirstPlayedAt string   `json:"first_played_at" yaml:"first_played_at"`
	LastPlayedAt  string   `json:"last_played_at" yaml:"last_played_at"`
	Files         []string `json:"files" yaml:"files"`
}

// NewManifest starts a manifest for an export of events.
func NewManifest(events []play.Bucketed, loc *time.Location, now time.Time) Manifest {
	m := Manifest{
		RunID:       uuid.New().String(),
		GeneratedAt: now.In(loc).Format(time.RFC3339),
		Timezone:    loc.String(),
	}
	x := play.ExtentOf(events)
	m.Events = x.Count
	if x.Count > 0 {
		m.FirstPlayedAt = x.First.In(loc).Format(time.RFC3339)
		m.LastPlayedAt = x.Last.In(loc).Format(time.RFC3339)
	}
	return m
}

// File is one output file: its name without extension and its contents.
type File struct {
	Name string
	Data interface{}
}

// Files lists each view in write order.
func (v Views) Files() []File {
	return []File{
		{"summary", v.Summary},
		{"monthly", nonNil(v.Monthly)},
		{"dow", nonNil(v.DayOfWeek)},
		{"hour", nonNil(v.Hourly)},
		{"top_artists", nonNil(v.TopArtists)},
		{"top_tracks", nonNil(v.TopTracks)},
		{"artist_evolution", nonNil(v.Evolution)},
		{"discovery_rate", nonNil(v.DiscoveryRate)},
		{"genres", nonNil(v.Genres)},
	}
}

// nonNil makes empty views encode as [] rather than null.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// Write writes each view and then the manifest into dir, creating it if
// needed, and returns the paths written.
func Write(dir string, v Views, format Format, m Manifest) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var paths []string
	for _, f := range v.Files() {
		path := filepath.Join(dir, f.Name+"."+string(format))
		if err := writeFile(path, f.Data, format); err != nil {
			return paths, err
		}
		paths = append(paths, path)
		m.Files = append(m.Files, filepath.Base(path))
	}

	path := filepath.Join(dir, "manifest."+string(format))
	if err := writeFile(path, m, format); err != nil {
		return paths, err
	}
	return append(paths, path), nil
}

func writeFile(path string, data interface{}, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := Encode(f, data, format); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// Encode writes data to w as indented JSON or YAML.
func Encode(w io.Writer, data interface{}, format Format) error {
	if format == YAML {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

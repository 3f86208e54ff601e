package pgsync

import (
	"testing"
	"time"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/export"
	"github.com/ademuri/listen-trends/internal/play"
)

func events() []play.Bucketed {
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		panic(err)
	}
	return play.BucketAll([]play.Event{
		{PlayedAt: time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC), MsPlayed: 1000, Track: "T", Artist: "B"},
		{PlayedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), MsPlayed: 2000, Artist: "A"},
		{PlayedAt: time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), MsPlayed: 3000, Track: "U", Artist: "B"},
	}, calendar.New(toronto))
}

func TestPlaysTable(t *testing.T) {
	table := PlaysTable(events())
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			t.Errorf("row %d has %d values for %d columns", i, len(row), len(table.Columns))
		}
	}

	// Calendar columns use the local date: 03:30 UTC is the previous evening
	// in Toronto.
	first := table.Rows[0]
	if got := first[6].(time.Time).Format("2006-01-02"); got != "2024-02-29" {
		t.Errorf("date = %s, want 2024-02-29", got)
	}
	if first[9] != "2024-02" || first[12] != 22 {
		t.Errorf("year_month, hour = %v, %v", first[9], first[12])
	}

	// Missing categories are NULL.
	if table.Rows[1][2] != nil {
		t.Errorf("track_name = %v, want nil", table.Rows[1][2])
	}
}

func TestEvolutionTable(t *testing.T) {
	table := EvolutionTable([]export.EvolutionRow{
		{YearQuarter: "2024-Q1", ArtistName: "B", Rank: 1, Hours: 1.5},
		{YearQuarter: "2024-Q1", TrackName: "T", ArtistName: "B", Rank: 2, Hours: 0.5},
	})
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows", len(table.Rows))
	}
	if table.Rows[0][1] != nil || table.Rows[1][1] != "T" {
		t.Errorf("track names = %v, %v", table.Rows[0][1], table.Rows[1][1])
	}
	if table.Rows[0][3] != 1 || table.Rows[0][4] != 1.5 {
		t.Errorf("row 0 = %v", table.Rows[0])
	}
}

func TestArtistsTable(t *testing.T) {
	lookup := func(artist string) []string {
		if artist == "B" {
			return []string{"Rock", "Pop"}
		}
		return nil
	}
	table := ArtistsTable(events(), lookup)
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if table.Rows[0][0] != "A" || table.Rows[0][1] != nil {
		t.Errorf("row 0 = %v", table.Rows[0])
	}
	if table.Rows[1][0] != "B" || table.Rows[1][1] != "Rock, Pop" {
		t.Errorf("row 1 = %v", table.Rows[1])
	}

	if got := ArtistsTable(events(), nil); got.Rows[1][1] != nil {
		t.Errorf("nil lookup genres = %v", got.Rows[1][1])
	}
}

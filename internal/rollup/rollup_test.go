package rollup

import (
	"reflect"
	"testing"
	"time"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/play"
)

const minute = int64(60_000)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func bucket(events ...play.Event) []play.Bucketed {
	return play.BucketAll(events, calendar.New(time.UTC))
}

func sampleEvents() []play.Bucketed {
	return bucket(
		play.Event{PlayedAt: at(2024, 1, 7, 9), MsPlayed: 30 * minute, Track: "One", Artist: "A"},
		play.Event{PlayedAt: at(2024, 1, 7, 9), MsPlayed: 30 * minute, Track: "Two", Artist: "A"},
		play.Event{PlayedAt: at(2024, 1, 8, 22), MsPlayed: 90 * minute, Track: "One", Artist: "B"},
		play.Event{PlayedAt: at(2024, 2, 1, 0), MsPlayed: 60 * minute, Track: "One", Artist: "A"},
		play.Event{PlayedAt: at(2024, 2, 2, 0), MsPlayed: 6 * minute, Artist: "C"},
	)
}

func TestMonthly(t *testing.T) {
	got := Monthly(sampleEvents())
	want := []MonthlyRow{
		{YearMonth: "2024-01", Year: 2024, Month: 1, Hours: 2.5, Plays: 3, UniqueTracks: 3, UniqueArtists: 2},
		{YearMonth: "2024-02", Year: 2024, Month: 2, Hours: 1.1, Plays: 2, UniqueTracks: 1, UniqueArtists: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Monthly() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestDayOfWeek(t *testing.T) {
	got := DayOfWeek(sampleEvents())
	want := []DayOfWeekRow{
		{YearMonth: "2024-01", Dow: 0, DowName: "Sunday", Hours: 1, Plays: 2},
		{YearMonth: "2024-01", Dow: 1, DowName: "Monday", Hours: 1.5, Plays: 1},
		{YearMonth: "2024-02", Dow: 4, DowName: "Thursday", Hours: 1, Plays: 1},
		{YearMonth: "2024-02", Dow: 5, DowName: "Friday", Hours: 0.1, Plays: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DayOfWeek() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestHourly(t *testing.T) {
	got := Hourly(sampleEvents())
	want := []HourRow{
		{YearMonth: "2024-01", Hour: 9, Hours: 1, Plays: 2},
		{YearMonth: "2024-01", Hour: 22, Hours: 1.5, Plays: 1},
		{YearMonth: "2024-02", Hour: 0, Hours: 1.1, Plays: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hourly() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestTopArtists(t *testing.T) {
	got := Top(sampleEvents(), play.Artist, 1)
	want := []TopRow{
		{YearMonth: "2024-01", ArtistName: "B", Hours: 1.5, Plays: 1},
		{YearMonth: "2024-02", ArtistName: "A", Hours: 1, Plays: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Top(artist, 1) =\n%+v\nwant\n%+v", got, want)
	}
}

func TestTopTracksKeyedByArtist(t *testing.T) {
	got := Top(sampleEvents(), play.Track, 0)
	want := []TopRow{
		{YearMonth: "2024-01", TrackName: "One", ArtistName: "B", Hours: 1.5, Plays: 1},
		{YearMonth: "2024-01", TrackName: "One", ArtistName: "A", Hours: 0.5, Plays: 1},
		{YearMonth: "2024-01", TrackName: "Two", ArtistName: "A", Hours: 0.5, Plays: 1},
		{YearMonth: "2024-02", TrackName: "One", ArtistName: "A", Hours: 1, Plays: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Top(track, 0) =\n%+v\nwant\n%+v", got, want)
	}
}

func TestTopTiesKeepFirstSeenOrder(t *testing.T) {
	events := bucket(
		play.Event{PlayedAt: at(2024, 3, 1, 0), MsPlayed: minute, Artist: "Zed"},
		play.Event{PlayedAt: at(2024, 3, 2, 0), MsPlayed: minute, Artist: "Abe"},
		play.Event{PlayedAt: at(2024, 3, 3, 0), MsPlayed: minute, Artist: "Mid"},
	)
	got := Top(events, play.Artist, 0)
	var names []string
	for _, r := range got {
		names = append(names, r.ArtistName)
	}
	if !reflect.DeepEqual(names, []string{"Zed", "Abe", "Mid"}) {
		t.Errorf("tie order = %v", names)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sampleEvents(), time.UTC)
	want := Summary{
		TotalHours:    3.6,
		TotalPlays:    5,
		UniqueTracks:  3,
		UniqueArtists: 3,
		FirstPlayedAt: "2024-01-07T09:00:00Z",
		LastPlayedAt:  "2024-02-02T00:00:00Z",
	}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestDiscoveryRate(t *testing.T) {
	events := bucket(
		play.Event{PlayedAt: at(2024, 1, 1, 0), MsPlayed: 60 * minute, Track: "Old", Artist: "A"},
		play.Event{PlayedAt: at(2024, 2, 1, 0), MsPlayed: 30 * minute, Track: "Old", Artist: "A"},
		play.Event{PlayedAt: at(2024, 2, 2, 0), MsPlayed: 90 * minute, Track: "New", Artist: "A"},
		play.Event{PlayedAt: at(2024, 2, 3, 0), MsPlayed: 90 * minute, Artist: "NoTrack"},
	)
	got := DiscoveryRate(events)
	want := []DiscoveryRow{
		{YearMonth: "2024-01", DiscoveryRateHours: 100, DiscoveryRatePlays: 100},
		{YearMonth: "2024-02", DiscoveryRateHours: 75, DiscoveryRatePlays: 50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DiscoveryRate() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestDiscoveryUsesEarliestPlay(t *testing.T) {
	// Input order must not matter.
	events := bucket(
		play.Event{PlayedAt: at(2024, 5, 1, 0), MsPlayed: minute, Track: "T", Artist: "A"},
		play.Event{PlayedAt: at(2024, 4, 1, 0), MsPlayed: minute, Track: "T", Artist: "A"},
	)
	got := DiscoveryRate(events)
	if len(got) != 2 || got[0].DiscoveryRatePlays != 100 || got[1].DiscoveryRatePlays != 0 {
		t.Errorf("DiscoveryRate() = %+v", got)
	}
}

func TestGenres(t *testing.T) {
	lookup := func(artist string) []string {
		switch artist {
		case "A":
			return []string{"Rock", "Pop"}
		case "B":
			return []string{"Jazz"}
		}
		return nil
	}
	events := bucket(
		play.Event{PlayedAt: at(2024, 1, 1, 0), MsPlayed: 60 * minute, Track: "x", Artist: "A"},
		play.Event{PlayedAt: at(2024, 1, 2, 0), MsPlayed: 90 * minute, Track: "y", Artist: "B"},
		play.Event{PlayedAt: at(2024, 1, 3, 0), MsPlayed: 60 * minute, Track: "z", Artist: "Unknown"},
	)
	got := Genres(events, lookup)
	want := []GenreRow{
		{YearMonth: "2024-01", Genre: "Jazz", Hours: 1.5, Plays: 1},
		{YearMonth: "2024-01", Genre: "Pop", Hours: 0.5, Plays: 1},
		{YearMonth: "2024-01", Genre: "Rock", Hours: 0.5, Plays: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Genres() =\n%+v\nwant\n%+v", got, want)
	}

	if rows := Genres(events, nil); len(rows) != 0 {
		t.Errorf("Genres with nil lookup = %v", rows)
	}
}

func TestEmptyInput(t *testing.T) {
	if len(Monthly(nil)) != 0 || len(DayOfWeek(nil)) != 0 || len(Hourly(nil)) != 0 {
		t.Error("histograms of no events are not empty")
	}
	if len(Top(nil, play.Artist, 5)) != 0 || len(DiscoveryRate(nil)) != 0 {
		t.Error("top or discovery of no events is not empty")
	}
	if s := Summarize(nil, time.UTC); s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}

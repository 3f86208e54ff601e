package play

import (
	"testing"
	"time"

	"github.com/ademuri/listen-trends/internal/calendar"
)

func TestDimensionKey(t *testing.T) {
	e := Event{Track: "Song", Artist: "Band"}

	if k, ok := Artist.Key(e); !ok || k != "Band" {
		t.Errorf("Artist.Key = %q, %v", k, ok)
	}

	k, ok := Track.Key(e)
	if !ok {
		t.Fatal("Track.Key reported missing")
	}
	name, artist := Track.SplitKey(k)
	if name != "Song" || artist != "Band" {
		t.Errorf("SplitKey(%q) = %q, %q", k, name, artist)
	}

	if _, ok := Artist.Key(Event{Track: "Song"}); ok {
		t.Error("Artist.Key on event without artist reported present")
	}
	if _, ok := Track.Key(Event{Artist: "Band"}); ok {
		t.Error("Track.Key on event without track reported present")
	}
}

func TestTrackKeyDistinguishesArtists(t *testing.T) {
	a, _ := Track.Key(Event{Track: "Intro", Artist: "A"})
	b, _ := Track.Key(Event{Track: "Intro", Artist: "B"})
	if a == b {
		t.Errorf("tracks with the same name by different artists share key %q", a)
	}
}

func TestParseDimension(t *testing.T) {
	for in, want := range map[string]Dimension{"": Artist, "artist": Artist, "Track": Track} {
		got, err := ParseDimension(in)
		if err != nil || got != want {
			t.Errorf("ParseDimension(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDimension("album"); err == nil {
		t.Error("ParseDimension(album) succeeded")
	}
}

func TestRoundHours(t *testing.T) {
	if got := RoundHours(Hours(5_400_000)); got != 1.5 {
		t.Errorf("RoundHours(1.5h) = %v", got)
	}
	if got := RoundHours(Hours(1_000)); got != 0 {
		t.Errorf("RoundHours(1s) = %v, want 0", got)
	}
	if got := RoundHours(1.0 / 3); got != 0.33 {
		t.Errorf("RoundHours(1/3) = %v, want 0.33", got)
	}
}

func TestExtent(t *testing.T) {
	cal := calendar.New(time.UTC)
	t1 := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	events := BucketAll([]Event{
		{PlayedAt: t1, MsPlayed: 100},
		{PlayedAt: t2, MsPlayed: 50},
	}, cal)

	x := ExtentOf(events)
	if x.Count != 2 || !x.First.Equal(t2) || !x.Last.Equal(t1) || x.TotalMs != 150 {
		t.Errorf("ExtentOf = %+v", x)
	}

	if x.Hash() != ExtentOf(events).Hash() {
		t.Error("Hash is not stable")
	}
	if x.Hash() == ExtentOf(events[:1]).Hash() {
		t.Error("different extents share a hash")
	}
	if ExtentOf(nil).Count != 0 {
		t.Error("empty extent has nonzero count")
	}
}

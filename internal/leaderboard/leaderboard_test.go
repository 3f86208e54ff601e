package leaderboard

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/play"
)

const hour = int64(3_600_000)

var utc = calendar.New(time.UTC)

// listen returns a play of the given hours by artist in the middle month of
// the quarter.
func listen(artist string, year, quarter int, hours float64) play.Event {
	month := time.Month((quarter-1)*3 + 2)
	return play.Event{
		PlayedAt: time.Date(year, month, 15, 12, 0, 0, 0, time.UTC),
		MsPlayed: int64(hours * float64(hour)),
		Track:    "Track by " + artist,
		Artist:   artist,
	}
}

func bucket(events ...play.Event) []play.Bucketed {
	return play.BucketAll(events, utc)
}

func find(entries []Entry, quarter, category string) (Entry, bool) {
	for _, e := range entries {
		if e.Quarter == quarter && e.Category == category {
			return e, true
		}
	}
	return Entry{}, false
}

func checkEntry(t *testing.T, entries []Entry, quarter, category string, rank int, hours float64) {
	t.Helper()
	e, ok := find(entries, quarter, category)
	if !ok {
		t.Errorf("no entry for %s at %s", category, quarter)
		return
	}
	if e.Rank != rank || math.Abs(e.Hours-hours) > 1e-9 {
		t.Errorf("%s at %s = rank %d, %.2fh; want rank %d, %.2fh", category, quarter, e.Rank, e.Hours, rank, hours)
	}
}

func abEvents() []play.Bucketed {
	return bucket(
		listen("A", 2023, 1, 10),
		listen("B", 2023, 1, 3),
		listen("B", 2023, 2, 3),
		listen("B", 2023, 3, 3),
		listen("B", 2023, 4, 3),
		// A zero-length play puts 2024-Q1 on the spine without adding time.
		listen("B", 2024, 1, 0),
	)
}

func TestRollingRanking(t *testing.T) {
	got := Compute(abEvents(), play.Artist, Options{})

	checkEntry(t, got, "2023-Q1", "A", 1, 10)
	checkEntry(t, got, "2023-Q1", "B", 2, 3)
	checkEntry(t, got, "2023-Q2", "A", 1, 10)
	checkEntry(t, got, "2023-Q2", "B", 2, 6)
	checkEntry(t, got, "2023-Q4", "B", 1, 12)
	checkEntry(t, got, "2023-Q4", "A", 2, 10)
	checkEntry(t, got, "2024-Q1", "B", 1, 9)

	if e, ok := find(got, "2024-Q1", "A"); ok {
		t.Errorf("A ranked at 2024-Q1 after leaving the window: %+v", e)
	}
}

func TestOutputOrder(t *testing.T) {
	got := Compute(abEvents(), play.Artist, Options{})
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Quarter > cur.Quarter || (prev.Quarter == cur.Quarter && prev.Rank >= cur.Rank) {
			t.Fatalf("entries out of order at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestLeftTruncation(t *testing.T) {
	// The first observed quarter sums only itself.
	got := Compute(bucket(listen("A", 2020, 1, 2), listen("A", 2020, 2, 1)), play.Artist, Options{})
	checkEntry(t, got, "2020-Q1", "A", 1, 2)
	checkEntry(t, got, "2020-Q2", "A", 1, 3)
}

func TestWindowWidth(t *testing.T) {
	g := BuildGrid(bucket(
		listen("A", 2022, 4, 1),
		listen("A", 2023, 1, 2),
		listen("A", 2023, 2, 4),
		listen("A", 2023, 3, 8),
		listen("A", 2023, 4, 16),
	), play.Artist)

	q := calendar.Quarter{Year: 2023, Num: 4}
	if got := g.Rolling("A", q.Index()); got != 30 {
		t.Errorf("Rolling at 2023-Q4 = %v, want 30 (2022-Q4 excluded)", got)
	}
	q = calendar.Quarter{Year: 2023, Num: 3}
	if got := g.Rolling("A", q.Index()); got != 15 {
		t.Errorf("Rolling at 2023-Q3 = %v, want 15", got)
	}
}

func TestWindowSpansGapsByIndex(t *testing.T) {
	// Quarters missing from the spine still count as window positions.
	got := Compute(bucket(
		listen("A", 2020, 1, 5),
		listen("B", 2021, 1, 1),
	), play.Artist, Options{})

	if _, ok := find(got, "2021-Q1", "A"); ok {
		t.Error("A ranked at 2021-Q1, four quarters after its only play")
	}
	checkEntry(t, got, "2021-Q1", "B", 1, 1)
}

func TestDensification(t *testing.T) {
	g := BuildGrid(bucket(
		listen("A", 2023, 1, 1),
		listen("B", 2023, 3, 1),
		listen("C", 2024, 2, 1),
	), play.Artist)

	spine := g.Spine()
	universe := g.Universe()
	if len(spine) != 3 || len(universe) != 3 {
		t.Fatalf("spine %v, universe %v", spine, universe)
	}

	cells := g.Cells()
	if len(cells) != len(spine)*len(universe) {
		t.Fatalf("Cells() returned %d cells, want %d", len(cells), len(spine)*len(universe))
	}
	seen := make(map[string]bool)
	zeros := 0
	for _, c := range cells {
		key := c.Quarter.Key() + "/" + c.Category
		if seen[key] {
			t.Errorf("duplicate cell %s", key)
		}
		seen[key] = true
		if c.Hours == 0 {
			zeros++
		}
	}
	if zeros != 6 {
		t.Errorf("got %d zero cells, want 6", zeros)
	}
}

func TestSpineIsSorted(t *testing.T) {
	g := BuildGrid(bucket(
		listen("A", 2024, 1, 1),
		listen("A", 2019, 4, 1),
		listen("A", 2021, 2, 1),
	), play.Artist)

	want := []calendar.Quarter{{Year: 2019, Num: 4}, {Year: 2021, Num: 2}, {Year: 2024, Num: 1}}
	if got := g.Spine(); !reflect.DeepEqual(got, want) {
		t.Errorf("Spine() = %v, want %v", got, want)
	}
}

func TestZeroActivityNotRanked(t *testing.T) {
	got := Compute(bucket(
		listen("A", 2023, 1, 1),
		listen("Silent", 2023, 1, 0),
	), play.Artist, Options{})

	for _, e := range got {
		if e.Category == "Silent" {
			t.Errorf("zero-activity category ranked: %+v", e)
		}
		if e.Hours <= 0 {
			t.Errorf("entry with no time: %+v", e)
		}
	}
	checkEntry(t, got, "2023-Q1", "A", 1, 1)
}

func TestMissingKeysExcluded(t *testing.T) {
	noArtist := listen("", 2023, 1, 5)
	got := Compute(bucket(noArtist, listen("A", 2023, 2, 1)), play.Artist, Options{})

	if len(got) != 1 {
		t.Fatalf("got %v, want only A at 2023-Q2", got)
	}
	checkEntry(t, got, "2023-Q2", "A", 1, 1)
}

func TestTieBreakByCategory(t *testing.T) {
	got := Compute(bucket(
		listen("Zed", 2023, 1, 2),
		listen("Abe", 2023, 1, 2),
	), play.Artist, Options{})

	checkEntry(t, got, "2023-Q1", "Abe", 1, 2)
	checkEntry(t, got, "2023-Q1", "Zed", 2, 2)
}

func TestTieAcrossQuarterSums(t *testing.T) {
	at := func(artist string, month time.Month, ms int64) play.Event {
		return play.Event{
			PlayedAt: time.Date(2023, month, 15, 12, 0, 0, 0, time.UTC),
			MsPlayed: ms,
			Artist:   artist,
		}
	}
	// 0.1h + 0.2h against a single 0.3h.
	got := Compute(bucket(
		at("Z", time.February, 360_000),
		at("Z", time.May, 720_000),
		at("A", time.May, 1_080_000),
	), play.Artist, Options{})

	checkEntry(t, got, "2023-Q2", "A", 1, 0.3)
	checkEntry(t, got, "2023-Q2", "Z", 2, 0.3)

	g := BuildGrid(bucket(
		at("Z", time.February, 360_000),
		at("Z", time.May, 720_000),
		at("A", time.May, 1_080_000),
	), play.Artist)
	qi := calendar.Quarter{Year: 2023, Num: 2}.Index()
	if a, z := g.Rolling("A", qi), g.Rolling("Z", qi); a != z {
		t.Errorf("Rolling(A) = %v, Rolling(Z) = %v; want equal", a, z)
	}
}

func TestRetentionKeepsFullHistory(t *testing.T) {
	events := bucket(
		listen("A", 2023, 1, 10),
		listen("B", 2023, 1, 3),
		listen("B", 2023, 2, 3),
		listen("B", 2023, 3, 3),
		listen("B", 2023, 4, 3),
		listen("C", 2023, 2, 1),
	)
	got := Compute(events, play.Artist, Options{TopK: 1})

	// A led early and B led late; both appear at every active quarter.
	checkEntry(t, got, "2023-Q1", "B", 2, 3)
	checkEntry(t, got, "2023-Q4", "A", 2, 10)
	for _, q := range []string{"2023-Q1", "2023-Q2", "2023-Q3", "2023-Q4"} {
		for _, c := range []string{"A", "B"} {
			if _, ok := find(got, q, c); !ok {
				t.Errorf("%s missing at %s", c, q)
			}
		}
	}
	for _, e := range got {
		if e.Category == "C" {
			t.Errorf("C never led but was retained: %+v", e)
		}
	}
}

func TestRetentionMonotonicInK(t *testing.T) {
	var events []play.Event
	for i := 0; i < 15; i++ {
		artist := fmt.Sprintf("artist-%02d", i)
		events = append(events, listen(artist, 2022, 1+i%4, float64(i+1)))
		events = append(events, listen(artist, 2023, 1+(i*3)%4, float64(15-i)))
	}
	b := bucket(events...)

	categories := func(k int) map[string]bool {
		set := make(map[string]bool)
		for _, e := range Compute(b, play.Artist, Options{TopK: k}) {
			set[e.Category] = true
		}
		return set
	}

	prev := categories(1)
	for k := 2; k <= 16; k++ {
		cur := categories(k)
		for c := range prev {
			if !cur[c] {
				t.Errorf("category %s retained at K=%d but not K=%d", c, k-1, k)
			}
		}
		prev = cur
	}
	if len(prev) != 15 {
		t.Errorf("K=16 retained %d categories, want all 15", len(prev))
	}
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	var events []play.Event
	for i := 0; i < 200; i++ {
		artist := fmt.Sprintf("artist-%03d", i%37)
		year := 2015 + i%9
		events = append(events, listen(artist, year, 1+i%4, float64(i%11)+0.25))
	}
	b := bucket(events...)

	want := Compute(b, play.Artist, Options{Workers: 1})
	for _, w := range []int{2, 3, 8, 64} {
		got := Compute(b, play.Artist, Options{Workers: w})
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Workers=%d output differs from Workers=1", w)
		}
	}
	if again := Compute(b, play.Artist, Options{Workers: 1}); !reflect.DeepEqual(again, want) {
		t.Error("repeated computation differs")
	}
}

func TestTrackDimension(t *testing.T) {
	a := listen("A", 2023, 1, 2)
	a.Track = "Intro"
	b := listen("B", 2023, 1, 1)
	b.Track = "Intro"

	got := Compute(bucket(a, b), play.Track, Options{})
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 distinct tracks", len(got))
	}
	name, artist := play.Track.SplitKey(got[0].Category)
	if name != "Intro" || artist != "A" || got[0].Rank != 1 {
		t.Errorf("top entry = %q by %q rank %d", name, artist, got[0].Rank)
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Compute(nil, play.Artist, Options{}); len(got) != 0 {
		t.Errorf("Compute(nil) = %v", got)
	}
	g := BuildGrid(nil, play.Artist)
	if len(g.Cells()) != 0 || len(g.Spine()) != 0 {
		t.Error("empty grid has cells")
	}
}

func TestSingleQuarterCategory(t *testing.T) {
	got := Compute(bucket(listen("Once", 2024, 3, 4)), play.Artist, Options{})
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	checkEntry(t, got, "2024-Q3", "Once", 1, 4)
}

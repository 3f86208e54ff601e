package leaderboard

import (
	"sort"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/play"
)

// Grid holds per-quarter listening time for every category in an event set.
// Lookups for any (quarter, category) pair not backed by an event return
// zero, so the grid behaves as the dense cross product of its spine and
// universe without materializing it.
type Grid struct {
	dim      play.Dimension
	spine    []int
	pos      map[int]int
	universe []string
	ms       map[string]map[int]int64
}

// Cell is one (quarter, category) point of the dense grid.
type Cell struct {
	Quarter  calendar.Quarter
	Category string
	Hours    float64
}

// BuildGrid sums play time per quarter and category. Events with no key for
// dim do not qualify: they contribute neither time nor a quarter to the
// spine.
func BuildGrid(events []play.Bucketed, dim play.Dimension) *Grid {
	g := &Grid{
		dim: dim,
		pos: make(map[int]int),
		ms:  make(map[string]map[int]int64),
	}

	for _, b := range events {
		key, ok := dim.Key(b.Event)
		if !ok {
			continue
		}
		qi := b.Bucket.Quarter.Index()
		if _, seen := g.pos[qi]; !seen {
			g.pos[qi] = -1
			g.spine = append(g.spine, qi)
		}
		byQuarter, seen := g.ms[key]
		if !seen {
			byQuarter = make(map[int]int64)
			g.ms[key] = byQuarter
			g.universe = append(g.universe, key)
		}
		byQuarter[qi] += b.Event.MsPlayed
	}

	sort.Ints(g.spine)
	for i, qi := range g.spine {
		g.pos[qi] = i
	}
	sort.Strings(g.universe)
	return g
}

// Dimension returns the dimension the grid was built for.
func (g *Grid) Dimension() play.Dimension {
	return g.dim
}

// Spine returns the distinct quarters observed, in chronological order.
func (g *Grid) Spine() []calendar.Quarter {
	out := make([]calendar.Quarter, len(g.spine))
	for i, qi := range g.spine {
		out[i] = calendar.QuarterFromIndex(qi)
	}
	return out
}

// Universe returns the distinct category keys observed, sorted.
func (g *Grid) Universe() []string {
	return append([]string(nil), g.universe...)
}

// Period returns the hours category spent in the quarter with index qi.
func (g *Grid) Period(category string, qi int) float64 {
	return play.Hours(g.ms[category][qi])
}

// Rolling returns the trailing sum of Period over the window of
// WindowQuarters quarters ending at qi. Quarters before the first observed
// quarter contribute nothing.
func (g *Grid) Rolling(category string, qi int) float64 {
	return play.Hours(g.rollingMs(category, qi))
}

// rollingMs sums the window in milliseconds, so equal play time always
// compares equal.
func (g *Grid) rollingMs(category string, qi int) int64 {
	byQuarter := g.ms[category]
	var sum int64
	for i := qi - WindowQuarters + 1; i <= qi; i++ {
		sum += byQuarter[i]
	}
	return sum
}

// Cells enumerates the full dense grid, quarter-major, including zero cells.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, len(g.spine)*len(g.universe))
	for _, qi := range g.spine {
		q := calendar.QuarterFromIndex(qi)
		for _, c := range g.universe {
			cells = append(cells, Cell{Quarter: q, Category: c, Hours: g.Period(c, qi)})
		}
	}
	return cells
}

// rollingFor returns the nonzero rolling values of one category, keyed by
// spine position. Only spine quarters within the window of an active quarter
// can be nonzero, so only those are evaluated.
func (g *Grid) rollingFor(category string) []rolled {
	active := g.ms[category]
	seen := make(map[int]bool)
	var out []rolled
	for qi := range active {
		for next := qi; next < qi+WindowQuarters; next++ {
			p, ok := g.pos[next]
			if !ok || seen[p] {
				continue
			}
			seen[p] = true
			if v := g.rollingMs(category, next); v > 0 {
				out = append(out, rolled{pos: p, ms: v})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

type rolled struct {
	pos int
	ms  int64
}

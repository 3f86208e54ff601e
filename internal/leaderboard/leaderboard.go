// Package leaderboard ranks categories by trailing twelve-month listening time
// at every quarter, keeping only the categories that were ever near the top.
package leaderboard

import (
	"runtime"
	"sort"
	"sync"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/play"
)

const (
	// WindowQuarters is the width of the rolling window: the current quarter
	// and the three before it.
	WindowQuarters = 4

	DefaultTopK = 10
)

type Options struct {
	// TopK is the rank a category must reach in at least one quarter to be
	// retained. Zero or negative means DefaultTopK.
	TopK int

	// Workers bounds the goroutines computing rolling sums. Zero or negative
	// means runtime.GOMAXPROCS(0).
	Workers int
}

// Entry is one ranked point of the output series. Hours is rounded to two
// decimals.
type Entry struct {
	Quarter  string  `json:"year_quarter" yaml:"year_quarter"`
	Category string  `json:"category" yaml:"category"`
	Rank     int     `json:"rank" yaml:"rank"`
	Hours    float64 `json:"hours" yaml:"hours"`
}

// Compute builds the grid for dim and ranks it.
func Compute(events []play.Bucketed, dim play.Dimension, opts Options) []Entry {
	return Rank(BuildGrid(events, dim), opts)
}

type ranked struct {
	cat  int
	ms   int64
	rank int
}

// Rank computes rolling sums for every category in g, ranks categories
// within each quarter, and returns the retained categories ordered by
// quarter then rank. Categories with zero rolling time in a quarter are not
// ranked there. Ties are broken by category key.
func Rank(g *Grid, opts Options) []Entry {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(g.universe) == 0 {
		return nil
	}

	rolling := rollAll(g, opts.Workers)

	byQuarter := make([][]ranked, len(g.spine))
	for c, series := range rolling {
		for _, r := range series {
			byQuarter[r.pos] = append(byQuarter[r.pos], ranked{cat: c, ms: r.ms})
		}
	}

	retained := make([]bool, len(g.universe))
	for _, cells := range byQuarter {
		// Universe is sorted, so a lower index is a smaller key.
		sort.Slice(cells, func(i, j int) bool {
			if cells[i].ms != cells[j].ms {
				return cells[i].ms > cells[j].ms
			}
			return cells[i].cat < cells[j].cat
		})
		for i := range cells {
			cells[i].rank = i + 1
			if cells[i].rank <= topK {
				retained[cells[i].cat] = true
			}
		}
	}

	var out []Entry
	for p, cells := range byQuarter {
		key := calendar.QuarterFromIndex(g.spine[p]).Key()
		for _, c := range cells {
			if !retained[c.cat] {
				continue
			}
			out = append(out, Entry{
				Quarter:  key,
				Category: g.universe[c.cat],
				Rank:     c.rank,
				Hours:    play.RoundHours(play.Hours(c.ms)),
			})
		}
	}
	return out
}

// rollAll computes each category's rolling series on a bounded worker pool.
// Results are indexed by category so the merge order never depends on
// scheduling.
func rollAll(g *Grid, workers int) [][]rolled {
	n := len(g.universe)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	results := make([][]rolled, n)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = g.rollingFor(g.universe[idx])
			}
		}()
	}
	wg.Wait()
	return results
}

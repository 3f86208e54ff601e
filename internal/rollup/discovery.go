package rollup

import (
	"math"
	"sort"
	"time"

	"github.com/ademuri/listen-trends/internal/play"
)

type firstListen struct {
	at        time.Time
	yearMonth string
}

// DiscoveryRate reports, per month, the percentage of listening time and of
// plays that went to tracks first heard in that month. Plays without a track
// name are ignored.
func DiscoveryRate(events []play.Bucketed) []DiscoveryRow {
	first := make(map[string]firstListen)
	for _, b := range events {
		key, ok := play.Track.Key(b.Event)
		if !ok {
			continue
		}
		f, seen := first[key]
		if !seen || b.Event.PlayedAt.Before(f.at) {
			first[key] = firstListen{at: b.Event.PlayedAt, yearMonth: b.Bucket.YearMonth}
		}
	}

	type acc struct {
		all, discovered totals
	}
	byMonth := make(map[string]*acc)
	for _, b := range events {
		key, ok := play.Track.Key(b.Event)
		if !ok {
			continue
		}
		ym := b.Bucket.YearMonth
		a, ok := byMonth[ym]
		if !ok {
			a = &acc{}
			byMonth[ym] = a
		}
		a.all.add(b.Event)
		if first[key].yearMonth == ym {
			a.discovered.add(b.Event)
		}
	}

	rows := make([]DiscoveryRow, 0, len(byMonth))
	for ym, a := range byMonth {
		rows = append(rows, DiscoveryRow{
			YearMonth:          ym,
			DiscoveryRateHours: percent(a.discovered.ms, a.all.ms),
			DiscoveryRatePlays: percent(a.discovered.plays, a.all.plays),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].YearMonth < rows[j].YearMonth })
	return rows
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(whole)) / 100
}

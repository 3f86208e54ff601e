package rollup

import (
	"sort"

	"github.com/ademuri/listen-trends/internal/play"
)

type topEntry struct {
	key string
	totals
}

type monthTop struct {
	yearMonth string
	entries   []*topEntry
	index     map[string]*topEntry
}

// Top returns, for each month, the n categories along dim with the most
// listening time. Equal times keep the order in which the categories were
// first seen. n <= 0 keeps every category.
func Top(events []play.Bucketed, dim play.Dimension, n int) []TopRow {
	months := make(map[string]*monthTop)
	for _, b := range events {
		key, ok := dim.Key(b.Event)
		if !ok {
			continue
		}
		ym := b.Bucket.YearMonth
		m, ok := months[ym]
		if !ok {
			m = &monthTop{yearMonth: ym, index: make(map[string]*topEntry)}
			months[ym] = m
		}
		e, ok := m.index[key]
		if !ok {
			e = &topEntry{key: key}
			m.index[key] = e
			m.entries = append(m.entries, e)
		}
		e.add(b.Event)
	}

	order := make([]string, 0, len(months))
	for ym := range months {
		order = append(order, ym)
	}
	sort.Strings(order)

	var rows []TopRow
	for _, ym := range order {
		entries := months[ym].entries
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].ms > entries[j].ms })
		if n > 0 && len(entries) > n {
			entries = entries[:n]
		}
		for _, e := range entries {
			row := TopRow{YearMonth: ym, Hours: e.hours(), Plays: e.plays}
			name, artist := dim.SplitKey(e.key)
			if dim == play.Track {
				row.TrackName = name
			}
			row.ArtistName = artist
			rows = append(rows, row)
		}
	}
	return rows
}

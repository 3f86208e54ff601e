// Package rollup computes the fixed-window views: per-month totals,
// day-of-week and hour-of-day histograms, monthly top lists, and the
// derived summary, discovery and genre views.
//
// Every function takes bucketed events in any order and returns rows sorted
// by their keys. Empty input yields an empty result.
package rollup

import (
	"sort"
	"time"

	"github.com/ademuri/listen-trends/internal/play"
)

type totals struct {
	ms    int64
	plays int64
}

func (t *totals) add(e play.Event) {
	t.ms += e.MsPlayed
	t.plays++
}

func (t totals) hours() float64 {
	return play.RoundHours(play.Hours(t.ms))
}

type monthAcc struct {
	totals
	year, month int
	tracks      map[string]bool
	artists     map[string]bool
}

func Monthly(events []play.Bucketed) []MonthlyRow {
	byMonth := make(map[string]*monthAcc)
	for _, b := range events {
		acc, ok := byMonth[b.Bucket.YearMonth]
		if !ok {
			acc = &monthAcc{
				year:    b.Bucket.Year,
				month:   b.Bucket.Month,
				tracks:  make(map[string]bool),
				artists: make(map[string]bool),
			}
			byMonth[b.Bucket.YearMonth] = acc
		}
		acc.add(b.Event)
		if k, ok := play.Track.Key(b.Event); ok {
			acc.tracks[k] = true
		}
		if k, ok := play.Artist.Key(b.Event); ok {
			acc.artists[k] = true
		}
	}

	rows := make([]MonthlyRow, 0, len(byMonth))
	for ym, acc := range byMonth {
		rows = append(rows, MonthlyRow{
			YearMonth:     ym,
			Year:          acc.year,
			Month:         acc.month,
			Hours:         acc.hours(),
			Plays:         acc.plays,
			UniqueTracks:  len(acc.tracks),
			UniqueArtists: len(acc.artists),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].YearMonth < rows[j].YearMonth })
	return rows
}

type slotKey struct {
	yearMonth string
	slot      int
}

// bySlot groups events by month and a small integer slot such as the
// weekday or hour, returning keys in (month, slot) order.
func bySlot(events []play.Bucketed, slot func(play.Bucketed) int) ([]slotKey, map[slotKey]*totals) {
	acc := make(map[slotKey]*totals)
	var keys []slotKey
	for _, b := range events {
		k := slotKey{b.Bucket.YearMonth, slot(b)}
		t, ok := acc[k]
		if !ok {
			t = &totals{}
			acc[k] = t
			keys = append(keys, k)
		}
		t.add(b.Event)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].yearMonth != keys[j].yearMonth {
			return keys[i].yearMonth < keys[j].yearMonth
		}
		return keys[i].slot < keys[j].slot
	})
	return keys, acc
}

// DayOfWeek groups by month and weekday, Sunday being 0.
func DayOfWeek(events []play.Bucketed) []DayOfWeekRow {
	keys, acc := bySlot(events, func(b play.Bucketed) int { return b.Bucket.Weekday })
	rows := make([]DayOfWeekRow, 0, len(keys))
	for _, k := range keys {
		t := acc[k]
		rows = append(rows, DayOfWeekRow{
			YearMonth: k.yearMonth,
			Dow:       k.slot,
			DowName:   time.Weekday(k.slot).String(),
			Hours:     t.hours(),
			Plays:     t.plays,
		})
	}
	return rows
}

func Hourly(events []play.Bucketed) []HourRow {
	keys, acc := bySlot(events, func(b play.Bucketed) int { return b.Bucket.Hour })
	rows := make([]HourRow, 0, len(keys))
	for _, k := range keys {
		t := acc[k]
		rows = append(rows, HourRow{
			YearMonth: k.yearMonth,
			Hour:      k.slot,
			Hours:     t.hours(),
			Plays:     t.plays,
		})
	}
	return rows
}

// Summarize reports totals over all events. Timestamps are formatted as
// RFC 3339 in loc.
func Summarize(events []play.Bucketed, loc *time.Location) Summary {
	var s Summary
	if len(events) == 0 {
		return s
	}
	if loc == nil {
		loc = time.Local
	}

	var t totals
	tracks := make(map[string]bool)
	artists := make(map[string]bool)
	x := play.ExtentOf(events)
	for _, b := range events {
		t.add(b.Event)
		if k, ok := play.Track.Key(b.Event); ok {
			tracks[k] = true
		}
		if k, ok := play.Artist.Key(b.Event); ok {
			artists[k] = true
		}
	}

	s.TotalHours = t.hours()
	s.TotalPlays = t.plays
	s.UniqueTracks = len(tracks)
	s.UniqueArtists = len(artists)
	s.FirstPlayedAt = x.First.In(loc).Format(time.RFC3339)
	s.LastPlayedAt = x.Last.In(loc).Format(time.RFC3339)
	return s
}

package rollup

import (
	"sort"

	"github.com/ademuri/listen-trends/internal/play"
)

// GenreLookup returns the distinct broad genres of an artist.
type GenreLookup func(artist string) []string

type genreKey struct {
	yearMonth string
	genre     string
}

type genreAcc struct {
	ms    float64
	plays int64
}

// Genres breaks each month's listening down by broad genre. A play's time is
// split evenly across its artist's genres; each genre counts the play once.
// Plays by artists with no known genre are left out.
func Genres(events []play.Bucketed, lookup GenreLookup) []GenreRow {
	if lookup == nil {
		return nil
	}

	acc := make(map[genreKey]*genreAcc)
	cache := make(map[string][]string)
	for _, b := range events {
		artist, ok := play.Artist.Key(b.Event)
		if !ok {
			continue
		}
		genres, cached := cache[artist]
		if !cached {
			genres = lookup(artist)
			cache[artist] = genres
		}
		if len(genres) == 0 {
			continue
		}
		share := float64(b.Event.MsPlayed) / float64(len(genres))
		for _, g := range genres {
			k := genreKey{b.Bucket.YearMonth, g}
			a, ok := acc[k]
			if !ok {
				a = &genreAcc{}
				acc[k] = a
			}
			a.ms += share
			a.plays++
		}
	}

	rows := make([]GenreRow, 0, len(acc))
	for k, a := range acc {
		rows = append(rows, GenreRow{
			YearMonth: k.yearMonth,
			Genre:     k.genre,
			Hours:     play.RoundHours(a.ms / 3_600_000),
			Plays:     a.plays,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].YearMonth != rows[j].YearMonth {
			return rows[i].YearMonth < rows[j].YearMonth
		}
		if rows[i].Hours != rows[j].Hours {
			return rows[i].Hours > rows[j].Hours
		}
		return rows[i].Genre < rows[j].Genre
	})
	return rows
}

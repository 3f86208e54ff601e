package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/ademuri/listen-trends/internal/rollup"
)

// Table is a header row, data rows and a one-line summary for terminal
// output.
type Table struct {
	Header  []string
	Rows    [][]string
	Summary string
}

func (t Table) String() string {
	out := new(bytes.Buffer)
	if len(t.Rows) > 0 {
		table := tablewriter.NewWriter(out)
		table.Header(t.Header)
		for _, row := range t.Rows {
			if err := table.Append(row); err != nil {
				return fmt.Sprintf("Error rendering table: %v", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if t.Summary != "" {
		fmt.Fprintf(out, "%s\n", t.Summary)
	}
	return out.String()
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

// EvolutionTable renders leaderboard rows. Track rows get a track column.
func EvolutionTable(rows []EvolutionRow) Table {
	withTracks := false
	for _, r := range rows {
		if r.TrackName != "" {
			withTracks = true
			break
		}
	}

	t := Table{Header: []string{"Quarter", "Rank", "Artist", "Hours"}}
	if withTracks {
		t.Header = []string{"Quarter", "Rank", "Track", "Artist", "Hours"}
	}
	categories := make(map[string]bool)
	quarters := make(map[string]bool)
	for _, r := range rows {
		row := []string{r.YearQuarter, strconv.Itoa(r.Rank)}
		if withTracks {
			row = append(row, r.TrackName)
		}
		row = append(row, r.ArtistName, hours(r.Hours))
		t.Rows = append(t.Rows, row)
		categories[r.TrackName+"\x00"+r.ArtistName] = true
		quarters[r.YearQuarter] = true
	}
	t.Summary = fmt.Sprintf("Found %d entries for %d categories across %d quarters",
		len(rows), len(categories), len(quarters))
	return t
}

// MonthlyTable renders monthly totals, with discovery rates where known.
func MonthlyTable(monthly []rollup.MonthlyRow, discovery []rollup.DiscoveryRow) Table {
	rates := make(map[string]rollup.DiscoveryRow, len(discovery))
	for _, d := range discovery {
		rates[d.YearMonth] = d
	}

	t := Table{Header: []string{"Month", "Hours", "Plays", "Tracks", "Artists", "New %"}}
	var total float64
	var plays int64
	for _, m := range monthly {
		newPct := ""
		if d, ok := rates[m.YearMonth]; ok {
			newPct = hours(d.DiscoveryRateHours)
		}
		t.Rows = append(t.Rows, []string{
			m.YearMonth,
			hours(m.Hours),
			strconv.FormatInt(m.Plays, 10),
			strconv.Itoa(m.UniqueTracks),
			strconv.Itoa(m.UniqueArtists),
			newPct,
		})
		total += m.Hours
		plays += m.Plays
	}
	t.Summary = fmt.Sprintf("Found %d months, %s hours and %d plays", len(monthly), hours(total), plays)
	return t
}

// TopTable renders monthly top lists, grouped by month.
func TopTable(rows []rollup.TopRow) Table {
	withTracks := len(rows) > 0 && rows[0].TrackName != ""
	t := Table{Header: []string{"Month", "Artist", "Hours", "Plays"}}
	if withTracks {
		t.Header = []string{"Month", "Track", "Artist", "Hours", "Plays"}
	}

	months := 0
	prev := ""
	for _, r := range rows {
		month := ""
		if r.YearMonth != prev {
			month = r.YearMonth
			prev = r.YearMonth
			months++
		}
		row := []string{month}
		if withTracks {
			row = append(row, r.TrackName)
		}
		row = append(row, r.ArtistName, hours(r.Hours), strconv.FormatInt(r.Plays, 10))
		t.Rows = append(t.Rows, row)
	}
	t.Summary = fmt.Sprintf("Found %d rows across %d months", len(rows), months)
	return t
}

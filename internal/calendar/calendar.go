// Package calendar projects play timestamps onto one fixed local calendar.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var weekdayNames = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Quarter is a calendar quarter. Num is 1-4.
type Quarter struct {
	Year int
	Num  int
}

// QuarterOf returns the quarter containing the given month.
func QuarterOf(year int, month time.Month) Quarter {
	return Quarter{Year: year, Num: (int(month) + 2) / 3}
}

// Key formats the quarter as "2024-Q1". The year is zero-padded so that
// lexicographic order matches chronological order.
func (q Quarter) Key() string {
	return fmt.Sprintf("%04d-Q%d", q.Year, q.Num)
}

func (q Quarter) String() string {
	return q.Key()
}

// Index maps the quarter onto a contiguous integer line. Consecutive quarters
// differ by exactly one, including across year boundaries.
func (q Quarter) Index() int {
	return q.Year*4 + (q.Num - 1)
}

// QuarterFromIndex is the inverse of Quarter.Index.
func QuarterFromIndex(index int) Quarter {
	year := index / 4
	rem := index % 4
	if rem < 0 {
		rem += 4
		year--
	}
	return Quarter{Year: year, Num: rem + 1}
}

var quarterPattern = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)

// ParseQuarter parses a key produced by Quarter.Key.
func ParseQuarter(s string) (Quarter, error) {
	m := quarterPattern.FindStringSubmatch(s)
	if m == nil {
		return Quarter{}, fmt.Errorf("invalid quarter %q, expected yyyy-Qn", s)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return Quarter{}, fmt.Errorf("parsing quarter year: %w", err)
	}
	num, _ := strconv.Atoi(m[2])
	return Quarter{Year: year, Num: num}, nil
}

// Bucket holds the calendar keys derived from a single timestamp.
type Bucket struct {
	Date        string
	Year        int
	Month       int
	YearMonth   string
	Quarter     Quarter
	Weekday     int
	WeekdayName string
	Hour        int
}

// Calendar projects instants onto one fixed time zone.
type Calendar struct {
	loc *time.Location
}

// New returns a calendar in loc. A nil location means the process's local
// time zone.
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc}
}

// Load returns a calendar for an IANA time zone name. The empty name selects
// the local time zone.
func Load(name string) (*Calendar, error) {
	if name == "" {
		return New(time.Local), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return New(loc), nil
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Bucket derives all calendar keys for t in the calendar's time zone.
func (c *Calendar) Bucket(t time.Time) Bucket {
	local := t.In(c.loc)
	year, month, day := local.Date()
	wd := int(local.Weekday())
	return Bucket{
		Date:        fmt.Sprintf("%04d-%02d-%02d", year, int(month), day),
		Year:        year,
		Month:       int(month),
		YearMonth:   fmt.Sprintf("%04d-%02d", year, int(month)),
		Quarter:     QuarterOf(year, month),
		Weekday:     wd,
		WeekdayName: weekdayNames[wd],
		Hour:        local.Hour(),
	}
}

package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ParsedDate is a date argument and the precision it was given with.
// Relative dates ("30d", "12w", "6m", "10y") count back from now.
type ParsedDate struct {
	Date     time.Time
	Year     bool
	Month    bool
	Day      bool
	Relative bool
}

var relativeDate = regexp.MustCompile(`^(\d+)([dwmy])$`)

// parseDateRangeFromArgs parses zero, one or two date arguments in UTC. No
// arguments means all time, returned as zero times.
func parseDateRangeFromArgs(args []string) (start time.Time, end time.Time, err error) {
	return parseDateRangeIn(args, time.UTC)
}

// parseDateRangeIn is parseDateRangeFromArgs with calendar dates taken as
// midnight in loc.
func parseDateRangeIn(args []string, loc *time.Location) (start time.Time, end time.Time, err error) {
	switch len(args) {
	case 0:

	case 1:
		start, end, err = getImplicitDateRangeIn(args[0], loc)

	case 2:
		start, end, err = getExplicitDateRangeIn(args[0], args[1], loc)

	default:
		err = fmt.Errorf("Expected at most two date arguments")
	}
	return
}

func getImplicitDateRange(ds string) (start time.Time, end time.Time, err error) {
	return getImplicitDateRangeIn(ds, time.UTC)
}

func getImplicitDateRangeIn(ds string, loc *time.Location) (start time.Time, end time.Time, err error) {
	date, err := parseDatestringIn(ds, loc)
	if err != nil {
		return
	}

	start = date.Date
	switch {
	case date.Year:
		end = start.AddDate(1, 0, 0)

	case date.Month:
		end = start.AddDate(0, 1, 0)

	case date.Day:
		end = start.AddDate(0, 0, 1)

	case date.Relative:
		end = time.Now().In(loc)

	default:
		err = fmt.Errorf("Invalid format: %q", ds)
	}

	return
}

func getExplicitDateRange(startString, endString string) (start time.Time, end time.Time, err error) {
	return getExplicitDateRangeIn(startString, endString, time.UTC)
}

func getExplicitDateRangeIn(startString, endString string, loc *time.Location) (start time.Time, end time.Time, err error) {
	startParsed, err := parseDatestringIn(startString, loc)
	if err != nil {
		return
	}
	start = startParsed.Date

	endParsed, err := parseDatestringIn(endString, loc)
	if err != nil {
		return
	}
	end = endParsed.Date

	if end.Before(start) {
		err = fmt.Errorf("End date %q is before start date %q", endString, startString)
	}
	return
}

func parseSingleDatestring(ds string) (date ParsedDate, err error) {
	return parseDatestringIn(ds, time.UTC)
}

func parseDatestringIn(ds string, loc *time.Location) (date ParsedDate, err error) {
	if m := relativeDate.FindStringSubmatch(ds); m != nil {
		var n int
		n, err = strconv.Atoi(m[1])
		if err != nil {
			err = fmt.Errorf("Parsing relative datestring: %w", err)
			return
		}
		now := time.Now().In(loc)
		switch m[2] {
		case "d":
			date.Date = now.AddDate(0, 0, -n)
		case "w":
			date.Date = now.AddDate(0, 0, -7*n)
		case "m":
			date.Date = now.AddDate(0, -n, 0)
		case "y":
			date.Date = now.AddDate(-n, 0, 0)
		}
		date.Relative = true
		return
	}

	matched, err := regexp.MatchString(`^\d{4}$`, ds)
	if err != nil {
		err = fmt.Errorf("Parsing datestring as year: %w", err)
		return
	}
	if matched {
		date.Date, err = time.ParseInLocation("2006", ds, loc)
		if err != nil {
			err = fmt.Errorf("Parsing datestring as year: %w", err)
			return
		}
		date.Year = true
		return
	}

	matched, err = regexp.MatchString(`^\d{4}-\d{2}$`, ds)
	if err != nil {
		err = fmt.Errorf("Parsing datestring as month: %w", err)
		return
	}
	if matched {
		date.Date, err = time.ParseInLocation("2006-01", ds, loc)
		if err != nil {
			err = fmt.Errorf("Parsing datestring as month: %w", err)
			return
		}
		date.Month = true
		return
	}

	matched, err = regexp.MatchString(`^\d{4}-\d{2}-\d{2}$`, ds)
	if err != nil {
		err = fmt.Errorf("Parsing datestring as day: %w", err)
		return
	}
	if matched {
		date.Date, err = time.ParseInLocation("2006-01-02", ds, loc)
		if err != nil {
			err = fmt.Errorf("Parsing datestring as day: %w", err)
			return
		}
		date.Day = true
		return
	}

	err = fmt.Errorf("Invalid format: %q", ds)
	return
}

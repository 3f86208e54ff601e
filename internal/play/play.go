// Package play defines the listening event and the category dimensions that
// views are computed over.
package play

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ademuri/listen-trends/internal/calendar"
)

const msPerHour = 3_600_000

// Event is a single play. Empty category fields mean the value is missing.
type Event struct {
	PlayedAt time.Time
	MsPlayed int64
	Track    string
	Artist   string
	Album    string
	TrackURI string
}

// Bucketed pairs an event with its calendar keys.
type Bucketed struct {
	Event  Event
	Bucket calendar.Bucket
}

// BucketAll projects every event onto cal, preserving order.
func BucketAll(events []Event, cal *calendar.Calendar) []Bucketed {
	out := make([]Bucketed, len(events))
	for i, e := range events {
		out[i] = Bucketed{Event: e, Bucket: cal.Bucket(e.PlayedAt)}
	}
	return out
}

// Hours converts milliseconds to fractional hours.
func Hours(ms int64) float64 {
	return float64(ms) / msPerHour
}

// RoundHours rounds to two decimals for output.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

type Dimension int

const (
	Artist Dimension = iota
	Track
)

// trackKeySep joins track and artist names into one track key. It cannot
// appear in either name.
const trackKeySep = "\x1f"

func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(s) {
	case "", "artist":
		return Artist, nil
	case "track":
		return Track, nil
	}
	return Artist, fmt.Errorf("unknown dimension %q (want artist or track)", s)
}

func (d Dimension) String() string {
	if d == Track {
		return "track"
	}
	return "artist"
}

// Key returns the category key of e along d, and false if e has no value for
// d. Tracks are keyed by name and artist together.
func (d Dimension) Key(e Event) (string, bool) {
	switch d {
	case Track:
		if e.Track == "" {
			return "", false
		}
		return e.Track + trackKeySep + e.Artist, true
	default:
		return e.Artist, e.Artist != ""
	}
}

// SplitKey returns the display name of a category key, and the artist for
// track keys.
func (d Dimension) SplitKey(key string) (name, artist string) {
	if d != Track {
		return key, key
	}
	name, artist, _ = strings.Cut(key, trackKeySep)
	return name, artist
}

// Extent summarizes the size and span of an event set.
type Extent struct {
	Count   int
	First   time.Time
	Last    time.Time
	TotalMs int64
}

func ExtentOf(events []Bucketed) Extent {
	var x Extent
	for _, b := range events {
		e := b.Event
		if x.Count == 0 || e.PlayedAt.Before(x.First) {
			x.First = e.PlayedAt
		}
		if x.Count == 0 || e.PlayedAt.After(x.Last) {
			x.Last = e.PlayedAt
		}
		x.Count++
		x.TotalMs += e.MsPlayed
	}
	return x
}

// Hash returns a short stable digest of the extent, used as a cache key
// component.
func (x Extent) Hash() string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range []int64{int64(x.Count), x.First.UnixNano(), x.Last.UnixNano(), x.TotalMs} {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

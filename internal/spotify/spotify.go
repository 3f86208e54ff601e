// Package spotify reads Spotify extended streaming history exports
// (Streaming_History_Audio_*.json).
package spotify

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ademuri/listen-trends/internal/store"
)

// Record is one entry of a streaming history file. Nullable fields are
// pointers.
type Record struct {
	TS         string  `json:"ts"`
	MsPlayed   *int64  `json:"ms_played"`
	TrackName  *string `json:"master_metadata_track_name"`
	ArtistName *string `json:"master_metadata_album_artist_name"`
	AlbumName  *string `json:"master_metadata_album_album_name"`
	TrackURI   *string `json:"spotify_track_uri"`
}

// Result holds the plays read from one file and how many records were
// skipped.
type Result struct {
	Plays   []store.PlayImport
	Skipped int
}

// ReadFile decodes the history file at path.
func ReadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := Read(f)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", path, err)
	}
	return res, nil
}

// Read decodes a JSON array of records one element at a time. Records with
// no timestamp, an unparsable timestamp, or no track name (podcasts and
// audiobooks) are skipped. A missing ms_played counts as zero.
func Read(r io.Reader) (Result, error) {
	var res Result
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return res, fmt.Errorf("reading array start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return res, fmt.Errorf("expected a JSON array, got %v", tok)
	}

	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return res, fmt.Errorf("decoding record %d: %w", len(res.Plays)+res.Skipped, err)
		}
		p, ok := rec.toPlay()
		if !ok {
			res.Skipped++
			continue
		}
		res.Plays = append(res.Plays, p)
	}

	if _, err := dec.Token(); err != nil {
		return res, fmt.Errorf("reading array end: %w", err)
	}
	return res, nil
}

func (r Record) toPlay() (store.PlayImport, bool) {
	if r.TS == "" || str(r.TrackName) == "" {
		return store.PlayImport{}, false
	}
	ts, err := time.Parse(time.RFC3339, r.TS)
	if err != nil {
		return store.PlayImport{}, false
	}

	var ms int64
	if r.MsPlayed != nil && *r.MsPlayed > 0 {
		ms = *r.MsPlayed
	}
	return store.PlayImport{
		Artist:    str(r.ArtistName),
		Album:     str(r.AlbumName),
		TrackName: str(r.TrackName),
		TrackURI:  str(r.TrackURI),
		DateUTS:   strconv.FormatInt(ts.Unix(), 10),
		MsPlayed:  sql.NullInt64{Int64: ms, Valid: true},
	}, true
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

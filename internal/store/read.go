package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ademuri/listen-trends/internal/play"
)

func (s *Store) GetSessionKey(user string) (string, error) {
	row := s.db.QueryRow("SELECT session_key FROM User WHERE name = ? AND session_key <> ''", user)
	var key string
	err := row.Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting session key: %w", err)
	}
	return key, nil
}

func (s *Store) GetLastUpdated(user string) (time.Time, error) {
	row := s.db.QueryRow("SELECT last_updated FROM User WHERE name = ?", user)
	var t sql.NullTime
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("getting last updated: %w", err)
	}
	return t.Time, nil
}

func (s *Store) GetLatestListen(user string) (time.Time, error) {
	query := "SELECT date FROM Listen WHERE user = ? ORDER BY CAST(date AS INTEGER) desc LIMIT 1"
	row := s.db.QueryRow(query, user)
	var dateStr string
	err := row.Scan(&dateStr)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("scanning latest listen: %w", err)
	}

	return parseDate(dateStr)
}

// parseDate accepts a Unix timestamp or an RFC 3339 string.
func parseDate(dateStr string) (time.Time, error) {
	dateInt, err := strconv.ParseInt(dateStr, 10, 64)
	if err == nil {
		return time.Unix(dateInt, 0), nil
	}

	t, err := time.Parse(time.RFC3339, dateStr)
	if err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("parsing date %q: %w", dateStr, err)
}

// Plays returns the user's plays in [start, end), oldest first. A zero start
// or end leaves that side unbounded. Rows whose date cannot be parsed are
// dropped and counted in bad. Plays with no recorded length use the track's
// duration, or zero if that is unknown too.
func (s *Store) Plays(user string, start, end time.Time) (events []play.Event, bad int, err error) {
	query := `
		SELECT Listen.date, COALESCE(Listen.ms_played, Track.duration_ms, 0),
			Track.name, Track.artist, Track.album, COALESCE(Track.uri, '')
		FROM Listen
		INNER JOIN Track ON Track.id = Listen.track
		WHERE Listen.user = ?
	`
	args := []interface{}{user}
	if !start.IsZero() {
		query += " AND CAST(Listen.date AS INTEGER) >= ?"
		args = append(args, start.Unix())
	}
	if !end.IsZero() {
		query += " AND CAST(Listen.date AS INTEGER) < ?"
		args = append(args, end.Unix())
	}
	query += " ORDER BY CAST(Listen.date AS INTEGER) ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying plays: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		var e play.Event
		var track, artist, album sql.NullString
		if err := rows.Scan(&dateStr, &e.MsPlayed, &track, &artist, &album, &e.TrackURI); err != nil {
			return nil, 0, fmt.Errorf("scanning play: %w", err)
		}
		t, err := parseDate(dateStr)
		if err != nil {
			bad++
			continue
		}
		e.PlayedAt = t
		e.Track = track.String
		e.Artist = artist.String
		e.Album = album.String
		events = append(events, e)
	}
	return events, bad, rows.Err()
}

// TrackKey identifies a stored track.
type TrackKey struct {
	ID     int64
	Artist string
	Name   string
}

// GetTracksNeedingDuration lists tracks with plays of unknown length whose
// duration has not been looked up within interval.
func (s *Store) GetTracksNeedingDuration(interval time.Duration) ([]TrackKey, error) {
	threshold := time.Now().Add(-interval)
	query := `
		SELECT DISTINCT t.id, t.artist, t.name
		FROM Track t
		JOIN Listen l ON l.track = t.id
		WHERE l.ms_played IS NULL
		AND t.duration_ms IS NULL
		AND (t.duration_checked IS NULL OR t.duration_checked < ?)
		ORDER BY t.id
	`
	rows, err := s.db.Query(query, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying tracks for duration update: %w", err)
	}
	defer rows.Close()

	var tracks []TrackKey
	for rows.Next() {
		var k TrackKey
		if err := rows.Scan(&k.ID, &k.Artist, &k.Name); err != nil {
			return nil, err
		}
		tracks = append(tracks, k)
	}
	return tracks, rows.Err()
}

func (s *Store) GetArtistsNeedingTagUpdate(interval time.Duration) ([]string, error) {
	threshold := time.Now().Add(-interval)
	query := `
		SELECT t.artist
		FROM Listen l
		JOIN Track t ON l.track = t.id
		JOIN Artist a ON t.artist = a.name
		WHERE t.artist != '' AND (a.tags_last_updated IS NULL OR a.tags_last_updated < ?)
		GROUP BY t.artist
		HAVING COUNT(*) > 10
	`
	rows, err := s.db.Query(query, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying artists for tag update: %w", err)
	}
	defer rows.Close()

	var artists []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// ArtistTags returns up to limit tags per artist, highest count first.
func (s *Store) ArtistTags(limit int) (map[string][]string, error) {
	rows, err := s.db.Query("SELECT artist, tag FROM ArtistTag ORDER BY artist, count DESC, tag")
	if err != nil {
		return nil, fmt.Errorf("querying artist tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var artist, tag string
		if err := rows.Scan(&artist, &tag); err != nil {
			return nil, fmt.Errorf("scanning artist tag: %w", err)
		}
		if limit > 0 && len(tags[artist]) >= limit {
			continue
		}
		tags[artist] = append(tags[artist], tag)
	}
	return tags, rows.Err()
}

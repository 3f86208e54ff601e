package store

import (
	"database/sql"
	"fmt"
	"time"
)

// PlayImport is one play to store. MsPlayed is null when the source only
// knows that the track was played, as with last.fm scrobbles; reads then
// fall back to the track's duration.
type PlayImport struct {
	Artist    string
	Album     string
	TrackName string
	TrackURI  string
	DateUTS   string
	MsPlayed  sql.NullInt64
}

// CreateUser ensures a user exists in the database.
func (s *Store) CreateUser(user string) error {
	row := s.db.QueryRow("SELECT name FROM User WHERE name = ?", user)
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		_, err := s.db.Exec("INSERT INTO User (name) VALUES (?)", user)
		if err != nil {
			return fmt.Errorf("inserting user %q: %w", user, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking user %q: %w", user, err)
	}
	return nil
}

func (s *Store) SetLastUpdated(user string, updated time.Time) error {
	_, err := s.db.Exec("UPDATE User SET last_updated = ? WHERE name = ?", updated, user)
	if err != nil {
		return fmt.Errorf("updating last_updated for %q: %w", user, err)
	}
	return nil
}

func (s *Store) SetSessionKey(user, key string) error {
	_, err := s.db.Exec("UPDATE User SET session_key = ? WHERE name = ?", key, user)
	if err != nil {
		return fmt.Errorf("updating session key for %q: %w", user, err)
	}
	return nil
}

// AddPlays inserts a batch of plays transactionally. A play already stored
// for the same user, track and time is skipped.
func (s *Store) AddPlays(user string, plays []PlayImport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range plays {
		if err := createArtist(tx, p.Artist); err != nil {
			return err
		}
		if err := createAlbum(tx, p.Artist, p.Album); err != nil {
			return err
		}
		trackID, err := createTrack(tx, p.Artist, p.Album, p.TrackName, p.TrackURI)
		if err != nil {
			return err
		}
		if err := createListen(tx, user, trackID, p.DateUTS, p.MsPlayed); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func createArtist(tx *sql.Tx, name string) error {
	if _, err := tx.Exec("INSERT OR IGNORE INTO Artist (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("inserting artist %q: %w", name, err)
	}
	return nil
}

func createAlbum(tx *sql.Tx, artist, name string) error {
	if _, err := tx.Exec("INSERT OR IGNORE INTO Album (artist, name) VALUES (?, ?)", artist, name); err != nil {
		return fmt.Errorf("inserting album %q for %q: %w", name, artist, err)
	}
	return nil
}

func createTrack(tx *sql.Tx, artist, album, name, uri string) (int64, error) {
	var id int64
	var existingURI sql.NullString
	err := tx.QueryRow("SELECT id, uri FROM Track WHERE artist = ? AND album = ? AND name = ?", artist, album, name).Scan(&id, &existingURI)
	if err == nil {
		if uri != "" && !existingURI.Valid {
			if _, err := tx.Exec("UPDATE Track SET uri = ? WHERE id = ?", uri, id); err != nil {
				return 0, fmt.Errorf("setting uri for track %q: %w", name, err)
			}
		}
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking track %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO Track (artist, album, name, uri) VALUES (?, ?, ?, ?)",
		artist, album, name, sql.NullString{String: uri, Valid: uri != ""})
	if err != nil {
		return 0, fmt.Errorf("inserting track %q: %w", name, err)
	}
	return res.LastInsertId()
}

func createListen(tx *sql.Tx, user string, trackID int64, date string, msPlayed sql.NullInt64) error {
	var dummy int64
	err := tx.QueryRow("SELECT id FROM Listen WHERE user = ? AND date = ? AND track = ?", user, date, trackID).Scan(&dummy)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking listen: %w", err)
	}

	_, err = tx.Exec("INSERT INTO Listen (user, track, date, ms_played) VALUES (?, ?, ?, ?)", user, trackID, date, msPlayed)
	if err != nil {
		return fmt.Errorf("inserting listen: %w", err)
	}
	return nil
}

// SetTrackDuration records a track's length. A zero duration means last.fm
// did not know it; the check time is still recorded so the track is not
// retried until the interval passes.
func (s *Store) SetTrackDuration(trackID int64, durationMs int64) error {
	duration := sql.NullInt64{Int64: durationMs, Valid: durationMs > 0}
	_, err := s.db.Exec("UPDATE Track SET duration_ms = ?, duration_checked = ? WHERE id = ?", duration, time.Now(), trackID)
	if err != nil {
		return fmt.Errorf("updating duration for track %d: %w", trackID, err)
	}
	return nil
}

func (s *Store) SaveArtistTags(artist string, tags []string, counts []int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, tag := range tags {
		count := 0
		if i < len(counts) {
			count = counts[i]
		}

		_, err := tx.Exec("INSERT OR IGNORE INTO Tag (name) VALUES (?)", tag)
		if err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag, err)
		}

		_, err = tx.Exec("INSERT OR REPLACE INTO ArtistTag (artist, tag, count) VALUES (?, ?, ?)", artist, tag, count)
		if err != nil {
			return fmt.Errorf("linking tag %q to artist %q: %w", tag, artist, err)
		}
	}

	_, err = tx.Exec("UPDATE Artist SET tags_last_updated = ? WHERE name = ?", time.Now(), artist)
	if err != nil {
		return fmt.Errorf("updating artist tag timestamp: %w", err)
	}

	return tx.Commit()
}

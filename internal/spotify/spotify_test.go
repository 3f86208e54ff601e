package spotify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const history = `[
  {
    "ts": "2024-03-01T12:00:00Z",
    "ms_played": 215000,
    "master_metadata_track_name": "Song",
    "master_metadata_album_artist_name": "Band",
    "master_metadata_album_album_name": "Record",
    "spotify_track_uri": "spotify:track:abc"
  },
  {
    "ts": "2024-03-01T12:05:00Z",
    "ms_played": 1000,
    "master_metadata_track_name": null,
    "episode_name": "A podcast"
  },
  {
    "ms_played": 1000,
    "master_metadata_track_name": "No timestamp"
  },
  {
    "ts": "2024-03-02T08:00:00Z",
    "master_metadata_track_name": "Unplayed",
    "master_metadata_album_artist_name": null
  }
]`

func TestRead(t *testing.T) {
	res, err := Read(strings.NewReader(history))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if res.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Skipped)
	}
	if len(res.Plays) != 2 {
		t.Fatalf("got %d plays, want 2", len(res.Plays))
	}

	p := res.Plays[0]
	if p.TrackName != "Song" || p.Artist != "Band" || p.Album != "Record" || p.TrackURI != "spotify:track:abc" {
		t.Errorf("first play = %+v", p)
	}
	if p.DateUTS != "1709294400" {
		t.Errorf("DateUTS = %q, want 1709294400", p.DateUTS)
	}
	if !p.MsPlayed.Valid || p.MsPlayed.Int64 != 215000 {
		t.Errorf("MsPlayed = %+v", p.MsPlayed)
	}

	p = res.Plays[1]
	if p.Artist != "" || !p.MsPlayed.Valid || p.MsPlayed.Int64 != 0 {
		t.Errorf("second play = %+v, want no artist and zero duration", p)
	}
}

func TestReadRejectsNonArray(t *testing.T) {
	if _, err := Read(strings.NewReader(`{"ts": "x"}`)); err == nil {
		t.Error("Read(object) succeeded")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Streaming_History_Audio_2024.json")
	if err := os.WriteFile(path, []byte(history), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	res, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(res.Plays) != 2 {
		t.Errorf("ReadFile returned %d plays", len(res.Plays))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) succeeded")
	}
}

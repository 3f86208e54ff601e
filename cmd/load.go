/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/genre"
	"github.com/ademuri/listen-trends/internal/play"
	"github.com/ademuri/listen-trends/internal/rollup"
	"github.com/ademuri/listen-trends/internal/store"
)

// genreTagsPerArtist is how many of an artist's top tags feed genre lookup.
const genreTagsPerArtist = 5

// LoadConfig selects the plays a read-only command works on.
type LoadConfig struct {
	DbPath   string
	User     string
	Timezone string
	Args     []string
}

// Dataset is a user's bucketed plays in the date range, plus what is needed
// to compute views over them.
type Dataset struct {
	Calendar *calendar.Calendar
	Events   []play.Bucketed
	Genres   rollup.GenreLookup
}

// loadDataset reads and buckets plays. The date range is resolved in the
// configured time zone, so "2024-03" means March in that zone.
func loadDataset(config LoadConfig) (Dataset, error) {
	cal, err := calendar.Load(config.Timezone)
	if err != nil {
		return Dataset{}, err
	}

	start, end, err := parseDateRangeIn(config.Args, cal.Location())
	if err != nil {
		return Dataset{}, err
	}

	db, err := store.Open(config.DbPath)
	if errors.Is(err, store.ErrNoDatabase) {
		return Dataset{}, err
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	user := strings.ToLower(config.User)
	plays, bad, err := db.Plays(user, start, end)
	if err != nil {
		return Dataset{}, err
	}
	if bad > 0 {
		logger.Warn("skipped plays with unreadable dates", zap.String("user", user), zap.Int("skipped", bad))
	}

	artistTags, err := db.ArtistTags(genreTagsPerArtist)
	if err != nil {
		return Dataset{}, err
	}

	logger.Debug("loaded plays",
		zap.String("user", user),
		zap.Int("plays", len(plays)),
		zap.Int("tagged_artists", len(artistTags)),
		zap.String("timezone", cal.Location().String()),
	)

	return Dataset{
		Calendar: cal,
		Events:   play.BucketAll(plays, cal),
		Genres:   genre.Lookup(artistTags),
	}, nil
}

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
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/lastfmfetch"
	"github.com/ademuri/listen-trends/internal/store"
)

type UpdateConfig struct {
	DbPath                 string
	User                   string
	After                  string
	Force                  bool
	TagUpdateInterval      time.Duration
	DurationUpdateInterval time.Duration
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Fetches data from last.fm",
	Long:    `Stores scrobbles in a local SQLite database, then looks up track durations and artist tags.`,
	PreRunE: requireFlags("api_key", "secret", "user"),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := UpdateConfig{
			DbPath:                 viper.GetString("database"),
			User:                   viper.GetString("user"),
			After:                  updateAfter,
			Force:                  updateForce,
			TagUpdateInterval:      parseInterval("tag-update-interval", updateTagInterval, 24*365*time.Hour),
			DurationUpdateInterval: parseInterval("duration-update-interval", updateDurationInterval, 24*30*time.Hour),
		}
		client := lastfmfetch.New(viper.GetString("api_key"), viper.GetString("secret"), logger)
		return updateDatabase(cmd.Context(), client, config)
	},
}

var updateAfter string
var updateForce bool
var updateTagInterval string
var updateDurationInterval string

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateAfter, "after", "", "Only get listening data after this date, in yyyy-mm-dd format")
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Get all listening data, regardless of what's already present (idempotent)")
	updateCmd.Flags().StringVar(&updateTagInterval, "tag-update-interval", "8760h", "Time duration after which to re-fetch tags (e.g., 24h)")
	updateCmd.Flags().StringVar(&updateDurationInterval, "duration-update-interval", "720h", "Time duration after which to retry unknown track durations")
}

func parseInterval(name, value string, def time.Duration) time.Duration {
	interval, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid interval, using default",
			zap.String("flag", name), zap.Duration("default", def), zap.Error(err))
		return def
	}
	return interval
}

func updateDatabase(ctx context.Context, client *lastfmfetch.Client, config UpdateConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var after time.Time
	var err error
	if len(config.After) > 0 {
		after, err = time.Parse("2006-01-02", config.After)
		if err != nil {
			return fmt.Errorf("--after: %w", err)
		}
	}

	user := strings.ToLower(config.User)
	db, err := store.New(config.DbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	err = db.CreateUser(user)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	lastUpdated, err := db.GetLastUpdated(user)
	if err != nil {
		return err
	}
	now := time.Now()
	if !lastUpdated.IsZero() && now.Sub(lastUpdated).Hours() < 24 && !config.Force {
		logger.Info("user data was already updated in the past 24 hours", zap.String("user", user))
		return nil
	}
	logger.Info("user data was last updated", zap.String("date", lastUpdated.Format("2006-01-02")))

	sessionKey, err := db.GetSessionKey(user)
	if err != nil {
		return err
	}
	if sessionKey != "" {
		client.SetSession(sessionKey)
		logger.Info("using session key", zap.String("user", user))
	}

	latestListen, err := db.GetLatestListen(user)
	if err != nil {
		return fmt.Errorf("getting latest listen: %w", err)
	}
	logger.Info("latest local listening data", zap.String("date", latestListen.Format("2006-01-02")))

	if err := fetchScrobbles(ctx, client, db, user, after, latestListen, config.Force); err != nil {
		return err
	}

	if err := updateDurations(ctx, client, db, config.DurationUpdateInterval); err != nil {
		return fmt.Errorf("updateDurations: %w", err)
	}

	if err := updateArtistTags(ctx, client, db, config.TagUpdateInterval); err != nil {
		return fmt.Errorf("updateArtistTags: %w", err)
	}

	return db.SetLastUpdated(user, now)
}

// scrobblePlays converts a page of scrobbles. Tracks still playing have no
// date and are skipped.
func scrobblePlays(recent lastfm.UserGetRecentTracks) []store.PlayImport {
	var plays []store.PlayImport
	for _, t := range recent.Tracks {
		if t.Date.Uts == "" {
			continue
		}
		plays = append(plays, store.PlayImport{
			Artist:    t.Artist.Name,
			Album:     t.Album.Name,
			TrackName: t.Name,
			DateUTS:   t.Date.Uts,
			MsPlayed:  sql.NullInt64{},
		})
	}
	return plays
}

func fetchScrobbles(ctx context.Context, client *lastfmfetch.Client, db *store.Store, user string, after, latestListen time.Time, force bool) error {
	logger.Info("updating database", zap.String("user", user))
	page := 1 // First page is 1
	pages := 0
	for {
		recentTracks, err := client.RecentTracks(ctx, user, page)
		if err != nil {
			return err
		}

		if pages == 0 {
			pages = recentTracks.TotalPages
		}

		plays := scrobblePlays(recentTracks)
		if len(plays) == 0 {
			break
		}

		err = db.AddPlays(user, plays)
		if err != nil {
			return fmt.Errorf("inserting recent tracks (page %d): %w", page, err)
		}

		oldestDateUts, err := strconv.ParseInt(plays[len(plays)-1].DateUTS, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
		oldestDate := time.Unix(oldestDateUts, 0)

		logger.Info("downloaded page",
			zap.Int("page", page),
			zap.Int("pages", pages),
			zap.String("oldest", oldestDate.Format("2006-01-02")),
		)
		page += 1

		if !after.IsZero() && oldestDate.Before(after) {
			break
		}
		if page > pages {
			break
		}
		if !force && !latestListen.IsZero() && oldestDate.Before(latestListen.AddDate(0, 0, -7)) {
			logger.Info("refreshed back to existing data")
			break
		}
	}
	return nil
}

// updateDurations looks up the length of tracks played through last.fm,
// which reports plays without a duration.
func updateDurations(ctx context.Context, client *lastfmfetch.Client, db *store.Store, interval time.Duration) error {
	tracks, err := db.GetTracksNeedingDuration(interval)
	if err != nil {
		return err
	}

	logger.Info("found tracks needing durations", zap.Int("count", len(tracks)))

	for i, t := range tracks {
		logger.Debug("fetching duration",
			zap.Int("index", i+1), zap.Int("total", len(tracks)),
			zap.String("artist", t.Artist), zap.String("track", t.Name))

		ms, err := client.TrackDuration(ctx, t.Artist, t.Name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("fetching duration failed", zap.String("artist", t.Artist), zap.String("track", t.Name), zap.Error(err))
			continue
		}
		if err := db.SetTrackDuration(t.ID, ms); err != nil {
			return err
		}
	}
	return nil
}

func updateArtistTags(ctx context.Context, client *lastfmfetch.Client, db *store.Store, interval time.Duration) error {
	artists, err := db.GetArtistsNeedingTagUpdate(interval)
	if err != nil {
		return err
	}

	logger.Info("found artists needing tag updates", zap.Int("count", len(artists)))

	for i, artist := range artists {
		logger.Debug("fetching tags",
			zap.Int("index", i+1), zap.Int("total", len(artists)), zap.String("artist", artist))

		tags, counts, err := client.ArtistTags(ctx, artist)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("fetching tags failed", zap.String("artist", artist), zap.Error(err))
			continue
		}

		if err := db.SaveArtistTags(artist, tags, counts); err != nil {
			return fmt.Errorf("saving tags for artist %s: %w", artist, err)
		}
	}

	return nil
}

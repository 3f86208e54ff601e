// Package lastfmfetch wraps the last.fm API with rate limiting and retries.
package lastfmfetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	userAgent = "listen-trends/1.0"

	// PageSize is the number of scrobbles requested per page, the API
	// maximum.
	PageSize = 200
)

// Client issues at most one request per second and retries server errors.
type Client struct {
	api     *lastfm.Api
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(apiKey, secret string, logger *zap.Logger) *Client {
	api := lastfm.New(apiKey, secret)
	api.SetUserAgent(userAgent)
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(1*time.Second), 1),
		logger:  logger,
	}
}

// Api exposes the underlying client for the authentication flow.
func (c *Client) Api() *lastfm.Api {
	return c.api
}

func (c *Client) SetSession(key string) {
	c.api.SetSession(key)
}

// retryable reports whether err is a last.fm 5xx-class error.
func retryable(err error) bool {
	var lerr *lastfm.LastfmError
	if errors.As(err, &lerr) {
		return lerr.Code/100 == 5
	}
	return false
}

func (c *Client) do(ctx context.Context, what string, call func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return retry.Do(
		call,
		retry.RetryIf(retryable),
		retry.Attempts(5),
		retry.Delay(2*time.Second),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("last.fm errored, retrying",
				zap.String("call", what), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// RecentTracks fetches one page of a user's scrobbles, newest first.
func (c *Client) RecentTracks(ctx context.Context, user string, page int) (lastfm.UserGetRecentTracks, error) {
	var recent lastfm.UserGetRecentTracks
	err := c.do(ctx, "user.getRecentTracks", func() error {
		var err error
		recent, err = c.api.User.GetRecentTracks(lastfm.P{
			"limit": PageSize,
			"page":  page,
			"user":  user,
		})
		return err
	})
	if err != nil {
		return recent, fmt.Errorf("fetching recent tracks page %d: %w", page, err)
	}
	return recent, nil
}

// TrackDuration returns a track's length in milliseconds, or zero if last.fm
// does not know it.
func (c *Client) TrackDuration(ctx context.Context, artist, track string) (int64, error) {
	var info lastfm.TrackGetInfo
	err := c.do(ctx, "track.getInfo", func() error {
		var err error
		info, err = c.api.Track.GetInfo(lastfm.P{
			"artist":      artist,
			"track":       track,
			"autocorrect": 1,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fetching info for %s - %s: %w", artist, track, err)
	}
	return parseDuration(info.Duration), nil
}

func parseDuration(s string) int64 {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms < 0 {
		return 0
	}
	return ms
}

// ArtistTags returns an artist's top tags and their counts, most popular
// first.
func (c *Client) ArtistTags(ctx context.Context, artist string) ([]string, []int, error) {
	var topTags lastfm.ArtistGetTopTags
	err := c.do(ctx, "artist.getTopTags", func() error {
		var err error
		topTags, err = c.api.Artist.GetTopTags(lastfm.P{
			"artist":      artist,
			"autocorrect": 1,
		})
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching tags for %s: %w", artist, err)
	}

	var tags []string
	var counts []int
	for _, t := range topTags.Tags {
		tags = append(tags, t.Name)
		n, _ := strconv.Atoi(t.Count)
		counts = append(counts, n)
	}
	return tags, counts, nil
}

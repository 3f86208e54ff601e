package lastfmfetch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ademuri/lastfm-go/lastfm"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &lastfm.LastfmError{Code: 500}, true},
		{"wrapped server error", fmt.Errorf("page 3: %w", &lastfm.LastfmError{Code: 503}), true},
		{"client error", &lastfm.LastfmError{Code: 6}, false},
		{"other error", errors.New("connection reset"), false},
	}
	for _, c := range cases {
		if got := retryable(c.err); got != c.want {
			t.Errorf("%s: retryable = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int64{
		"215000": 215000,
		"0":      0,
		"":       0,
		"-5":     0,
		"abc":    0,
	}
	for in, want := range cases {
		if got := parseDuration(in); got != want {
			t.Errorf("parseDuration(%q) = %d, want %d", in, got, want)
		}
	}
}

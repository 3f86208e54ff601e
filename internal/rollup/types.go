package rollup

// Summary covers the whole event set.
type Summary struct {
	TotalHours    float64 `json:"total_hours" yaml:"total_hours"`
	TotalPlays    int64   `json:"total_plays" yaml:"total_plays"`
	UniqueTracks  int     `json:"unique_tracks" yaml:"unique_tracks"`
	UniqueArtists int     `json:"unique_artists" yaml:"unique_artists"`
	FirstPlayedAt string  `json:"first_played_at" yaml:"first_played_at"`
	LastPlayedAt  string  `json:"last_played_at" yaml:"last_played_at"`
}

type MonthlyRow struct {
	YearMonth     string  `json:"year_month" yaml:"year_month"`
	Year          int     `json:"year" yaml:"year"`
	Month         int     `json:"month" yaml:"month"`
	Hours         float64 `json:"hours" yaml:"hours"`
	Plays         int64   `json:"plays" yaml:"plays"`
	UniqueTracks  int     `json:"unique_tracks" yaml:"unique_tracks"`
	UniqueArtists int     `json:"unique_artists" yaml:"unique_artists"`
}

type DayOfWeekRow struct {
	YearMonth string  `json:"year_month" yaml:"year_month"`
	Dow       int     `json:"dow" yaml:"dow"`
	DowName   string  `json:"dow_name" yaml:"dow_name"`
	Hours     float64 `json:"hours" yaml:"hours"`
	Plays     int64   `json:"plays" yaml:"plays"`
}

type HourRow struct {
	YearMonth string  `json:"year_month" yaml:"year_month"`
	Hour      int     `json:"hour" yaml:"hour"`
	Hours     float64 `json:"hours" yaml:"hours"`
	Plays     int64   `json:"plays" yaml:"plays"`
}

// TopRow is one entry of a monthly top list. TrackName is empty for artist
// lists.
type TopRow struct {
	YearMonth  string  `json:"year_month" yaml:"year_month"`
	TrackName  string  `json:"track_name,omitempty" yaml:"track_name,omitempty"`
	ArtistName string  `json:"artist_name" yaml:"artist_name"`
	Hours      float64 `json:"hours" yaml:"hours"`
	Plays      int64   `json:"plays" yaml:"plays"`
}

// DiscoveryRow gives the share of a month's listening spent on tracks first
// heard that month, as percentages.
type DiscoveryRow struct {
	YearMonth          string  `json:"year_month" yaml:"year_month"`
	DiscoveryRateHours float64 `json:"discovery_rate_hours" yaml:"discovery_rate_hours"`
	DiscoveryRatePlays float64 `json:"discovery_rate_plays" yaml:"discovery_rate_plays"`
}

type GenreRow struct {
	YearMonth string  `json:"year_month" yaml:"year_month"`
	Genre     string  `json:"genre" yaml:"genre"`
	Hours     float64 `json:"hours" yaml:"hours"`
	Plays     int64   `json:"plays" yaml:"plays"`
}

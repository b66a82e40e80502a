package models

import (
	"strings"
	"time"
)

type Artist struct {
	Name string `json:"name"`
}

type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type Album struct {
	Name   string  `json:"name,omitempty"`
	Images []Image `json:"images"`
}

// Track is the Spotify track object embedded in play history.
type Track struct {
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	DurationMs int      `json:"duration_ms"`
	Album      Album    `json:"album"`
	URI        string   `json:"uri"`
}

// ArtistNames joins artist names with a comma.
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

type PlayHistory struct {
	PlayedAt time.Time `json:"played_at"`
	Track    Track     `json:"track"`
}

// RecentlyPlayed is the recently played payload.
type RecentlyPlayed struct {
	Items []PlayHistory `json:"items"`
}

// Recommendation is a mood-matched track from the recommender.
type Recommendation struct {
	TrackID           string  `json:"track_id"`
	TrackName         string  `json:"track_name"`
	Artists           string  `json:"artists"`
	AlbumName         string  `json:"album_name"`
	TrackGenre        string  `json:"track_genre"`
	Popularity        int     `json:"popularity"`
	Similarity        float64 `json:"similarity"`
	SimilarityPercent float64 `json:"similarity_percent"`
}

// RecommendationSet is the recommendations response envelope.
type RecommendationSet struct {
	Mood            Mood             `json:"mood"`
	Count           int              `json:"count"`
	Personalized    bool             `json:"personalized"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Song struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	SpotifyID string `json:"spotify_id,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Collection is a mood playlist summary.
type Collection struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Mood        Mood   `json:"mood"`
	SongCount   int    `json:"songCount"`
	LastUpdated string `json:"lastUpdated"`
	Color       string `json:"color"`
	Songs       []Song `json:"songs"`
}

type MoodStat struct {
	Mood       Mood    `json:"mood"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	Hours      float64 `json:"hours"`
}

type ListeningDay struct {
	Day   string  `json:"day"`
	Hours float64 `json:"hours"`
}

type TopArtist struct {
	Name   string `json:"name"`
	Plays  int    `json:"plays"`
	Change string `json:"change"`
}

type TopGenre struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// AnalyticsOverview holds listening statistics for one time filter.
type AnalyticsOverview struct {
	TotalListeningHours float64        `json:"total_listening_hours"`
	DailyAverage        float64        `json:"daily_average"`
	TopMood             Mood           `json:"top_mood"`
	MoodPercentage      float64        `json:"mood_percentage"`
	WeekChange          string         `json:"week_change"`
	MoodStats           []MoodStat     `json:"mood_stats"`
	ListeningData       []ListeningDay `json:"listening_data"`
	TopArtists          []TopArtist    `json:"top_artists"`
	TopGenres           []TopGenre     `json:"top_genres"`
}

// DefaultTimeFilter is applied when analytics are requested without one.
const DefaultTimeFilter = "This Week"

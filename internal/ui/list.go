package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/moodring/internal/models"
)

var (
	_ list.Item = moodItem{}
	_ list.Item = recommendationItem{}
)

// moodItem wraps [models.Mood] to implement [list.Item].
type moodItem struct {
	mood models.Mood
}

func (i moodItem) FilterValue() string { return string(i.mood) }
func (i moodItem) Title() string       { return MoodStyle(i.mood).Render(string(i.mood)) }
func (i moodItem) Description() string { return i.mood.Color() }

// recommendationItem wraps [models.Recommendation] to implement [list.Item].
type recommendationItem struct {
	rec models.Recommendation
}

func (i recommendationItem) FilterValue() string { return i.rec.TrackName }
func (i recommendationItem) Title() string       { return i.rec.TrackName }
func (i recommendationItem) Description() string {
	desc := i.rec.Artists
	if i.rec.TrackGenre != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.rec.TrackGenre)
	}
	if i.rec.SimilarityPercent > 0 {
		desc = fmt.Sprintf("%s • %.0f%% match", desc, i.rec.SimilarityPercent)
	}
	return desc
}

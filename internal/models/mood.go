package models

import (
	"fmt"
	"strings"
)

// Mood is a listening mood understood by the recommendation API.
type Mood string

const (
	MoodHappy     Mood = "Happy"
	MoodSad       Mood = "Sad"
	MoodEnergized Mood = "Energized"
	MoodAngry     Mood = "Angry"
	MoodCalm      Mood = "Calm"
)

const DefaultIntensity = 50

var moodColors = map[Mood]string{
	MoodHappy:     "#4CAF50",
	MoodSad:       "#2196F3",
	MoodEnergized: "#FFC107",
	MoodAngry:     "#F44336",
	MoodCalm:      "#9C27B0",
}

// Moods lists every mood in picker order.
func Moods() []Mood {
	return []Mood{MoodHappy, MoodSad, MoodEnergized, MoodAngry, MoodCalm}
}

// ParseMood matches name case-insensitively.
func ParseMood(name string) (Mood, error) {
	name = strings.TrimSpace(name)
	for _, m := range Moods() {
		if strings.EqualFold(name, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", name)
}

// Color is the hex color used for the mood in charts and the picker.
func (m Mood) Color() string {
	return moodColors[m]
}

// ClampIntensity bounds an intensity slider value to 0..100.
func ClampIntensity(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

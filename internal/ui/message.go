package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/moodring/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRecommendationsFetched MsgKind = iota
)

type recommendationsResult struct {
	set *models.RecommendationSet
	err error
}

// recommendationsFetchedMsg is the constructor for [MsgRecommendationsFetched]
func recommendationsFetchedMsg(set *models.RecommendationSet, err error) Msg {
	return Msg{kind: MsgRecommendationsFetched, data: recommendationsResult{set: set, err: err}}
}

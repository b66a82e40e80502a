package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MoodView ViewState = iota
	IntensityView
	RecommendationsView
)

const (
	intensityStep       = 10
	recommendationLimit = 20
	sliderWidth         = 20
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	api       services.MusicAPI
	userID    string
	view      ViewState
	width     int
	height    int
	moodList  list.Model
	mood      models.Mood
	intensity int
	recList   list.Model
	result    *models.RecommendationSet
	loading   bool
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a picker that fetches recommendations from api, personalized for userID when set.
func NewModel(ctx context.Context, api services.MusicAPI, userID string) *Model {
	moods := models.Moods()
	items := make([]list.Item, len(moods))
	for i, m := range moods {
		items[i] = moodItem{mood: m}
	}

	moodList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	moodList.Title = "How are you feeling?"
	moodList.SetFilteringEnabled(false)

	return &Model{
		ctx:       ctx,
		api:       api,
		userID:    userID,
		view:      MoodView,
		moodList:  moodList,
		intensity: models.DefaultIntensity,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init has nothing to load until a mood is picked.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.moodList.SetSize(msg.Width-4, msg.Height-8)
		if m.result != nil {
			m.recList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case MoodView:
			return m.handleMoodKeys(msg)
		case IntensityView:
			return m.handleIntensityKeys(msg)
		case RecommendationsView:
			return m.handleRecommendationKeys(msg)
		}

	case Msg:
		if msg.kind == MsgRecommendationsFetched {
			res := msg.data.(recommendationsResult)
			m.loading = false
			m.err = res.err
			if res.err == nil {
				m.setRecommendations(res.set)
			}
			return m, nil
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MoodView:
		return m.renderMoods()
	case IntensityView:
		return m.renderIntensity()
	case RecommendationsView:
		return m.renderRecommendations()
	default:
		return ""
	}
}

// Mood is the selected mood, empty until one is picked.
func (m *Model) Mood() models.Mood { return m.mood }

func (m *Model) Intensity() int { return m.intensity }

// Current is the active view.
func (m *Model) Current() ViewState { return m.view }

func (m *Model) handleMoodKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		if item, ok := m.moodList.SelectedItem().(moodItem); ok {
			m.mood = item.mood
			m.view = IntensityView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.moodList, cmd = m.moodList.Update(msg)
	return m, cmd
}

func (m *Model) handleIntensityKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.less):
		m.intensity = models.ClampIntensity(m.intensity - intensityStep)
	case key.Matches(msg, m.keys.more):
		m.intensity = models.ClampIntensity(m.intensity + intensityStep)
	case key.Matches(msg, m.keys.back):
		m.view = MoodView
	case key.Matches(msg, m.keys.enter):
		m.view = RecommendationsView
		m.loading = true
		m.err = nil
		return m, m.fetchRecommendations()
	}
	return m, nil
}

func (m *Model) handleRecommendationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = IntensityView
		return m, nil
	case key.Matches(msg, m.keys.restart):
		m.view = MoodView
		m.mood = ""
		m.intensity = models.DefaultIntensity
		m.result = nil
		m.err = nil
		return m, nil
	}

	if m.result == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.recList, cmd = m.recList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MoodView:
		m.moodList, cmd = m.moodList.Update(msg)
	case RecommendationsView:
		if m.result != nil {
			m.recList, cmd = m.recList.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) fetchRecommendations() tea.Cmd {
	mood := m.mood
	return func() tea.Msg {
		set, err := m.api.Recommendations(m.ctx, mood, recommendationLimit, m.userID)
		return recommendationsFetchedMsg(set, err)
	}
}

func (m *Model) setRecommendations(set *models.RecommendationSet) {
	if set == nil {
		set = &models.RecommendationSet{Mood: m.mood}
	}
	m.result = set

	items := make([]list.Item, len(set.Recommendations))
	for i, rec := range set.Recommendations {
		items[i] = recommendationItem{rec: rec}
	}
	m.recList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.recList.Title = fmt.Sprintf("%s picks", m.mood)
	if m.width > 0 {
		m.recList.SetSize(m.width-4, m.height-8)
	}
}

func (m *Model) renderMoods() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.moodList.View(), helpView)
}

func (m *Model) renderIntensity() string {
	title := styles.title.Render(fmt.Sprintf("How %s?", strings.ToLower(string(m.mood))))
	filled := m.intensity * sliderWidth / 100
	bar := MoodStyle(m.mood).Render(strings.Repeat("█", filled)) + styles.help.Render(strings.Repeat("░", sliderWidth-filled))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.less, m.keys.more, m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s %d%%\n\n%s", title, bar, m.intensity, helpView)
}

func (m *Model) renderRecommendations() string {
	if m.loading {
		return styles.help.Render(fmt.Sprintf("Finding %s tracks...", strings.ToLower(string(m.mood))))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.restart, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Could not load recommendations: %v", m.err)), helpView)
	}
	if m.result == nil || len(m.result.Recommendations) == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No recommendations for this mood yet"), helpView)
	}

	header := ""
	if m.result.Personalized {
		header = styles.ok.Render("✓ Personalized from your listening history") + "\n"
	}
	return fmt.Sprintf("%s%s\n\n%s", header, m.recList.View(), helpView)
}

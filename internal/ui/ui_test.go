package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/moodring/internal/models"
	tu "github.com/desertthunder/moodring/internal/testing"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func newTestModel(api *tu.MockMusicAPI) *Model {
	m := NewModel(context.Background(), api, "uid-1")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// send applies msg and runs any returned command once, feeding its message back.
func send(m *Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	if _, ok := out.(Msg); ok {
		m.Update(out)
	}
	return out
}

func TestMoodSelection(t *testing.T) {
	m := newTestModel(tu.NewMockMusicAPI())

	if m.Current() != MoodView {
		t.Fatalf("expected mood view, got %v", m.Current())
	}

	send(m, runes("j"))
	send(m, enter)

	if m.Current() != IntensityView {
		t.Fatalf("expected intensity view, got %v", m.Current())
	}
	if m.Mood() != models.MoodSad {
		t.Errorf("expected Sad, got %q", m.Mood())
	}
	if !strings.Contains(m.View(), "How sad?") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}

func TestIntensity(t *testing.T) {
	m := newTestModel(tu.NewMockMusicAPI())
	send(m, enter)

	t.Run("clamps at the top", func(t *testing.T) {
		for range 8 {
			send(m, runes("l"))
		}
		if m.Intensity() != 100 {
			t.Errorf("expected 100, got %d", m.Intensity())
		}
		if !strings.Contains(m.View(), "100%") {
			t.Errorf("expected 100%% in view")
		}
	})

	t.Run("steps down", func(t *testing.T) {
		send(m, runes("h"))
		if m.Intensity() != 90 {
			t.Errorf("expected 90, got %d", m.Intensity())
		}
	})

	t.Run("back returns to moods", func(t *testing.T) {
		send(m, esc)
		if m.Current() != MoodView {
			t.Errorf("expected mood view, got %v", m.Current())
		}
	})
}

func TestRecommendations(t *testing.T) {
	t.Run("fetches for the selected mood", func(t *testing.T) {
		api := tu.NewMockMusicAPI()
		api.Recommended = &models.RecommendationSet{
			Mood:         models.MoodHappy,
			Count:        1,
			Personalized: true,
			Recommendations: []models.Recommendation{
				{TrackName: "Here Comes the Sun", Artists: "The Beatles", TrackGenre: "rock", SimilarityPercent: 92},
			},
		}
		m := newTestModel(api)

		send(m, enter)
		out := send(m, enter)

		if _, ok := out.(Msg); !ok {
			t.Fatalf("expected a fetch result message, got %T", out)
		}
		if got := api.CallArgs("Recommendations"); len(got) != 1 || got[0] != "Happy" {
			t.Errorf("expected one Happy fetch, got %v", got)
		}

		view := m.View()
		for _, want := range []string{"Here Comes the Sun", "Personalized"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("shows fetch errors", func(t *testing.T) {
		api := tu.NewMockMusicAPI()
		api.Err = errors.New("backend down")
		m := newTestModel(api)

		send(m, enter)
		send(m, enter)

		if !strings.Contains(m.View(), "backend down") {
			t.Errorf("expected error in view:\n%s", m.View())
		}
	})

	t.Run("empty result", func(t *testing.T) {
		m := newTestModel(tu.NewMockMusicAPI())
		send(m, enter)
		send(m, enter)

		if !strings.Contains(m.View(), "No recommendations") {
			t.Errorf("unexpected view:\n%s", m.View())
		}
	})

	t.Run("restart resets the picker", func(t *testing.T) {
		m := newTestModel(tu.NewMockMusicAPI())
		send(m, enter)
		send(m, runes("l"))
		send(m, enter)
		send(m, runes("r"))

		if m.Current() != MoodView || m.Mood() != "" || m.Intensity() != models.DefaultIntensity {
			t.Errorf("expected reset, got view=%v mood=%q intensity=%d", m.Current(), m.Mood(), m.Intensity())
		}
	})
}

func TestQuit(t *testing.T) {
	m := newTestModel(tu.NewMockMusicAPI())
	out := send(m, runes("q"))
	if _, ok := out.(tea.QuitMsg); !ok {
		t.Errorf("expected quit, got %T", out)
	}
}

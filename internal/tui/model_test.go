package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/soyeahso/somc/internal/catalog"
	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/soyeahso/somc/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	payload []byte
	err     error
}

func (s stubSubmitter) Submit(context.Context, domain.AnalysisRequest) ([]byte, error) {
	return s.payload, s.err
}

func newTestModel(t *testing.T, sub stubSubmitter) Model {
	t.Helper()
	ctrl := session.New(session.Options{
		Catalog: catalog.New([]domain.Agent{
			{ID: "1", Name: "Anna", Description: "Demografie specialist", Expertise: domain.ExpertiseDemografie},
			{ID: "2", Name: "Bram", Description: "Economie specialist", Expertise: domain.ExpertiseEconomie},
		}),
		Submitter: sub,
		Log:       logging.Discard(),
	})
	return New(context.Background(), ctrl, nil)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

// resolve runs cmd (possibly a batch) and returns the first resolvedMsg.
func resolve(t *testing.T, cmd tea.Cmd) resolvedMsg {
	t.Helper()
	require.NotNil(t, cmd)
	pending := []tea.Cmd{cmd}
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case resolvedMsg:
			return msg
		case tea.BatchMsg:
			pending = append(pending, msg...)
		}
	}
	t.Fatal("no resolvedMsg produced")
	return resolvedMsg{}
}

func TestToggleAgents(t *testing.T) {
	m := newTestModel(t, stubSubmitter{})

	m, _ = press(t, m, keySpace)
	assert.True(t, m.ctrl.Contains("1"))

	m, _ = press(t, m, keyDown)
	m, _ = press(t, m, keySpace)
	assert.True(t, m.ctrl.Contains("2"))

	m, _ = press(t, m, keySpace)
	assert.False(t, m.ctrl.Contains("2"))
	assert.Contains(t, m.View(), "[x] ")
}

func TestCursorStaysInBounds(t *testing.T) {
	m := newTestModel(t, stubSubmitter{})
	for i := 0; i < 5; i++ {
		m, _ = press(t, m, keyDown)
	}
	assert.Equal(t, 1, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestTabCyclesFocus(t *testing.T) {
	m := newTestModel(t, stubSubmitter{})
	assert.Equal(t, paneAgents, m.focus)

	m, _ = press(t, m, keyTab)
	assert.Equal(t, paneScenario, m.focus)
	assert.True(t, m.scenario.Focused())

	m, _ = press(t, m, keyTab)
	assert.Equal(t, paneResults, m.focus)
	assert.False(t, m.scenario.Focused())

	m, _ = press(t, m, keyTab)
	assert.Equal(t, paneAgents, m.focus)
}

func TestQuitKeyIgnoredWhileTyping(t *testing.T) {
	m := newTestModel(t, stubSubmitter{})
	m, _ = press(t, m, keyTab)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, "q", m.scenario.Value())

	m, _ = press(t, m, keyTab)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSubmitRequiresSelectionAndScenario(t *testing.T) {
	tests := []struct {
		name     string
		toggle   bool
		scenario string
	}{
		{"nothing", false, ""},
		{"no agents", false, "Bouw van 500 woningen"},
		{"blank scenario", true, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, stubSubmitter{})
			if tt.toggle {
				m, _ = press(t, m, keySpace)
			}
			m.scenario.SetValue(tt.scenario)

			m, cmd := press(t, m, keySave)
			assert.Nil(t, cmd)
			assert.True(t, m.statusErr)
			assert.Equal(t, session.UserMessage, m.status)
			assert.False(t, m.submitting)
			assert.Equal(t, session.StateIdle, m.ctrl.State())
		})
	}
}

func TestSubmitRendersBackendResult(t *testing.T) {
	payload := []byte(`{"agent_responses":[{"agent_name":"Anna","response":"Vergrijzing neemt toe."}]}`)
	m := newTestModel(t, stubSubmitter{payload: payload})
	m, _ = press(t, m, keySpace)
	m.scenario.SetValue("Bouw van 500 woningen")

	m, cmd := press(t, m, keySave)
	assert.True(t, m.submitting)
	assert.Equal(t, session.StateSubmitting, m.ctrl.State())

	msg := resolve(t, cmd)
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.False(t, m.submitting)
	assert.Equal(t, paneResults, m.focus)
	require.NotNil(t, m.result)
	assert.Equal(t, domain.SourceBackend, m.result.Source)
	assert.Contains(t, m.View(), "Vergrijzing neemt toe.")
	assert.Equal(t, session.StateResolved, m.ctrl.State())
}

func TestSubmitFallsBackOnTransportError(t *testing.T) {
	m := newTestModel(t, stubSubmitter{err: errors.New("connection refused")})
	m, _ = press(t, m, keySpace)
	m.scenario.SetValue("Nieuwe haven")

	m, cmd := press(t, m, keySave)
	next, _ := m.Update(resolve(t, cmd))
	m = next.(Model)

	require.NotNil(t, m.result)
	assert.True(t, m.result.Degraded())
	assert.NotEmpty(t, m.status)
	assert.False(t, m.statusErr)
	assert.Contains(t, m.results.View(), "Demo analyse van Anna")
}

func TestSecondSubmitWhileInFlight(t *testing.T) {
	m := newTestModel(t, stubSubmitter{})
	m, _ = press(t, m, keySpace)
	m.scenario.SetValue("Scenario")

	m, first := press(t, m, keySave)
	require.NotNil(t, first)

	m, second := press(t, m, keySave)
	assert.Nil(t, second)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "loopt al")
}

func TestCatalogErrorShownInStatus(t *testing.T) {
	ctrl := session.New(session.Options{Log: logging.Discard()})
	m := New(context.Background(), ctrl, errors.New("status 503"))

	assert.True(t, m.statusErr)
	view := m.View()
	assert.Contains(t, view, "status 503")
	assert.Contains(t, view, "Geen agents beschikbaar")

	m, _ = press(t, m, keySpace)
	assert.Empty(t, m.ctrl.Selected())
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t, stubSubmitter{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	assert.Equal(t, 116, m.results.Width)
	assert.Equal(t, 120, m.width)
}

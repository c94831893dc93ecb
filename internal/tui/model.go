// Package tui is the terminal front end: pick agents, write a scenario and
// read the per-agent analysis.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/soyeahso/somc/internal/session"
)

type pane int

const (
	paneAgents pane = iota
	paneScenario
	paneResults
	paneCount
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	agentStyle    = lipgloss.NewStyle().Bold(true)
	activeBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(0, 1)
	passiveBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)

	expertiseColors = map[domain.Expertise]lipgloss.Color{
		domain.ExpertiseDemografie: lipgloss.Color("33"),
		domain.ExpertiseEconomie:   lipgloss.Color("35"),
		domain.ExpertiseWonen:      lipgloss.Color("170"),
	}
)

// resolvedMsg carries a finished analysis back into the event loop.
type resolvedMsg struct {
	result domain.AnalysisResult
}

// Model is the bubbletea model. All controller mutations happen inside
// Update; only the network round trip runs in a command.
type Model struct {
	ctx  context.Context
	ctrl *session.Controller
	log  *logging.Logger

	agents []domain.Agent
	cursor int
	focus  pane

	scenario textarea.Model
	spinner  spinner.Model
	results  viewport.Model
	keys     keyMap

	status     string
	statusErr  bool
	submitting bool
	result     *domain.AnalysisResult

	width, height int
}

// New builds the model. catalogErr, if set, is shown once in the status line.
func New(ctx context.Context, ctrl *session.Controller, catalogErr error) Model {
	ta := textarea.New()
	ta.Placeholder = "Beschrijf uw scenario, bijv. Bouw van 500 woningen in de binnenstad"
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 4000
	ta.SetHeight(4)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = cursorStyle

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		log:      logging.Discard(),
		agents:   ctrl.Catalog().Agents(),
		scenario: ta,
		spinner:  sp,
		results:  viewport.New(80, 12),
		keys:     defaultKeys(),
	}
	if catalogErr != nil {
		m.setStatus("Agents konden niet geladen worden: "+catalogErr.Error(), true)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		m.log.Debug().
			Str("session", msg.result.SessionID).
			Str("source", string(msg.result.Source)).
			Msg("result displayed")
		m.submitting = false
		m.result = &msg.result
		m.results.SetContent(renderResult(msg.result, m.results.Width))
		m.results.GotoTop()
		if msg.result.Notice != "" {
			m.setStatus(msg.result.Notice, false)
		} else {
			m.setStatus(fmt.Sprintf("Analyse %s ontvangen", msg.result.SessionID), false)
		}
		return m.setFocus(paneResults), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Quit) && m.focus != paneScenario:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Focus):
		return m.setFocus((m.focus + 1) % paneCount), nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	switch m.focus {
	case paneAgents:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.agents)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			m.toggleCurrent()
		}
		return m, nil

	case paneScenario:
		var cmd tea.Cmd
		m.scenario, cmd = m.scenario.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}
}

func (m *Model) toggleCurrent() {
	if len(m.agents) == 0 {
		return
	}
	if _, err := m.ctrl.Toggle(m.ctx, m.agents[m.cursor].ID); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("%d agent(s) geselecteerd", len(m.ctrl.Selected())), false)
}

// submit validates synchronously; the request itself runs as a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	sess, err := m.ctrl.Begin(m.ctx, m.scenario.Value())
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		m.log.Debug().Str("reason", verr.Reason).Msg("submit blocked")
		m.setStatus(session.UserMessage, true)
		return m, nil
	case errors.Is(err, session.ErrSubmissionInFlight):
		m.setStatus("Er loopt al een analyse; even geduld", true)
		return m, nil
	case err != nil:
		m.setStatus(err.Error(), true)
		return m, nil
	}

	m.submitting = true
	m.setStatus(fmt.Sprintf("Analyse gestart voor %d agent(s)", len(sess.Selection)), false)
	return m, tea.Batch(m.spinner.Tick, m.complete(sess))
}

func (m Model) complete(sess *session.Session) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return resolvedMsg{result: ctrl.Complete(ctx, sess)}
	}
}

func (m Model) setFocus(p pane) Model {
	m.focus = p
	if p == paneScenario {
		m.scenario.Focus()
	} else {
		m.scenario.Blur()
	}
	return m
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	inner := max(w-4, 20)
	m.scenario.SetWidth(inner)
	m.results.Width = inner
	m.results.Height = max(h-len(m.agents)-16, 5)
	if m.result != nil {
		m.results.SetContent(renderResult(*m.result, inner))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SoMC scenario-analyse"))
	b.WriteString("\n\n")

	b.WriteString(m.box(paneAgents, m.agentList()))
	b.WriteString("\n")
	b.WriteString(m.box(paneScenario, m.scenario.View()))
	b.WriteString("\n")

	if m.result != nil || m.submitting {
		body := m.results.View()
		if m.submitting {
			body = m.spinner.View() + " Analyse loopt..."
		}
		b.WriteString(m.box(paneResults, body))
		b.WriteString("\n")
	}

	if m.status != "" {
		style := noticeStyle
		if m.statusErr {
			style = errStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(helpLine(m.keys.help())))
	return b.String()
}

func (m Model) box(p pane, body string) string {
	style := passiveBorder
	if m.focus == p {
		style = activeBorder
	}
	if m.width > 0 {
		style = style.Width(m.width - 2)
	}
	return style.Render(body)
}

func (m Model) agentList() string {
	if len(m.agents) == 0 {
		return dimStyle.Render("Geen agents beschikbaar")
	}
	var b strings.Builder
	for i, a := range m.agents {
		cursor := "  "
		if i == m.cursor && m.focus == paneAgents {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if m.ctrl.Contains(a.ID) {
			check = "[x]"
		}
		tag := lipgloss.NewStyle().Foreground(expertiseColors[a.Expertise]).Render(string(a.Expertise))
		fmt.Fprintf(&b, "%s%s %s  %s  %s", cursor, check, agentStyle.Render(a.Name), tag, dimStyle.Render(a.Description))
		if i < len(m.agents)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderResult(r domain.AnalysisResult, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width, 20))
	var b strings.Builder
	for i, resp := range r.AgentResponses {
		if i > 0 {
			b.WriteString("\n\n")
		}
		tag := lipgloss.NewStyle().Foreground(expertiseColors[resp.AgentExpertise]).Render(string(resp.AgentExpertise))
		b.WriteString(agentStyle.Render(resp.AgentName) + "  " + tag + "\n")
		b.WriteString(wrap.Render(resp.Response))
	}
	return b.String()
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Run starts the program on the alternate screen and blocks until it exits.
// log must not write to the terminal.
func Run(ctx context.Context, ctrl *session.Controller, catalogErr error, log *logging.Logger) error {
	m := New(ctx, ctrl, catalogErr)
	m.log = log.Sub("tui")

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

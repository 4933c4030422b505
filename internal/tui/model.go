package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/answer"
	"docqa/internal/domain"
)

// Asker is the TUI-facing subset of the answer engine.
type Asker interface {
	Answer(ctx context.Context, question string, opts answer.Options) domain.Answer
}

// Recorder appends query records to the history log.
type Recorder interface {
	AddQuery(question string) error
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	engine   Asker
	recorder Recorder
	input    textinput.Model
	viewport viewport.Model
	turns    []domain.Turn
	status   string
	ready    bool
}

// New creates a new chat model instance. recorder may be nil.
func New(engine Asker, recorder Recorder) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{engine: engine, recorder: recorder, input: ti, viewport: vp, status: "Ready. Ctrl+N starts a new session."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderTurns())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res := m.engine.Answer(context.Background(), q, answer.Options{History: m.turns})
				m.turns = append(m.turns, domain.Turn{Question: q, Answer: res.Text})
				if m.recorder != nil {
					_ = m.recorder.AddQuery(q)
				}
				m.status = fmt.Sprintf("Answered with %d sources", len(res.Sources))
				m.input.SetValue("")
				m.viewport.SetContent(m.renderTurnsWithSources(res.Sources))
				m.viewport.GotoBottom()
				return m, nil
			}
		case "ctrl+n":
			m.turns = nil
			m.status = "New session."
			m.viewport.SetContent(m.renderTurns())
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document QA")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderTurns() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("Q: " + t.Question))
		b.WriteString("\n")
		b.WriteString(t.Answer)
	}
	return b.String()
}

func (m Model) renderTurnsWithSources(sources []string) string {
	out := m.renderTurns()
	if len(sources) > 0 {
		out += "\n" + sourceStyle.Render(strings.Join(sources, "\n"))
	}
	return out
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

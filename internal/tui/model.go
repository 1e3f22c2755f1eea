// Package tui 提供终端问答界面。
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"doc-qa-go/internal/model"
	"doc-qa-go/internal/service"
	"doc-qa-go/internal/session"
)

// Port 是界面使用的问答能力。
type Port interface {
	BuildIndex(ctx context.Context) (*model.BuildSummary, bool, error)
	Ask(ctx context.Context, question string) (*model.Answer, error)
}

// SessionPort 把 QAService 绑定到单个会话上。
type SessionPort struct {
	QA    service.QAService
	State *session.State
}

func (p SessionPort) BuildIndex(ctx context.Context) (*model.BuildSummary, bool, error) {
	return p.QA.EnsureIndexBuilt(ctx, p.State)
}

func (p SessionPort) Ask(ctx context.Context, question string) (*model.Answer, error) {
	return p.QA.Answer(ctx, p.State, question)
}

type builtMsg struct {
	summary *model.BuildSummary
	built   bool
	err     error
}

type answeredMsg struct {
	answer *model.Answer
	err    error
}

// Model 是终端界面的 Bubble Tea 模型。
type Model struct {
	ctx      context.Context
	port     Port
	input    textinput.Model
	viewport viewport.Model
	answer   *model.Answer
	status   string
	expanded bool
	busy     bool
	ready    bool
}

// New 创建界面模型。
func New(ctx context.Context, port Port) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter your question from documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		port:     port,
		input:    ti,
		viewport: vp,
		status:   "ctrl+e: Documents Embedding  enter: ask  tab: similarity search  ctrl+c: quit",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + status + 输入框
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case builtMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case msg.built:
			m.status = fmt.Sprintf("Vector Store DB Is Ready (%d chunks)", msg.summary.Chunks)
		default:
			m.status = "Vector Store DB Is Ready"
		}
		return m, nil

	case answeredMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			m.answer = msg.answer
			m.status = fmt.Sprintf("Response time: %.2fs", msg.answer.Elapsed.Seconds())
		}
		m.viewport.SetContent(m.renderBody())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "ctrl+e":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Building vector store..."
			return m, m.build()
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if m.busy || q == "" {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			return m, m.ask(q)
		case "tab":
			m.expanded = !m.expanded
			m.viewport.SetContent(m.renderBody())
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) build() tea.Cmd {
	return func() tea.Msg {
		summary, built, err := m.port.BuildIndex(m.ctx)
		return builtMsg{summary: summary, built: built, err: err}
	}
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.port.Ask(m.ctx, question)
		return answeredMsg{answer: ans, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RAG Document Q&A")
	body := bodyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(m.answer.Text)
	b.WriteString("\n\n")
	if !m.expanded {
		b.WriteString(hintStyle.Render(fmt.Sprintf("Document Similarity Search (%d chunks, tab to expand)", len(m.answer.Context))))
		return b.String()
	}
	b.WriteString(titleStyle.Render("Document Similarity Search"))
	for _, text := range m.answer.ContextTexts() {
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n")
		b.WriteString(separator)
	}
	return b.String()
}

const separator = "--------------------------------"

var (
	bodyBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
)

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	conversation "github.com/mihovilk/jarvis-core/core"
)

type stateChangedMsg struct {
	from conversation.State
	to   conversation.State
}

type transcriptMsg struct{ text string }

type utteranceMsg struct{ text string }

type replyMsg struct {
	text   string
	source string
}

type captureUnavailableMsg struct{ reason string }

type connectivityMsg struct{ offline bool }

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	replyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sourceStyle  = lipgloss.NewStyle().Faint(true)
	partialStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

type model struct {
	controller *conversation.Controller

	state        conversation.State
	offline      bool
	captureIssue string
	partial      string
	lines        []string

	spinner  spinner.Model
	viewport viewport.Model
	input    textinput.Model

	width  int
	height int
	ready  bool
}

func newModel(controller *conversation.Controller) model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))

	input := textinput.New()
	input.Placeholder = "type to JARVIS..."
	input.Focus()

	return model{
		controller: controller,
		state:      conversation.StateIdle,
		spinner:    s,
		input:      input,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := msg.(type) {
	case tea.KeyMsg:
		switch typedMsg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			m.controller.Resume()
			m.captureIssue = ""
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.controller.SendText(text)
				m.appendLine(userStyle.Render("You: ") + text)
				m.input.Reset()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = typedMsg.Width
		m.height = typedMsg.Height
		contentHeight := typedMsg.Height - 6
		if contentHeight < 3 {
			contentHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(typedMsg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = typedMsg.Width
			m.viewport.Height = contentHeight
		}
		m.refreshViewport()
		return m, nil

	case stateChangedMsg:
		m.state = typedMsg.to
		if typedMsg.to != conversation.StateIdle {
			m.captureIssue = ""
		}
		return m, nil

	case transcriptMsg:
		m.partial = typedMsg.text
		return m, nil

	case utteranceMsg:
		m.partial = ""
		m.appendLine(userStyle.Render("You: ") + typedMsg.text)
		return m, nil

	case replyMsg:
		label := replyStyle.Render("JARVIS: ") + typedMsg.text
		if typedMsg.source == "offline" {
			label += sourceStyle.Render("  (offline)")
		}
		m.appendLine(label)
		return m, nil

	case captureUnavailableMsg:
		m.captureIssue = typedMsg.reason
		return m, nil

	case connectivityMsg:
		m.offline = typedMsg.offline
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typedMsg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) appendLine(line string) {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.lines = append(m.lines, wordwrap.String(line, width))
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	var b strings.Builder

	status := stateStyle.Render(m.state.String())
	if m.state == conversation.StateAwaitingReply {
		status = m.spinner.View() + status
	}
	header := headerStyle.Render("JARVIS") + "  " + status
	if m.offline {
		header += "  " + offlineStyle.Render("[offline]")
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	if m.captureIssue != "" {
		b.WriteString(errorStyle.Render(fmt.Sprintf("microphone unavailable: %s (ctrl+r to retry)", m.captureIssue)))
		b.WriteString("\n")
	} else if m.partial != "" {
		b.WriteString(partialStyle.Render(m.partial))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send | ctrl+r: resume listening | esc: quit"))

	return b.String()
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/lifetime/box"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 12

type historyLine struct {
	op     string
	result string
	err    error
	events []string
}

type interactiveModel struct {
	session *session
	input   textinput.Model
	history []historyLine
	policy  box.Policy
	leaks   string
	done    bool
}

func newInteractiveModel(policy box.Policy) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "borrow"
	ti.Prompt = "op> "
	ti.Width = 40
	ti.Focus()

	return &interactiveModel{
		session: newSession(policy),
		input:   ti,
		policy:  policy,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			if err := m.session.close(); err != nil {
				m.leaks = err.Error()
			}
			m.done = true
			return m, tea.Quit

		case "enter":
			for _, op := range parseOps(m.input.Value()) {
				m.execute(op)
			}
			m.input.Reset()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) execute(op string) {
	line := historyLine{op: op}
	line.result, line.err = m.session.exec(context.Background(), op)
	for _, e := range m.session.drainEvents() {
		line.events = append(line.events, fmt.Sprintf("%s #%d %s", e.Label, e.ID, e.Type))
	}

	m.history = append(m.history, line)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
}

func (m *interactiveModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Lifetime Playground"))
	b.WriteString(fmt.Sprintf(" strict_return=%v pending_drop=%v\n\n",
		m.policy.StrictReturn, m.policy.PendingDropOnBorrow))
	b.WriteString(m.session.status())
	b.WriteString("\n\n")

	for _, line := range m.history {
		b.WriteString(opStyle.Render(fmt.Sprintf("%-13s", line.op)))
		b.WriteString(" ")
		if line.err != nil {
			b.WriteString(errorStyle.Render(line.err.Error()))
		} else {
			b.WriteString(resultStyle.Render(line.result))
		}
		b.WriteString("\n")
		for _, e := range line.events {
			b.WriteString("    ")
			b.WriteString(eventStyle.Render(e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(strings.Join(opNames(), " ")))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • esc quit"))

	return b.String()
}

func runInteractive(policy box.Policy) error {
	p := tea.NewProgram(newInteractiveModel(policy), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(*interactiveModel); ok && m.leaks != "" {
		fmt.Println(errorStyle.Render(m.leaks))
	}
	return nil
}

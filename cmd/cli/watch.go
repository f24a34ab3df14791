package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	taskStyle    = lipgloss.NewStyle().Bold(true)
	elapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type taskDoneMsg struct {
	err error
}

// taskModel shows a spinner with elapsed time while a long-running task
// executes in the background.
type taskModel struct {
	spinner spinner.Model
	title   string
	task    func() error
	started time.Time
	err     error
}

func newTaskModel(title string, task func() error) *taskModel {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = spinnerStyle

	return &taskModel{
		spinner: sp,
		title:   title,
		task:    task,
		started: time.Now(),
	}
}

func (m *taskModel) Init() tea.Cmd {
	run := func() tea.Msg {
		return taskDoneMsg{err: m.task()}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *taskModel) View() string {
	elapsed := time.Since(m.started).Round(time.Second)
	return fmt.Sprintf("%s %s %s\n",
		m.spinner.View(),
		taskStyle.Render(m.title),
		elapsedStyle.Render(fmt.Sprintf("(%s)", elapsed)))
}

// runTask blocks until the task finishes, showing progress in the terminal.
func runTask(title string, task func() error) error {
	model := newTaskModel(title, task)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("progress display failed: %w", err)
	}
	return model.err
}

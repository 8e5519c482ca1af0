package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikeg91/proxmox-scripts/pkg/provision"
)

type progressMsg provision.ProgressEvent

type runMsg struct {
	result *provision.Result
	err    error
}

// progressModel renders provisioning progress as it happens.
type progressModel struct {
	title  string
	run    func(provision.ProgressCallback) (*provision.Result, error)
	events []provision.ProgressEvent
	ch     chan provision.ProgressEvent

	spinner spinner.Model
	bar     progress.Model

	result *provision.Result
	err    error
	done   bool
}

func newProgressModel(title string, run func(provision.ProgressCallback) (*provision.Result, error)) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ActiveStyle

	return progressModel{
		title: title,
		run:   run,
		ch:    make(chan provision.ProgressEvent, 100),
		spinner: s,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(50),
			progress.WithoutPercentage(),
		),
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start(), m.waitForEvent())
}

// start runs provisioning in the background and reports completion.
func (m progressModel) start() tea.Cmd {
	return func() tea.Msg {
		result, err := m.run(func(e provision.ProgressEvent) {
			m.ch <- e
		})
		close(m.ch)
		return runMsg{result: result, err: err}
	}
}

func (m progressModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.ch
		if !ok {
			return nil
		}
		return progressMsg(event)
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.done && (msg.String() == "enter" || msg.String() == "q") {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd

	case progressMsg:
		m.events = append(m.events, provision.ProgressEvent(msg))
		cmds := []tea.Cmd{m.waitForEvent()}
		if msg.Percent >= 0 {
			cmds = append(cmds, m.bar.SetPercent(float64(msg.Percent)/100.0))
		}
		return m, tea.Batch(cmds...)

	case runMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	if len(m.events) > 0 {
		last := m.events[len(m.events)-1]
		percent := last.Percent
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		b.WriteString(progressBarStyle.Render(m.bar.ViewAs(float64(percent) / 100.0)))
		b.WriteString(fmt.Sprintf(" %d%%", percent))
		b.WriteString("\n\n")
	}

	for i, event := range m.events {
		isLast := i == len(m.events)-1 && !m.done

		icon := SuccessStyle.Render("  ✓ ")
		msgStyle := DimStyle
		switch {
		case event.IsError:
			icon = ErrorStyle.Render("  ✗ ")
			msgStyle = ErrorStyle
		case event.Stage == provision.StageComplete:
			msgStyle = SuccessStyle
		case isLast:
			icon = ActiveStyle.Render("  ▸ ")
			msgStyle = lipgloss.NewStyle()
		}

		b.WriteString(icon)
		b.WriteString(msgStyle.Render(event.Message))
		b.WriteString("\n")

		if event.Command != "" && (isLast || event.IsError) {
			b.WriteString("      ")
			b.WriteString(CommandStyle.Render("$ " + event.Command))
			b.WriteString("\n")
		}
		if event.Detail != "" && (isLast || event.IsError) {
			b.WriteString("      ")
			b.WriteString(DimStyle.Render(event.Detail))
			b.WriteString("\n")
		}
	}

	if !m.done {
		b.WriteString("\n  ")
		b.WriteString(m.spinner.View())
		b.WriteString(" Working...\n")
	}

	return b.String()
}

// RunWithProgress runs a provisioning function under the live progress view
// and returns its result once the view exits.
func RunWithProgress(ctx context.Context, title string, run func(provision.ProgressCallback) (*provision.Result, error)) (*provision.Result, error) {
	model := newProgressModel(title, run)

	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}

	m, ok := final.(progressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return m.result, m.err
}

// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"peakfreq/internal/analysis"
	"peakfreq/internal/runner"
)

// DefaultRefresh is how often the monitor samples the controller.
const DefaultRefresh = 100 * time.Millisecond

// Controller is the part of a runner the monitor drives.
type Controller interface {
	Mode() runner.Mode
	Cycle() (runner.Mode, error)
	RunCount() uint64
	Frames() uint64
	LatestPeak() (analysis.Peak, bool)
	Err() error
}

type monitorKeys struct {
	Cycle key.Binding
	Quit  key.Binding
}

func (k monitorKeys) ShortHelp() []key.Binding  { return []key.Binding{k.Cycle, k.Quit} }
func (k monitorKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultMonitorKeys = monitorKeys{
	Cycle: key.NewBinding(
		key.WithKeys("m", " ", "space"),
		key.WithHelp("m/space", "next mode"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type tickMsg time.Time

// snapshot is what the view renders; it is refreshed on every tick.
type snapshot struct {
	mode    runner.Mode
	runs    uint64
	frames  uint64
	peak    analysis.Peak
	hasPeak bool
}

// MonitorModel shows the runner's mode, run count and latest estimate.
// The mode key plays the role of a hardware mode button.
type MonitorModel struct {
	ctl     Controller
	source  string
	refresh time.Duration
	keys    monitorKeys
	help    help.Model
	state   snapshot
	err     error
}

// NewMonitorModel creates a monitor for ctl. source labels the input.
func NewMonitorModel(ctl Controller, source string, refresh time.Duration) MonitorModel {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	m := MonitorModel{
		ctl:     ctl,
		source:  source,
		refresh: refresh,
		keys:    defaultMonitorKeys,
		help:    help.New(),
	}
	m.sample()
	return m
}

func (m MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *MonitorModel) sample() {
	m.state.mode = m.ctl.Mode()
	m.state.runs = m.ctl.RunCount()
	m.state.frames = m.ctl.Frames()
	m.state.peak, m.state.hasPeak = m.ctl.LatestPeak()
	if err := m.ctl.Err(); err != nil {
		m.err = err
	}
}

func (m MonitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		m.sample()
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cycle):
			if _, err := m.ctl.Cycle(); err != nil {
				m.err = err
			}
			m.sample()
		}
	}
	return m, nil
}

func (m MonitorModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Peak Frequency Monitor"))
	sb.WriteString("\n\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(infoStyle.Render(value))
		sb.WriteString("\n")
	}
	row("Source", m.source)
	row("Mode", highlightStyle.Render(m.state.mode.String()))
	row("Run count", fmt.Sprintf("%d", m.state.runs))
	row("Frames", fmt.Sprintf("%d", m.state.frames))

	if m.state.hasPeak {
		p := m.state.peak
		row("Peak", highlightStyle.Render(fmt.Sprintf("%.4f Hz", p.Frequency)))
		row("Bin", fmt.Sprintf("%d", p.Bin))
		row("Power", fmt.Sprintf("%.4g", p.Power))
	} else {
		row("Peak", "waiting for first estimate")
	}

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// StartMonitorUI runs the monitor until the user quits.
func StartMonitorUI(ctl Controller, source string) error {
	p := tea.NewProgram(
		NewMonitorModel(ctl, source, DefaultRefresh),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

var _ Controller = (*runner.Runner)(nil)

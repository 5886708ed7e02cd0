package sim

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"sensornet-sim/internal/flow"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// flowMsg carries a rendered flow log line.
type flowMsg struct{ line string }

// metricsMsg carries the latest node database snapshot.
type metricsMsg struct{ metrics []flow.NodeMetrics }

// stateMsg carries a run-state update.
type stateMsg struct{ flow.StateRow }

const maxLogLines = 500

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tableStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	lowBattery  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUIWriter renders flow decisions and node metrics in a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(runID string) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(runID), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteFlow implements FlowWriter.
func (w *TUIWriter) WriteFlow(r flow.Row) error {
	line := fmt.Sprintf("[%10.3fs] flow %d -> %d link=%d src_batt=%.1f dest_batt=%.1f dist=%.1f delay=%.4f quality=%.1f",
		r.Timestamp, r.SrcAddr, r.DestAddr, r.ChosenLink,
		r.SrcBattery, r.DestBattery, r.PathDistance, r.PathDelay, r.PathQuality)
	w.program.Send(flowMsg{line: line})
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row flow.StateRow) error {
	w.program.Send(stateMsg{StateRow: row})
	return nil
}

// ObserveNodeMetrics updates the node table.
func (w *TUIWriter) ObserveNodeMetrics(metrics []flow.NodeMetrics) {
	w.program.Send(metricsMsg{metrics: metrics})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	runID      string
	table      table.Model
	vp         viewport.Model
	logs       []string
	state      flow.StateRow
	wrap       bool
	autoscroll bool
	width      int
	height     int
	ready      bool
}

func newTUIModel(runID string) tuiModel {
	cols := []table.Column{
		{Title: "Addr", Width: 5},
		{Title: "Battery", Width: 8},
		{Title: "Dist", Width: 7},
		{Title: "Delay", Width: 8},
		{Title: "Quality", Width: 8},
		{Title: "Deg", Width: 4},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))

	width, height := 100, 30
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	m := tuiModel{
		runID:      runID,
		table:      t,
		vp:         viewport.New(width, height/2),
		wrap:       true,
		autoscroll: true,
		width:      width,
		height:     height,
	}
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "a":
			m.autoscroll = !m.autoscroll
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
	case flowMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case metricsMsg:
		m.table.SetRows(metricsRows(msg.metrics))
	case stateMsg:
		m.state = msg.StateRow
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *tuiModel) layout() {
	m.vp.Width = m.width
	logHeight := m.height - m.table.Height() - 6
	if logHeight < 3 {
		logHeight = 3
	}
	m.vp.Height = logHeight
	m.refreshViewport()
}

func (m *tuiModel) refreshViewport() {
	content := ""
	for i, line := range m.logs {
		if i > 0 {
			content += "\n"
		}
		if m.wrap && m.vp.Width > 0 {
			content += wordwrap.String(line, m.vp.Width)
		} else {
			content += line
		}
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func metricsRows(metrics []flow.NodeMetrics) []table.Row {
	rows := make([]table.Row, 0, len(metrics))
	for _, nm := range metrics {
		batt := fmt.Sprintf("%.1f%%", nm.Battery)
		if nm.Battery < 20 {
			batt = lowBattery.Render(batt)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(nm.Address),
			batt,
			fmt.Sprintf("%.1fm", nm.Distance),
			fmt.Sprintf("%.4fs", nm.AvgDelay),
			fmt.Sprintf("%.1f%%", nm.LinkQuality),
			strconv.Itoa(nm.Neighbors),
		})
	}
	return rows
}

func (m tuiModel) View() string {
	header := headerStyle.Render(fmt.Sprintf("sensornet-sim  run=%s", m.runID))
	state := stateStyle.Render(fmt.Sprintf(
		"t=%.1fs nodes=%d flows=%d dataset=%d drops=%d predictions=%d trained=%t  [q]uit [w]rap [a]utoscroll",
		m.state.Timestamp, m.state.Nodes, m.state.Flows, m.state.DatasetSize,
		m.state.Drops, m.state.Predictions, m.state.Trained))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		tableStyle.Render(m.table.View()),
		state,
		m.vp.View(),
	)
}

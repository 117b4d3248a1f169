package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunDoneMsg reports one finished run to a ProgressModel.
type RunDoneMsg struct {
	Done, Total int
	Name        string
	Err         error
	Cached      bool
	Duration    time.Duration
}

type tickMsg time.Time

const recentRuns = 8

// ProgressModel follows the runs of an experiment and quits once all have
// finished. Send RunDoneMsg values with tea.Program.Send.
type ProgressModel struct {
	title  string
	total  int
	done   int
	failed int
	frame  int
	recent []RunDoneMsg
	quit   bool
}

func NewProgressModel(title string, total int) ProgressModel {
	return ProgressModel{title: title, total: total}
}

func (m ProgressModel) Done() int   { return m.done }
func (m ProgressModel) Failed() int { return m.failed }

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case RunDoneMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			m.total = msg.Total
		}
		if msg.Err != nil {
			m.failed++
		}
		m.recent = append(m.recent, msg)
		if len(m.recent) > recentRuns {
			m.recent = m.recent[len(m.recent)-recentRuns:]
		}
		if m.total > 0 && m.done >= m.total {
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	spin := AnimatedSpinner(m.frame)
	if m.total > 0 && m.done >= m.total {
		spin = StatusOK.Render("✓")
	}
	fmt.Fprintf(&b, "%s %s\n\n", spin, Title.Render(m.title))
	fmt.Fprintf(&b, "%s %d/%d", ProgressBar(frac, 40), m.done, m.total)
	if m.failed > 0 {
		fmt.Fprintf(&b, "  %s", StatusFailed.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n\n")

	for _, r := range m.recent {
		status := StatusOK.Render("ok    ")
		switch {
		case r.Err != nil:
			status = StatusFailed.Render("failed")
		case r.Cached:
			status = StatusCached.Render("cached")
		}
		line := fmt.Sprintf("%s %s %s", status, r.Name, Subtle.Render(r.Duration.Round(time.Millisecond).String()))
		if r.Err != nil {
			line += " " + Subtle.Render(r.Err.Error())
		}
		b.WriteString(line + "\n")
	}

	if !m.quit && m.done < m.total {
		b.WriteString("\n" + KeyHint.Render("q quit"))
	}
	return b.String() + "\n"
}

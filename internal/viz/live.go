// Package viz renders an adaptive solve live in the terminal.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/kmoren/stepwise/internal/sim"
)

const (
	graphWidth    = 70
	graphHeight   = 12
	stepsPerFrame = 5
)

type TickMsg time.Time

// Model drives a sim.Session a few trial steps per frame and shows the
// step-size history alongside accept/reject counters.
type Model struct {
	sess      *sim.Session
	frameRate int
	modelName string
	done      bool
	err       error
}

func NewModel(sess *sim.Session, modelName string, frameRate int) Model {
	if frameRate <= 0 {
		frameRate = 30
	}
	return Model{sess: sess, frameRate: frameRate, modelName: modelName}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case TickMsg:
		if m.done {
			return m, nil
		}
		for i := 0; i < stepsPerFrame && !m.done; i++ {
			done, err := m.sess.Step()
			if err != nil {
				m.err = err
				m.done = true
				break
			}
			m.done = done
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	res := m.sess.Result()

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("stepwise live — %s", m.modelName)))
	b.WriteString("\n")

	if len(res.Dts) > 1 {
		hist := res.Dts
		if len(hist) > graphWidth*2 {
			hist = hist[len(hist)-graphWidth*2:]
		}
		graph := asciigraph.Plot(hist,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("accepted dt"))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	stats := []string{
		labelStyle.Render("t") + valueStyle.Render(fmt.Sprintf("%.6f", m.sess.Time())),
		labelStyle.Render("accepted") + acceptStyle.Render(fmt.Sprintf("%d", res.Accepted)),
		labelStyle.Render("rejected") + rejectStyle.Render(fmt.Sprintf("%d", res.Rejected)),
		labelStyle.Render("outcome") + valueStyle.Render(res.Outcome.String()),
	}
	if len(res.Dts) > 0 {
		stats = append(stats, labelStyle.Render("last dt")+valueStyle.Render(fmt.Sprintf("%.3e", res.Dts[len(res.Dts)-1])))
	}
	b.WriteString(statsStyle.Render(strings.Join(stats, "\n")))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(rejectStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	} else if m.done {
		b.WriteString(acceptStyle.Render("solve finished"))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

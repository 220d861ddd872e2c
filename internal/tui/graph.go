package tui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gitgrid/internal/grid"
)

var dayLabels = [grid.Days]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type graphModel struct {
	state  *appState
	width  int
	height int

	day  int
	week int

	anchor time.Time
	rng    *rand.Rand

	running bool
	done    int
	total   int
	prog    progress.Model
}

func newGraphModel(st *appState) graphModel {
	return graphModel{
		state:  st,
		anchor: grid.Anchor(time.Now()),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		prog:   progress.New(progress.WithDefaultGradient()),
	}
}

func (g *graphModel) setSize(w, h int) {
	g.width = w
	g.height = h
	g.prog.Width = min(max(w-30, 10), 60)
}

func (g *graphModel) setProgress(done, total int) {
	g.done = done
	g.total = total
}

func (g graphModel) update(msg tea.Msg) (graphModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if g.day > 0 {
			g.day--
		}
	case key.Matches(keyMsg, keys.Down):
		if g.day < grid.Days-1 {
			g.day++
		}
	case key.Matches(keyMsg, keys.Left):
		if g.week > 0 {
			g.week--
		}
	case key.Matches(keyMsg, keys.Right):
		if g.week < grid.Weeks-1 {
			g.week++
		}
	}

	// Editing is locked while a run is writing commits from this grid.
	if g.running {
		return g, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Paint), key.Matches(keyMsg, keys.Enter):
		g.state.grid.Cycle(g.day, g.week)
	case key.Matches(keyMsg, keys.ClearCell):
		g.state.grid.Clear(g.day, g.week)
	case key.Matches(keyMsg, keys.ClearAll):
		g.state.grid.ClearAll()
		return g, func() tea.Msg {
			return statusMsg{text: "Graph cleared"}
		}
	case key.Matches(keyMsg, keys.Randomize):
		g.state.grid.Randomize(g.rng)
		return g, func() tea.Msg {
			return statusMsg{text: "Graph randomized"}
		}
	}
	return g, nil
}

func (g graphModel) view() string {
	w := g.width - 4

	cursorDate := grid.CellDate(g.anchor, g.week, g.day)
	info := mutedStyle.Render(fmt.Sprintf("%s — level %d",
		cursorDate.Format("Mon Jan 02 2006"), g.state.grid.At(g.day, g.week)))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Contribution Graph"), "  ", info,
	)

	colors := levelColors(g.state.theme)

	// Two columns per cell when the terminal is wide enough, one
	// otherwise.
	gap := " "
	if w < 2*grid.Weeks+10 {
		gap = ""
	}

	var rows []string
	rows = append(rows, header)
	rows = append(rows, "")
	for day := 0; day < grid.Days; day++ {
		var b strings.Builder
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%-4s", dayLabels[day])))
		for week := 0; week < grid.Weeks; week++ {
			st := lipgloss.NewStyle().Foreground(colors[g.state.grid.At(day, week)])
			if day == g.day && week == g.week {
				st = st.Background(colorHighlight)
			}
			b.WriteString(st.Render("■" + gap))
		}
		rows = append(rows, b.String())
	}

	rows = append(rows, "")
	rows = append(rows, g.renderLegend(colors))

	if g.running {
		pct := 0.0
		if g.total > 0 {
			pct = float64(g.done) / float64(g.total)
		}
		rows = append(rows, "")
		rows = append(rows, g.prog.ViewAs(pct))
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  Generating %d/%d commits — esc: cancel", g.done, g.total)))
	} else {
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  space: paint  x: clear cell  c: clear all  r: randomize  g: generate"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (g graphModel) renderLegend(colors [grid.Levels]lipgloss.Color) string {
	var swatches []string
	for _, c := range colors {
		swatches = append(swatches, lipgloss.NewStyle().Foreground(c).Render("■"))
	}
	painted := mutedStyle.Render(fmt.Sprintf("   %d cells painted", g.state.grid.Count()))
	return "    " + mutedStyle.Render("Less ") + strings.Join(swatches, " ") + mutedStyle.Render(" More") + painted
}

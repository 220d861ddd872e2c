package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gitgrid/internal/history"
)

type historyModel struct {
	store *history.Store

	width  int
	height int

	runs  []history.Run
	total int64

	chart barchart.Model
}

func newHistoryModel(h *history.Store) historyModel {
	return historyModel{
		store: h,
		chart: barchart.New(60, 10),
	}
}

func (h *historyModel) setSize(w, hg int) {
	h.width = w
	h.height = hg
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		runs, _ := h.store.ListRuns(30)
		total, _ := h.store.TotalCommits()
		return historyDataMsg{runs: runs, total: total}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(historyDataMsg); ok {
		h.runs = msg.runs
		h.total = msg.total
		h.buildChart()
	}
	return h, nil
}

func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if h.height > 30 {
		chartHeight = 14
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	// Oldest run on the left; one bar per run.
	maxBars := max(chartWidth/8, 1)
	shown := h.runs
	if len(shown) > maxBars {
		shown = shown[:maxBars]
	}

	var bars []barchart.BarData
	for i := len(shown) - 1; i >= 0; i-- {
		r := shown[i]
		style := successStyle
		if !r.Pushed {
			style = errorStyle
		}
		bars = append(bars, barchart.BarData{
			Label: r.StartedAt.Local().Format("Jan02"),
			Values: []barchart.BarValue{{
				Name:  "commits",
				Value: float64(r.CreatedCommits),
				Style: style,
			}},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Generation History"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d commits across %d runs", h.total, len(h.runs))),
	)

	if len(h.runs) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("No runs yet. Paint the graph and press g to generate."),
		)
		return panelStyle.Width(w).Render(content)
	}

	chartView := h.chart.View()
	tableView := h.renderTable(w)
	hint := mutedStyle.Render("  e: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", tableView, "", hint,
		),
	)
}

func (h historyModel) renderTable(w int) string {
	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-17s %-12s %8s %8s %7s %7s", "Started", "Branch", "Planned", "Created", "Rebase", "Pushed"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 66))))

	shown := h.runs
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, r := range shown {
		pushed := successStyle.Render("yes")
		if !r.Pushed {
			pushed = errorStyle.Render("no")
		}
		rebase := "ok"
		if !r.RebaseOK {
			rebase = "failed"
		}
		row := fmt.Sprintf("  %-17s %-12s %8d %8d %7s     ",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Branch, r.PlannedCommits, r.CreatedCommits, rebase,
		)
		rows = append(rows, row+pushed)
		if r.Error != "" {
			rows = append(rows, errorStyle.Render("    ✗ "+r.Error))
		}
	}

	return strings.Join(rows, "\n")
}

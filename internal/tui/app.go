package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gitgrid/internal/export"
	"github.com/sadopc/gitgrid/internal/generate"
	"github.com/sadopc/gitgrid/internal/gitrepo"
	"github.com/sadopc/gitgrid/internal/grid"
	"github.com/sadopc/gitgrid/internal/history"
	"github.com/sadopc/gitgrid/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	runLog *history.Store
	repo   *gitrepo.Repo
	runner *generate.Runner
	state  *appState

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	running bool
	cancel  context.CancelFunc

	promptingRemote bool
	remoteForm      *huh.Form
	remoteURL       *string

	graph       graphModel
	saves       savesModel
	repoview    repoModel
	historyview historyModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(s *store.Store, runLog *history.Store, repo *gitrepo.Repo, initial store.State) App {
	h := help.New()
	h.ShowAll = false

	g, err := initial.Grid()
	if err != nil {
		g = grid.New()
		initial.Theme = store.DefaultTheme
	}
	state := &appState{grid: g, theme: initial.Theme}
	url := ""

	return App{
		store:       s,
		runLog:      runLog,
		repo:        repo,
		runner:      generate.NewRunner(repo),
		state:       state,
		activeView:  viewGraph,
		remoteURL:   &url,
		graph:       newGraphModel(state),
		saves:       newSavesModel(s, state),
		repoview:    newRepoModel(repo),
		historyview: newHistoryModel(runLog),
		help:        h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		a.saves.refresh(),
		a.repoview.refresh(),
		a.historyview.refresh(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.graph.setSize(a.width, contentHeight)
		a.saves.setSize(a.width, contentHeight)
		a.repoview.setSize(a.width, contentHeight)
		a.historyview.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.promptingRemote {
			return a.updateRemotePrompt(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		if a.running && key.Matches(msg, keys.Back) {
			if a.cancel != nil {
				a.cancel()
			}
			a.status = "Cancelling run..."
			a.statusErr = false
			return a, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			if a.cancel != nil {
				a.cancel()
			}
			a.store.SaveDefault(a.state.snapshot())
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Theme):
			a.state.theme = a.state.theme.Toggle()
			return a, a.persistTheme()
		case key.Matches(msg, keys.Generate):
			if a.running || a.runner.Busy() {
				a.status = "A generation run is already in progress"
				a.statusErr = true
				return a, nil
			}
			return a, a.checkRepoCmd()
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewGraph
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewSaves
			return a, a.saves.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewRepo
			return a, a.repoview.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewHistory
			return a, a.historyview.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		}

		return a.updateActiveView(msg)

	case tickMsg:
		if a.running {
			done, total := a.runner.Progress()
			a.graph.setProgress(done, total)
		}
		return a, tickCmd()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case remoteNeededMsg:
		return a.openRemotePrompt()

	case remoteResultMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Remote error: %v", msg.err)
			a.statusErr = true
			return a.openRemotePrompt()
		}
		a.status = "Remote set to " + msg.url
		a.statusErr = false
		ap, cmd := a.startRun()
		return ap, tea.Batch(cmd, ap.repoview.refresh())

	case runReadyMsg:
		return a.startRun()

	case runDoneMsg:
		return a.finishRun(msg)

	case runRecordedMsg:
		if msg.err != nil {
			return a, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("History error: %v", msg.err), isError: true}
			}
		}
		return a, tea.Batch(a.historyview.refresh(), a.repoview.refresh())

	case snapshotLoadedMsg:
		if err := a.state.restore(msg.state); err != nil {
			a.status = fmt.Sprintf("Load error: %v", err)
			a.statusErr = true
			return a, nil
		}
		a.saves.current = msg.name
		a.status = fmt.Sprintf("Loaded snapshot %q", msg.name)
		a.statusErr = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case savesDataMsg:
		var cmd tea.Cmd
		a.saves, cmd = a.saves.update(msg)
		return a, cmd

	case repoInfoMsg, repoActionDoneMsg:
		var cmd tea.Cmd
		a.repoview, cmd = a.repoview.update(msg)
		return a, cmd

	case historyDataMsg:
		var cmd tea.Cmd
		a.historyview, cmd = a.historyview.update(msg)
		return a, cmd
	}

	if a.promptingRemote {
		return a.updateRemotePrompt(msg)
	}
	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewGraph:
		a.graph, cmd = a.graph.update(msg)
	case viewSaves:
		a.saves, cmd = a.saves.update(msg)
	case viewRepo:
		a.repoview, cmd = a.repoview.update(msg)
	case viewHistory:
		a.historyview, cmd = a.historyview.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.saves.formActive || a.repoview.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewSaves:
		return a.saves.refresh()
	case viewRepo:
		return a.repoview.refresh()
	case viewHistory:
		return a.historyview.refresh()
	}
	return nil
}

func (a App) persistTheme() tea.Cmd {
	theme := a.state.theme
	snapshot := a.state.snapshot()
	s := a.store
	return func() tea.Msg {
		if err := s.SaveDefault(snapshot); err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return statusMsg{text: "Theme: " + string(theme)}
	}
}

// --- Generation flow ---

// checkRepoCmd decides whether the run can start immediately or the
// remote URL prompt is needed first.
func (a App) checkRepoCmd() tea.Cmd {
	repo := a.repo
	return func() tea.Msg {
		if repo.Exists() && repo.HasRemote(context.Background()) {
			return runReadyMsg{}
		}
		return remoteNeededMsg{}
	}
}

func (a App) openRemotePrompt() (tea.Model, tea.Cmd) {
	*a.remoteURL = ""
	a.remoteForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Remote URL").
				Description("Where generated commits are pushed — leave empty to run without pushing").
				Value(a.remoteURL),
		),
	).WithShowHelp(true).WithShowErrors(true)
	a.promptingRemote = true
	return a, a.remoteForm.Init()
}

func (a App) updateRemotePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			a.promptingRemote = false
			a.remoteForm = nil
			a.status = "Generation cancelled"
			a.statusErr = false
			return a, nil
		}
	}

	form, cmd := a.remoteForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.remoteForm = f
	}

	if a.remoteForm.State == huh.StateCompleted {
		a.promptingRemote = false
		url := strings.TrimSpace(*a.remoteURL)
		if url == "" {
			a.status = "No remote configured — the push step will fail"
			a.statusErr = false
			return a.startRun()
		}
		return a, a.setRemoteCmd(url)
	}

	return a, cmd
}

func (a App) setRemoteCmd(url string) tea.Cmd {
	repo := a.repo
	return func() tea.Msg {
		ctx := context.Background()
		if !repo.Exists() {
			if err := repo.Init(ctx); err != nil {
				return remoteResultMsg{url: url, err: err}
			}
		}
		if repo.HasRemote(ctx) {
			if err := repo.RemoveRemote(ctx); err != nil {
				return remoteResultMsg{url: url, err: err}
			}
		}
		return remoteResultMsg{url: url, err: repo.AddRemote(ctx, url)}
	}
}

func (a App) startRun() (App, tea.Cmd) {
	a.graph.anchor = grid.Anchor(time.Now())
	specs, err := grid.Synthesize(a.state.grid, a.graph.anchor)
	if err != nil {
		a.status = fmt.Sprintf("Schedule error: %v", err)
		a.statusErr = true
		return a, nil
	}

	// Persist the painting before the long run starts.
	a.store.SaveDefault(a.state.snapshot())

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.running = true
	a.graph.running = true
	a.graph.setProgress(0, len(specs))
	a.status = fmt.Sprintf("Generating %d commits...", len(specs))
	a.statusErr = false

	runner := a.runner
	started := time.Now()
	return a, func() tea.Msg {
		report, err := runner.Run(ctx, specs)
		return runDoneMsg{report: report, err: err, started: started, finished: time.Now()}
	}
}

func (a App) finishRun(msg runDoneMsg) (tea.Model, tea.Cmd) {
	a.running = false
	a.graph.running = false
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	report := msg.report
	switch {
	case errors.Is(msg.err, context.Canceled):
		a.status = fmt.Sprintf("Cancelled after %d of %d commits", report.CommitsCreated, report.Total)
		a.statusErr = true
	case msg.err != nil:
		a.status = fmt.Sprintf("Generation failed: %v", msg.err)
		a.statusErr = true
	default:
		a.status = fmt.Sprintf("Created %d commits on %s in %s",
			report.CommitsCreated, report.Branch, formatDuration(msg.finished.Sub(msg.started)))
		if report.RebaseErr != nil {
			a.status += " (rebase failed, pushed anyway)"
		}
		a.statusErr = false
	}

	return a, a.recordRun(msg)
}

func (a App) recordRun(msg runDoneMsg) tea.Cmd {
	runLog := a.runLog
	errText := ""
	if msg.err != nil {
		errText = msg.err.Error()
	}
	run := history.Run{
		StartedAt:      msg.started,
		FinishedAt:     msg.finished,
		Branch:         msg.report.Branch,
		Remote:         msg.report.Remote,
		PlannedCommits: msg.report.Total,
		CreatedCommits: msg.report.CommitsCreated,
		RebaseOK:       msg.report.RebaseErr == nil,
		Pushed:         msg.report.Pushed,
		Error:          errText,
	}
	return func() tea.Msg {
		_, err := runLog.AddRun(run)
		return runRecordedMsg{err: err}
	}
}

// --- Rendering ---

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewGraph:
		content = a.graph.view()
	case viewSaves:
		content = a.saves.view()
	case viewRepo:
		content = a.repoview.view()
	case viewHistory:
		content = a.historyview.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}
	if a.promptingRemote && a.remoteForm != nil {
		content = a.renderRemotePrompt()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("gitgrid")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	runInfo := ""
	if a.running {
		runInfo = successStyle.Render(fmt.Sprintf(" ⟳ %d/%d", a.graph.done, a.graph.total))
	}

	left := footerStyle.Render(helpView)
	right := runInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderRemotePrompt() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Configure Remote"), "", a.remoteForm.View())
	return activePanelStyle.Width(a.width - 4).Render(content)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	runLog := a.runLog
	return func() tea.Msg {
		runs, err := runLog.ListRuns(0)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("gitgrid-export-%s.csv", dateStr))
			if err := export.ToCSV(runs, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("gitgrid-export-%s.json", dateStr))
			if err := export.ToJSON(runs, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

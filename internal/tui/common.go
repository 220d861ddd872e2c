package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/gitgrid/internal/generate"
	"github.com/sadopc/gitgrid/internal/grid"
	"github.com/sadopc/gitgrid/internal/history"
	"github.com/sadopc/gitgrid/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewGraph viewState = iota
	viewSaves
	viewRepo
	viewHistory
)

var viewNames = []string{"Graph", "Saves", "Repository", "History"}

// appState is the session state shared by every view. Bubble Tea models
// are copied on each update, so anything mutable lives behind this one
// pointer.
type appState struct {
	grid  *grid.Grid
	theme store.Theme
}

func (s *appState) snapshot() store.State {
	return store.NewState(s.grid, s.theme)
}

func (s *appState) restore(st store.State) error {
	g, err := st.Grid()
	if err != nil {
		return err
	}
	*s.grid = *g
	s.theme = st.Theme
	return nil
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// runReadyMsg signals that the repository check passed and a generation
// run can start.
type runReadyMsg struct{}

// remoteNeededMsg signals that the repository has no remote configured.
type remoteNeededMsg struct{}

type remoteResultMsg struct {
	url string
	err error
}

type runDoneMsg struct {
	report   generate.Report
	err      error
	started  time.Time
	finished time.Time
}

type runRecordedMsg struct {
	err error
}

type snapshotLoadedMsg struct {
	name  string
	state store.State
}

type savesDataMsg struct {
	names []string
}

type repoInfoMsg struct {
	exists   bool
	branch   string
	remote   string
	branches []string
}

type historyDataMsg struct {
	runs  []history.Run
	total int64
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/gitgrid/internal/generate"
	"github.com/sadopc/gitgrid/internal/gitrepo"
	"github.com/sadopc/gitgrid/internal/grid"
	"github.com/sadopc/gitgrid/internal/history"
	"github.com/sadopc/gitgrid/internal/store"
)

func newTestState() *appState {
	return &appState{grid: grid.New(), theme: store.DefaultTheme}
}

func newTestRunLog(t *testing.T) *history.Store {
	t.Helper()
	h, err := history.NewMemory()
	if err != nil {
		t.Fatalf("new memory history: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func newTestApp(t *testing.T) App {
	t.Helper()
	dir := t.TempDir()
	return NewApp(store.New(dir), newTestRunLog(t), gitrepo.New(dir), store.DefaultState())
}

func sizedApp(t *testing.T) App {
	t.Helper()
	app := newTestApp(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	return model.(App)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// ============================================================
// Graph model
// ============================================================

func TestGraphCursorMovement(t *testing.T) {
	g := newGraphModel(newTestState())

	g, _ = g.update(tea.KeyMsg{Type: tea.KeyDown})
	g, _ = g.update(tea.KeyMsg{Type: tea.KeyRight})
	if g.day != 1 || g.week != 1 {
		t.Fatalf("cursor at (%d,%d), want (1,1)", g.day, g.week)
	}

	g, _ = g.update(tea.KeyMsg{Type: tea.KeyUp})
	g, _ = g.update(tea.KeyMsg{Type: tea.KeyLeft})
	if g.day != 0 || g.week != 0 {
		t.Fatalf("cursor at (%d,%d), want (0,0)", g.day, g.week)
	}

	// Clamp at the edges
	g, _ = g.update(tea.KeyMsg{Type: tea.KeyUp})
	g, _ = g.update(tea.KeyMsg{Type: tea.KeyLeft})
	if g.day != 0 || g.week != 0 {
		t.Fatal("cursor moved past the top-left corner")
	}

	for i := 0; i < grid.Days+3; i++ {
		g, _ = g.update(tea.KeyMsg{Type: tea.KeyDown})
	}
	for i := 0; i < grid.Weeks+3; i++ {
		g, _ = g.update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if g.day != grid.Days-1 || g.week != grid.Weeks-1 {
		t.Fatalf("cursor at (%d,%d), want bottom-right corner", g.day, g.week)
	}
}

func TestGraphPaintCycles(t *testing.T) {
	st := newTestState()
	g := newGraphModel(st)

	for want := 1; want < grid.Levels; want++ {
		g, _ = g.update(tea.KeyMsg{Type: tea.KeySpace})
		if got := st.grid.At(0, 0); int(got) != want {
			t.Fatalf("after %d paints level = %d, want %d", want, got, want)
		}
	}

	// One more wraps back to 0
	g, _ = g.update(tea.KeyMsg{Type: tea.KeySpace})
	if st.grid.At(0, 0) != 0 {
		t.Fatal("paint did not wrap back to level 0")
	}
}

func TestGraphClearCell(t *testing.T) {
	st := newTestState()
	st.grid.Set(0, 0, 4)

	g := newGraphModel(st)
	g, _ = g.update(keyRune('x'))
	if st.grid.At(0, 0) != 0 {
		t.Fatal("x should clear the cursor cell")
	}
}

func TestGraphClearAll(t *testing.T) {
	st := newTestState()
	st.grid.Set(2, 10, 3)
	st.grid.Set(5, 40, 1)

	g := newGraphModel(st)
	g, cmd := g.update(keyRune('c'))
	if st.grid.Count() != 0 {
		t.Fatal("c should clear every cell")
	}
	if cmd == nil {
		t.Fatal("clear all should emit a status message")
	}
	if msg, ok := cmd().(statusMsg); !ok || msg.isError {
		t.Fatalf("unexpected status: %v", msg)
	}
	_ = g
}

func TestGraphRandomizeFillsEveryCell(t *testing.T) {
	st := newTestState()
	g := newGraphModel(st)

	g, _ = g.update(keyRune('r'))
	if st.grid.Count() != grid.Days*grid.Weeks {
		t.Fatalf("randomize left %d cells empty", grid.Days*grid.Weeks-st.grid.Count())
	}
	_ = g
}

func TestGraphEditingLockedWhileRunning(t *testing.T) {
	st := newTestState()
	g := newGraphModel(st)
	g.running = true

	g, _ = g.update(tea.KeyMsg{Type: tea.KeySpace})
	if st.grid.At(0, 0) != 0 {
		t.Fatal("paint should be ignored during a run")
	}

	g, _ = g.update(keyRune('r'))
	if st.grid.Count() != 0 {
		t.Fatal("randomize should be ignored during a run")
	}

	// Movement stays available
	g, _ = g.update(tea.KeyMsg{Type: tea.KeyDown})
	if g.day != 1 {
		t.Fatal("cursor movement should work during a run")
	}
}

func TestGraphViewRenders(t *testing.T) {
	g := newGraphModel(newTestState())
	g.setSize(140, 40)
	if g.view() == "" {
		t.Fatal("graph view rendered empty")
	}

	g.running = true
	g.setProgress(10, 100)
	if g.view() == "" {
		t.Fatal("running graph view rendered empty")
	}
}

// ============================================================
// Shared state
// ============================================================

func TestAppStateSnapshotRestore(t *testing.T) {
	st := newTestState()
	st.grid.Set(3, 20, 2)
	st.theme = store.ThemeLight

	snap := st.snapshot()
	if snap.Settings[3][20] != 2 || snap.Theme != store.ThemeLight {
		t.Fatalf("snapshot lost state: %+v", snap.Theme)
	}

	other := newTestState()
	before := other.grid
	if err := other.restore(snap); err != nil {
		t.Fatal(err)
	}
	if other.grid != before {
		t.Fatal("restore must keep the grid pointer stable")
	}
	if other.grid.At(3, 20) != 2 || other.theme != store.ThemeLight {
		t.Fatal("restore did not apply the snapshot")
	}
}

func TestAppStateRestoreRejectsBadGrid(t *testing.T) {
	st := newTestState()
	bad := store.State{Settings: [][]int{{1, 2}}, Theme: store.ThemeDark}
	if err := st.restore(bad); err == nil {
		t.Fatal("restore should reject a malformed grid")
	}
}

// ============================================================
// Saves model
// ============================================================

func TestSavesRefreshAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir)
	st := newTestState()

	if err := s.Save("alpha", st.snapshot(), ""); err != nil {
		t.Fatal(err)
	}

	m := newSavesModel(s, st)
	msg := m.refresh()()
	data, ok := msg.(savesDataMsg)
	if !ok || len(data.names) != 1 || data.names[0] != "alpha" {
		t.Fatalf("refresh returned %#v", msg)
	}

	m, _ = m.update(data)
	if len(m.names) != 1 {
		t.Fatal("saves model did not store names")
	}

	loaded := m.loadCmd("alpha")()
	if _, ok := loaded.(snapshotLoadedMsg); !ok {
		t.Fatalf("load returned %#v", loaded)
	}

	missing := m.loadCmd("nope")()
	if msg, ok := missing.(statusMsg); !ok || !msg.isError {
		t.Fatalf("missing snapshot should produce an error status, got %#v", missing)
	}
}

func TestSavesNewOpensForm(t *testing.T) {
	m := newSavesModel(store.New(t.TempDir()), newTestState())
	m, cmd := m.update(keyRune('n'))
	if !m.formActive || m.form == nil {
		t.Fatal("n should open the save form")
	}
	if cmd == nil {
		t.Fatal("form init cmd expected")
	}
}

func TestSavesCursorClampsAfterRefresh(t *testing.T) {
	m := newSavesModel(store.New(t.TempDir()), newTestState())
	m.cursor = 4
	m, _ = m.update(savesDataMsg{names: []string{"only"}})
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.cursor)
	}
}

// ============================================================
// Repository model
// ============================================================

func TestRepoRefreshWithoutRepository(t *testing.T) {
	m := newRepoModel(gitrepo.New(t.TempDir()))
	msg := m.refresh()()
	info, ok := msg.(repoInfoMsg)
	if !ok || info.exists {
		t.Fatalf("refresh returned %#v, want non-existent repo info", msg)
	}

	m, _ = m.update(info)
	m.setSize(100, 30)
	if m.view() == "" {
		t.Fatal("repo view rendered empty")
	}
}

func TestRepoActionCursor(t *testing.T) {
	m := newRepoModel(gitrepo.New(t.TempDir()))
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != len(repoActions)-1 {
		t.Fatalf("cursor = %d, want last action", m.cursor)
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != len(repoActions)-2 {
		t.Fatalf("cursor = %d after up", m.cursor)
	}
}

func TestRepoBranchActionsNeedRepository(t *testing.T) {
	m := newRepoModel(gitrepo.New(t.TempDir()))
	m.cursor = 2 // create branch

	m, cmd := m.startAction()
	if m.formActive {
		t.Fatal("create branch should not open a form without a repository")
	}
	if msg, ok := cmd().(statusMsg); !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestRepoRemoteFormOpens(t *testing.T) {
	m := newRepoModel(gitrepo.New(t.TempDir()))
	m.cursor = 0
	m, cmd := m.startAction()
	if !m.formActive || m.formType != "remote" {
		t.Fatal("remote action should open the remote form")
	}
	if cmd == nil {
		t.Fatal("form init cmd expected")
	}
}

// ============================================================
// History model
// ============================================================

func TestHistoryRefresh(t *testing.T) {
	h := newTestRunLog(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	h.AddRun(history.Run{StartedAt: base, FinishedAt: base.Add(time.Minute), Branch: "main", PlannedCommits: 48, CreatedCommits: 48, RebaseOK: true, Pushed: true})
	h.AddRun(history.Run{StartedAt: base.Add(time.Hour), FinishedAt: base.Add(61 * time.Minute), Branch: "main", PlannedCommits: 20, CreatedCommits: 5, Error: "push: boom"})

	m := newHistoryModel(h)
	m.setSize(120, 40)

	msg := m.refresh()()
	data, ok := msg.(historyDataMsg)
	if !ok {
		t.Fatalf("refresh returned %#v", msg)
	}
	if len(data.runs) != 2 || data.total != 53 {
		t.Fatalf("got %d runs, total %d", len(data.runs), data.total)
	}

	m, _ = m.update(data)
	if m.view() == "" {
		t.Fatal("history view rendered empty")
	}
}

func TestHistoryEmptyView(t *testing.T) {
	m := newHistoryModel(newTestRunLog(t))
	m.setSize(100, 30)
	out := m.view()
	if out == "" {
		t.Fatal("empty history view rendered empty")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app := newTestApp(t)

	if app.activeView != viewGraph {
		t.Fatal("default view should be the graph")
	}
	if app.running {
		t.Fatal("no run should be in progress initially")
	}
	if app.showHelp || app.exportPicking || app.promptingRemote {
		t.Fatal("overlays should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestNewAppRecoversFromBadState(t *testing.T) {
	dir := t.TempDir()
	bad := store.State{Settings: [][]int{{9}}, Theme: "sepia"}
	app := NewApp(store.New(dir), newTestRunLog(t), gitrepo.New(dir), bad)

	if app.state.grid.Count() != 0 {
		t.Fatal("bad state should fall back to an empty grid")
	}
	if app.state.theme != store.DefaultTheme {
		t.Fatal("bad state should fall back to the default theme")
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	if app.View() != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", app.View())
	}
}

func TestAppViewStates(t *testing.T) {
	app := sizedApp(t)

	views := []viewState{viewGraph, viewSaves, viewRepo, viewHistory}
	for _, v := range views {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := sizedApp(t)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !containsString(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppStatusInFooter(t *testing.T) {
	app := sizedApp(t)
	app.status = "test status"
	if !containsString(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppTabSwitching(t *testing.T) {
	app := sizedApp(t)

	model, _ := app.Update(keyRune('3'))
	app = model.(App)
	if app.activeView != viewRepo {
		t.Fatalf("view = %d after pressing 3, want repository", app.activeView)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(App)
	if app.activeView != viewHistory {
		t.Fatalf("view = %d after tab, want history", app.activeView)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(App)
	if app.activeView != viewGraph {
		t.Fatal("tab should wrap back to the graph")
	}
}

func TestAppThemeToggle(t *testing.T) {
	app := sizedApp(t)
	before := app.state.theme

	model, cmd := app.Update(keyRune('t'))
	app = model.(App)
	if app.state.theme == before {
		t.Fatal("t should toggle the theme")
	}
	if cmd == nil {
		t.Fatal("theme toggle should persist the state")
	}
	if msg, ok := cmd().(statusMsg); !ok || msg.isError {
		t.Fatalf("theme persist failed: %#v", msg)
	}
}

func TestAppGenerateWithoutRemotePrompts(t *testing.T) {
	app := sizedApp(t)

	// No repository in the temp dir, so the remote prompt is required.
	msg := app.checkRepoCmd()()
	if _, ok := msg.(remoteNeededMsg); !ok {
		t.Fatalf("expected remoteNeededMsg, got %#v", msg)
	}

	model, cmd := app.Update(msg)
	app = model.(App)
	if !app.promptingRemote || app.remoteForm == nil {
		t.Fatal("remote prompt should open")
	}
	if cmd == nil {
		t.Fatal("form init cmd expected")
	}

	// Esc cancels the whole flow.
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(App)
	if app.promptingRemote {
		t.Fatal("esc should dismiss the remote prompt")
	}
	if app.running {
		t.Fatal("no run should have started")
	}
}

func TestAppGenerateWhileBusy(t *testing.T) {
	app := sizedApp(t)
	app.running = true

	model, cmd := app.Update(keyRune('g'))
	app = model.(App)
	if cmd != nil {
		t.Fatal("generate should be refused while a run is in progress")
	}
	if !app.statusErr {
		t.Fatal("refusal should set an error status")
	}
}

func TestAppEscCancelsRun(t *testing.T) {
	app := sizedApp(t)
	app.running = true
	cancelled := false
	app.cancel = func() { cancelled = true }

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(App)
	if !cancelled {
		t.Fatal("esc should cancel the run context")
	}
	if !containsString(app.status, "Cancelling") {
		t.Fatalf("status = %q", app.status)
	}
}

func TestAppFinishRunRecordsHistory(t *testing.T) {
	app := sizedApp(t)
	started := time.Now().Add(-time.Minute)

	done := runDoneMsg{
		report: generate.Report{
			Total:          50,
			CommitsCreated: 50,
			Branch:         "main",
			Remote:         "https://example.com/r.git",
			Pushed:         true,
		},
		started:  started,
		finished: time.Now(),
	}

	model, cmd := app.finishRun(done)
	app = model.(App)
	if app.running {
		t.Fatal("finishRun should clear the running flag")
	}
	if app.statusErr {
		t.Fatalf("successful run should not set an error status: %q", app.status)
	}

	if msg, ok := cmd().(runRecordedMsg); !ok || msg.err != nil {
		t.Fatalf("record failed: %#v", msg)
	}

	runs, err := app.runLog.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].CreatedCommits != 50 || !runs[0].Pushed {
		t.Fatalf("recorded run: %+v", runs)
	}
}

func TestAppFinishRunFailure(t *testing.T) {
	app := sizedApp(t)

	done := runDoneMsg{
		report:   generate.Report{Total: 10, CommitsCreated: 3, Branch: "main"},
		err:      errFake,
		started:  time.Now().Add(-time.Second),
		finished: time.Now(),
	}

	model, cmd := app.finishRun(done)
	app = model.(App)
	if !app.statusErr {
		t.Fatal("failed run should set an error status")
	}

	cmd()
	runs, _ := app.runLog.ListRuns(0)
	if len(runs) != 1 || runs[0].Error == "" || runs[0].Pushed {
		t.Fatalf("recorded failed run: %+v", runs)
	}
}

func TestAppSnapshotLoaded(t *testing.T) {
	app := sizedApp(t)

	st := store.DefaultState()
	st.Settings[2][7] = 3
	st.Theme = store.ThemeLight

	model, _ := app.Update(snapshotLoadedMsg{name: "alpha", state: st})
	app = model.(App)
	if app.state.grid.At(2, 7) != 3 {
		t.Fatal("loaded snapshot should replace the grid")
	}
	if app.state.theme != store.ThemeLight {
		t.Fatal("loaded snapshot should replace the theme")
	}
	if !containsString(app.status, "alpha") {
		t.Fatalf("status = %q", app.status)
	}
}

func TestAppExportPicker(t *testing.T) {
	app := sizedApp(t)

	model, _ := app.Update(keyRune('e'))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = model.(App)
	if app.exportCursor != 1 {
		t.Fatal("down should move the export cursor")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(App)
	if app.exportPicking {
		t.Fatal("esc should close the export picker")
	}
}

// ============================================================
// View state and helpers
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	expected := []string{"Graph", "Saves", "Repository", "History"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewGraph != 0 || viewSaves != 1 || viewRepo != 2 || viewHistory != 3 {
		t.Fatal("view state constants out of order")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if min(3, 5) != 3 || min(5, 3) != 3 || min(3, 3) != 3 {
		t.Fatal("min misbehaves")
	}
	if max(3, 5) != 5 || max(5, 3) != 5 || max(3, 3) != 3 {
		t.Fatal("max misbehaves")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

func TestLevelColorsPerTheme(t *testing.T) {
	light := levelColors(store.ThemeLight)
	dark := levelColors(store.ThemeDark)
	if light == dark {
		t.Fatal("light and dark palettes should differ")
	}
	if light[0] != lightLevelColors[0] || dark[4] != darkLevelColors[4] {
		t.Fatal("palette lookup wired to the wrong theme")
	}
}

// containsString checks if s contains substr, ignoring ANSI escape codes.
func containsString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

var errFake = errFakeType{}

type errFakeType struct{}

func (errFakeType) Error() string { return "fake failure" }

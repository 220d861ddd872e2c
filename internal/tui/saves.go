package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gitgrid/internal/store"
)

type savesModel struct {
	store *store.Store
	state *appState

	width  int
	height int

	names   []string
	cursor  int
	current string

	formActive bool
	form       *huh.Form
	formType   string // "save", "replace"

	// Form field pointers (survive value copies)
	formName   *string
	formVictim *string

	// Name awaiting a replacement target once the quota is hit.
	pendingName string
}

func newSavesModel(s *store.Store, st *appState) savesModel {
	name, victim := "", ""
	return savesModel{
		store:      s,
		state:      st,
		formName:   &name,
		formVictim: &victim,
	}
}

func (s *savesModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s savesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		names, _ := s.store.List()
		return savesDataMsg{names: names}
	}
}

func (s savesModel) update(msg tea.Msg) (savesModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case savesDataMsg:
		s.names = msg.names
		if s.cursor >= len(s.names) {
			s.cursor = max(0, len(s.names)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.names)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(s.names) > 0 {
				return s, s.loadCmd(s.names[s.cursor])
			}
		case key.Matches(msg, keys.New):
			return s.showSaveForm()
		}
	}
	return s, nil
}

func (s savesModel) loadCmd(name string) tea.Cmd {
	return func() tea.Msg {
		st, err := s.store.Load(name)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
		}
		return snapshotLoadedMsg{name: name, state: st}
	}
}

func (s savesModel) showSaveForm() (savesModel, tea.Cmd) {
	*s.formName = ""
	s.formType = "save"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot Name").
				Validate(store.ValidateName).
				Value(s.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s savesModel) showReplaceForm(pending string) (savesModel, tea.Cmd) {
	*s.formVictim = s.names[0]
	s.formType = "replace"
	s.pendingName = pending

	options := make([]huh.Option[string], len(s.names))
	for i, n := range s.names {
		options[i] = huh.NewOption(n, n)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Snapshot limit of %d reached — replace which?", store.MaxSnapshots)).
				Options(options...).
				Value(s.formVictim),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s savesModel) updateForm(msg tea.Msg) (savesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		switch s.formType {
		case "save":
			name := *s.formName
			err := s.store.Save(name, s.state.snapshot(), "")
			if errors.Is(err, store.ErrQuotaExceeded) {
				return s.showReplaceForm(name)
			}
			if err == nil {
				s.current = name
			}
			return s, tea.Batch(saveStatus(name, err), s.refresh())
		case "replace":
			err := s.store.Save(s.pendingName, s.state.snapshot(), *s.formVictim)
			if err == nil {
				s.current = s.pendingName
			}
			return s, tea.Batch(saveStatus(s.pendingName, err), s.refresh())
		}
	}

	return s, cmd
}

func saveStatus(name string, err error) tea.Cmd {
	return func() tea.Msg {
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return statusMsg{text: fmt.Sprintf("Saved snapshot %q", name)}
	}
}

func (s savesModel) view() string {
	if s.formActive && s.form != nil {
		title := titleStyle.Render("Save Snapshot")
		if s.formType == "replace" {
			title = titleStyle.Render("Replace Snapshot")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View())
		return panelStyle.Width(s.width - 4).Render(content)
	}

	w := s.width - 4
	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Saved Snapshots"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d/%d", len(s.names), store.MaxSnapshots)),
	)

	if len(s.names) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No snapshots yet. Press n to save the current graph."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, name := range s.names {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := ""
		if name == s.current {
			marker = mutedStyle.Render("  (current)")
		}
		rows = append(rows, style.Render(cursor+name)+marker)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: load  n: save current"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

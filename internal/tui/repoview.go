package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gitgrid/internal/gitrepo"
)

var repoActions = []string{"Change remote URL", "Switch branch", "Create branch"}

type repoModel struct {
	repo *gitrepo.Repo

	width  int
	height int

	exists   bool
	branch   string
	remote   string
	branches []string

	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "remote", "switch", "create"

	// Form field pointers (survive value copies)
	formURL    *string
	formBranch *string
	formTarget *string
}

func newRepoModel(r *gitrepo.Repo) repoModel {
	url, branch, target := "", "", ""
	return repoModel{
		repo:       r,
		formURL:    &url,
		formBranch: &branch,
		formTarget: &target,
	}
}

func (r *repoModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type repoActionDoneMsg struct {
	text string
	err  error
}

func (r repoModel) refresh() tea.Cmd {
	return func() tea.Msg {
		if !r.repo.Exists() {
			return repoInfoMsg{}
		}

		ctx := context.Background()
		info := repoInfoMsg{exists: true}
		if branch, err := r.repo.CurrentBranch(ctx); err == nil {
			info.branch = branch
		}
		if url, err := r.repo.RemoteURL(ctx); err == nil {
			info.remote = url
		}
		info.branches, _ = r.repo.Branches(ctx)
		return info
	}
}

func (r repoModel) update(msg tea.Msg) (repoModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case repoInfoMsg:
		r.exists = msg.exists
		r.branch = msg.branch
		r.remote = msg.remote
		r.branches = msg.branches
		return r, nil

	case repoActionDoneMsg:
		if msg.err != nil {
			return r, tea.Batch(r.refresh(), func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Git error: %v", msg.err), isError: true}
			})
		}
		return r, tea.Batch(r.refresh(), func() tea.Msg {
			return statusMsg{text: msg.text}
		})

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(repoActions)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return r.startAction()
		}
	}
	return r, nil
}

func (r repoModel) startAction() (repoModel, tea.Cmd) {
	switch r.cursor {
	case 0:
		return r.showRemoteForm()
	case 1:
		if !r.exists {
			return r, noRepoStatus()
		}
		if len(r.branches) < 2 {
			return r, func() tea.Msg {
				return statusMsg{text: "No other branches to switch to"}
			}
		}
		return r.showSwitchForm()
	case 2:
		if !r.exists {
			return r, noRepoStatus()
		}
		return r.showCreateForm()
	}
	return r, nil
}

func noRepoStatus() tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: "No repository yet — generate first, or set a remote", isError: true}
	}
}

func (r repoModel) showRemoteForm() (repoModel, tea.Cmd) {
	*r.formURL = r.remote
	r.formType = "remote"

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Remote URL").
				Description("Leave empty to remove the remote").
				Value(r.formURL),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r repoModel) showSwitchForm() (repoModel, tea.Cmd) {
	var options []huh.Option[string]
	for _, b := range r.branches {
		if b == r.branch {
			continue
		}
		options = append(options, huh.NewOption(b, b))
	}
	*r.formTarget = options[0].Value
	r.formType = "switch"

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Switch Branch").
				Options(options...).
				Value(r.formTarget),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r repoModel) showCreateForm() (repoModel, tea.Cmd) {
	*r.formBranch = ""
	r.formType = "create"

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New Branch Name").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("branch name cannot be empty")
					}
					return nil
				}).
				Value(r.formBranch),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r repoModel) updateForm(msg tea.Msg) (repoModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		switch r.formType {
		case "remote":
			return r, r.setRemoteCmd(strings.TrimSpace(*r.formURL))
		case "switch":
			target := *r.formTarget
			return r, func() tea.Msg {
				if err := r.repo.Checkout(context.Background(), target); err != nil {
					return repoActionDoneMsg{err: err}
				}
				return repoActionDoneMsg{text: "Switched to branch " + target}
			}
		case "create":
			name := strings.TrimSpace(*r.formBranch)
			return r, func() tea.Msg {
				if err := r.repo.CheckoutNew(context.Background(), name); err != nil {
					return repoActionDoneMsg{err: err}
				}
				return repoActionDoneMsg{text: "Created and switched to branch " + name}
			}
		}
	}

	return r, cmd
}

func (r repoModel) setRemoteCmd(url string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if !r.repo.Exists() {
			if err := r.repo.Init(ctx); err != nil {
				return repoActionDoneMsg{err: err}
			}
		}
		if r.repo.HasRemote(ctx) {
			if err := r.repo.RemoveRemote(ctx); err != nil {
				return repoActionDoneMsg{err: err}
			}
		}
		if url == "" {
			return repoActionDoneMsg{text: "Remote removed"}
		}
		if err := r.repo.AddRemote(ctx, url); err != nil {
			return repoActionDoneMsg{err: err}
		}
		return repoActionDoneMsg{text: "Remote set to " + url}
	}
}

func (r repoModel) view() string {
	if r.formActive && r.form != nil {
		titles := map[string]string{
			"remote": "Change Remote",
			"switch": "Switch Branch",
			"create": "Create Branch",
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(titles[r.formType]), "", r.form.View())
		return panelStyle.Width(r.width - 4).Render(content)
	}

	w := r.width - 4

	var rows []string
	rows = append(rows, titleStyle.Render("Repository"))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  Path:   ")+normalItemStyle.Render(r.repo.Dir()))

	if !r.exists {
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  Not a git repository yet. The first generation run creates one."))
	} else {
		branch := r.branch
		if branch == "" {
			branch = "(no branch)"
		}
		remote := r.remote
		if remote == "" {
			remote = "(not set)"
		}
		rows = append(rows, mutedStyle.Render("  Branch: ")+highlightStyle.Render(branch))
		rows = append(rows, mutedStyle.Render("  Remote: ")+normalItemStyle.Render(remote))
		if len(r.branches) > 0 {
			rows = append(rows, mutedStyle.Render("  Branches: ")+normalItemStyle.Render(strings.Join(r.branches, ", ")))
		}
	}

	rows = append(rows, "")
	for i, action := range repoActions {
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+action))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

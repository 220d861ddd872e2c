// Package gitrepo wraps the git command line for the handful of
// operations the generator needs: repository and branch lifecycle,
// remote management, backdated commits, and the fetch/rebase/push
// publish steps.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBranch is the branch created when initializing a fresh
	// repository.
	DefaultBranch = "main"

	// OriginRemote is the only remote the generator manages.
	OriginRemote = "origin"

	// TrackedFile is the single file commits are appended to.
	TrackedFile = "commit.txt"

	ignoreFileName = ".gitignore"
)

var (
	// ErrNoBranch reports a repository without a usable current branch.
	ErrNoBranch = errors.New("no current branch")

	// ErrNoRemote reports a repository with no origin remote configured.
	ErrNoRemote = errors.New("no origin remote configured")
)

// ignoreContents excludes the application's own artifacts from version
// control. Written once at repository initialization.
const ignoreContents = "gitgrid\nsettings.json\nsaves/\n*.json\n"

// dateLayout is the RFC-2822-like format git accepts for --date.
const dateLayout = "Mon Jan 02 15:04:05 2006 -0700"

// Repo executes git operations against one working directory.
type Repo struct {
	dir      string
	executor CommandExecutor
}

// New returns a Repo for the given working directory using the real
// subprocess executor.
func New(dir string) *Repo {
	return NewWithExecutor(dir, ExecExecutor{})
}

// NewWithExecutor returns a Repo with a custom executor, used by tests.
func NewWithExecutor(dir string, executor CommandExecutor) *Repo {
	return &Repo{dir: dir, executor: executor}
}

// Dir returns the repository working directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Exists reports whether the working directory already holds a git
// repository.
func (r *Repo) Exists() bool {
	info, err := os.Stat(filepath.Join(r.dir, ".git"))
	return err == nil && info.IsDir()
}

// Init creates a repository, checks out the default branch, and writes
// the ignore policy.
func (r *Repo) Init(ctx context.Context) error {
	if err := r.run(ctx, "init"); err != nil {
		return err
	}
	if err := r.run(ctx, "checkout", "-b", DefaultBranch); err != nil {
		return err
	}
	return r.WriteIgnoreFile()
}

// WriteIgnoreFile writes the ignore policy covering the application's
// own files.
func (r *Repo) WriteIgnoreFile() error {
	path := filepath.Join(r.dir, ignoreFileName)
	if err := os.WriteFile(path, []byte(ignoreContents), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ignoreFileName, err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name, or ErrNoBranch if
// HEAD does not resolve to one.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBranch, err)
	}
	branch := strings.TrimSpace(out)
	if branch == "" || branch == "HEAD" {
		return "", ErrNoBranch
	}
	return branch, nil
}

// Branches lists local branch names, with the current branch's leading
// marker stripped.
func (r *Repo) Branches(ctx context.Context) ([]string, error) {
	out, err := r.output(ctx, "branch")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "* "))
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// Checkout switches to an existing branch.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	return r.run(ctx, "checkout", branch)
}

// CheckoutNew creates and switches to a new branch.
func (r *Repo) CheckoutNew(ctx context.Context, branch string) error {
	return r.run(ctx, "checkout", "-b", branch)
}

// HasRemote reports whether the origin remote is configured.
func (r *Repo) HasRemote(ctx context.Context) bool {
	out, err := r.output(ctx, "remote")
	if err != nil {
		return false
	}
	for _, name := range strings.Fields(out) {
		if name == OriginRemote {
			return true
		}
	}
	return false
}

// RemoteURL returns the origin remote URL, or ErrNoRemote.
func (r *Repo) RemoteURL(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "remote", "get-url", OriginRemote)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoRemote, err)
	}
	return strings.TrimSpace(out), nil
}

// AddRemote registers url as the origin remote.
func (r *Repo) AddRemote(ctx context.Context, url string) error {
	return r.run(ctx, "remote", "add", OriginRemote, url)
}

// RemoveRemote deletes the origin remote.
func (r *Repo) RemoveRemote(ctx context.Context) error {
	return r.run(ctx, "remote", "remove", OriginRemote)
}

// Fetch downloads refs from the origin remote.
func (r *Repo) Fetch(ctx context.Context) error {
	return r.run(ctx, "fetch")
}

// Rebase replays the local branch onto origin/<branch>.
func (r *Repo) Rebase(ctx context.Context, branch string) error {
	return r.run(ctx, "rebase", OriginRemote+"/"+branch)
}

// Push publishes the branch with upstream tracking set.
func (r *Repo) Push(ctx context.Context, branch string) error {
	return r.run(ctx, "push", "--set-upstream", OriginRemote, branch)
}

// AppendAndCommit appends the message line to the tracked file, stages
// it, and creates a commit whose author and committer timestamps are
// forced to ts.
func (r *Repo) AppendAndCommit(ctx context.Context, message string, ts time.Time) error {
	if err := r.appendTrackedLine(message); err != nil {
		return err
	}
	if err := r.run(ctx, "add", TrackedFile); err != nil {
		return err
	}

	dateStr := ts.Format(dateLayout)
	cmd := r.command(ctx, "commit", "-m", message, "--date", dateStr)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE="+dateStr,
		"GIT_COMMITTER_DATE="+dateStr,
	)
	return r.executor.Run(cmd)
}

func (r *Repo) appendTrackedLine(line string) error {
	path := filepath.Join(r.dir, TrackedFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", TrackedFile, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append to %s: %w", TrackedFile, err)
	}
	return nil
}

// Installed reports whether the git binary is on PATH.
func Installed() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func (r *Repo) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	return cmd
}

func (r *Repo) run(ctx context.Context, args ...string) error {
	return r.executor.Run(r.command(ctx, args...))
}

func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	return r.executor.Output(r.command(ctx, args...))
}

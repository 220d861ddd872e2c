// Package generate orchestrates one generation run: repository
// readiness, sequential backdated commit creation, and the
// fetch/rebase/push publish protocol.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sadopc/gitgrid/internal/gitrepo"
	"github.com/sadopc/gitgrid/internal/grid"
)

// ErrBusy reports that a generation run is already in progress. Runs
// never overlap: a run may issue thousands of sequential git
// invocations, and the repository working tree tolerates only one
// writer.
var ErrBusy = errors.New("a generation run is already in progress")

// Report summarizes one generation run. CommitsCreated counts commits
// actually made, whether or not the run finished. A rebase failure does
// not abort the run; it is surfaced here for the caller to inspect.
type Report struct {
	Total          int
	CommitsCreated int
	Branch         string
	Remote         string
	RebaseErr      error
	Pushed         bool
}

// Runner executes generation runs against one repository. A Runner is
// safe to share with the UI goroutine: Busy and Progress read atomics.
type Runner struct {
	repo *gitrepo.Repo

	busy  atomic.Bool
	done  atomic.Int64
	total atomic.Int64
}

// NewRunner returns a Runner for the given repository.
func NewRunner(repo *gitrepo.Repo) *Runner {
	return &Runner{repo: repo}
}

// Busy reports whether a run is in progress.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Progress returns the number of commits applied so far and the total
// planned for the current (or most recent) run.
func (r *Runner) Progress() (done, total int) {
	return int(r.done.Load()), int(r.total.Load())
}

// Run creates every commit described by specs, in order, then publishes
// the branch. The context is checked between commit applications; a
// canceled run leaves already-created commits in local history, as does
// any commit failure. The returned Report is meaningful even when err
// is non-nil.
func (r *Runner) Run(ctx context.Context, specs []grid.CommitSpec) (Report, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Report{}, ErrBusy
	}
	defer r.busy.Store(false)

	r.done.Store(0)
	r.total.Store(int64(len(specs)))

	report := Report{Total: len(specs)}

	branch, err := r.ensureReady(ctx)
	if err != nil {
		return report, err
	}
	report.Branch = branch
	if url, err := r.repo.RemoteURL(ctx); err == nil {
		report.Remote = url
	}

	// One unconditional fetch before any commits are created.
	if err := r.repo.Fetch(ctx); err != nil {
		return report, fmt.Errorf("fetch before commit run: %w", err)
	}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.repo.AppendAndCommit(ctx, spec.Message, spec.Time); err != nil {
			return report, fmt.Errorf("commit %d of %d: %w", report.CommitsCreated+1, len(specs), err)
		}
		report.CommitsCreated++
		r.done.Add(1)
	}

	if err := r.publish(ctx, branch, &report); err != nil {
		return report, err
	}
	return report, nil
}

// ensureReady drives the repository to a usable state: repository
// initialized and a named branch checked out. Remote configuration is
// the caller's responsibility; without one the fetch or push steps fail
// and surface the error.
func (r *Runner) ensureReady(ctx context.Context) (string, error) {
	if !r.repo.Exists() {
		if err := r.repo.Init(ctx); err != nil {
			return "", fmt.Errorf("initialize repository: %w", err)
		}
		return gitrepo.DefaultBranch, nil
	}

	branch, err := r.repo.CurrentBranch(ctx)
	if errors.Is(err, gitrepo.ErrNoBranch) {
		if err := r.repo.CheckoutNew(ctx, gitrepo.DefaultBranch); err != nil {
			return "", fmt.Errorf("create default branch: %w", err)
		}
		return gitrepo.DefaultBranch, nil
	}
	if err != nil {
		return "", err
	}
	return branch, nil
}

// publish runs fetch, rebase, push. The rebase exit status is recorded
// but deliberately does not abort the protocol; push runs regardless of
// the rebase outcome.
func (r *Runner) publish(ctx context.Context, branch string, report *Report) error {
	if err := r.repo.Fetch(ctx); err != nil {
		return fmt.Errorf("fetch before publish: %w", err)
	}

	report.RebaseErr = r.repo.Rebase(ctx, branch)

	if err := r.repo.Push(ctx, branch); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	report.Pushed = true
	return nil
}

package gitrepo

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// GitError reports a git subprocess that exited non-zero, carrying the
// subcommand, its arguments, and captured stderr.
type GitError struct {
	Operation string
	Args      []string
	Stderr    string
	Err       error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Operation)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// CommandExecutor runs a prepared command. Tests substitute a recording
// implementation.
type CommandExecutor interface {
	// Run executes the command and returns an error on non-zero exit.
	Run(cmd *exec.Cmd) error

	// Output executes the command and returns its stdout.
	Output(cmd *exec.Cmd) (string, error)
}

// ExecExecutor is the default CommandExecutor backed by os/exec.
type ExecExecutor struct{}

func (ExecExecutor) Run(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return newGitError(cmd, stderr.String(), err)
	}
	return nil
}

func (ExecExecutor) Output(cmd *exec.Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", newGitError(cmd, stderr.String(), err)
	}
	return stdout.String(), nil
}

func newGitError(cmd *exec.Cmd, stderr string, err error) *GitError {
	op := ""
	var args []string
	// cmd.Args is ["git", subcommand, ...].
	if len(cmd.Args) > 1 {
		op = cmd.Args[1]
	}
	if len(cmd.Args) > 2 {
		args = cmd.Args[2:]
	}
	return &GitError{Operation: op, Args: args, Stderr: strings.TrimSpace(stderr), Err: err}
}

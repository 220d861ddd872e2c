// Package lock provides the single-instance guard: an exclusive file
// lock acquired at startup and released on every exit path, so two
// instances never mutate the same repository or state files.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning reports that another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is an exclusive flock-backed instance lock.
type Lock struct {
	path string
	file *os.File
}

// New returns the process-wide instance lock. The lock file lives in
// the system temp directory; it is shared by all instances regardless
// of working directory, matching the one-instance-per-user policy.
func New() *Lock {
	return At(filepath.Join(os.TempDir(), "gitgrid.lock"))
}

// At returns a lock backed by the given file path.
func At(path string) *Lock {
	return &Lock{path: path}
}

// Acquire takes the lock, failing with ErrAlreadyRunning if another
// live process holds it. A lock file left behind by a dead process is
// harmless: flock is released by the kernel when the holder exits.
func (l *Lock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file %s: %w", l.path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := l.holderPID()
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			if holder > 0 {
				return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, holder)
			}
			return ErrAlreadyRunning
		}
		return fmt.Errorf("lock %s: %w", l.path, err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	l.file = f
	return nil
}

// Release unlocks and removes the lock file. Safe to call when the lock
// was never acquired.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	var err error
	if flockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); flockErr != nil {
		err = fmt.Errorf("unlock %s: %w", l.path, flockErr)
	}
	if closeErr := l.file.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close lock file: %w", closeErr)
	}
	l.file = nil

	if removeErr := os.Remove(l.path); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = fmt.Errorf("remove lock file: %w", removeErr)
	}
	return err
}

func (l *Lock) holderPID() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

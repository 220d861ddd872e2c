package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/gitgrid/internal/gitrepo"
	"github.com/sadopc/gitgrid/internal/history"
	"github.com/sadopc/gitgrid/internal/lock"
	"github.com/sadopc/gitgrid/internal/store"
	"github.com/sadopc/gitgrid/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	instance := lock.New()
	if err := instance.Acquire(); err != nil {
		if errors.Is(err, lock.ErrAlreadyRunning) {
			return err
		}
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	defer instance.Release()

	if !gitrepo.Installed() {
		return errors.New("git is not installed or not on PATH")
	}

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}

	s := store.New(dir)
	state, err := s.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v — starting with a fresh grid\n", err)
		state = store.DefaultState()
	}

	dbPath, err := history.DefaultDBPath()
	if err != nil {
		return err
	}
	runLog, err := history.New(dbPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer runLog.Close()

	repo := gitrepo.New(dir)

	app := tui.NewApp(s, runLog, repo, state)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

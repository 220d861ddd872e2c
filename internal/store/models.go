package store

import (
	"fmt"

	"github.com/sadopc/gitgrid/internal/grid"
)

// Theme selects the contribution-graph color palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme matches the original application default.
const DefaultTheme = ThemeDark

// State is the persisted record shape shared by the default state file
// and named snapshots: the row-major intensity matrix plus the theme.
type State struct {
	Settings [][]int `json:"settings"`
	Theme    Theme   `json:"theme"`
}

// DefaultState returns an all-zero grid with the default theme.
func DefaultState() State {
	return State{
		Settings: grid.New().Rows(),
		Theme:    DefaultTheme,
	}
}

// NewState captures a grid and theme into a persistable record.
func NewState(g *grid.Grid, theme Theme) State {
	return State{Settings: g.Rows(), Theme: theme}
}

// Grid reconstructs the activity grid, validating dimensions and levels.
func (s State) Grid() (*grid.Grid, error) {
	return grid.FromRows(s.Settings)
}

func (s State) validate() error {
	if _, err := s.Grid(); err != nil {
		return err
	}
	switch s.Theme {
	case ThemeLight, ThemeDark:
		return nil
	default:
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
}

// Toggle flips between the light and dark themes.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

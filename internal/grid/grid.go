// Package grid holds the activity grid model and the scheduling logic
// that turns painted intensity levels into concrete backdated commits.
package grid

import (
	"fmt"
	"math/rand"
)

const (
	// Days and Weeks are the fixed grid dimensions, matching the
	// contribution graph layout (Sunday-first rows, 52 columns).
	Days  = 7
	Weeks = 52

	// Levels is the number of intensity levels, 0 through 4.
	Levels = 5
)

// ErrIntensityRange reports an intensity value outside [0, Levels).
var ErrIntensityRange = fmt.Errorf("intensity out of range [0, %d)", Levels)

// Level is a single cell's activity intensity.
type Level int

// Valid reports whether the level is within [0, Levels).
func (l Level) Valid() bool {
	return l >= 0 && l < Levels
}

// Grid is a fixed Days×Weeks matrix of intensity levels. The zero value
// is an all-zero grid, ready to use. Dimensions never change.
type Grid struct {
	cells [Days][Weeks]Level
}

// New returns an empty grid.
func New() *Grid {
	return &Grid{}
}

// At returns the level at (day, week). Panics on out-of-bounds
// coordinates, which only a programming error can produce.
func (g *Grid) At(day, week int) Level {
	return g.cells[day][week]
}

// Set stores a level at (day, week), rejecting out-of-range values.
func (g *Grid) Set(day, week int, l Level) error {
	if !l.Valid() {
		return fmt.Errorf("set (%d,%d): %w", day, week, ErrIntensityRange)
	}
	g.cells[day][week] = l
	return nil
}

// Cycle advances the cell at (day, week) to the next intensity level,
// wrapping back to 0 after the highest level.
func (g *Grid) Cycle(day, week int) Level {
	next := (g.cells[day][week] + 1) % Levels
	g.cells[day][week] = next
	return next
}

// Clear resets the cell at (day, week) to intensity 0.
func (g *Grid) Clear(day, week int) {
	g.cells[day][week] = 0
}

// ClearAll resets every cell to intensity 0.
func (g *Grid) ClearAll() {
	g.cells = [Days][Weeks]Level{}
}

// randomizeBounds are the cumulative boundaries of the categorical
// distribution used by Randomize: weights {.50, .30, .15, .05} over
// levels 1-4. Intensity 0 is never drawn.
var randomizeBounds = []struct {
	level Level
	below float64
}{
	{1, 0.50},
	{2, 0.80},
	{3, 0.95},
	{4, 1.00},
}

// Randomize fills every cell with a level drawn independently from a
// fixed distribution over {1,2,3,4}.
func (g *Grid) Randomize(rng *rand.Rand) {
	for day := 0; day < Days; day++ {
		for week := 0; week < Weeks; week++ {
			g.cells[day][week] = drawLevel(rng.Float64())
		}
	}
}

func drawLevel(f float64) Level {
	for _, b := range randomizeBounds {
		if f < b.below {
			return b.level
		}
	}
	return randomizeBounds[len(randomizeBounds)-1].level
}

// Rows returns the grid as a Days×Weeks row-major slice, the shape used
// by the persisted state record.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, Days)
	for day := 0; day < Days; day++ {
		rows[day] = make([]int, Weeks)
		for week := 0; week < Weeks; week++ {
			rows[day][week] = int(g.cells[day][week])
		}
	}
	return rows
}

// FromRows builds a grid from a persisted row-major matrix, validating
// dimensions and level ranges.
func FromRows(rows [][]int) (*Grid, error) {
	if len(rows) != Days {
		return nil, fmt.Errorf("grid has %d rows, want %d", len(rows), Days)
	}
	g := New()
	for day, row := range rows {
		if len(row) != Weeks {
			return nil, fmt.Errorf("grid row %d has %d columns, want %d", day, len(row), Weeks)
		}
		for week, v := range row {
			l := Level(v)
			if !l.Valid() {
				return nil, fmt.Errorf("cell (%d,%d) = %d: %w", day, week, v, ErrIntensityRange)
			}
			g.cells[day][week] = l
		}
	}
	return g, nil
}

// Count returns the number of cells with intensity above zero.
func (g *Grid) Count() int {
	n := 0
	for day := 0; day < Days; day++ {
		for week := 0; week < Weeks; week++ {
			if g.cells[day][week] > 0 {
				n++
			}
		}
	}
	return n
}

package grid

import (
	"fmt"
	"time"
)

// DateLayout is the RFC-2822-like timestamp format passed to git and
// embedded in commit messages.
const DateLayout = "Mon Jan 02 15:04:05 2006 -0700"

// commitCounts maps an intensity level to the number of commits created
// for that day.
var commitCounts = [Levels]int{0, 2, 6, 15, 25}

// workdayStart and workdayWindow bound the window commits are spread
// across within a single day.
const (
	workdayStartHour = 9
	workdayWindow    = 8 * time.Hour
)

// CommitSpec describes one backdated commit to create: its forced
// timestamp, its 1-based sequence number within its calendar date, and
// the commit message.
type CommitSpec struct {
	Time    time.Time
	Seq     int
	Message string
}

// Anchor returns the calendar date assigned to grid cell (day=0, week=0):
// the most recent Sunday at local noon, minus Weeks-1 weeks. Noon keeps
// week arithmetic stable across daylight-saving transitions.
func Anchor(now time.Time) time.Time {
	weekday := int(now.Weekday()) // Sunday == 0
	lastSunday := now.AddDate(0, 0, -weekday)
	lastSunday = time.Date(lastSunday.Year(), lastSunday.Month(), lastSunday.Day(),
		12, 0, 0, 0, now.Location())
	return lastSunday.AddDate(0, 0, -7*(Weeks-1))
}

// CellDate maps a (week, day) coordinate to its calendar date relative
// to the anchor.
func CellDate(anchor time.Time, week, day int) time.Time {
	return anchor.AddDate(0, 0, 7*week+day)
}

// CommitCount returns the number of commits for an intensity level.
func CommitCount(l Level) (int, error) {
	if !l.Valid() {
		return 0, fmt.Errorf("commit count for %d: %w", l, ErrIntensityRange)
	}
	return commitCounts[l], nil
}

// Times spreads count timestamps evenly across an 8-hour window starting
// at 09:00 local time on the given date. An empty slice is returned for
// count == 0.
func Times(date time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	start := time.Date(date.Year(), date.Month(), date.Day(),
		workdayStartHour, 0, 0, 0, date.Location())
	step := workdayWindow / time.Duration(count)
	times := make([]time.Time, count)
	for i := 0; i < count; i++ {
		times[i] = start.Add(time.Duration(i) * step)
	}
	return times
}

// Synthesize expands a grid into the ordered commit specs for one
// generation run. Traversal is week-major, day-minor; that order fixes
// the order commits are later created in. Sequence numbers are 1-based
// and reset per date.
func Synthesize(g *Grid, anchor time.Time) ([]CommitSpec, error) {
	var specs []CommitSpec
	for week := 0; week < Weeks; week++ {
		for day := 0; day < Days; day++ {
			level := g.At(day, week)
			count, err := CommitCount(level)
			if err != nil {
				return nil, err
			}
			if count == 0 {
				continue
			}
			date := CellDate(anchor, week, day)
			for i, ts := range Times(date, count) {
				specs = append(specs, CommitSpec{
					Time:    ts,
					Seq:     i + 1,
					Message: CommitMessage(i+1, ts),
				})
			}
		}
	}
	return specs, nil
}

// CommitMessage formats the message (and tracked-file line) for one
// generated commit.
func CommitMessage(seq int, ts time.Time) string {
	return fmt.Sprintf("Commit #%d on %s", seq, ts.Format(DateLayout))
}

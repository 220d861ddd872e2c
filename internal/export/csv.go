package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/gitgrid/internal/history"
)

func ToCSV(runs []history.Run, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Started", "Finished", "Branch", "Remote", "Planned", "Created", "Rebase OK", "Pushed", "Error"}); err != nil {
		return err
	}

	for _, r := range runs {
		row := []string{
			fmt.Sprintf("%d", r.ID),
			r.StartedAt.Local().Format(time.RFC3339),
			r.FinishedAt.Local().Format(time.RFC3339),
			r.Branch,
			r.Remote,
			fmt.Sprintf("%d", r.PlannedCommits),
			fmt.Sprintf("%d", r.CreatedCommits),
			fmt.Sprintf("%t", r.RebaseOK),
			fmt.Sprintf("%t", r.Pushed),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/gitgrid/internal/history"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Runs       []jsonRun `json:"runs"`
}

type jsonRun struct {
	ID             int64  `json:"id"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at"`
	Branch         string `json:"branch"`
	Remote         string `json:"remote,omitempty"`
	PlannedCommits int    `json:"planned_commits"`
	CreatedCommits int    `json:"created_commits"`
	RebaseOK       bool   `json:"rebase_ok"`
	Pushed         bool   `json:"pushed"`
	Error          string `json:"error,omitempty"`
}

func ToJSON(runs []history.Run, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(runs),
	}

	for _, r := range runs {
		export.Runs = append(export.Runs, jsonRun{
			ID:             r.ID,
			StartedAt:      r.StartedAt.Local().Format(time.RFC3339),
			FinishedAt:     r.FinishedAt.Local().Format(time.RFC3339),
			Branch:         r.Branch,
			Remote:         r.Remote,
			PlannedCommits: r.PlannedCommits,
			CreatedCommits: r.CreatedCommits,
			RebaseOK:       r.RebaseOK,
			Pushed:         r.Pushed,
			Error:          r.Error,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

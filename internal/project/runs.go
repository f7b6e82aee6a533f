package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/model"
)

// RunVersion is the record format written by SaveRun.
const RunVersion = "1.0.0"

// Run is a persisted record of one optimization run.
type Run struct {
	Version   string         `json:"version"`
	CreatedAt string         `json:"created_at"`
	Spec      model.Spec     `json:"spec"`
	Settings  model.Settings `json:"settings"`
	Result    model.Result   `json:"result"`
	Report    check.Report   `json:"report"`
}

// NewRun stamps a record for the given run.
func NewRun(spec model.Spec, settings model.Settings, res model.Result, report check.Report) Run {
	return Run{
		Version:   RunVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:      spec,
		Settings:  settings,
		Result:    res,
		Report:    report,
	}
}

// SaveRun writes run to path as indented JSON, creating parent directories.
func SaveRun(path string, run Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	return nil
}

// LoadRun reads a record written by SaveRun.
func LoadRun(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read run file: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("failed to parse run file: %w", err)
	}
	if run.Version == "" {
		return Run{}, fmt.Errorf("invalid run file: missing version field")
	}
	return run, nil
}

// DefaultRunPath returns where a run is recorded when no path is given.
func DefaultRunPath(runID string) string {
	return filepath.Join(DefaultConfigDir(), "runs", runID+".json")
}

package client

import (
	"fmt"
	"os"
	"path/filepath"
)

// Report is a rendered PDF held in memory.
type Report struct {
	IncidentID  string
	ContentType string
	Filename    string
	Data        []byte
}

// Save writes the report into dir under its filename. The bytes go to a temp
// file first and are renamed into place, so a failed write leaves nothing behind.
func (r *Report) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".hsg245-report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(r.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	dest := filepath.Join(dir, filepath.Base(r.Filename))
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return dest, nil
}

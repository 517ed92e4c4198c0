package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/annuityworks/kestrel/internal/domain"
)

// FileSink writes the batch output as indented JSON. Output is byte-stable:
// two runs over the same snapshot and configuration produce identical files.
type FileSink struct {
	path string
}

// NewFileSink builds a file sink writing to path.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = "./alerts.json"
	}
	return &FileSink{path: path}
}

// Write marshals the output and replaces the target file atomically via a
// same-directory rename.
func (s *FileSink) Write(_ context.Context, out *domain.BatchOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding batch output: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".alerts-*.json")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Close is a no-op for the file sink.
func (s *FileSink) Close() error {
	return nil
}

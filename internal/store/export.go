package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/goclass/internal/output"
)

// ExportData is the self-contained json form of a stored run.
type ExportData struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Dt      float64            `json:"dt"`
	Runtime float64            `json:"runtime"`
	Samples int                `json:"samples"`
	Metrics map[string]float64 `json:"metrics"`
	Error   string             `json:"error,omitempty"`
	Output  *output.Output     `json:"output"`
}

func (s *Store) exportData(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	out, err := s.LoadOutput(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{
		ID:      meta.ID,
		Name:    meta.Name,
		Dt:      meta.Dt,
		Runtime: meta.Runtime,
		Samples: out.Len(),
		Metrics: meta.Metrics,
		Error:   meta.Error,
		Output:  out,
	}, nil
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.ExportJSONTo(file, runID); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (s *Store) ExportJSONTo(w io.Writer, runID string) error {
	data, err := s.exportData(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Store) ExportCSV(path, runID string) error {
	out, err := s.LoadOutput(runID)
	if err != nil {
		return err
	}
	return writeFile(path, func(f io.Writer) error { return out.WriteCSV(f) })
}

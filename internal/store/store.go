package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/goclass/internal/confdiff"
	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/output"
)

var ErrRunNotFound = errors.New("store: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Run is one finished model run.
type Run struct {
	ID         string
	Experiment string
	Config     *config.Config
	Integrator string
	Output     *output.Output
	Metrics    map[string]float64
	Err        error
}

// RunMetadata is stored next to the series of a run. The config is kept as
// its difference from the default config.
type RunMetadata struct {
	ID         string             `json:"id"`
	Experiment string             `json:"experiment,omitempty"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Runtime    float64            `json:"runtime"`
	Samples    int                `json:"samples"`
	Integrator string             `json:"integrator"`
	Config     confdiff.Tree      `json:"config"`
	Metrics    map[string]float64 `json:"metrics"`
	Error      string             `json:"error,omitempty"`
}

func (s *Store) runDir(id string) string { return filepath.Join(s.baseDir, id) }

func (s *Store) Save(run Run) (string, error) {
	if run.ID == "" {
		return "", errors.New("store: run has no id")
	}
	runDir := s.runDir(run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	pruned, err := config.Prune(run.Config, config.DefaultConfig(), nil)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         run.ID,
		Experiment: run.Experiment,
		Name:       run.Config.Name,
		Timestamp:  time.Now(),
		Dt:         run.Config.TimeControl.Dt,
		Runtime:    run.Config.TimeControl.Runtime,
		Integrator: run.Integrator,
		Config:     pruned,
		Metrics:    make(map[string]float64, len(run.Metrics)),
	}
	// NaN has no json encoding; a metric without samples is left out
	for k, v := range run.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}
	if run.Err != nil {
		meta.Error = run.Err.Error()
	}
	if run.Output != nil {
		meta.Samples = run.Output.Len()
	}

	if err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if run.Output == nil {
		return run.ID, nil
	}
	if err := writeFile(filepath.Join(runDir, "series.csv"), run.Output.WriteCSV); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, "output.msgpack.zst"), run.Output.EncodeMsgpack); err != nil {
		return "", err
	}
	return run.ID, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig rebuilds the full configuration of a run.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	return config.Merge(config.DefaultConfig(), meta.Config)
}

func (s *Store) LoadOutput(runID string) (*output.Output, error) {
	f, err := os.Open(filepath.Join(s.runDir(runID), "output.msgpack.zst"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has no output", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return output.DecodeMsgpack(f)
}

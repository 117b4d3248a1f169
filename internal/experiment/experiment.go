package experiment

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/san-kum/goclass/internal/confdiff"
	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/sweep"
)

// IDGenerator hands out identifiers for experiments and permutations.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator returns time-ordered UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns Prefix followed by 1, 2, 3, ...
type SequenceGenerator struct {
	Prefix string
	n      atomic.Int64
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s%d", g.Prefix, g.n.Add(1))
}

type Permutation struct {
	ID string
	sweep.Permutation
}

// Experiment is a reference configuration and a set of variations on it.
type Experiment struct {
	ID           string
	Reference    *config.Config
	Permutations []Permutation
}

func New(ids IDGenerator, reference *config.Config) *Experiment {
	return &Experiment{ID: ids.NewID(), Reference: reference}
}

// AddPermutation records partial as a variation of the reference.
func (e *Experiment) AddPermutation(ids IDGenerator, name string, partial confdiff.Tree) {
	e.Permutations = append(e.Permutations, Permutation{
		ID:          ids.NewID(),
		Permutation: sweep.Permutation{Name: name, Config: partial},
	})
}

// AddSweeps adds one permutation per combination of the swept values.
func (e *Experiment) AddSweeps(ids IDGenerator, sweeps []sweep.Sweep) {
	for _, p := range sweep.Perform(sweeps) {
		e.AddPermutation(ids, p.Name, p.Config)
	}
}

// Configs returns the reference followed by every permutation merged onto
// it.
func (e *Experiment) Configs() ([]*config.Config, error) {
	perms := make([]sweep.Permutation, len(e.Permutations))
	for i, p := range e.Permutations {
		perms[i] = p.Permutation
	}
	configs, err := sweep.Apply(e.Reference, perms)
	if err != nil {
		return nil, err
	}
	return append([]*config.Config{e.Reference}, configs...), nil
}

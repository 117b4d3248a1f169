package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/san-kum/goclass/internal/confdiff"
)

var requiredSections = []string{"initialState", "timeControl", "mixedLayer", "atmosphere"}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ToTree converts cfg to its partial-config form with every field set.
func ToTree(cfg *Config) (confdiff.Tree, error) {
	m, err := toMap(cfg)
	if err != nil {
		return nil, err
	}
	return confdiff.Tree(m), nil
}

// FromTree converts a complete tree back to a Config. Unknown keys are
// rejected.
func FromTree(tree confdiff.Tree) (*Config, error) {
	for _, s := range requiredSections {
		if _, ok := tree[s]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSection, s)
		}
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("config: encoding tree: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// optionalSections are switched on by their presence. When a partial config
// mentions one the base lacks, the section starts from its defaults.
var optionalSections = map[string]func() any{
	"radiation": func() any { return DefaultRadiation() },
	"wind":      func() any { return DefaultWind() },
	"fire":      func() any { return DefaultFire() },
}

// Merge overlays partial onto base and returns the resulting config.
func Merge(base *Config, partial confdiff.Tree) (*Config, error) {
	baseTree, err := ToTree(base)
	if err != nil {
		return nil, err
	}

	for section, def := range optionalSections {
		if _, ok := partial[section]; !ok {
			continue
		}
		if _, ok := baseTree[section]; ok {
			continue
		}
		m, err := toMap(def())
		if err != nil {
			return nil, err
		}
		baseTree[section] = m
	}

	return FromTree(confdiff.Merge(baseTree, partial))
}

// Prune reduces candidate to the values that differ from reference and, when
// given, from preset.
func Prune(candidate, reference, preset *Config) (confdiff.Tree, error) {
	c, err := ToTree(candidate)
	if err != nil {
		return nil, err
	}
	r, err := ToTree(reference)
	if err != nil {
		return nil, err
	}
	var pruned confdiff.Tree
	if preset == nil {
		pruned = confdiff.Prune(c, r)
	} else {
		p, err := ToTree(preset)
		if err != nil {
			return nil, err
		}
		pruned = confdiff.Prune(c, r, p)
	}

	// A switched off section is recorded as null so that merging the
	// result onto reference switches it off again.
	for section := range optionalSections {
		if _, ok := c[section]; ok {
			continue
		}
		if _, ok := r[section]; ok {
			pruned[section] = nil
		}
	}
	return pruned, nil
}

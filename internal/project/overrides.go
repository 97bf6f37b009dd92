package project

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/model"
)

// overridesFile is the layout of overrides.yaml:
//
//	walls:
//	  P01_E01_PE001: {u_value: 0.35}
//	windows:
//	  P01_E01_PE001_V: {u_value: 2.1, fshobst: 0.8}
//	spaces:
//	  P01_E01: {exposed_perimeter: 12}
type overridesFile struct {
	Walls   map[string]map[bdl.OverrideKind]float64 `yaml:"walls"`
	Windows map[string]map[bdl.OverrideKind]float64 `yaml:"windows"`
	Spaces  map[string]map[bdl.OverrideKind]float64 `yaml:"spaces"`
}

// ReadOverrides parses an overrides.yaml file into override targets,
// ordered by kind and then by name so they apply deterministically.
// Whether an override kind fits its record is checked when the targets
// are applied.
func ReadOverrides(r io.Reader) ([]model.Target, error) {
	var f overridesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}

	var ts []model.Target
	add := func(kind bdl.Kind, m map[string]map[bdl.OverrideKind]float64) {
		for _, name := range sortedKeys(m) {
			for _, ok := range sortedKeys(m[name]) {
				ts = append(ts, model.Target{Kind: kind, Name: name,
					Override: bdl.Override{Kind: ok, Value: m[name][ok]}})
			}
		}
	}
	add(bdl.KindWall, f.Walls)
	add(bdl.KindWindow, f.Windows)
	add(bdl.KindSpace, f.Spaces)
	return ts, nil
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package preset

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds presets by name.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// NewRegistry returns a registry seeded with the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]*Preset)}
	for _, p := range Builtin() {
		r.presets[p.Name] = p
	}
	return r
}

// Register adds or replaces a preset.
func (r *Registry) Register(p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[p.Name] = p
	return nil
}

// Get returns a copy of the named preset.
func (r *Registry) Get(name string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	cp := *p
	return &cp, nil
}

// List returns all presets sorted by name.
func (r *Registry) List() []*Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// File is the on-disk preset format.
type File struct {
	Presets []*Preset `yaml:"presets"`
}

// LoadFile registers every preset in a YAML file and returns how many were
// loaded. Presets with a built-in name replace the built-in.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read presets: %w", err)
	}
	return r.LoadYAML(data)
}

// LoadYAML is LoadFile for in-memory content.
func (r *Registry) LoadYAML(data []byte) (int, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to parse presets: %w", err)
	}
	for _, p := range f.Presets {
		if err := r.Register(p); err != nil {
			return 0, err
		}
	}
	return len(f.Presets), nil
}

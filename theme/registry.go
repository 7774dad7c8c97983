// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: theme/registry.go
// Summary: Named theme registry with built-in palettes.

package theme

import (
	"errors"
	"sort"
	"sync"
)

var ErrThemeNotFound = errors.New("theme: not found")

// Registry holds named themes. It is safe for concurrent use so a renderer
// can list themes while the engine resolves one.
type Registry struct {
	mu     sync.RWMutex
	themes map[string]*Theme
}

// NewRegistry returns a registry pre-populated with the built-in themes.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]*Theme)}
	for _, t := range builtins() {
		r.themes[t.Name] = t
	}
	return r
}

// Register adds or replaces a theme after validating its colors.
func (r *Registry) Register(t *Theme) error {
	if err := t.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[t.Name] = t
	return nil
}

// Get returns the named theme.
func (r *Registry) Get(name string) (*Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.themes[name]
	if !ok {
		return nil, ErrThemeNotFound
	}
	return t, nil
}

// Names returns the registered theme names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultName is the theme used when no configuration selects one.
const DefaultName = "blockterm-dark"

func builtins() []*Theme {
	return []*Theme{
		{
			Name: DefaultName,
			ANSI: [16]string{
				"#1c1f26", "#e06c75", "#98c379", "#e5c07b",
				"#61afef", "#c678dd", "#56b6c2", "#abb2bf",
				"#5c6370", "#ef7782", "#a9d48a", "#eccb8b",
				"#74bafc", "#d18ce8", "#67c5d1", "#ffffff",
			},
			Foreground: "#abb2bf",
			Background: "#14161b",
			Cursor:     "#61afef",
			Selection:  "#2c313c",
			Font:       Font{Family: "monospace", Size: 13, LineHeight: 1.3},
			Block:      BlockChrome{Padding: 1, CollapsedRows: 1, InputRows: 1},
		},
		{
			Name: "blockterm-light",
			ANSI: [16]string{
				"#383a42", "#ca1243", "#50a14f", "#c18401",
				"#0184bc", "#a626a4", "#0997b3", "#fafafa",
				"#65686f", "#e45649", "#62b563", "#d49c10",
				"#2aa1e0", "#c04fbe", "#17b1cc", "#ffffff",
			},
			Foreground: "#383a42",
			Background: "#fafafa",
			Cursor:     "#0184bc",
			Selection:  "#e5e5e6",
			Font:       Font{Family: "monospace", Size: 13, LineHeight: 1.3},
			Block:      BlockChrome{Padding: 1, CollapsedRows: 1, InputRows: 1},
		},
	}
}

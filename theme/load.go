// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: theme/load.go
// Summary: Loads user themes from TOML files into a registry.

package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile parses a single TOML theme file and registers it.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("theme: read %s: %w", path, err)
	}
	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("theme: parse %s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = strippedName(path)
	}
	return r.Register(&t)
}

// LoadDir registers every *.toml file in dir. A missing directory is not an
// error; individual file failures abort the load.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("theme: read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func strippedName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

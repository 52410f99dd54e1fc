// Package templates loads interview question banks from YAML files. Banks
// are read once at startup; interviews copy their questions at creation so
// editing a bank never changes an existing interview.
package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is one question bank.
type Template struct {
	Name      string   `yaml:"name" json:"name"`
	Role      string   `yaml:"role" json:"role"`
	Level     string   `yaml:"level" json:"level"`
	Type      string   `yaml:"type" json:"type"`
	TechStack []string `yaml:"tech_stack" json:"tech_stack,omitempty"`
	Questions []string `yaml:"questions" json:"questions"`
}

// Store holds the loaded banks, keyed by name.
type Store struct {
	templates map[string]Template
}

// Load reads every .yaml/.yml file under dir. A bank without a name or
// questions is a configuration error, not something to skip silently. A
// missing directory is not: interviews can be created with explicit
// questions, so the server runs with an empty store.
func Load(dir string) (*Store, error) {
	s := &Store{templates: make(map[string]Template)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		var t Template
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("template %s: missing name", entry.Name())
		}
		if len(t.Questions) == 0 {
			return nil, fmt.Errorf("template %s: no questions", entry.Name())
		}
		if _, dup := s.templates[t.Name]; dup {
			return nil, fmt.Errorf("template %s: duplicate name %q", entry.Name(), t.Name)
		}
		s.templates[t.Name] = t
	}
	return s, nil
}

// Get returns the named bank.
func (s *Store) Get(name string) (Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// List returns all banks sorted by name.
func (s *Store) List() []Template {
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of loaded banks.
func (s *Store) Len() int {
	return len(s.templates)
}

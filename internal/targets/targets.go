// Package targets reads runtime override files. A targets file is YAML:
//
//	targets:
//	  - path: /backend/store
//	    priority: debug
//	    configuration:
//	      pool: 32
package targets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vk/composegrid/internal/profile"
	"gopkg.in/yaml.v3"
)

// ErrEmptyPath is returned for a target without a path.
var ErrEmptyPath = errors.New("target path is empty")

type file struct {
	Targets []entry `yaml:"targets"`
}

type entry struct {
	Path          string         `yaml:"path"`
	Priority      string         `yaml:"priority"`
	Configuration map[string]any `yaml:"configuration"`
}

// Load reads the targets file at path.
func Load(path string) ([]profile.TargetDirective, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes targets in file order. Unknown fields are rejected.
func Parse(data []byte) ([]profile.TargetDirective, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode targets: %w", err)
	}

	out := make([]profile.TargetDirective, 0, len(f.Targets))
	for i, e := range f.Targets {
		path := strings.TrimSpace(e.Path)
		if path == "" {
			return nil, fmt.Errorf("target %d: %w", i, ErrEmptyPath)
		}
		t := profile.TargetDirective{Path: path, Configuration: e.Configuration}
		if e.Priority != "" {
			t.Categories = &profile.CategoriesDirective{Priority: e.Priority}
		}
		out = append(out, t)
	}
	return out, nil
}

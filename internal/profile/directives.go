package profile

import (
	"maps"

	"github.com/vk/composegrid/internal/meta"
)

// Criteria is the comparison a selection filter applies to a service attribute.
type Criteria string

const (
	CriteriaEquals   Criteria = "equals"
	CriteriaExists   Criteria = "exists"
	CriteriaIncludes Criteria = "includes"
)

// SelectionDirective is a filter on a candidate provider's service attributes.
// Only required selections gate acceptance.
type SelectionDirective struct {
	Feature  string
	Value    string
	Criteria Criteria
	Required bool
}

// DependencyDirective refines a type's dependency for one component.
type DependencyDirective struct {
	Key string
	// Source is an explicit provider path, relative to the declaring partition.
	Source     string
	Selections []SelectionDirective
}

// StageDirective refines a type's stage for one component.
type StageDirective struct {
	Key    string
	Source string
}

// EntryDirective is a recipe for building one context entry. Type is a key in
// the entry factory registry.
type EntryDirective struct {
	Key    string
	Type   string
	Value  any
	Params map[string]any
}

// ContextDirective overrides the context strategy and supplies entry recipes.
type ContextDirective struct {
	Strategy string
	Entries  []EntryDirective
}

// Entry returns the recipe for key.
func (c *ContextDirective) Entry(key string) (EntryDirective, bool) {
	if c == nil {
		return EntryDirective{}, false
	}
	for _, e := range c.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return EntryDirective{}, false
}

// CategoriesDirective sets the logging priority of a model's channel.
type CategoriesDirective struct {
	Priority string
}

// TargetDirective is a runtime override addressed by model path.
type TargetDirective struct {
	Path          string
	Configuration map[string]any
	Categories    *CategoriesDirective
}

// ServiceDirective exports a service from a container, provided by the model
// at Source inside it.
type ServiceDirective struct {
	Reference meta.ReferenceDescriptor
	Source    string
}

// MergeConfiguration overlays each layer onto the previous one, key by key.
// Later layers win.
func MergeConfiguration(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

package kernel

import (
	"github.com/vk/composegrid/internal/model"
)

// ModelView is the JSON description of a deployment model.
type ModelView struct {
	Name          string         `json:"name"`
	Path          string         `json:"path"`
	Kind          string         `json:"kind"`
	Mode          string         `json:"mode"`
	Assembled     bool           `json:"assembled"`
	Commissioned  bool           `json:"commissioned"`
	Type          string         `json:"type,omitempty"`
	Activation    string         `json:"activation,omitempty"`
	Collection    string         `json:"collection,omitempty"`
	Services      []string       `json:"services,omitempty"`
	Providers     []string       `json:"providers,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Children      []*ModelView   `json:"children,omitempty"`
}

// newModelView describes m. Containers list their children only when deep is set.
func newModelView(m model.DeploymentModel, deep bool) *ModelView {
	v := &ModelView{
		Name:         m.Name(),
		Path:         m.Path(),
		Mode:         m.Mode().String(),
		Assembled:    m.IsAssembled(),
		Commissioned: m.IsCommissioned(),
	}
	for _, s := range m.Services() {
		v.Services = append(v.Services, s.Reference.String())
	}
	if providers, err := m.Providers(); err == nil {
		for _, p := range providers {
			v.Providers = append(v.Providers, p.Path())
		}
	}

	switch t := m.(type) {
	case *model.ComponentModel:
		v.Kind = "component"
		v.Type = t.Type().Name()
		v.Activation = t.ActivationPolicy().String()
		v.Collection = t.CollectionPolicy().String()
		v.Configuration = t.Configuration()
	case *model.ContainmentModel:
		v.Kind = "containment"
		if deep {
			for _, child := range t.Models() {
				v.Children = append(v.Children, newModelView(child, true))
			}
		}
	}
	return v
}

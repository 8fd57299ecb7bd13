package profile

import "github.com/vk/composegrid/internal/meta"

// Kind identifies a profile variant.
type Kind int

const (
	KindComponent Kind = iota
	KindContainment
	KindNamedComponent
	KindBlockInclude
	KindBlockComposition
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindContainment:
		return "containment"
	case KindNamedComponent:
		return "named-component"
	case KindBlockInclude:
		return "block-include"
	case KindBlockComposition:
		return "block-composition"
	default:
		return "unknown"
	}
}

// Profile is implemented by every profile variant.
type Profile interface {
	Name() string
	Mode() Mode
	Kind() Kind
}

// ComponentProfile describes one component instance of a type.
type ComponentProfile struct {
	ProfileName   string
	TypeName      string
	ProfileMode   Mode
	Activation    ActivationPolicy
	Collection    meta.CollectionPolicy
	Categories    *CategoriesDirective
	Configuration map[string]any
	Context       *ContextDirective
	Dependencies  []DependencyDirective
	Stages        []StageDirective
}

func (p *ComponentProfile) Name() string { return p.ProfileName }
func (p *ComponentProfile) Mode() Mode   { return p.ProfileMode }
func (p *ComponentProfile) Kind() Kind   { return KindComponent }

// Dependency returns the directive for key, if any.
func (p *ComponentProfile) Dependency(key string) *DependencyDirective {
	for i := range p.Dependencies {
		if p.Dependencies[i].Key == key {
			return &p.Dependencies[i]
		}
	}
	return nil
}

// Stage returns the directive for key, if any.
func (p *ComponentProfile) Stage(key string) *StageDirective {
	for i := range p.Stages {
		if p.Stages[i].Key == key {
			return &p.Stages[i]
		}
	}
	return nil
}

// Rename returns a copy of p under a new name and mode.
func (p *ComponentProfile) Rename(name string, mode Mode) *ComponentProfile {
	cp := *p
	cp.ProfileName = name
	cp.ProfileMode = mode
	return &cp
}

// ContainmentProfile describes a container and its children in declaration order.
type ContainmentProfile struct {
	ProfileName string
	ProfileMode Mode
	Categories  *CategoriesDirective
	Profiles    []Profile
	Exports     []ServiceDirective
	// Source is where the block was loaded from, used to resolve includes.
	Source string
}

func (p *ContainmentProfile) Name() string { return p.ProfileName }
func (p *ContainmentProfile) Mode() Mode   { return p.ProfileMode }
func (p *ContainmentProfile) Kind() Kind   { return KindContainment }

// NamedComponentProfile materializes a type's packaged profile under a new name.
type NamedComponentProfile struct {
	ProfileName string
	TypeName    string
	Key         string
}

func (p *NamedComponentProfile) Name() string { return p.ProfileName }
func (p *NamedComponentProfile) Mode() Mode   { return Explicit }
func (p *NamedComponentProfile) Kind() Kind   { return KindNamedComponent }

// BlockIncludeDirective includes another block file as a nested container.
type BlockIncludeDirective struct {
	ProfileName string
	Path        string
	// Base is the location the path is relative to.
	Base string
}

func (p *BlockIncludeDirective) Name() string { return p.ProfileName }
func (p *BlockIncludeDirective) Mode() Mode   { return Explicit }
func (p *BlockIncludeDirective) Kind() Kind   { return KindBlockInclude }

// BlockCompositionDirective includes a block resource and applies targets to it.
type BlockCompositionDirective struct {
	ProfileName string
	Resource    string
	Base        string
	Targets     []TargetDirective
}

func (p *BlockCompositionDirective) Name() string { return p.ProfileName }
func (p *BlockCompositionDirective) Mode() Mode   { return Explicit }
func (p *BlockCompositionDirective) Kind() Kind   { return KindBlockComposition }

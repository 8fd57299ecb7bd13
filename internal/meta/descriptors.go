package meta

import (
	"fmt"
	"strings"
	"time"
)

// Attributes are free-form key/value pairs attached to descriptors. Selection
// filters are evaluated against service attributes.
type Attributes map[string]string

// Get returns the attribute value and whether it is declared at all.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// ServiceDescriptor declares a service offered by a type.
type ServiceDescriptor struct {
	Reference  ReferenceDescriptor
	Attributes Attributes
}

// DependencyDescriptor declares a service a type consumes under Key.
type DependencyDescriptor struct {
	Key        string
	Reference  ReferenceDescriptor
	Optional   bool
	Attributes Attributes
}

// StageDescriptor declares a lifecycle stage a type requires, handled by a
// provider that implements the named extension.
type StageDescriptor struct {
	Key       string
	Extension string
}

// ExtensionDescriptor declares a stage handler a type implements for others.
type ExtensionDescriptor struct {
	Stage string
}

// DefaultContextStrategy is the built-in context strategy that needs no
// provider.
const DefaultContextStrategy = "default"

// ContextDescriptor declares the context a type expects at activation.
type ContextDescriptor struct {
	// Strategy names the extension that contextualizes instances. Empty means
	// DefaultContextStrategy.
	Strategy string
	Entries  []EntryDescriptor
}

// EffectiveStrategy returns the strategy, substituting the default.
func (c *ContextDescriptor) EffectiveStrategy() string {
	if c == nil || c.Strategy == "" {
		return DefaultContextStrategy
	}
	return c.Strategy
}

// EntryDescriptor declares one context entry.
type EntryDescriptor struct {
	Key      string
	Type     string
	Optional bool
}

// CollectionPolicy describes how aggressively an idle instance may be released.
type CollectionPolicy int

const (
	CollectionUndefined CollectionPolicy = iota - 1
	CollectionWeak
	CollectionConservative
	CollectionHard
)

var collectionNames = map[CollectionPolicy]string{
	CollectionUndefined:    "undefined",
	CollectionWeak:         "weak",
	CollectionConservative: "conservative",
	CollectionHard:         "hard",
}

func (p CollectionPolicy) String() string {
	if s, ok := collectionNames[p]; ok {
		return s
	}
	return fmt.Sprintf("CollectionPolicy(%d)", int(p))
}

// ParseCollectionPolicy converts a policy name. The empty string is undefined.
func ParseCollectionPolicy(s string) (CollectionPolicy, error) {
	if s == "" {
		return CollectionUndefined, nil
	}
	for p, name := range collectionNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return CollectionUndefined, fmt.Errorf("unknown collection policy %q", s)
}

// InfoDescriptor carries a type's identity and defaults.
type InfoDescriptor struct {
	Name       string
	Version    string
	Collection CollectionPolicy
}

// Type is the complete metadata for a component type.
type Type struct {
	Info          InfoDescriptor
	Services      []ServiceDescriptor
	Dependencies  []DependencyDescriptor
	Stages        []StageDescriptor
	Extensions    []ExtensionDescriptor
	Context       *ContextDescriptor
	Configuration map[string]any
	// DeploymentTimeout bounds commissioning of instances of this type.
	// Zero defers to the runtime default.
	DeploymentTimeout time.Duration
}

// Name returns the type's name.
func (t *Type) Name() string {
	return t.Info.Name
}

// Service returns the first offered service satisfying ref.
func (t *Type) Service(ref ReferenceDescriptor) (ServiceDescriptor, bool) {
	for _, s := range t.Services {
		if s.Reference.Matches(ref) {
			return s, true
		}
	}
	return ServiceDescriptor{}, false
}

// Extension returns the extension handling stage.
func (t *Type) Extension(stage string) (ExtensionDescriptor, bool) {
	for _, e := range t.Extensions {
		if e.Stage == stage {
			return e, true
		}
	}
	return ExtensionDescriptor{}, false
}

// Dependency returns the dependency declared under key.
func (t *Type) Dependency(key string) (DependencyDescriptor, bool) {
	for _, d := range t.Dependencies {
		if d.Key == key {
			return d, true
		}
	}
	return DependencyDescriptor{}, false
}

// Stage returns the stage declared under key.
func (t *Type) Stage(key string) (StageDescriptor, bool) {
	for _, s := range t.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return StageDescriptor{}, false
}

// Package catalog is the in-memory metadata layer: a repository of component
// types and the profiles packaged with them.
//
// A catalog may have a parent; lookups fall through to it, and local types
// shadow inherited ones of the same name. Iteration follows registration
// order so that profile selection is deterministic.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

var (
	// ErrTypeUnknown is returned when a type name is not registered.
	ErrTypeUnknown = errors.New("type unknown")
	// ErrProfileUnknown is returned when a type has no profile under a key.
	ErrProfileUnknown = errors.New("profile unknown")
	// ErrTypeExists is returned when a type name is registered twice.
	ErrTypeExists = errors.New("type already registered")
)

type entry struct {
	typ      *meta.Type
	profiles []*profile.ComponentProfile
}

// Catalog stores types and their packaged profiles.
type Catalog struct {
	mu      sync.RWMutex
	parent  *Catalog
	order   []string
	entries map[string]*entry
}

// New creates an empty catalog chained to parent, which may be nil.
func New(parent *Catalog) *Catalog {
	return &Catalog{
		parent:  parent,
		entries: make(map[string]*entry),
	}
}

// Register adds a type with its packaged profiles. Packaged profiles are
// forced to Packaged mode and bound to the type. A type registered without
// packaged profiles receives a single Implicit profile named after the type.
func (c *Catalog) Register(t *meta.Type, packaged ...*profile.ComponentProfile) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("cannot register a type without a name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, t.Name())
	}

	e := &entry{typ: t}
	for _, p := range packaged {
		cp := *p
		cp.TypeName = t.Name()
		cp.ProfileMode = profile.Packaged
		e.profiles = append(e.profiles, &cp)
	}
	if len(e.profiles) == 0 {
		e.profiles = []*profile.ComponentProfile{{
			ProfileName: implicitName(t),
			TypeName:    t.Name(),
			ProfileMode: profile.Implicit,
			Collection:  meta.CollectionUndefined,
		}}
	}

	c.entries[t.Name()] = e
	c.order = append(c.order, t.Name())
	slog.Debug("Registered component type.", "type", t.Name(), "profiles", len(e.profiles))
	return nil
}

// implicitName derives a model name from the last dotted part of the type name.
func implicitName(t *meta.Type) string {
	name := t.Name()
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

func (c *Catalog) lookup(name string) *entry {
	for cat := c; cat != nil; cat = cat.parent {
		cat.mu.RLock()
		e, ok := cat.entries[name]
		cat.mu.RUnlock()
		if ok {
			return e
		}
	}
	return nil
}

// Type returns the named type.
func (c *Catalog) Type(name string) (*meta.Type, error) {
	if e := c.lookup(name); e != nil {
		return e.typ, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTypeUnknown, name)
}

// Types returns every visible type, local first, in registration order.
func (c *Catalog) Types() []*meta.Type {
	var out []*meta.Type
	seen := make(map[string]bool)
	for cat := c; cat != nil; cat = cat.parent {
		cat.mu.RLock()
		for _, name := range cat.order {
			if !seen[name] {
				seen[name] = true
				out = append(out, cat.entries[name].typ)
			}
		}
		cat.mu.RUnlock()
	}
	return out
}

// TypesForDependency returns the types offering a service that satisfies dep.
func (c *Catalog) TypesForDependency(dep meta.DependencyDescriptor) []*meta.Type {
	var out []*meta.Type
	for _, t := range c.Types() {
		if _, ok := t.Service(dep.Reference); ok {
			out = append(out, t)
		}
	}
	return out
}

// TypesForStage returns the types implementing the extension stage requires.
func (c *Catalog) TypesForStage(stage meta.StageDescriptor) []*meta.Type {
	var out []*meta.Type
	for _, t := range c.Types() {
		if _, ok := t.Extension(stage.Extension); ok {
			out = append(out, t)
		}
	}
	return out
}

// Profiles returns the profiles packaged with t (or its implicit profile).
func (c *Catalog) Profiles(t *meta.Type) []*profile.ComponentProfile {
	e := c.lookup(t.Name())
	if e == nil {
		return nil
	}
	out := make([]*profile.ComponentProfile, len(e.profiles))
	copy(out, e.profiles)
	return out
}

// Profile returns the profile of t registered under key.
func (c *Catalog) Profile(t *meta.Type, key string) (*profile.ComponentProfile, error) {
	for _, p := range c.Profiles(t) {
		if p.Name() == key {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in type %s", ErrProfileUnknown, key, t.Name())
}

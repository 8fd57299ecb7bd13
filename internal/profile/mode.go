package profile

import (
	"fmt"
	"strings"
)

// Mode records how a profile was established. It is also the selection
// priority: Explicit beats Packaged beats Implicit.
type Mode int

const (
	// Implicit profiles are synthesized defaults for types without packaged profiles.
	Implicit Mode = iota
	// Packaged profiles ship with a type.
	Packaged
	// Explicit profiles are declared in a block.
	Explicit
)

func (m Mode) String() string {
	switch m {
	case Implicit:
		return "implicit"
	case Packaged:
		return "packaged"
	case Explicit:
		return "explicit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ActivationPolicy controls when a component is instantiated.
type ActivationPolicy int

const (
	// ActivationDefault resolves to Startup for Explicit profiles, Lazy otherwise.
	ActivationDefault ActivationPolicy = iota
	// ActivationStartup instantiates during commissioning.
	ActivationStartup
	// ActivationLazy instantiates on first resolution.
	ActivationLazy
)

func (a ActivationPolicy) String() string {
	switch a {
	case ActivationStartup:
		return "startup"
	case ActivationLazy:
		return "lazy"
	default:
		return "default"
	}
}

// ParseActivationPolicy converts "startup", "lazy" or "" (default).
func ParseActivationPolicy(s string) (ActivationPolicy, error) {
	switch strings.ToLower(s) {
	case "":
		return ActivationDefault, nil
	case "startup":
		return ActivationStartup, nil
	case "lazy":
		return ActivationLazy, nil
	default:
		return ActivationDefault, fmt.Errorf("unknown activation policy %q", s)
	}
}

// Resolve returns the effective policy for a profile established in mode.
func (a ActivationPolicy) Resolve(mode Mode) ActivationPolicy {
	if a != ActivationDefault {
		return a
	}
	if mode == Explicit {
		return ActivationStartup
	}
	return ActivationLazy
}

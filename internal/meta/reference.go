package meta

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultVersion is assumed when a reference carries no version.
const DefaultVersion = "1.0.0"

// ReferenceDescriptor identifies a service interface and its version.
type ReferenceDescriptor struct {
	Type    string
	Version string
}

// canonical returns v in the "vMAJOR.MINOR.PATCH" form semver expects.
func canonical(v string) string {
	if v == "" {
		v = DefaultVersion
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// Matches reports whether r, as offered by a provider, satisfies required.
// The types must be equal; an empty required version accepts any version,
// otherwise the major versions must agree and r must not be older.
func (r ReferenceDescriptor) Matches(required ReferenceDescriptor) bool {
	if r.Type != required.Type {
		return false
	}
	if required.Version == "" {
		return true
	}
	have, want := canonical(r.Version), canonical(required.Version)
	if have == "" || want == "" {
		return r.Version == required.Version
	}
	return semver.Major(have) == semver.Major(want) && semver.Compare(have, want) >= 0
}

func (r ReferenceDescriptor) String() string {
	if r.Version == "" {
		return r.Type
	}
	return fmt.Sprintf("%s:%s", r.Type, r.Version)
}

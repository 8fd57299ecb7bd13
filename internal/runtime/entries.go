package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"

	"github.com/vk/composegrid/internal/profile"
)

// ErrEntryTypeUnknown is returned for an entry whose type has no builder.
var ErrEntryTypeUnknown = errors.New("unknown entry type")

// EntryFunc builds a context entry value from its recipe.
type EntryFunc func(ctx context.Context, entry profile.EntryDirective) (any, error)

// BuildEntry implements model.EntryFactory. An entry without a type yields
// its literal value.
func (r *Registry) BuildEntry(ctx context.Context, entry profile.EntryDirective) (any, error) {
	if entry.Type == "" {
		return entry.Value, nil
	}
	fn, ok := r.entry(entry.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryTypeUnknown, entry.Type)
	}
	return fn(ctx, entry)
}

func (r *Registry) entry(key string) (EntryFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.entries[key]
	return fn, ok
}

func registerBuiltinEntries(r *Registry) {
	r.entries["string"] = func(_ context.Context, e profile.EntryDirective) (any, error) {
		return cast.ToStringE(e.Value)
	}
	r.entries["int"] = func(_ context.Context, e profile.EntryDirective) (any, error) {
		return cast.ToIntE(e.Value)
	}
	r.entries["bool"] = func(_ context.Context, e profile.EntryDirective) (any, error) {
		return cast.ToBoolE(e.Value)
	}
	r.entries["duration"] = func(_ context.Context, e profile.EntryDirective) (any, error) {
		return cast.ToDurationE(e.Value)
	}
	r.entries["path"] = buildPath
	r.entries["env"] = buildEnv
}

// buildPath expands environment references and, when the recipe carries a
// "base" parameter, resolves relative paths against it.
func buildPath(_ context.Context, e profile.EntryDirective) (any, error) {
	s, err := cast.ToStringE(e.Value)
	if err != nil {
		return nil, err
	}
	s = os.ExpandEnv(s)
	if base := cast.ToString(e.Params["base"]); base != "" && !filepath.IsAbs(s) {
		s = filepath.Join(base, s)
	}
	return filepath.Clean(s), nil
}

// buildEnv reads the environment variable named by the value, falling back
// to the "default" parameter.
func buildEnv(_ context.Context, e profile.EntryDirective) (any, error) {
	name, err := cast.ToStringE(e.Value)
	if err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if def, ok := e.Params["default"]; ok {
		return cast.ToStringE(def)
	}
	return nil, fmt.Errorf("environment variable %q is not set", name)
}

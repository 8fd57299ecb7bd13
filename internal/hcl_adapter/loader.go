package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/composegrid/internal/ctxlog"
	"github.com/vk/composegrid/internal/fsutil"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/model"
	"github.com/vk/composegrid/internal/profile"
)

// DefaultRootName names the root container when no file sets one.
const DefaultRootName = "root"

// TypeDefinition is a component type declared in a block file together with
// its packaged profiles.
type TypeDefinition struct {
	Type     *meta.Type
	Packaged []*profile.ComponentProfile
}

// Block is the result of loading one or more block files.
type Block struct {
	Root    *profile.ContainmentProfile
	Types   []TypeDefinition
	Targets []profile.TargetDirective
	Files   []string
}

// Loader parses block files. It is safe for concurrent use.
type Loader struct {
	mu      sync.Mutex
	parser  *hclparse.Parser
	evalCtx *hcl.EvalContext

	// OnType receives the types declared by blocks loaded through
	// ResolveBlock. Without it such types are ignored with a warning.
	OnType func(TypeDefinition) error
}

// NewLoader creates a new HCL block loader.
func NewLoader() *Loader {
	return &Loader{
		parser:  hclparse.NewParser(),
		evalCtx: newEvalContext(),
	}
}

// Load parses every .hcl file under paths into a single root container.
// Files contribute their children in lexical file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Block, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl block files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	source := files[0]
	if len(paths) == 1 {
		source = paths[0]
	}
	block := &Block{
		Root:  &profile.ContainmentProfile{ProfileName: DefaultRootName, ProfileMode: profile.Explicit, Source: source},
		Files: files,
	}

	for _, file := range files {
		body, err := l.parseFile(file)
		if err != nil {
			return nil, err
		}
		if err := l.translateContainer(ctx, file, body, block.Root, block); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.",
		"children", len(block.Root.Profiles), "types", len(block.Types), "targets", len(block.Targets))
	return block, nil
}

// ResolveBlock implements model.BlockResolver. path is relative to base,
// which is the file (or directory) declaring the include.
func (l *Loader) ResolveBlock(ctx context.Context, base, path string) (*profile.ContainmentProfile, error) {
	resolved := resolveRelative(base, path)
	ctxlog.FromContext(ctx).Debug("Resolving block.", "base", base, "path", path, "resolved", resolved)

	block, err := l.Load(ctx, resolved)
	if err != nil {
		return nil, err
	}
	block.Root.ProfileName = blockName(resolved, block.Root.ProfileName)

	for _, td := range block.Types {
		if l.OnType == nil {
			ctxlog.FromContext(ctx).Warn("Ignoring type declared in an included block.", "type", td.Type.Name(), "block", resolved)
			continue
		}
		if err := l.OnType(td); err != nil {
			return nil, fmt.Errorf("registering type from %s: %w", resolved, err)
		}
	}
	if len(block.Targets) > 0 {
		ctxlog.FromContext(ctx).Warn("Ignoring targets declared in an included block.", "block", resolved, "count", len(block.Targets))
	}
	return block.Root, nil
}

// resolveRelative joins a relative path onto the directory of base.
func resolveRelative(base, path string) string {
	if filepath.IsAbs(path) || base == "" {
		return filepath.Clean(path)
	}
	dir := base
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		dir = filepath.Dir(base)
	}
	return filepath.Join(dir, path)
}

// blockName keeps an explicit name and otherwise derives one from the file name.
func blockName(path, name string) string {
	if name != DefaultRootName {
		return name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (l *Loader) parseFile(file string) (*hclsyntax.Body, error) {
	l.mu.Lock()
	hclFile, diags := l.parser.ParseHCLFile(file)
	l.mu.Unlock()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}
	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse HCL file %s: not native HCL syntax", file)
	}
	return body, nil
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of the .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}

var _ model.BlockResolver = (*Loader)(nil)

package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// writeFiles creates files under a temporary directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestLoader_Load_ContainerTree(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := writeFiles(t, map[string]string{
		"main.hcl": `
			name     = "app"
			priority = "debug"

			export "svc.Store" {
				source = "backend/store"
			}

			component "printer" {
				type       = "composegrid.Printer"
				activation = "lazy"
				collection = "hard"
				configuration = {
					prefix = ">>"
					width  = 8
				}
				dependency "out" {
					source = "../sink"
					select "region" {
						value = "eu"
					}
					select "tier" {
						criteria = "exists"
						optional = true
					}
				}
				stage "init" {
					source = "starter"
				}
				context {
					entry "home" {
						type   = "path"
						value  = "/srv"
						params = { base = "/" }
					}
				}
			}

			container "backend" {
				named "store" {
					type    = "app.Store"
					profile = "pooled"
				}
				include "db" {
					path = "blocks/db.hcl"
				}
				compose "cache" {
					resource = "blocks/cache.hcl"
					target "engine" {
						priority      = "warn"
						configuration = { size = 64 }
					}
				}
			}
		`,
	})
	main := filepath.Join(dir, "main.hcl")

	// --- Act ---
	block, err := NewLoader().Load(context.Background(), main)

	// --- Assert ---
	require.NoError(t, err)
	root := block.Root
	assert.Equal(t, "app", root.ProfileName)
	assert.Equal(t, profile.Explicit, root.ProfileMode)
	assert.Equal(t, main, root.Source)
	assert.Equal(t, &profile.CategoriesDirective{Priority: "debug"}, root.Categories)
	assert.Equal(t, []profile.ServiceDirective{{
		Reference: meta.ReferenceDescriptor{Type: "svc.Store"},
		Source:    "backend/store",
	}}, root.Exports)
	require.Len(t, root.Profiles, 2)

	printer, ok := root.Profiles[0].(*profile.ComponentProfile)
	require.True(t, ok, "expected a component profile, got %T", root.Profiles[0])
	want := &profile.ComponentProfile{
		ProfileName:   "printer",
		TypeName:      "composegrid.Printer",
		ProfileMode:   profile.Explicit,
		Activation:    profile.ActivationLazy,
		Collection:    meta.CollectionHard,
		Configuration: map[string]any{"prefix": ">>", "width": 8},
		Dependencies: []profile.DependencyDirective{{
			Key:    "out",
			Source: "../sink",
			Selections: []profile.SelectionDirective{
				{Feature: "region", Value: "eu", Criteria: profile.CriteriaEquals, Required: true},
				{Feature: "tier", Criteria: profile.CriteriaExists},
			},
		}},
		Stages: []profile.StageDirective{{Key: "init", Source: "starter"}},
		Context: &profile.ContextDirective{Entries: []profile.EntryDirective{{
			Key: "home", Type: "path", Value: "/srv", Params: map[string]any{"base": "/"},
		}}},
	}
	if diff := cmp.Diff(want, printer); diff != "" {
		t.Errorf("component profile mismatch (-want +got):\n%s", diff)
	}

	backend, ok := root.Profiles[1].(*profile.ContainmentProfile)
	require.True(t, ok, "expected a containment profile, got %T", root.Profiles[1])
	assert.Equal(t, "backend", backend.ProfileName)
	assert.Equal(t, main, backend.Source)
	require.Len(t, backend.Profiles, 3)
	assert.Equal(t, &profile.NamedComponentProfile{ProfileName: "store", TypeName: "app.Store", Key: "pooled"}, backend.Profiles[0])
	assert.Equal(t, &profile.BlockIncludeDirective{ProfileName: "db", Path: "blocks/db.hcl", Base: main}, backend.Profiles[1])
	assert.Equal(t, &profile.BlockCompositionDirective{
		ProfileName: "cache",
		Resource:    "blocks/cache.hcl",
		Base:        main,
		Targets: []profile.TargetDirective{{
			Path:          "engine",
			Configuration: map[string]any{"size": 64},
			Categories:    &profile.CategoriesDirective{Priority: "warn"},
		}},
	}, backend.Profiles[2])
}

func TestLoader_Load_TypesAndTargets(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := writeFiles(t, map[string]string{
		"types.hcl": `
			type "app.Store" {
				version = "1.2"
				timeout = "3s"
				configuration = { pool = 4 }

				service "svc.Store" {
					version    = "1"
					attributes = { region = "eu" }
				}
				dependency "log" {
					service  = "svc.Log"
					optional = true
				}
				stage "init" {
					extension = "app.Init"
				}
				extension "app.Warm" {}
				context {
					strategy = "custom"
					entry "home" {
						type = "path"
					}
				}

				profile "pooled" {
					configuration = { pool = 16 }
				}
			}
		`,
		"targets.hcl": `
			target "/store" {
				configuration = { pool = 32 }
			}
		`,
	})

	// --- Act ---
	block, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, DefaultRootName, block.Root.ProfileName)
	assert.Equal(t, dir, block.Root.Source)
	assert.Len(t, block.Files, 2)
	assert.Empty(t, block.Root.Profiles)

	require.Len(t, block.Types, 1)
	td := block.Types[0]
	wantType := &meta.Type{
		Info:              meta.InfoDescriptor{Name: "app.Store", Version: "1.2", Collection: meta.CollectionWeak},
		Configuration:     map[string]any{"pool": 4},
		DeploymentTimeout: 3 * time.Second,
		Services: []meta.ServiceDescriptor{{
			Reference:  meta.ReferenceDescriptor{Type: "svc.Store", Version: "1"},
			Attributes: meta.Attributes{"region": "eu"},
		}},
		Dependencies: []meta.DependencyDescriptor{{
			Key: "log", Reference: meta.ReferenceDescriptor{Type: "svc.Log"}, Optional: true,
		}},
		Stages:     []meta.StageDescriptor{{Key: "init", Extension: "app.Init"}},
		Extensions: []meta.ExtensionDescriptor{{Stage: "app.Warm"}},
		Context: &meta.ContextDescriptor{
			Strategy: "custom",
			Entries:  []meta.EntryDescriptor{{Key: "home", Type: "path"}},
		},
	}
	if diff := cmp.Diff(wantType, td.Type); diff != "" {
		t.Errorf("type mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, td.Packaged, 1)
	assert.Equal(t, "pooled", td.Packaged[0].ProfileName)
	assert.Equal(t, "app.Store", td.Packaged[0].TypeName)
	assert.Equal(t, profile.Packaged, td.Packaged[0].ProfileMode)
	assert.Equal(t, map[string]any{"pool": 16}, td.Packaged[0].Configuration)

	assert.Equal(t, []profile.TargetDirective{{Path: "/store", Configuration: map[string]any{"pool": 32}}}, block.Targets)
}

func TestLoader_Load_EnvironmentVariables(t *testing.T) {
	t.Setenv("COMPOSEGRID_TEST_GREETING", "hello")
	dir := writeFiles(t, map[string]string{
		"main.hcl": `
			component "p" {
				type          = "composegrid.Printer"
				configuration = { message = env.COMPOSEGRID_TEST_GREETING }
			}
		`,
	})

	block, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.hcl"))

	require.NoError(t, err)
	p := block.Root.Profiles[0].(*profile.ComponentProfile)
	assert.Equal(t, "hello", p.Configuration["message"])
}

func TestLoader_Load_Errors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: `component "a" {`,
			wantErr: "failed to parse",
		},
		{
			name:    "unknown block",
			content: `widget "a" {}`,
			wantErr: `unsupported block type "widget"`,
		},
		{
			name:    "missing label",
			content: `component {}`,
			wantErr: "requires exactly one label",
		},
		{
			name:    "component without type",
			content: `component "a" {}`,
			wantErr: "requires a 'type' attribute",
		},
		{
			name:    "nested type",
			content: "container \"c\" {\n  type \"x\" {}\n}",
			wantErr: "only allowed at the top level",
		},
		{
			name:    "nested name",
			content: `container "c" { name = "x" }`,
			wantErr: "only allowed at the top level",
		},
		{
			name:    "bad activation",
			content: "component \"a\" {\n  type = \"t\"\n  activation = \"eager\"\n}",
			wantErr: "unknown activation policy",
		},
		{
			name:    "bad collection",
			content: "component \"a\" {\n  type = \"t\"\n  collection = \"soft\"\n}",
			wantErr: "unknown collection policy",
		},
		{
			name:    "bad timeout",
			content: `type "t" { timeout = "soon" }`,
			wantErr: "invalid timeout",
		},
		{
			name:    "configuration not an object",
			content: "component \"a\" {\n  type = \"t\"\n  configuration = \"x\"\n}",
			wantErr: "'configuration' must be an object",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := writeFiles(t, map[string]string{"main.hcl": tc.content})

			_, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.hcl"))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoader_Load_NoFiles(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{"README.md": "nothing here"})

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl block files found")

	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestLoader_ResolveBlock(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"main.hcl": `include "db" { path = "blocks/db.hcl" }`,
		"blocks/db.hcl": `
			type "app.Engine" {
				service "svc.Engine" {}
			}
			target "engine" {
				configuration = { ignored = true }
			}
			component "engine" {
				type = "app.Engine"
			}
		`,
		"blocks/named.hcl": `
			name = "custom"
		`,
	})
	main := filepath.Join(dir, "main.hcl")

	var types []string
	loader := NewLoader()
	loader.OnType = func(td TypeDefinition) error {
		types = append(types, td.Type.Name())
		return nil
	}

	block, err := loader.ResolveBlock(context.Background(), main, "blocks/db.hcl")
	require.NoError(t, err)
	assert.Equal(t, "db", block.ProfileName)
	assert.Equal(t, filepath.Join(dir, "blocks", "db.hcl"), block.Source)
	require.Len(t, block.Profiles, 1)
	assert.Equal(t, "engine", block.Profiles[0].Name())
	assert.Equal(t, []string{"app.Engine"}, types)

	named, err := loader.ResolveBlock(context.Background(), main, "blocks/named.hcl")
	require.NoError(t, err)
	assert.Equal(t, "custom", named.ProfileName)

	_, err = loader.ResolveBlock(context.Background(), main, "blocks/missing.hcl")
	require.Error(t, err)
}

func TestResolveRelative(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testCases := []struct {
		name string
		base string
		path string
		want string
	}{
		{name: "absolute path", base: "/a/b.hcl", path: "/c/d.hcl", want: "/c/d.hcl"},
		{name: "no base", base: "", path: "x/../d.hcl", want: "d.hcl"},
		{name: "file base", base: "/a/b.hcl", path: "d.hcl", want: "/a/d.hcl"},
		{name: "directory base", base: dir, path: "d.hcl", want: filepath.Join(dir, "d.hcl")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, resolveRelative(tc.base, tc.path))
		})
	}
}

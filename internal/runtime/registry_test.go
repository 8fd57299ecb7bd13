package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/composegrid/internal/catalog"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/model"
	"github.com/vk/composegrid/internal/profile"
)

// journal records lifecycle calls across factories and extensions.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *journal) Calls() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type extension struct {
	name    string
	j       *journal
	failing bool
}

func (e *extension) Create(_ context.Context, stage string, _ any) error {
	e.j.add("create:" + stage + ":" + e.name)
	if e.failing {
		return errors.New("stage failed")
	}
	return nil
}

func (e *extension) Destroy(_ context.Context, stage string, _ any) error {
	e.j.add("destroy:" + stage + ":" + e.name)
	return nil
}

type contextualizer struct{}

func (contextualizer) Contextualize(_ context.Context, req *Request) error {
	req.Context["contextualized"] = true
	return nil
}

func component(name string, j *journal) *RegisteredComponent {
	return &RegisteredComponent{
		Type: &meta.Type{Info: meta.InfoDescriptor{Name: name}},
		Create: func(_ context.Context, req *Request) (any, error) {
			j.add("new:" + req.Path)
			return req, nil
		},
		Destroy: func(_ context.Context, instance any) error {
			j.add("free:" + instance.(*Request).Path)
			return nil
		},
	}
}

func testModel(t *testing.T, r *Registry, name string) *model.ComponentModel {
	t.Helper()
	cat := catalog.New(nil)
	require.NoError(t, r.PopulateCatalog(cat))
	root, err := model.NewRoot(context.Background(),
		&model.System{Catalog: cat, Activator: r, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		&profile.ContainmentProfile{ProfileName: "root", Profiles: []profile.Profile{
			&profile.ComponentProfile{ProfileName: "x", TypeName: name, ProfileMode: profile.Explicit, Collection: meta.CollectionUndefined},
		}})
	require.NoError(t, err)
	m, err := root.GetModel("x")
	require.NoError(t, err)
	return m.(*model.ComponentModel)
}

func TestRegistry_RegisterComponentPanicsOnDuplicate(t *testing.T) {
	r := New()
	r.RegisterComponent(component("demo.A", &journal{}))
	assert.Panics(t, func() { r.RegisterComponent(component("demo.A", &journal{})) })
	assert.Panics(t, func() { r.RegisterComponent(&RegisteredComponent{}) })
	assert.Panics(t, func() { r.RegisterEntry("string", nil) })
}

func TestRegistry_PopulateCatalog(t *testing.T) {
	r := New()
	r.RegisterComponent(component("demo.A", &journal{}))
	b := component("demo.B", &journal{})
	b.Packaged = []*profile.ComponentProfile{{ProfileName: "fast"}}
	r.RegisterComponent(b)

	cat := catalog.New(nil)
	require.NoError(t, r.PopulateCatalog(cat))

	typ, err := cat.Type("demo.B")
	require.NoError(t, err)
	p, err := cat.Profile(typ, "fast")
	require.NoError(t, err)
	assert.Equal(t, profile.Packaged, p.Mode())

	assert.Error(t, r.PopulateCatalog(cat), "registering twice must fail")
	assert.Len(t, r.Components(), 2)
}

func TestRegistry_Validate(t *testing.T) {
	r := New()
	r.RegisterComponent(component("demo.A", &journal{}))

	require.NoError(t, r.Validate([]*meta.Type{{Info: meta.InfoDescriptor{Name: "demo.A"}}}))

	err := r.Validate([]*meta.Type{
		{Info: meta.InfoDescriptor{Name: "demo.Missing"}},
		{
			Info:    meta.InfoDescriptor{Name: "demo.A"},
			Context: &meta.ContextDescriptor{Entries: []meta.EntryDescriptor{{Key: "k", Type: "matrix"}}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo.Missing")
	assert.Contains(t, err.Error(), "unknown entry type 'matrix'")
}

func TestRegistry_BuildEntry(t *testing.T) {
	t.Setenv("COMPOSEGRID_TEST_VALUE", "from-env")
	r := New()

	testCases := []struct {
		name  string
		entry profile.EntryDirective
		want  any
	}{
		{"untyped literal", profile.EntryDirective{Value: 42}, 42},
		{"string", profile.EntryDirective{Type: "string", Value: 7}, "7"},
		{"int", profile.EntryDirective{Type: "int", Value: "12"}, 12},
		{"bool", profile.EntryDirective{Type: "bool", Value: "true"}, true},
		{"duration", profile.EntryDirective{Type: "duration", Value: "1m30s"}, 90 * time.Second},
		{"path with base", profile.EntryDirective{Type: "path", Value: "data/x", Params: map[string]any{"base": "/srv"}}, "/srv/data/x"},
		{"absolute path", profile.EntryDirective{Type: "path", Value: "/etc/../var"}, "/var"},
		{"env", profile.EntryDirective{Type: "env", Value: "COMPOSEGRID_TEST_VALUE"}, "from-env"},
		{"env default", profile.EntryDirective{Type: "env", Value: "COMPOSEGRID_TEST_UNSET", Params: map[string]any{"default": "fallback"}}, "fallback"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.BuildEntry(context.Background(), tc.entry)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRegistry_BuildEntryErrors(t *testing.T) {
	r := New()

	_, err := r.BuildEntry(context.Background(), profile.EntryDirective{Type: "matrix"})
	assert.ErrorIs(t, err, ErrEntryTypeUnknown)

	_, err = r.BuildEntry(context.Background(), profile.EntryDirective{Type: "int", Value: "nope"})
	assert.Error(t, err)

	_, err = r.BuildEntry(context.Background(), profile.EntryDirective{Type: "env", Value: "COMPOSEGRID_TEST_UNSET"})
	assert.Error(t, err)

	r.RegisterEntry("upper", func(_ context.Context, e profile.EntryDirective) (any, error) { return "UP", nil })
	got, err := r.BuildEntry(context.Background(), profile.EntryDirective{Type: "upper"})
	require.NoError(t, err)
	assert.Equal(t, "UP", got)
	assert.Contains(t, r.EntryKeys(), "upper")
}

func TestRegistry_ActivateRunsContextAndStages(t *testing.T) {
	j := &journal{}
	r := New()
	r.RegisterComponent(component("demo.A", j))
	m := testModel(t, r, "demo.A")

	act := &model.Activation{
		Model:           m,
		Type:            m.Type(),
		Configuration:   map[string]any{"size": 1},
		ContextProvider: contextualizer{},
		Stages: []model.StageInstance{
			{Key: "init", Provider: &extension{name: "one", j: j}},
			{Key: "warm", Provider: &extension{name: "two", j: j}},
		},
	}

	instance, err := r.Activate(context.Background(), act)
	require.NoError(t, err)
	req := instance.(*Request)
	assert.Equal(t, "/x", req.Path)
	assert.Equal(t, true, req.Context["contextualized"])
	assert.Equal(t, 1, req.Configuration["size"])
	assert.Equal(t, []string{"new:/x", "create:init:one", "create:warm:two"}, j.Calls())

	require.NoError(t, r.Deactivate(context.Background(), act, instance))
	assert.Equal(t, []string{
		"new:/x", "create:init:one", "create:warm:two",
		"destroy:warm:two", "destroy:init:one", "free:/x",
	}, j.Calls())
}

func TestRegistry_ActivateRollsBackFailedStage(t *testing.T) {
	j := &journal{}
	r := New()
	r.RegisterComponent(component("demo.A", j))
	m := testModel(t, r, "demo.A")

	_, err := r.Activate(context.Background(), &model.Activation{
		Model: m,
		Type:  m.Type(),
		Stages: []model.StageInstance{
			{Key: "init", Provider: &extension{name: "one", j: j}},
			{Key: "warm", Provider: &extension{name: "two", j: j, failing: true}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `stage "warm"`)
	assert.Equal(t, []string{"new:/x", "create:init:one", "create:warm:two", "destroy:init:one", "free:/x"}, j.Calls())
}

func TestRegistry_ActivateErrors(t *testing.T) {
	j := &journal{}
	r := New()
	r.RegisterComponent(component("demo.A", j))
	m := testModel(t, r, "demo.A")

	_, err := r.Activate(context.Background(), &model.Activation{Model: m, Type: &meta.Type{Info: meta.InfoDescriptor{Name: "demo.None"}}})
	assert.ErrorIs(t, err, ErrNoFactory)

	_, err = r.Activate(context.Background(), &model.Activation{Model: m, Type: m.Type(), ContextProvider: "not a contextualizer"})
	assert.ErrorIs(t, err, ErrNotContextualizer)

	_, err = r.Activate(context.Background(), &model.Activation{
		Model:  m,
		Type:   m.Type(),
		Stages: []model.StageInstance{{Key: "init", Provider: 3}},
	})
	assert.ErrorIs(t, err, ErrNotExtension)
}

func TestRegistry_CommissionThroughModel(t *testing.T) {
	j := &journal{}
	r := New()
	r.RegisterComponent(component("demo.A", j))
	m := testModel(t, r, "demo.A")

	require.NoError(t, m.Container().Commission(context.Background()))
	assert.Equal(t, []string{"new:/x"}, j.Calls())

	inst, err := m.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/x", inst.(*Request).Path)

	require.NoError(t, m.Decommission(context.Background()))
	assert.Equal(t, []string{"new:/x", "free:/x"}, j.Calls())
}

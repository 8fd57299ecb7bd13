package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationPolicy_Resolve(t *testing.T) {
	assert.Equal(t, ActivationStartup, ActivationDefault.Resolve(Explicit))
	assert.Equal(t, ActivationLazy, ActivationDefault.Resolve(Packaged))
	assert.Equal(t, ActivationLazy, ActivationDefault.Resolve(Implicit))
	assert.Equal(t, ActivationLazy, ActivationLazy.Resolve(Explicit))
	assert.Equal(t, ActivationStartup, ActivationStartup.Resolve(Implicit))
}

func TestParseActivationPolicy(t *testing.T) {
	p, err := ParseActivationPolicy("LAZY")
	require.NoError(t, err)
	assert.Equal(t, ActivationLazy, p)

	_, err = ParseActivationPolicy("eventually")
	assert.Error(t, err)
}

func TestProfileKinds(t *testing.T) {
	testCases := []struct {
		profile Profile
		kind    Kind
		mode    Mode
	}{
		{&ComponentProfile{ProfileName: "c", ProfileMode: Packaged}, KindComponent, Packaged},
		{&ContainmentProfile{ProfileName: "k", ProfileMode: Explicit}, KindContainment, Explicit},
		{&NamedComponentProfile{ProfileName: "n"}, KindNamedComponent, Explicit},
		{&BlockIncludeDirective{ProfileName: "i"}, KindBlockInclude, Explicit},
		{&BlockCompositionDirective{ProfileName: "b"}, KindBlockComposition, Explicit},
	}
	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.profile.Kind())
			assert.Equal(t, tc.mode, tc.profile.Mode())
		})
	}
}

func TestComponentProfile_Rename(t *testing.T) {
	orig := &ComponentProfile{
		ProfileName:  "default",
		TypeName:     "demo.Printer",
		ProfileMode:  Packaged,
		Dependencies: []DependencyDirective{{Key: "out", Source: "../writer"}},
	}
	renamed := orig.Rename("printer", Explicit)
	assert.Equal(t, "printer", renamed.Name())
	assert.Equal(t, Explicit, renamed.Mode())
	assert.Equal(t, "default", orig.Name())
	require.NotNil(t, renamed.Dependency("out"))
	assert.Nil(t, renamed.Dependency("missing"))
}

func TestMergeConfiguration(t *testing.T) {
	got := MergeConfiguration(
		map[string]any{"a": 1, "b": 1},
		nil,
		map[string]any{"b": 2, "c": 2},
	)
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 2}, got)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

func TestModelSelector_Select(t *testing.T) {
	dep := meta.DependencyDescriptor{Key: "store", Reference: ref("svc.Store")}

	implicitA := stub("/implicit-a", profile.Implicit, "svc.Store")
	packagedA := stub("/packaged-a", profile.Packaged, "svc.Store")
	packagedB := stub("/packaged-b", profile.Packaged, "svc.Store")
	explicitA := stub("/explicit-a", profile.Explicit, "svc.Store")
	explicitB := stub("/explicit-b", profile.Explicit, "svc.Store")
	unrelated := stub("/unrelated", profile.Explicit, "svc.Other")

	testCases := []struct {
		name       string
		candidates []DeploymentModel
		want       DeploymentModel
	}{
		{"empty", nil, nil},
		{"only incompatible", []DeploymentModel{unrelated}, nil},
		{"explicit beats earlier packaged", []DeploymentModel{packagedA, explicitA}, explicitA},
		{"packaged beats earlier implicit", []DeploymentModel{implicitA, packagedA}, packagedA},
		{"first within tier", []DeploymentModel{explicitB, explicitA}, explicitB},
		{"first packaged within tier", []DeploymentModel{implicitA, packagedB, packagedA}, packagedB},
		{"implicit as last resort", []DeploymentModel{unrelated, implicitA}, implicitA},
		{"incompatible explicit ignored", []DeploymentModel{unrelated, packagedA}, packagedA},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ModelSelector{}.Select(tc.candidates, dep)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Same(t, tc.want, got)
		})
	}
}

func TestModelSelector_SelectStage(t *testing.T) {
	stage := meta.StageDescriptor{Key: "init", Extension: "initializer"}

	packaged := stub("/packaged", profile.Packaged)
	packaged.extensions = []string{"initializer"}
	explicit := stub("/explicit", profile.Explicit)
	explicit.extensions = []string{"initializer"}
	other := stub("/other", profile.Explicit)
	other.extensions = []string{"destroyer"}

	assert.Same(t, explicit, ModelSelector{}.SelectStage([]DeploymentModel{packaged, other, explicit}, stage))
	assert.Same(t, packaged, ModelSelector{}.SelectStage([]DeploymentModel{other, packaged}, stage))
	assert.Nil(t, ModelSelector{}.SelectStage([]DeploymentModel{other}, stage))
}

func TestProfileSelector_Select(t *testing.T) {
	implicit := &profile.ComponentProfile{ProfileName: "implicit", ProfileMode: profile.Implicit}
	packagedA := &profile.ComponentProfile{ProfileName: "packaged-a", ProfileMode: profile.Packaged}
	packagedB := &profile.ComponentProfile{ProfileName: "packaged-b", ProfileMode: profile.Packaged}

	assert.Nil(t, ProfileSelector{}.Select(nil))
	assert.Same(t, implicit, ProfileSelector{}.Select([]*profile.ComponentProfile{implicit}))
	assert.Same(t, packagedA, ProfileSelector{}.Select([]*profile.ComponentProfile{implicit, packagedA, packagedB}))
}

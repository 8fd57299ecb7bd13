package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/composegrid/internal/profile"
)

func TestParse(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		input   string
		want    []profile.TargetDirective
		wantErr string
	}{
		{
			name:  "empty document",
			input: "  \n",
			want:  nil,
		},
		{
			name: "configuration and priority",
			input: `
targets:
  - path: /backend/store
    priority: debug
    configuration:
      pool: 32
      name: primary
  - path: printer
    configuration:
      enabled: true
`,
			want: []profile.TargetDirective{
				{
					Path:          "/backend/store",
					Configuration: map[string]any{"pool": 32, "name": "primary"},
					Categories:    &profile.CategoriesDirective{Priority: "debug"},
				},
				{
					Path:          "printer",
					Configuration: map[string]any{"enabled": true},
				},
			},
		},
		{
			name:    "missing path",
			input:   "targets:\n  - priority: warn\n",
			wantErr: ErrEmptyPath.Error(),
		},
		{
			name:    "unknown field",
			input:   "targets:\n  - path: a\n    level: warn\n",
			wantErr: "field level not found",
		},
		{
			name:    "malformed yaml",
			input:   "targets: [",
			wantErr: "failed to decode targets",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse([]byte(tc.input))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets:\n  - path: /a\n"), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []profile.TargetDirective{{Path: "/a"}}, got)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package print

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/composegrid/internal/runtime"
	"github.com/vk/composegrid/modules/env_vars"
)

func TestCreate_LogsConfigurationInKeyOrder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	instance, err := Create(context.Background(), &runtime.Request{
		Configuration: map[string]any{"zeta": 1, "alpha": "x", "prefix": "> "},
		Logger:        logger,
	})
	require.NoError(t, err)
	require.IsType(t, &Printer{}, instance)

	out := buf.String()
	alpha := bytes.Index(buf.Bytes(), []byte("key=alpha"))
	zeta := bytes.Index(buf.Bytes(), []byte("key=zeta"))
	require.NotEqual(t, -1, alpha, out)
	require.NotEqual(t, -1, zeta, out)
	assert.Less(t, alpha, zeta)
	assert.Contains(t, out, `msg="> Printing configuration"`)
}

func TestCreate_EmptyConfigurationAndEnvironment(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	env, err := env_vars.Create(context.Background(), &runtime.Request{Logger: logger})
	require.NoError(t, err)

	_, err = Create(context.Background(), &runtime.Request{
		Logger:       logger,
		Dependencies: map[string]any{"env": env},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "value=(null)")
	assert.Contains(t, buf.String(), "Environment bound")
}

func TestModule_Register(t *testing.T) {
	t.Parallel()
	r := runtime.New()
	(&Module{}).Register(r)

	c, ok := r.Component(TypeName)
	require.True(t, ok)
	require.Len(t, c.Packaged, 1)
	assert.Equal(t, "default", c.Packaged[0].ProfileName)
	dep, ok := c.Type.Dependency("env")
	require.True(t, ok)
	assert.True(t, dep.Optional)
}

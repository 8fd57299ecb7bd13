package kernel

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vk/composegrid/internal/config"
	"github.com/vk/composegrid/internal/runtime"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupKernelTest creates a kernel at debug level for system testing. The
// log is dumped when COMPOSEGRID_TEST_LOGS is "true".
func SetupKernelTest(t *testing.T, cfg *config.Config, modules ...runtime.Module) (*Kernel, *SafeBuffer, error) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	cfg.Log.Level = "debug"
	k, err := New(context.Background(), logBuffer, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("COMPOSEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return k, logBuffer, err
}

// internal/integration/cancel_integration_test.go
package integration

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"mavekit/internal/app"
)

func TestCancelledGenerateExits130(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	argv := []string{"--log-level", "error", "generate",
		"--out", t.TempDir(), "--seq-length", "200", "--num-sim", "5000"}
	code := app.RunContext(ctx, argv, io.Discard, io.Discard)
	assert.Equal(t, 130, code)
}

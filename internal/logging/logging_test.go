// internal/logging/logging_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("debug", "json", &buf)
	t.Cleanup(func() { Setup("info", "text", os.Stderr) })

	log.WithField("step", "fit").Debug("hello")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "fit", rec["step"])
	assert.Equal(t, "debug", rec["level"])
}

func TestSetupBadLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup("loud", "text", &buf)
	t.Cleanup(func() { Setup("info", "text", os.Stderr) })
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	log.Debug("hidden")
	assert.Empty(t, buf.String())
}

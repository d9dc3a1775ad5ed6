package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kamilpajak/bugsy/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Logging{Level: "info", Format: "json"}, false, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("stage done", zap.String("query_id", "query_1"))
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "stage done", line["msg"])
	assert.Equal(t, "query_1", line["query_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Logging{Level: "error", Format: "console"}, true, &buf)
	require.NoError(t, err)

	logger.Debug("prompt rendered", zap.Int("chars", 42))
	assert.Contains(t, buf.String(), "prompt rendered")
	assert.Contains(t, buf.String(), "42")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(config.Logging{Level: "loud", Format: "json"}, false, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(config.Logging{Level: "info", Format: "xml"}, false, &bytes.Buffer{})
	assert.Error(t, err)
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Initialize("debug", "json", &buf))
	defer Initialize("info", "text", nil)

	Logger.WithField("path", "a/b").Debug("wrote deltas")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "wrote deltas", entry["msg"])
	assert.Equal(t, "a/b", entry["path"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInitializeLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Initialize("warn", "text", &buf))
	defer Initialize("info", "text", nil)

	Logger.Info("hidden")
	assert.Empty(t, buf.String())

	Logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, logrus.WarnLevel, Logger.GetLevel())
}

func TestInitializeRejectsBadInput(t *testing.T) {
	assert.Error(t, Initialize("loud", "text", nil))
	assert.Error(t, Initialize("info", "xml", nil))
}

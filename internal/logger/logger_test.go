package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "production", false)

	L().Debug("hidden")
	L().Info("refresh completed", "products", 10)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "refresh completed", entry["msg"])
	assert.Equal(t, float64(10), entry["products"])
	assert.NotContains(t, entry, "source")
}

func TestDebugFlagLowersProductionLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "production", true)

	L().Debug("query plan", "query", "count_snapshots")

	assert.Contains(t, buf.String(), `"msg":"query plan"`)
}

func TestDevelopmentLoggerUsesText(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "development", false)

	L().Debug("starting")

	assert.Contains(t, buf.String(), "msg=starting")
	assert.Contains(t, buf.String(), "source=")
}

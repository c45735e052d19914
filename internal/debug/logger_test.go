package debug

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Quiet(t *testing.T) {
	var buf bytes.Buffer
	log := Init(Options{Output: &buf})

	assert.Same(t, log, Logger())
	log.Debug("compiled report", "table", "classes")
	Logger().Info("ignored")
	assert.Empty(t, buf.String())

	Logger().Warn("slow query", "table", "classes")
	assert.Contains(t, buf.String(), "slow query")
	assert.Contains(t, buf.String(), "table=classes")
}

func TestInit_VerboseJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Format: FormatJSON, Output: &buf})
	t.Cleanup(func() { Init(Options{Output: &bytes.Buffer{}}) })

	Logger().Debug("compiled report", "table", "classes")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "compiled report", line["msg"])
	assert.Equal(t, "classes", line["table"])
}

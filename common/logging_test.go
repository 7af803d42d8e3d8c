package common

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&LoggingOpts{
		JSON:    true,
		Service: "devsigner",
		Version: "v1.2.3",
		Output:  &buf,
	})

	logger.Info("hello", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "devsigner", record["service"])
	assert.Equal(t, "v1.2.3", record["version"])
	assert.Equal(t, "v", record["k"])
}

func TestSetupLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&LoggingOpts{Output: &buf})
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	logger = SetupLogger(&LoggingOpts{Debug: true, Output: &buf})
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

package diagnostics

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownCommandEvidence(t *testing.T) {
	d := UnknownCommand("LFX_Teleport")
	assert.Equal(t, Info, d.Severity)
	assert.Equal(t, "LFX_Teleport", d.Evidence["command"])
}

func TestDiagnosticJSON(t *testing.T) {
	b, err := json.Marshal(DriverFallback("spi", errors.New("no port")))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "warning", m["severity"])
	assert.Equal(t, "DRV.FALLBACK", m["code"])
	assert.Equal(t, "no port", m["detail"])
	assert.NotContains(t, string(mustJSON(t, BadPayload(errors.New("x")))), "evidence")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace":    LevelTrace,
		"DEBUG":    LevelDebug,
		"info":     LevelInfo,
		"warning":  LevelWarn,
		"error":    LevelError,
		"critical": LevelCrit,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	before := Root()
	assert.Error(t, InitLogger("loud"))
	assert.Error(t, InitJSONLogger("loud"))
	assert.Same(t, before, Root())
}

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, false)))

	DisableModule(AllocMonitoring)
	Debug(AllocMonitoring, "hidden")
	assert.Empty(t, buf.String())

	EnableModules("alloc_mod, scan_mod")
	defer DisableModule(AllocMonitoring)
	defer DisableModule(ScanMonitoring)
	Debug(AllocMonitoring, "claimed", "value", 7)
	out := buf.String()
	assert.Contains(t, out, "claimed")
	assert.Contains(t, out, "module=alloc_mod")
	assert.Contains(t, out, "value=7")
	assert.Contains(t, out, "DEBUG")
}

func TestInfoIgnoresModuleState(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(JSONHandlerWithLevel(&buf, LevelInfo)))

	DisableModule(GenMonitoring)
	Info(GenMonitoring, "generated", "opcodes", 3)
	Debug(GenMonitoring, "below level")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"generated"`)
	assert.Contains(t, lines[0], `"level":"INFO "`)
}

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebugAndInfo_OnlyWhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	SetVerbose(false)
	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Section("hidden")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("shown %s", "debug")
	Info("shown %s", "info")
	Section("Tiles")
	out := buf.String()
	assert.Contains(t, out, "DEBUG shown debug")
	assert.Contains(t, out, "INFO shown info")
	assert.Contains(t, out, "=== Tiles ===")
}

func TestWarnAndError_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("step deviates by %.1f%%", 12.5)
	Error("cannot read series %d", 3)

	out := buf.String()
	assert.Contains(t, out, "WARNING step deviates by 12.5%")
	assert.Contains(t, out, "ERROR cannot read series 3")
}

func TestSetLogger_WritesToFile(t *testing.T) {
	defer reset()

	path := filepath.Join(t.TempDir(), "roisplitter.log")
	cfg := &LogConfig{Logfile: path, MaxSize: 1, MaxAge: 1}
	cfg.SetLogger()

	Warn("written to %s", "file")
	require.NoError(t, Shutdown())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "WARNING written to file")
}

func TestSetLogger_EmptyLogfileKeepsOutput(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	var nilCfg *LogConfig
	nilCfg.SetLogger()
	(&LogConfig{}).SetLogger()

	Warn("still here")
	assert.Contains(t, buf.String(), "still here")
	assert.NoError(t, Shutdown())
}

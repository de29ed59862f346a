package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/log/writer"
)

func TestNewWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithLevel(zerolog.WarnLevel), WithComponent("session"))

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "session", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf).Named("cart")
	logger.Info().Msg("saved")
	assert.Contains(t, buf.String(), `"component":"cart"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewFileSizeRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFile(FileConfig{
		Filepath:   dir,
		Filename:   "test",
		RotateMode: writer.RotateModeSize,
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info().Msg("written to file")

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestFromConfig(t *testing.T) {
	logger, err := FromConfig(Config{Level: "debug", Desensitize: true})
	require.NoError(t, err)
	assert.NotNil(t, logger.DesensitizeHook())
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	_, err = FromConfig(Config{Output: "syslog"})
	assert.Error(t, err)
}

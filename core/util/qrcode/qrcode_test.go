package qrcode

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	data, err := PNG("Don hang #1024 - VN123456", 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestPNGDefaults(t *testing.T) {
	data, err := PNGWithLevel("Don hang #1 - N/A", 0, High)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())

	_, err = PNG("", 64)
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI("hello", 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")
	require.NoError(t, WriteFile("hello", 64, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFFmpegDefaultBitrate(t *testing.T) {
	assert.Equal(t, defaultBitrate, NewFFmpeg("").bitrate)
	assert.Equal(t, "128k", NewFFmpeg("128k").bitrate)
}

func TestValidateInput(t *testing.T) {
	f := NewFFmpeg("")
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := f.validateInput(filepath.Join(dir, "nope.webm"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.webm")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		err := f.validateInput(path)
		assert.ErrorIs(t, err, ErrFileEmpty)
	})

	t.Run("directory", func(t *testing.T) {
		err := f.validateInput(dir)
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "ok.webm")
		require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))
		assert.NoError(t, f.validateInput(path))
	})
}

func TestFFmpegErrorUnwrap(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &ffmpegError{cmd: "ffmpeg -i x", output: "boom", wrapped: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "ffmpeg -i x")
}

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

const defaultBitrate = "192k"

var (
	ErrFFmpegNotAvailable = fmt.Errorf("ffmpeg not available")
	ErrFileNotFound       = fmt.Errorf("file not found")
	ErrFileEmpty          = fmt.Errorf("file is empty")
	ErrInvalidPath        = fmt.Errorf("invalid path")
)

// ffmpegError wraps ffmpeg command failures with the command line and
// its combined output.
type ffmpegError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *ffmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *ffmpegError) Unwrap() error {
	return e.wrapped
}

func newFFmpegError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	return &ffmpegError{
		cmd:     cmdStr,
		output:  string(output),
		wrapped: err,
	}
}

// FFmpeg converts audio files by shelling out to the ffmpeg binary.
type FFmpeg struct {
	bitrate string
}

// NewFFmpeg returns a converter targeting the given MP3 bitrate, e.g.
// "192k". An empty bitrate selects the default.
func NewFFmpeg(bitrate string) *FFmpeg {
	if bitrate == "" {
		bitrate = defaultBitrate
	}
	return &FFmpeg{bitrate: bitrate}
}

// Available checks that ffmpeg is installed and runnable.
func (f *FFmpeg) Available() error {
	if err := exec.Command("ffmpeg", "-version").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrFFmpegNotAvailable, err)
	}
	return nil
}

func (f *FFmpeg) validateInput(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("unable to access file: %s: %w", path, err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrFileEmpty, path)
	}

	return nil
}

// ConvertToMP3 transcodes inputPath to an MP3 file at outputPath,
// dropping any video streams.
func (f *FFmpeg) ConvertToMP3(ctx context.Context, inputPath, outputPath string) error {
	slog.Debug("converting to mp3", "input", inputPath, "output", outputPath, "bitrate", f.bitrate)

	if err := f.validateInput(inputPath); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", f.bitrate,
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}

// Package audio converts downloaded streams to MP3 with ffmpeg and
// writes ID3 metadata to the result.
package audio

import "context"

// Converter transcodes a downloaded audio stream into the target format.
type Converter interface {
	// Available checks that the underlying binary can be invoked.
	Available() error

	// ConvertToMP3 transcodes inputPath into an MP3 file at outputPath.
	ConvertToMP3(ctx context.Context, inputPath, outputPath string) error
}

package audio

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

// Tags is the metadata written into a finished MP3 file. TrackNumber
// and TotalTracks are only written for playlist items.
type Tags struct {
	Artist      string
	Track       string
	Album       string
	TrackNumber int
	TotalTracks int
}

// WriteTags writes ID3v2 frames to the MP3 file at path, replacing any
// existing values for the frames it sets.
func WriteTags(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetArtist(tags.Artist)
	tag.SetTitle(tags.Track)
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}

	if tags.TrackNumber > 0 {
		trackStr := fmt.Sprintf("%d", tags.TrackNumber)
		if tags.TotalTracks > 0 {
			trackStr = fmt.Sprintf("%d/%d", tags.TrackNumber, tags.TotalTracks)
		}
		tag.AddTextFrame(tag.CommonID("TRCK"), id3v2.EncodingUTF8, trackStr)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}

// Package metadata turns the noisy per-item metadata returned by media
// extractors into clean (artist, track, album) triples and assembles them
// into playlist-aware reports for display and filename construction.
package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sentinel values used when the extractor gives us nothing usable.
const (
	UnknownArtist   = "Unknown Artist"
	UnknownTrack    = "Unknown Track"
	UnknownPlaylist = "Unknown Playlist"
)

type artistKind int

const (
	artistAbsent artistKind = iota
	artistSingle
	artistMany
)

// ArtistField is the raw artist value of a record. Extractors are
// inconsistent about its shape: some send a comma-separated string,
// others an already-split list. The zero value means the field was
// absent upstream.
type ArtistField struct {
	kind   artistKind
	single string
	many   []string
}

// ArtistString wraps a single, possibly comma-separated, artist string.
func ArtistString(s string) ArtistField {
	return ArtistField{kind: artistSingle, single: s}
}

// ArtistList wraps an already-split list of artist names.
func ArtistList(names ...string) ArtistField {
	return ArtistField{kind: artistMany, many: names}
}

// empty reports whether the field carries no value at all: absent, an
// empty string, or an empty list.
func (f ArtistField) empty() bool {
	switch f.kind {
	case artistSingle:
		return f.single == ""
	case artistMany:
		return len(f.many) == 0
	default:
		return true
	}
}

// candidates returns the raw name candidates before any cleanup. String
// values are split on commas; list values are used as-is, so a list
// element like "A, B" stays one candidate.
func (f ArtistField) candidates() []string {
	switch f.kind {
	case artistSingle:
		return strings.Split(f.single, ",")
	case artistMany:
		return f.many
	default:
		return nil
	}
}

// UnmarshalJSON accepts the shapes extractors actually emit: a string,
// an array, null, or the odd bare scalar (kept as one candidate).
func (f *ArtistField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ArtistField{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = ArtistString(s)
		return nil
	}

	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, fmt.Sprint(item))
		}
		*f = ArtistList(names...)
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = ArtistList(fmt.Sprint(v))
	return nil
}

// Record is one item of raw extractor metadata. Nothing in it is
// trusted: any field may be missing or empty.
type Record struct {
	Artist   ArtistField
	Uploader string
	Track    string
	Title    string
	Album    string
}

// Item is the cleaned triple ready for display or filename use. Artist
// and Track are always non-empty; Album is empty when the source had
// none.
type Item struct {
	Artist string
	Track  string
	Album  string
}

package metadata

import "strings"

const (
	artistSeparator = " & "
	maxArtistNames  = 3

	// Separator noise that may trail a duplicated artist prefix in a
	// track title, e.g. "Artist - Song" or "Artist | Song".
	trackPrefixCutset = " -:|"
)

// Normalize derives a clean item from one raw record. It never fails:
// missing or malformed input degrades to the Unknown* sentinels, and the
// same input always yields the same output.
func Normalize(rec Record) Item {
	artist := normalizeArtist(rec)
	return Item{
		Artist: artist,
		Track:  normalizeTrack(rec, artist),
		Album:  rec.Album,
	}
}

// normalizeArtist resolves the artist string: artist field first,
// uploader as fallback. Candidates are trimmed, deduplicated
// case-insensitively in first-occurrence order, capped at three, and
// joined with " & ".
func normalizeArtist(rec Record) string {
	source := rec.Artist
	if source.empty() {
		source = ArtistString(rec.Uploader)
	}

	var names []string
	seen := make(map[string]struct{})
	for _, candidate := range source.candidates() {
		name := strings.TrimSpace(candidate)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
		if len(names) == maxArtistNames {
			break
		}
	}

	if len(names) == 0 {
		return UnknownArtist
	}
	return strings.Join(names, artistSeparator)
}

// normalizeTrack resolves the track title (track field, then title, then
// the sentinel) and removes a redundant leading artist name such as
// "Artist - Song" so filenames don't end up as "Artist - Artist - Song".
func normalizeTrack(rec Record, artist string) string {
	track := rec.Track
	if track == "" {
		track = rec.Title
	}
	if track == "" {
		track = UnknownTrack
	}

	if artist == UnknownArtist {
		return track
	}
	if !strings.HasPrefix(strings.ToLower(track), strings.ToLower(artist)) {
		return track
	}
	// Lowercasing can change byte lengths for some scripts; don't slice
	// past the end in that case.
	if len(artist) > len(track) {
		return track
	}

	// Slice by artist length so the remainder keeps its original casing.
	remainder := track[len(artist):]
	remainder = strings.TrimLeft(remainder, trackPrefixCutset)
	if strings.TrimSpace(remainder) == "" {
		// The title was nothing but the artist name; keep it rather
		// than returning an empty track.
		return track
	}
	return strings.TrimSpace(remainder)
}

package metadata

// Playlist carries collection-level context from the extractor. A nil
// *Playlist means the source URL resolved to a single item.
type Playlist struct {
	Title string
}

// Report is the ordered, normalized result of one extraction: the unit
// handed to the CLI renderer, the bot, and filename construction.
type Report struct {
	IsPlaylist    bool
	PlaylistTitle string
	Items         []Item
}

// Aggregate normalizes every record in extractor order and assembles the
// report. Playlist context travels as an explicit argument, never as
// shared state, so concurrent callers don't interfere with each other.
//
// An empty records slice yields a non-playlist report with no items,
// which callers treat as "nothing found".
func Aggregate(records []Record, playlist *Playlist) Report {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		items = append(items, Normalize(rec))
	}

	report := Report{Items: items}
	if len(records) == 0 {
		return report
	}

	if playlist != nil || len(records) > 1 {
		report.IsPlaylist = true
		report.PlaylistTitle = UnknownPlaylist
		if playlist != nil && playlist.Title != "" {
			report.PlaylistTitle = playlist.Title
		}
	}
	return report
}

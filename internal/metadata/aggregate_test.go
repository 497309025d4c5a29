package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil, nil)
	assert.False(t, report.IsPlaylist)
	assert.Empty(t, report.Items)

	// A known playlist with zero visible entries still renders as
	// "nothing found".
	report = Aggregate(nil, &Playlist{Title: "Mix"})
	assert.False(t, report.IsPlaylist)
	assert.Empty(t, report.Items)
}

func TestAggregateSingleItem(t *testing.T) {
	records := []Record{{Artist: ArtistString("Alice"), Track: "Song"}}

	report := Aggregate(records, nil)
	assert.False(t, report.IsPlaylist)
	assert.Empty(t, report.PlaylistTitle)
	assert.Equal(t, []Item{{Artist: "Alice", Track: "Song"}}, report.Items)
}

func TestAggregateSingleItemWithPlaylistContext(t *testing.T) {
	records := []Record{{Artist: ArtistString("Alice"), Track: "Song"}}

	report := Aggregate(records, &Playlist{Title: "Summer Mix"})
	assert.True(t, report.IsPlaylist)
	assert.Equal(t, "Summer Mix", report.PlaylistTitle)
	assert.Len(t, report.Items, 1)
}

func TestAggregatePlaylist(t *testing.T) {
	records := []Record{
		{Artist: ArtistString("Alice"), Track: "First"},
		{Uploader: "Chan", Title: "Chan - Second"},
		{Title: "Third"},
	}

	report := Aggregate(records, &Playlist{Title: "Road Trip"})
	assert.True(t, report.IsPlaylist)
	assert.Equal(t, "Road Trip", report.PlaylistTitle)

	// Extractor order is preserved.
	assert.Equal(t, []Item{
		{Artist: "Alice", Track: "First"},
		{Artist: "Chan", Track: "Second"},
		{Artist: UnknownArtist, Track: "Third"},
	}, report.Items)
}

func TestAggregateMultipleRecordsWithoutContext(t *testing.T) {
	records := []Record{
		{Title: "One"},
		{Title: "Two"},
	}

	report := Aggregate(records, nil)
	assert.True(t, report.IsPlaylist)
	assert.Equal(t, UnknownPlaylist, report.PlaylistTitle)
}

func TestAggregateDefaultsPlaylistTitle(t *testing.T) {
	records := []Record{
		{Title: "One"},
		{Title: "Two"},
	}

	report := Aggregate(records, &Playlist{})
	assert.True(t, report.IsPlaylist)
	assert.Equal(t, UnknownPlaylist, report.PlaylistTitle)
}

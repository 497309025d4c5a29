package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunegrab/tunegrab/internal/extractor"
	"github.com/tunegrab/tunegrab/internal/metadata"
	"github.com/tunegrab/tunegrab/internal/progress"
	"github.com/tunegrab/tunegrab/internal/storage"
)

// fakeExtractor serves canned records and writes placeholder files
// instead of downloading. Entries listed in missing produce no file,
// like a playlist entry skipped by --ignore-errors.
type fakeExtractor struct {
	records  []metadata.Record
	playlist *metadata.Playlist
	missing  map[int]bool
}

func (f *fakeExtractor) Available() error { return nil }

func (f *fakeExtractor) Probe(ctx context.Context, url string) (*extractor.ProbeInfo, error) {
	info := &extractor.ProbeInfo{EntryCount: len(f.records)}
	if f.playlist != nil {
		info.Playlist = true
		info.Title = f.playlist.Title
	}
	return info, nil
}

func (f *fakeExtractor) Inspect(ctx context.Context, url string) (*extractor.Result, error) {
	return &extractor.Result{Records: f.records, Playlist: f.playlist}, nil
}

func (f *fakeExtractor) Download(ctx context.Context, url, dir string, prog extractor.ProgressFunc) ([]extractor.DownloadedFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var files []extractor.DownloadedFile
	for i := range f.records {
		index := i + 1
		if f.missing[index] {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%d-vid.webm", index))
		if err := os.WriteFile(path, []byte(fmt.Sprintf("raw audio %d", index)), 0644); err != nil {
			return nil, err
		}
		if prog != nil {
			prog(index, len(f.records), 100, "00:00", "1.00MiB/s")
		}
		files = append(files, extractor.DownloadedFile{Index: index, Path: path})
	}
	return files, nil
}

// fakeConverter copies the input instead of invoking ffmpeg.
type fakeConverter struct{}

func (fakeConverter) Available() error { return nil }

func (fakeConverter) ConvertToMP3(ctx context.Context, inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

func newTestPipeline(t *testing.T, ext extractor.Extractor) (*Pipeline, storage.Store) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return New(ext, fakeConverter{}, store), store
}

func TestSupportedURL(t *testing.T) {
	testCases := []struct {
		url       string
		supported bool
	}{
		{"https://www.youtube.com/watch?v=abc123", true},
		{"https://youtube.com/playlist?list=xyz", true},
		{"https://music.youtube.com/watch?v=abc", true},
		{"https://youtu.be/abc123", true},
		{"https://soundcloud.com/someone/track", false},
		{"https://notyoutube.com/watch?v=abc", false},
		{"not a url", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.supported, SupportedURL(tc.url))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"Alice - Song", "Alice - Song"},
		{"AC/DC - Back In Black", "AC_DC - Back In Black"},
		{`What? "Quotes": yes|no`, "What_ _Quotes__ yes_no"},
		{" . ", "untitled"},
		{"", "untitled"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.in))
		})
	}
}

func TestFetchSingleItem(t *testing.T) {
	ext := &fakeExtractor{
		records: []metadata.Record{
			{Uploader: "Some Channel", Title: "Some Channel - Cool Song"},
		},
	}
	p, store := newTestPipeline(t, ext)

	result, err := p.Fetch(context.Background(), "https://youtu.be/abc", Options{RequestID: "req"})
	require.NoError(t, err)

	assert.False(t, result.Report.IsPlaylist)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "Some Channel - Cool Song.mp3", filepath.Base(result.Files[0]))
	assert.FileExists(t, result.Files[0])

	// Raw streams are removed after conversion.
	dir, err := store.RequestDir("req")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "raw"))
}

func TestFetchPlaylist(t *testing.T) {
	ext := &fakeExtractor{
		records: []metadata.Record{
			{Artist: metadata.ArtistString("Alice"), Track: "First"},
			{Artist: metadata.ArtistString("Bob"), Track: "Second"},
		},
		playlist: &metadata.Playlist{Title: "Road Trip"},
	}
	p, _ := newTestPipeline(t, ext)

	tracker := progress.NewTracker()
	var stages []progress.Stage
	tracker.AddListener(func(e progress.Event) {
		stages = append(stages, e.Stage)
	})

	result, err := p.Fetch(context.Background(), "https://www.youtube.com/playlist?list=x", Options{
		RequestID: "req",
		Tracker:   tracker,
	})
	require.NoError(t, err)

	assert.True(t, result.Report.IsPlaylist)
	assert.Equal(t, "Road Trip", result.Report.PlaylistTitle)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "Alice - First.mp3", filepath.Base(result.Files[0]))
	assert.Equal(t, "Bob - Second.mp3", filepath.Base(result.Files[1]))

	assert.Contains(t, stages, progress.StageProbing)
	assert.Contains(t, stages, progress.StageDownloading)
	assert.Contains(t, stages, progress.StageConverting)
	assert.Equal(t, progress.StageComplete, stages[len(stages)-1])
}

func TestFetchKeepsMetadataAlignedWhenEntryFails(t *testing.T) {
	ext := &fakeExtractor{
		records: []metadata.Record{
			{Artist: metadata.ArtistString("Alice"), Track: "First"},
			{Artist: metadata.ArtistString("Bob"), Track: "Second"},
			{Artist: metadata.ArtistString("Carol"), Track: "Third"},
		},
		playlist: &metadata.Playlist{Title: "Road Trip"},
		missing:  map[int]bool{2: true},
	}
	p, _ := newTestPipeline(t, ext)

	result, err := p.Fetch(context.Background(), "https://www.youtube.com/playlist?list=x", Options{
		RequestID: "req",
	})
	require.NoError(t, err)

	// The failed entry produces no file; later entries keep their own
	// names, tags and positions.
	require.Len(t, result.Files, 2)
	assert.Equal(t, "Alice - First.mp3", filepath.Base(result.Files[0]))
	assert.Equal(t, "Carol - Third.mp3", filepath.Base(result.Files[1]))

	tag, err := id3v2.Open(result.Files[1], id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "Carol", tag.Artist())
	assert.Equal(t, "Third", tag.Title())
	assert.Equal(t, "3/3", tag.GetTextFrame(tag.CommonID("TRCK")).Text)

	data, err := os.ReadFile(result.Files[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "raw audio 3")
}

func TestFetchRejectsUnsupportedURL(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeExtractor{})

	_, err := p.Fetch(context.Background(), "https://soundcloud.com/x", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestFetchNothingFound(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeExtractor{})

	_, err := p.Fetch(context.Background(), "https://youtu.be/abc", Options{RequestID: "req"})
	assert.ErrorIs(t, err, ErrNothingFound)
}

type failingExtractor struct {
	*fakeExtractor
}

func (failingExtractor) Inspect(ctx context.Context, url string) (*extractor.Result, error) {
	return nil, errors.New("extractor broken")
}

type fakeFallback struct {
	result *extractor.Result
}

func (f fakeFallback) Lookup(url string) (*extractor.Result, error) {
	return f.result, nil
}

func TestDescribeUsesFallbackWhenExtractorFails(t *testing.T) {
	p, _ := newTestPipeline(t, failingExtractor{&fakeExtractor{}})
	p.WithMetadataFallback(fakeFallback{result: &extractor.Result{
		Records: []metadata.Record{{Uploader: "Channel", Title: "Song"}},
	}})

	report, err := p.Describe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, "Channel", report.Items[0].Artist)
	assert.Equal(t, "Song", report.Items[0].Track)
}

func TestDescribe(t *testing.T) {
	ext := &fakeExtractor{
		records: []metadata.Record{
			{Artist: metadata.ArtistString("Alice, Bob"), Track: "Song", Album: "LP"},
		},
	}
	p, _ := newTestPipeline(t, ext)

	report, err := p.Describe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, "Alice & Bob", report.Items[0].Artist)
	assert.Equal(t, "Song", report.Items[0].Track)
	assert.Equal(t, "LP", report.Items[0].Album)
}

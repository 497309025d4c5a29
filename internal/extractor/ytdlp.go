package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tunegrab/tunegrab/internal/metadata"
)

// Default timeout for a full download run.
const defaultDownloadTimeout = 30 * time.Minute

// Audio container extensions yt-dlp may produce for bestaudio.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".opus": true,
	".ogg":  true,
	".wav":  true,
	".flac": true,
	".aac":  true,
	".mka":  true,
}

var (
	ErrYtDlpNotAvailable = fmt.Errorf("yt-dlp not available")
	ErrNoEntries         = fmt.Errorf("no entries found")
	ErrNoAudioFiles      = fmt.Errorf("no audio files downloaded")
)

var (
	playlistItemPattern = regexp.MustCompile(`\[download\] Downloading item (\d+) of (\d+)`)
	percentPattern      = regexp.MustCompile(`\[download\]\s+([\d.]+)% of ~?\s*\S+ at\s+(\S+) ETA (\S+)`)
)

// YtDlp drives the yt-dlp binary. It is stateless; per-download state
// such as playlist position lives in the call, never in the struct.
type YtDlp struct {
	binary  string
	timeout time.Duration
}

func NewYtDlp() *YtDlp {
	return &YtDlp{
		binary:  "yt-dlp",
		timeout: defaultDownloadTimeout,
	}
}

// Available checks that yt-dlp is installed and runnable.
func (y *YtDlp) Available() error {
	if err := exec.Command(y.binary, "--version").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrYtDlpNotAvailable, err)
	}
	return nil
}

// ytDlpInfo mirrors the parts of yt-dlp's JSON dump we consume. Artist
// may arrive as a string or a list depending on the extractor backend.
type ytDlpInfo struct {
	Type     string               `json:"_type"`
	Title    string               `json:"title"`
	Track    string               `json:"track"`
	Artist   metadata.ArtistField `json:"artist"`
	Uploader string               `json:"uploader"`
	Album    string               `json:"album"`
	Entries  []ytDlpInfo          `json:"entries"`
}

func (info *ytDlpInfo) record() metadata.Record {
	return metadata.Record{
		Artist:   info.Artist,
		Uploader: info.Uploader,
		Track:    info.Track,
		Title:    info.Title,
		Album:    info.Album,
	}
}

// Probe classifies the URL with a flat playlist extraction: no stream
// resolution, just entry ids and the collection title.
func (y *YtDlp) Probe(ctx context.Context, url string) (*ProbeInfo, error) {
	info, err := y.dumpJSON(ctx, url, true)
	if err != nil {
		return nil, err
	}

	probe := &ProbeInfo{Title: info.Title}
	if info.Type == "playlist" {
		probe.Playlist = true
		probe.EntryCount = len(info.Entries)
	} else {
		probe.EntryCount = 1
	}
	return probe, nil
}

// Inspect returns full raw metadata for every item behind the URL.
func (y *YtDlp) Inspect(ctx context.Context, url string) (*Result, error) {
	info, err := y.dumpJSON(ctx, url, false)
	if err != nil {
		return nil, err
	}

	if info.Type != "playlist" {
		rec := info.record()
		return &Result{Records: []metadata.Record{rec}}, nil
	}

	if len(info.Entries) == 0 {
		return nil, ErrNoEntries
	}

	records := make([]metadata.Record, 0, len(info.Entries))
	for _, entry := range info.Entries {
		records = append(records, entry.record())
	}
	return &Result{
		Records:  records,
		Playlist: &metadata.Playlist{Title: info.Title},
	}, nil
}

func (y *YtDlp) dumpJSON(ctx context.Context, url string, flat bool) (*ytDlpInfo, error) {
	args := []string{"-J", "--no-warnings"}
	if flat {
		args = append(args, "--flat-playlist")
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("extracting metadata", "url", url, "flat", flat)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp metadata extraction failed: %w\nstderr: %s", err, stderr.String())
	}

	var info ytDlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// Download fetches the best audio stream for every item into dir. The
// %(playlist_index)s output prefix records each file's source position,
// so entries skipped by --ignore-errors leave a gap instead of shifting
// later files onto the wrong metadata. Single videos default to 1.
func (y *YtDlp) Download(ctx context.Context, url, dir string, progress ProgressFunc) ([]DownloadedFile, error) {
	if err := y.Available(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	args := []string{
		"--format", "bestaudio/best",
		"--ignore-errors",
		"--no-warnings",
		"--newline",
		"--output", filepath.Join(dir, "%(playlist_index|1)s-%(id)s.%(ext)s"),
		url,
	}

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to yt-dlp output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	slog.Info("download started", "url", url, "dir", dir)

	item, total := 0, 0
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if i, n, ok := parsePlaylistItemLine(line); ok {
			item, total = i, n
			continue
		}
		if progress == nil {
			continue
		}
		if percent, speed, eta, ok := parsePercentLine(line); ok {
			progress(item, total, percent, eta, speed)
		}
	}

	runErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	files, listErr := listDownloadedFiles(dir)
	if listErr != nil {
		return nil, listErr
	}
	if len(files) == 0 {
		if runErr != nil {
			return nil, fmt.Errorf("yt-dlp download failed: %w\nstderr: %s", runErr, stderr.String())
		}
		return nil, ErrNoAudioFiles
	}
	if runErr != nil {
		// --ignore-errors makes yt-dlp exit non-zero when some playlist
		// entries were skipped; keep what we got.
		slog.Warn("download finished with errors", "error", runErr, "files", len(files))
	}

	return files, nil
}

// parsePlaylistItemLine matches yt-dlp's "Downloading item i of n" lines.
func parsePlaylistItemLine(line string) (item, total int, ok bool) {
	m := playlistItemPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	item, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	return item, total, true
}

// parsePercentLine matches yt-dlp's per-fragment progress lines, e.g.
// "[download]  42.3% of 3.45MiB at 512.00KiB/s ETA 00:05".
func parsePercentLine(line string) (percent float64, speed, eta string, ok bool) {
	m := percentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", "", false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", "", false
	}
	return percent, m[2], m[3], true
}

// listDownloadedFiles returns finished audio files in dir with the
// source position parsed from the filename prefix, sorted by position.
func listDownloadedFiles(dir string) ([]DownloadedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read download directory: %w", err)
	}

	var files []DownloadedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExtensions[ext] {
			continue
		}
		prefix, _, found := strings.Cut(entry.Name(), "-")
		index, err := strconv.Atoi(prefix)
		if !found || err != nil || index < 1 {
			slog.Warn("ignoring file without a position prefix", "file", entry.Name())
			continue
		}
		files = append(files, DownloadedFile{
			Index: index,
			Path:  filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Index < files[j].Index })
	return files, nil
}

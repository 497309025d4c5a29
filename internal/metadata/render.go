package metadata

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended when a rendered report runs out of budget.
const TruncationMarker = "... (truncated)"

// Render formats a report as line-oriented text, keeping the total
// length within maxLen characters (a chat message cap counts runes,
// not bytes). Playlist entries are appended one full line at a time;
// once the next line would overflow the budget, a single truncation
// marker line is emitted and rendering stops. An item line is never
// split.
func Render(report Report, maxLen int) string {
	if len(report.Items) == 0 {
		return "Nothing found."
	}

	if !report.IsPlaylist {
		item := report.Items[0]
		lines := []string{
			fmt.Sprintf("**Artist:** %s", item.Artist),
			fmt.Sprintf("**Title:** %s", item.Track),
		}
		if item.Album != "" {
			lines = append(lines, fmt.Sprintf("**Album:** %s", item.Album))
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{
		fmt.Sprintf("**Playlist:** %s", report.PlaylistTitle),
		fmt.Sprintf("**Found %d entries:**", len(report.Items)),
	}
	total := utf8.RuneCountInString(lines[0]) + 1 + utf8.RuneCountInString(lines[1])

	for i, item := range report.Items {
		line := fmt.Sprintf("%d. %s - %s", i+1, item.Track, item.Artist)
		if total+1+utf8.RuneCountInString(line) > maxLen {
			lines = append(lines, TruncationMarker)
			break
		}
		lines = append(lines, line)
		total += 1 + utf8.RuneCountInString(line)
	}
	return strings.Join(lines, "\n")
}

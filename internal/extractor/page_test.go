package extractor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWatchPage(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head>
	<meta property="og:title" content="Some Channel - Cool Song">
	<span itemprop="author">
		<link itemprop="name" content="Some Channel">
	</span>
</head>
<body></body>
</html>`

	rec, err := parseWatchPage(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	assert.Equal(t, "Some Channel - Cool Song", rec.Title)
	assert.Equal(t, "Some Channel", rec.Uploader)
}

func TestParseWatchPageTitleFallback(t *testing.T) {
	html := `<html><head><meta name="title" content="Cool Song"></head></html>`

	rec, err := parseWatchPage(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	assert.Equal(t, "Cool Song", rec.Title)
	assert.Empty(t, rec.Uploader)
}

func TestParseWatchPageNoMetadata(t *testing.T) {
	html := `<html><head><title>nope</title></head><body></body></html>`

	_, err := parseWatchPage(bytes.NewReader([]byte(html)))
	assert.ErrorIs(t, err, ErrPageParse)
}

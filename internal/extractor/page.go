package extractor

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/tunegrab/tunegrab/internal/metadata"
)

const pageUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var ErrPageParse = fmt.Errorf("could not extract metadata from page")

// PageProber scrapes title and channel name from a watch page's markup.
// It is the metadata-only fallback used when yt-dlp is not installed:
// lookups keep working, downloads do not.
type PageProber struct {
	userAgent string
}

func NewPageProber() *PageProber {
	return &PageProber{userAgent: pageUserAgent}
}

// Lookup fetches the watch page and returns a single-record result. A
// page never yields playlist entries; collection URLs need yt-dlp.
func (p *PageProber) Lookup(url string) (*Result, error) {
	c := colly.NewCollector(colly.AllowURLRevisit())

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", p.userAgent)
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var rec metadata.Record
	var parseErr error
	c.OnResponse(func(r *colly.Response) {
		rec, parseErr = parseWatchPage(bytes.NewReader(r.Body))
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	return &Result{Records: []metadata.Record{rec}}, nil
}

// parseWatchPage pulls the video title and channel name out of the
// page's meta tags.
func parseWatchPage(body *bytes.Reader) (metadata.Record, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return metadata.Record{}, fmt.Errorf("failed to parse page: %w", err)
	}

	title := doc.Find(`meta[property="og:title"]`).AttrOr("content", "")
	if title == "" {
		title = doc.Find(`meta[name="title"]`).AttrOr("content", "")
	}

	uploader := doc.Find(`span[itemprop="author"] link[itemprop="name"]`).AttrOr("content", "")
	if uploader == "" {
		uploader = doc.Find(`link[itemprop="name"]`).AttrOr("content", "")
	}

	if title == "" && uploader == "" {
		return metadata.Record{}, ErrPageParse
	}

	return metadata.Record{Title: title, Uploader: uploader}, nil
}

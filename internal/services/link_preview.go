package services

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeloom/internal/utils"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/juju/errors"
)

const (
	previewTimeout  = 10 * time.Second
	maxPreviewBytes = 2 << 20
	previewExcerpt  = 200
)

// LinkPreview is the title and summary shown under a shared link.
type LinkPreview struct {
	Title   string
	Excerpt string
}

// LinkPreviewer fetches a preview for a shared link.
type LinkPreviewer interface {
	Preview(ctx context.Context, link string) (*LinkPreview, error)
}

// PageFetcher extracts previews by downloading the page and running
// readability over it.
type PageFetcher struct {
	client *http.Client
}

func NewPageFetcher(client *http.Client) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: previewTimeout}
	}
	return &PageFetcher{client: client}
}

func (f *PageFetcher) Preview(ctx context.Context, link string) (*LinkPreview, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return nil, errors.NotValidf("link %q", link)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("User-Agent", "CodeLoomBot/1.0 (+link preview)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching %s", link)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching %s: status %d", link, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes))
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", link)
	}

	preview := &LinkPreview{Title: pageTitle(string(body))}
	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err == nil {
		preview.Excerpt = utils.Truncate(utils.StripHTML(article.Content), previewExcerpt)
	}
	if preview.Title == "" && preview.Excerpt == "" {
		return nil, errors.NotFoundf("preview for %s", link)
	}
	return preview, nil
}

// pageTitle prefers og:title over <title>.
func pageTitle(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

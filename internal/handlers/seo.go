package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"codeloom/internal/services"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct {
	articles *services.ArticleService
	siteURL  string
}

func NewSEOHandler(articles *services.ArticleService, siteURL string) *SEOHandler {
	return &SEOHandler{articles: articles, siteURL: strings.TrimSuffix(siteURL, "/")}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /api/
Disallow: /ws

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the home page and the newest 500 articles.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	articles, err := h.articles.Recent(500)
	if err != nil {
		respondError(c, err)
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	fmt.Fprintf(&b, `  <url>
    <loc>%s/</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>1.0</priority>
  </url>
`, h.siteURL, time.Now().UTC().Format("2006-01-02"))

	for _, a := range articles {
		// fresher articles get crawled more often
		age := time.Since(a.PublishedAt).Hours() / 24
		priority, changefreq := 0.6, "weekly"
		if age < 7 {
			priority, changefreq = 0.8, "daily"
		}
		fmt.Fprintf(&b, `  <url>
    <loc>%s/articles/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, h.siteURL, html.EscapeString(a.Slug), a.UpdatedAt.Format("2006-01-02"), changefreq, priority)
	}
	b.WriteString(`</urlset>`)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// RSSFeed publishes the 20 newest articles. Items carry the excerpt only.
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	articles, err := h.articles.Recent(20)
	if err != nil {
		respondError(c, err)
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>CodeLoom</title>
    <link>` + h.siteURL + `</link>
    <description>Articles from the CodeLoom developer community</description>
    <language>pt-BR</language>
    <lastBuildDate>` + time.Now().UTC().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`)
	for _, a := range articles {
		link := fmt.Sprintf("%s/articles/%s", h.siteURL, a.Slug)
		author := ""
		if a.Author != nil {
			author = a.Author.DisplayName
		}
		b.WriteString(`    <item>
      <title>` + html.EscapeString(a.Title) + `</title>
      <link>` + html.EscapeString(link) + `</link>
      <description>` + html.EscapeString(a.Excerpt) + `</description>
      <author>` + html.EscapeString(author) + `</author>
      <category>` + html.EscapeString(a.Category) + `</category>
      <pubDate>` + a.PublishedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + html.EscapeString(link) + `</guid>
    </item>
`)
	}
	b.WriteString(`  </channel>
</rss>`)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

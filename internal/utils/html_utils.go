package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent makes images lazy and turns bare YouTube links into embeds.
func EnhanceHTMLContent(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "http") || strings.Contains(text, " ") {
			return
		}
		if videoID := YouTubeID(text); videoID != "" {
			s.ReplaceWithHtml(`<div class="video-container"><iframe src="https://www.youtube.com/embed/` + videoID + `" frameborder="0" allowfullscreen allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"></iframe></div>`)
		}
	})

	// goquery wraps fragments in html/body, keep only the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}
	return html
}

// YouTubeID extracts the video id from watch or short links, or returns "".
func YouTubeID(link string) string {
	var id string
	switch {
	case strings.Contains(link, "youtube.com/watch?v="):
		id = strings.Split(strings.SplitN(link, "v=", 2)[1], "&")[0]
	case strings.Contains(link, "youtu.be/"):
		id = strings.Split(strings.SplitN(link, "youtu.be/", 2)[1], "?")[0]
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return ""
		}
	}
	return id
}

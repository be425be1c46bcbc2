package utils

import (
	"bytes"
	htmlstd "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy      = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
	// embeds produced by EnhanceHTMLContent
	policy.AllowAttrs("class").OnElements("div")
}

// RenderMarkdown converts article markdown to sanitized HTML.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return stripPolicy.Sanitize(source)
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())
	return EnhanceHTMLContent(string(sanitized))
}

// PlainText renders markdown and drops every tag, collapsing whitespace.
func PlainText(source string) string {
	var buf bytes.Buffer
	text := source
	if err := mdParser.Convert([]byte(source), &buf); err == nil {
		text = buf.String()
	}
	return StripHTML(text)
}

// StripHTML drops every tag and entity from an HTML fragment, collapsing whitespace.
func StripHTML(fragment string) string {
	text := htmlstd.UnescapeString(stripPolicy.Sanitize(fragment))
	return strings.Join(strings.Fields(text), " ")
}

// Truncate cuts s to at most n runes, appending an ellipsis when it cuts.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

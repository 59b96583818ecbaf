package charthub

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote|img)[\s>/]`)

// htmlToMarkdown converts the HTML set description ChartHub serves into
// Markdown for catalog storage. Plain-text input is returned unchanged; if
// conversion fails the tags are stripped instead.
func htmlToMarkdown(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return stripHTML(s)
	}
	return strings.TrimSpace(markdown)
}

// stripHTML removes HTML tags and returns plain text with collapsed whitespace.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		s = htmlTagRegex.ReplaceAllString(s, " ")
		return strings.TrimSpace(collapseWhitespace(html.UnescapeString(s)))
	}

	var buf strings.Builder
	extractText(doc, &buf)
	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}

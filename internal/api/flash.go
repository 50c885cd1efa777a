package api

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// flashMessage returns the text of the first error flash on an HTML page,
// falling back to any flash at all. Empty when the page has none.
func flashMessage(page []byte) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	var first, firstError string
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || !hasClass(n, "alert") {
			continue
		}
		text := strings.Join(strings.Fields(textOf(n)), " ")
		if text == "" {
			continue
		}
		if first == "" {
			first = text
		}
		if firstError == "" && (hasClass(n, "alert-error") || hasClass(n, "alert-danger")) {
			firstError = text
		}
	}
	if firstError != "" {
		return firstError
	}
	return first
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.Contains(" "+a.Val+" ", " "+class+" ") {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
			b.WriteString(" ")
		}
	}
	return b.String()
}

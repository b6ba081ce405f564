package mail

import (
	"bytes"
	stdhtml "html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxTitleRunes = 150

var titlePolicy = bluemonday.StrictPolicy()

// ExtractTitle returns the display-safe <title> text of an HTML document. It
// never panics: a document that cannot be parsed yields ParseErrorTitle and a
// document without a title yields UnknownTitle.
func ExtractTitle(body []byte) (title string) {
	defer func() {
		if r := recover(); r != nil {
			title = ParseErrorTitle
		}
	}()
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ParseErrorTitle
	}
	raw, ok := findTitle(doc)
	if !ok {
		return UnknownTitle
	}
	t := stdhtml.UnescapeString(titlePolicy.Sanitize(raw))
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		return UnknownTitle
	}
	return truncateRunes(t, maxTitleRunes)
}

func findTitle(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return sb.String(), true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t, ok := findTitle(c); ok {
			return t, true
		}
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

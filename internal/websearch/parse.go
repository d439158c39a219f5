package websearch

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/applebridge/internal/models"
)

// skipElements are elements whose subtree never contributes page text.
var skipElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Math:     true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
}

// ParseResults extracts up to limit organic results from a DuckDuckGo HTML
// results page. Redirect links are unwrapped to their target URL and
// results without an http(s) target are skipped.
func ParseResults(page []byte, limit int) []models.SearchResult {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	var out []models.SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if limit > 0 && len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "result__a") {
			if target := unwrapURL(getAttr(n, "href")); target != "" {
				res := models.SearchResult{
					Title: collapse(nodeText(n)),
					URL:   target,
				}
				if container := ancestorWithClass(n, "result"); container != nil {
					if snip := findClass(container, "result__snippet"); snip != nil {
						res.Snippet = collapse(nodeText(snip))
					}
				}
				out = append(out, res)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// unwrapURL resolves DuckDuckGo's /l/?uddg= redirect and protocol-relative links.
func unwrapURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// VisibleText returns the text a reader would see on an HTML page, with
// every whitespace run collapsed to one space.
func VisibleText(page []byte) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return collapse(string(page))
	}
	var buf strings.Builder
	extractText(doc, &buf)
	return collapse(buf.String())
}

func extractText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		buf.WriteByte(' ')
		return
	case html.ElementNode:
		if skipElements[n.DataAtom] || getAttr(n, "aria-hidden") == "true" || hasAttr(n, "hidden") {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	extractText(n, &buf)
	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func ancestorWithClass(n *html.Node, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasClass(p, class) {
			return p
		}
	}
	return nil
}

func findClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

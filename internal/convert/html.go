package convert

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLBackend extracts the text content of block elements from HTML
// renderings; headings and block elements each land on their own line
type HTMLBackend struct{}

// NewHTMLBackend creates an HTML backend
func NewHTMLBackend() *HTMLBackend {
	return &HTMLBackend{}
}

func (b *HTMLBackend) Name() string {
	return "html"
}

func (b *HTMLBackend) Extensions() []string {
	return []string{".html", ".htm"}
}

func (b *HTMLBackend) Convert(r io.Reader, filename string) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "parse", Err: err}
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6",
				"p", "li", "td", "th", "blockquote", "dt", "dd":
				if t := nodeText(n); t != "" {
					lines = append(lines, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return &Document{
		Name:   filename,
		Format: "html",
		Text:   strings.Join(lines, "\n"),
	}, nil
}

// nodeText collects the text nodes under n, whitespace-collapsed
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownBackend flattens Markdown to plain text lines via the
// goldmark AST: headings and paragraphs become single lines, and
// ordered list items get their numbering re-attached so numbered form
// items survive the round trip through list syntax
type MarkdownBackend struct{}

// NewMarkdownBackend creates a Markdown backend
func NewMarkdownBackend() *MarkdownBackend {
	return &MarkdownBackend{}
}

func (b *MarkdownBackend) Name() string {
	return "markdown"
}

func (b *MarkdownBackend) Extensions() []string {
	return []string{".md", ".markdown"}
}

func (b *MarkdownBackend) Convert(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "read", Err: err}
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var lines []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if t := string(node.Text(src)); t != "" {
				lines = append(lines, t)
			}
		case *ast.List:
			lines = append(lines, listLines(node, src)...)
		default:
			if t := blockText(n, src); t != "" {
				lines = append(lines, t)
			}
		}
	}

	return &Document{
		Name:   filename,
		Format: "markdown",
		Text:   strings.Join(lines, "\n"),
	}, nil
}

// listLines renders one list, restoring "N." prefixes on ordered items.
// Markdown renumbers ordered items from the start marker, so the
// emitted numbers follow list position, not the source text.
func listLines(list *ast.List, src []byte) []string {
	var lines []string
	number := list.Start
	if number == 0 {
		number = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		t := blockText(item, src)
		if t == "" {
			continue
		}
		if list.IsOrdered() {
			lines = append(lines, fmt.Sprintf("%d. %s", number, t))
			number++
		} else {
			lines = append(lines, t)
		}
	}
	return lines
}

// blockText returns the flattened source text of a block node. Blocks
// with their own line segments use those; container blocks recurse.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}

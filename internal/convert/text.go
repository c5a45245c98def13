package convert

import (
	"bufio"
	"io"
	"strings"
)

// TextBackend passes plain text through with line ending normalization
type TextBackend struct{}

// NewTextBackend creates a plain text backend
func NewTextBackend() *TextBackend {
	return &TextBackend{}
}

func (b *TextBackend) Name() string {
	return "text"
}

func (b *TextBackend) Extensions() []string {
	return []string{".txt"}
}

func (b *TextBackend) Convert(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var builder strings.Builder
	for scanner.Scan() {
		builder.WriteString(strings.TrimRight(scanner.Text(), "\r"))
		builder.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "read", Err: err}
	}

	return &Document{
		Name:   filename,
		Format: "text",
		Text:   builder.String(),
	}, nil
}

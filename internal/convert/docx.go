package convert

import (
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DocxBackend extracts paragraph text from Word documents. Headings
// are flattened to their own lines; run formatting is discarded.
type DocxBackend struct{}

// NewDocxBackend creates a DOCX backend
func NewDocxBackend() *DocxBackend {
	return &DocxBackend{}
}

func (b *DocxBackend) Name() string {
	return "docx"
}

func (b *DocxBackend) Extensions() []string {
	return []string{".docx"}
}

// Convert spills the stream to a temp file: the library needs a
// ReaderAt with a known size.
func (b *DocxBackend) Convert(r io.Reader, filename string) (*Document, error) {
	tmp, err := os.CreateTemp("", "formintake-docx-*.docx")
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "spool", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, &ConvertError{Backend: b.Name(), Op: "spool", Err: err}
	}

	text, err := b.parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, err
	}

	return &Document{Name: filename, Format: "docx", Text: text}, nil
}

// ConvertFile converts a document already on disk, skipping the spill
func (b *DocxBackend) ConvertFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "open", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "stat", Err: err}
	}

	text, err := b.parse(f, info.Size())
	if err != nil {
		return nil, err
	}

	return &Document{Name: info.Name(), Format: "docx", Text: text}, nil
}

func (b *DocxBackend) parse(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return "", &ConvertError{Backend: b.Name(), Op: "parse", Err: err}
	}

	var builder strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if text := paragraphText(para); text != "" {
			builder.WriteString(text)
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

// paragraphText concatenates the text runs of one paragraph
func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

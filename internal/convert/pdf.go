package convert

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageBreakSeparator joins per-page text so downstream consumers can
// still see page boundaries in the flat text.
const pageBreakSeparator = "\n\n--- Page Break ---\n\n"

// PDFBackend extracts plain text from PDF renderings page by page
type PDFBackend struct {
	maxFileSize int64
	maxTextSize int
}

// NewPDFBackend creates a PDF backend with the specified size cap
func NewPDFBackend(maxFileSize int64) *PDFBackend {
	return &PDFBackend{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

func (b *PDFBackend) Name() string {
	return "pdf"
}

func (b *PDFBackend) Extensions() []string {
	return []string{".pdf"}
}

// Convert spills the stream to a temp file first: the PDF library
// needs a ReadSeeker with a known size.
func (b *PDFBackend) Convert(r io.Reader, filename string) (*Document, error) {
	tmp, err := os.CreateTemp("", "formintake-pdf-*.pdf")
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "spool", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, io.LimitReader(r, b.maxFileSize+1)); err != nil {
		tmp.Close()
		return nil, &ConvertError{Backend: b.Name(), Op: "spool", Err: err}
	}
	tmp.Close()

	doc, err := b.ConvertFile(tmpPath)
	if err != nil {
		return nil, err
	}
	doc.Name = filename
	return doc, nil
}

// ConvertFile extracts text directly from a PDF file on disk
func (b *PDFBackend) ConvertFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "stat", Err: err}
	}
	if info.Size() > b.maxFileSize {
		return nil, &ConvertError{
			Backend: b.Name(),
			Op:      "stat",
			Err: fmt.Errorf("file too large: %d bytes (max: %d bytes)",
				info.Size(), b.maxFileSize),
		}
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "open", Err: err}
	}
	defer f.Close()

	text, err := b.extractText(reader)
	if err != nil {
		return nil, &ConvertError{Backend: b.Name(), Op: "extract", Err: err}
	}

	return &Document{
		Name:   info.Name(),
		Format: "pdf",
		Pages:  reader.NumPage(),
		Text:   text,
	}, nil
}

// extractText walks the pages in order, skipping pages whose text the
// library cannot recover, and stops at the text size cap
func (b *PDFBackend) extractText(reader *pdf.Reader) (string, error) {
	var builder strings.Builder
	totalLength := 0

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}

		if totalLength+len(content) > b.maxTextSize {
			remaining := b.maxTextSize - totalLength
			if remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			break
		}

		builder.WriteString(content)
		totalLength += len(content)

		if pageNum < reader.NumPage() {
			builder.WriteString(pageBreakSeparator)
		}
	}

	text := builder.String()
	if strings.TrimSpace(strings.ReplaceAll(text, "--- Page Break ---", "")) == "" {
		return "", fmt.Errorf("no text content could be extracted")
	}

	return text, nil
}

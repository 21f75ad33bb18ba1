package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDF extracts per-page plain text from an in-memory PDF document.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// ExtractPages returns the text of each page in document order. Pages whose
// text cannot be decoded are skipped; an error is returned only when the
// document cannot be opened or no page yields any text (image-based or
// scanned statements).
func (e *PDF) ExtractPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf: open document: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf: no extractable text; the document may be image-based or scanned")
	}
	return pages, nil
}

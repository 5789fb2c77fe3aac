// Package pdf extracts per-page plain text from PDF files using MuPDF.
package pdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"docqa/internal/domain"
)

// Reader reads page text with go-fitz.
type Reader struct{}

var _ domain.PageReader = (*Reader)(nil)

// NewReader returns a PDF page reader.
func NewReader() *Reader { return &Reader{} }

// ReadPages returns the text of the first maxPages pages, in page order.
// A page whose text cannot be extracted is returned as an empty string so
// page numbering stays intact. maxPages <= 0 reads every page.
func (r *Reader) ReadPages(ctx context.Context, path string, maxPages int) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	pages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

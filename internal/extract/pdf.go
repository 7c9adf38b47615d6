// Package extract pulls plain text out of uploaded PDF files, one string per
// page, for downstream chunking.
package extract

import (
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"geoguru/internal/contextutil"
)

// Pages extracts the plain text of every page in the PDF. Pages whose text
// cannot be extracted yield an empty string rather than failing the whole
// document; scanned or image-only pages commonly hit this.
func Pages(ctx context.Context, r io.ReaderAt, size int64) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.WarnContext(ctx, "failed to extract page text", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}

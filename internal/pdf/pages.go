package pdfutil

import (
	"bytes"
	"errors"
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// ErrEmpty is returned for a zero length input.
var ErrEmpty = errors.New("empty pdf")

// PageCount parses PDF bytes with ledongthuc/pdf and returns the page count.
func PageCount(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, ErrEmpty
	}
	// The parser panics on some malformed cross reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("new pdf reader: %w", err)
	}
	return doc.NumPage(), nil
}

// IsPDF reports whether the content type or leading bytes identify a PDF.
func IsPDF(contentType string, head []byte) bool {
	if contentType == "application/pdf" {
		return true
	}
	return bytes.HasPrefix(head, []byte("%PDF-"))
}

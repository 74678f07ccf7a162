// Package extract turns document files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction indicates the document bytes could not be turned into text.
var ErrExtraction = errors.New("text extraction failed")

// Extractor converts a document file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// PDFExtractor extracts plain text from PDF files.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the PDF at path and returns its concatenated page text,
// trimmed of surrounding whitespace. A missing file surfaces as the
// underlying fs error; unreadable or malformed PDFs as ErrExtraction.
func (e *PDFExtractor) Extract(path string) (text string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return "", statErr
	}

	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: parse %s: %v", ErrExtraction, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrExtraction, path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, path, err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, path, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

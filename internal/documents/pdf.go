// Package documents analyzes uploaded bills and notices (energy, insurance, tax)
// and turns them into findings.
package documents

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 100 * 1024 // 100KB cap for extracted text
	scannedThreshold = 50         // chars per page below which a PDF is considered scanned
)

// Analysis holds the text extracted from one document.
type Analysis struct {
	PageCount int
	Text      string
	Lines     []string
	IsScanned bool
	Error     error
}

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Analyze extracts text from a PDF, or reads data as plain text otherwise.
func Analyze(data []byte) *Analysis {
	if IsPDF(data) {
		return AnalyzePDF(data)
	}
	return AnalyzeText(string(data), 1)
}

// AnalyzePDF extracts text from a PDF. It never panics; failures are reported
// in Analysis.Error with the document marked as scanned.
func AnalyzePDF(data []byte) (result *Analysis) {
	result = &Analysis{PageCount: 1, IsScanned: true}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic during PDF analysis: %v", r)
			result.IsScanned = true
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		result.Error = fmt.Errorf("open PDF reader: %w", err)
		return result
	}

	pages := reader.NumPage()
	if pages < 1 {
		pages = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		result.Error = fmt.Errorf("extract plain text: %w", err)
		result.PageCount = pages
		return result
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		result.Error = fmt.Errorf("read plain text: %w", err)
		result.PageCount = pages
		return result
	}

	return AnalyzeText(string(textBytes), pages)
}

// AnalyzeText splits already-extracted text into trimmed, non-empty lines.
func AnalyzeText(text string, pages int) *Analysis {
	if pages < 1 {
		pages = 1
	}
	if len(text) > maxTextBytes {
		text = text[:maxTextBytes]
	}

	a := &Analysis{
		PageCount: pages,
		Text:      text,
		IsScanned: isLikelyScanned(text, pages),
	}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			a.Lines = append(a.Lines, trimmed)
		}
	}
	return a
}

// isLikelyScanned returns true if the document has very little extractable text per page.
func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	return len(strings.TrimSpace(text))/pages < scannedThreshold
}

// Package extract converts uploaded research documents into text for corpus assembly.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned when a file's extension or declared MIME type is
// outside the upload allow-list. It is an input error, rejected at the boundary.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrExtraction is returned when an allow-listed file cannot be decoded or
// converted. It aborts the whole upload; no partial corpus is ever stored.
var ErrExtraction = errors.New("extraction failed")

// docxMIME is the declared MIME type for Word documents.
const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// allowedMIME maps each allow-listed extension to the MIME types accepted for it.
// The empty string accepts clients that do not declare a type.
var allowedMIME = map[string][]string{
	".md":       {"text/markdown", "text/x-markdown", "text/plain", ""},
	".markdown": {"text/markdown", "text/x-markdown", "text/plain", ""},
	".txt":      {"text/plain", ""},
	".docx":     {docxMIME, "application/octet-stream", ""},
}

// Extractor decodes allow-listed upload files into plain or HTML-tagged text.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// CheckType verifies filename extension and declared MIME type against the
// allow-list (markdown, plain text, docx). Both must agree.
func (e *Extractor) CheckType(filename, mimeType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	accepted, ok := allowedMIME[ext]
	if !ok {
		return fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
	}
	declared := strings.ToLower(strings.TrimSpace(mimeType))
	// Strip any parameters ("text/plain; charset=utf-8").
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	for _, m := range accepted {
		if declared == m {
			return nil
		}
	}
	return fmt.Errorf("%w: %q declared as %q", ErrUnsupportedType, filename, mimeType)
}

// ExtractUpload converts one uploaded file to text. Markdown and plain text pass
// through as UTF-8; docx is converted to an HTML representation that preserves
// hyperlink markup. The filename's extension selects the decoder after CheckType.
func (e *Extractor) ExtractUpload(filename, mimeType string, content []byte) (string, error) {
	if err := e.CheckType(filename, mimeType); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".docx":
		text, err := extractDOCX(content)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrExtraction, filename, err)
		}
		return text, nil
	default:
		return extractPlain(content), nil
	}
}

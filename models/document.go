package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentFormat is the declared format of an uploaded contract.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatDOCX DocumentFormat = "docx"
	FormatText DocumentFormat = "text"
)

// Document represents one uploaded contract. The raw bytes only live for the
// duration of a single upload-analyze cycle; this record points at the stored
// original so it can be re-downloaded later.
type Document struct {
	ID          uuid.UUID      `json:"id"`
	Filename    string         `json:"filename"`
	Format      DocumentFormat `json:"format"`
	Size        int64          `json:"size"`
	StoragePath string         `json:"storage_path,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ParseFormat normalizes a user-supplied format tag.
func ParseFormat(s string) (DocumentFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDOCX, true
	case "text", "txt", "plain":
		return FormatText, true
	}
	return "", false
}

// FormatFromFilename infers the document format from a filename extension.
func FormatFromFilename(name string) (DocumentFormat, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return FormatPDF, true
	case strings.HasSuffix(lower, ".docx"):
		return FormatDOCX, true
	case strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".text"), strings.HasSuffix(lower, ".md"):
		return FormatText, true
	}
	return "", false
}

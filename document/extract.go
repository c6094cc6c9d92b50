package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"clauseguard-backend/models"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat means the declared format is not one we can read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtraction means the document is malformed, corrupt, or carries no
	// usable text layer. Extraction failures are never transient; callers
	// must not retry.
	ErrExtraction = errors.New("failed to extract document text")
)

// Average extracted characters per page below which a PDF is treated as a
// scanned image without a text layer.
const scannedCharsPerPage = 50

// Extract converts raw document bytes into a single normalized UTF-8 string.
func Extract(data []byte, format models.DocumentFormat) (string, error) {
	switch format {
	case models.FormatPDF:
		return extractPDF(data)
	case models.FormatDOCX:
		return extractDOCX(data)
	case models.FormatText:
		return extractText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var parts []string
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page degrades, a fully unreadable
			// document fails via the scanned heuristic below.
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	joined := strings.Join(parts, "\n\n")
	if isProbablyScanned(joined, pageCount) {
		return "", fmt.Errorf("%w: no text layer (scanned document?)", ErrExtraction)
	}
	return NormalizeWhitespace(joined), nil
}

// isProbablyScanned reports whether the average characters per page falls
// below the threshold expected of a born-digital document.
func isProbablyScanned(text string, pageCount int) bool {
	if pageCount <= 0 {
		return true
	}
	return len(text)/pageCount < scannedCharsPerPage
}

// docx paragraph/text elements in the WordprocessingML main document part.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %v", ErrExtraction, err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", ErrExtraction)
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var paragraphs []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				sb.WriteString(t)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return NormalizeWhitespace(strings.Join(paragraphs, "\n\n")), nil
}

func extractText(data []byte) (string, error) {
	// Replace invalid byte sequences rather than failing: plain text uploads
	// routinely arrive in legacy encodings.
	return NormalizeWhitespace(strings.ToValidUTF8(string(data), "�")), nil
}

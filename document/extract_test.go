package document

import (
	"archive/zip"
	"bytes"
	"testing"

	"clauseguard-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var xml bytes.Buffer
	xml.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	xml.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		xml.WriteString(`<w:p><w:r><w:t>`)
		xml.WriteString(p)
		xml.WriteString(`</w:t></w:r></w:p>`)
	}
	xml.WriteString(`</w:body></w:document>`)

	_, err = w.Write(xml.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText(t *testing.T) {
	text, err := Extract([]byte("Hello   contract\r\n\r\n\r\nworld"), models.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Hello contract\n\nworld", text)
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	text, err := Extract([]byte{'o', 'k', 0xff, 0xfe, '!'}, models.FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "ok")
	assert.Contains(t, text, "!")
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract([]byte("data"), models.DocumentFormat("rtf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, []string{
		"1. The supplier shall deliver the goods on time.",
		"2. The buyer shall pay within thirty days.",
	})

	text, err := Extract(data, models.FormatDOCX)
	require.NoError(t, err)
	assert.Contains(t, text, "supplier shall deliver")
	assert.Contains(t, text, "pay within thirty days")
}

func TestExtractDOCXNotAnArchive(t *testing.T) {
	_, err := Extract([]byte("this is not a zip file"), models.FormatDOCX)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Extract(buf.Bytes(), models.FormatDOCX)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.7 garbage that is not a real pdf"), models.FormatPDF)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		format   models.DocumentFormat
		ok       bool
	}{
		{"contract.pdf", models.FormatPDF, true},
		{"Contract.PDF", models.FormatPDF, true},
		{"nda.docx", models.FormatDOCX, true},
		{"terms.txt", models.FormatText, true},
		{"image.png", "", false},
		{"noextension", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			format, ok := models.FormatFromFilename(tc.filename)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.format, format)
			}
		})
	}
}

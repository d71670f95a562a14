package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	res, err := Extract("faq.txt", "text/plain", []byte("How fast is delivery?\n\nUsually   15 minutes.\n"))
	require.NoError(t, err)
	assert.Equal(t, "How fast is delivery?\nUsually 15 minutes.", res.Text)
	assert.Equal(t, 0, res.PageCount)
}

func TestExtractMarkdownByExtension(t *testing.T) {
	res, err := Extract("policy.md", "", []byte("# Refunds\n\nRefunds are processed in 3 days."))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "# Refunds")
	assert.Contains(t, res.Text, "Refunds are processed in 3 days.")
}

func TestExtractEmptyDocument(t *testing.T) {
	_, err := Extract("empty.txt", "text/plain", []byte("   \n \t "))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Extract("empty.txt", "text/plain", nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("photo.png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	// claims pdf, no %PDF- header
	_, err = Extract("fake.pdf", "application/pdf", []byte{0x00, 0x01, 0x02, 0x03, 0x04})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Delivery zones</w:t></w:r></w:p>
    <w:p><w:r><w:t>We deliver within </w:t></w:r><w:r><w:t>5 km.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	res, err := Extract("zones.docx", "", data)
	require.NoError(t, err)
	assert.Equal(t, "Delivery zones\nWe deliver within 5 km.", res.Text)
}

func TestExtractDOCXWithoutDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("other/file.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Extract("broken.docx", "", buf.Bytes())
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestAppendPageTextRuneOffsets(t *testing.T) {
	var (
		builder strings.Builder
		spans   []PageSpan
		runeLen int
	)
	// 中文页：1 rune 占 3 字节，区间必须按 rune 计
	spans, runeLen = appendPageText(&builder, spans, runeLen, 1, "配送范围五公里")
	spans, runeLen = appendPageText(&builder, spans, runeLen, 2, "refunds in 3 days")

	require.Len(t, spans, 2)
	assert.Equal(t, PageSpan{Page: 1, Start: 0, End: 7}, spans[0])
	assert.Equal(t, PageSpan{Page: 2, Start: 8, End: 25}, spans[1])
	assert.Equal(t, len([]rune(builder.String())), runeLen)

	res := &Result{Text: builder.String(), Pages: spans, PageCount: 2}
	assert.Equal(t, 1, res.PageAt(6))
	assert.Equal(t, 2, res.PageAt(8))
}

func TestPageAt(t *testing.T) {
	res := &Result{
		Text: "page one\npage two",
		Pages: []PageSpan{
			{Page: 1, Start: 0, End: 8},
			{Page: 2, Start: 9, End: 17},
		},
		PageCount: 2,
	}
	assert.Equal(t, 1, res.PageAt(0))
	assert.Equal(t, 2, res.PageAt(12))
	assert.Equal(t, 0, res.PageAt(8)) // separator belongs to no page
}

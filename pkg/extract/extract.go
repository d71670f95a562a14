package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document contains no extractable text")
)

// PageSpan 页在全文中占据的字符区间，[Start,End)，偏移按 rune 计，
// 与切片器的偏移口径一致。
type PageSpan struct {
	Page  int
	Start int
	End   int
}

type Result struct {
	Text      string
	Pages     []PageSpan
	PageCount int
}

// PageAt 返回偏移 offset 所在的页码，无页信息时返回 0。
func (r *Result) PageAt(offset int) int {
	for _, span := range r.Pages {
		if offset >= span.Start && offset < span.End {
			return span.Page
		}
	}
	return 0
}

// Extract determines the real file type from magic bytes first, then falls
// back to mime/extension, and extracts plain text.
// Supported: txt/md pass-through, PDF page concatenation, DOCX paragraph join.
func Extract(filename, mimeType string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	var (
		res *Result
		err error
	)
	switch {
	case isPDF(data):
		res, err = extractPDF(data)
	case isZip(data):
		res, err = extractDOCX(data)
	case isProbablyText(data) || mt == "text/plain" || mt == "text/markdown" ||
		ext == ".txt" || ext == ".md" || ext == ".markdown":
		res = &Result{Text: normalize(string(data))}
	case mt == "application/pdf" || ext == ".pdf":
		// claims pdf but missing %PDF- header
		return nil, fmt.Errorf("%w: corrupted pdf %s", ErrUnsupportedFileType, filename)
	case ext == ".docx":
		return nil, fmt.Errorf("%w: corrupted docx %s", ErrUnsupportedFileType, filename)
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, filename, mt)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(res.Text) == "" {
		return nil, ErrEmptyDocument
	}
	return res, nil
}

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	// ZIP local file header: PK\x03\x04
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func isProbablyText(b []byte) bool {
	sample := b
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

// extractPDF 逐页抽取并拼接，记录每页的字符区间。
func extractPDF(data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	var (
		builder strings.Builder
		spans   []PageSpan
		runeLen int
	)
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 单页解析失败跳过，整份文档失败由空文本兜底
			continue
		}
		text = normalize(text)
		if text == "" {
			continue
		}

		spans, runeLen = appendPageText(&builder, spans, runeLen, i, text)
	}

	return &Result{
		Text:      builder.String(),
		Pages:     spans,
		PageCount: pageCount,
	}, nil
}

// appendPageText 把一页文本追加进全文并记录它的 rune 区间，
// 页与页之间用换行分隔。
func appendPageText(builder *strings.Builder, spans []PageSpan, runeLen, page int, text string) ([]PageSpan, int) {
	start := runeLen
	if start > 0 {
		builder.WriteString("\n")
		start++
	}
	builder.WriteString(text)
	runeLen = start + utf8.RuneCountInString(text)
	return append(spans, PageSpan{Page: page, Start: start, End: runeLen}), runeLen
}

// extractDOCX gathers <w:t> runs from word/document.xml, joining paragraphs
// with newlines.
func extractDOCX(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx zip: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("%w: zip is not a docx container", ErrUnsupportedFileType)
	}

	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var (
		paragraphs []string
		current    strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var v string
				_ = dec.DecodeElement(&v, &el)
				current.WriteString(v)
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				if p := normalize(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		}
	}
	if p := normalize(current.String()); p != "" {
		paragraphs = append(paragraphs, p)
	}

	return &Result{Text: strings.Join(paragraphs, "\n")}, nil
}

// normalize 折叠行内空白，保留换行作为段落边界。
func normalize(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

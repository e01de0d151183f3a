package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// FileSource extracts text from an uploaded PDF or plain-text file.
type FileSource struct {
	Filename string
	Data     []byte
}

func (s *FileSource) Extract(ctx context.Context) (string, Meta, error) {
	meta := Meta{Filename: s.Filename}

	var text string
	switch strings.ToLower(filepath.Ext(s.Filename)) {
	case ".pdf":
		var err error
		text, meta.PageCount, err = extractPDF(s.Data)
		if err != nil {
			return "", meta, fmt.Errorf("failed to read PDF %s: %w", s.Filename, err)
		}
	case ".txt":
		text = string(s.Data)
		meta.PageCount = 1
	default:
		return "", meta, ErrUnsupportedFileType
	}

	if strings.TrimSpace(text) == "" {
		return "", meta, ErrEmptyContent
	}
	return text, meta, nil
}

func extractPDF(data []byte) (string, int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	for page := 1; page <= pdfCtx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return "", 0, fmt.Errorf("extract page %d: %w", page, err)
		}
		if r == nil {
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", 0, fmt.Errorf("read page %d: %w", page, err)
		}
		sb.WriteString(fmt.Sprintf("\n--- Page %d ---\n", page))
		sb.WriteString(decodeContentText(string(raw)))
	}
	return sb.String(), pdfCtx.PageCount, nil
}

// Text-showing operators in a decoded content stream: literal strings
// followed by Tj/' /", or arrays followed by TJ.
var (
	tjRe     = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|'|")`)
	tjArrRe  = regexp.MustCompile(`\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	litStrRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
)

// decodeContentText pulls the text arguments of Tj/TJ operators out of
// a page content stream. Layout is approximated: every text operator
// contributes a space-joined run.
func decodeContentText(content string) string {
	var parts []string
	for _, m := range tjRe.FindAllStringSubmatch(content, -1) {
		parts = append(parts, unescapePDFString(m[1]))
	}
	for _, m := range tjArrRe.FindAllStringSubmatch(content, -1) {
		for _, lit := range litStrRe.FindAllStringSubmatch(m[1], -1) {
			parts = append(parts, unescapePDFString(lit[1]))
		}
	}
	return strings.Join(parts, " ") + "\n"
}

func unescapePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

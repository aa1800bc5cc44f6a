package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/yixuan-h/pagemate/internal/chat"
)

// MaxFileSize is the upload ceiling, checked before any read.
const MaxFileSize = 10 << 20 // 10 MiB

var allowedExtensions = map[string]bool{
	"pdf":  true,
	"txt":  true,
	"md":   true,
	"doc":  true,
	"docx": true,
}

// Ingestor validates and decodes user-selected files into text.
type Ingestor struct{}

func New() *Ingestor { return &Ingestor{} }

// Ingest decodes one file. Size and extension are rejected up front; a
// decode failure is tagged as a processing error. Callers keep their
// previous file until Ingest returns successfully, so a bad upload never
// clobbers a good one.
func (i *Ingestor) Ingest(name string, size int64, r io.Reader) (chat.UploadedFile, error) {
	if size > MaxFileSize {
		return chat.UploadedFile{}, chat.E(chat.KindFileTooLarge, "ingest",
			fmt.Errorf("%s is %d bytes, limit is %d", name, size, MaxFileSize))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !allowedExtensions[ext] {
		return chat.UploadedFile{}, chat.E(chat.KindUnsupportedFileType, "ingest",
			fmt.Errorf("extension %q", ext))
	}

	var content string
	var err error
	if ext == "pdf" {
		content, err = extractPDFText(r)
	} else {
		content, err = readText(r)
	}
	if err != nil {
		return chat.UploadedFile{}, chat.E(chat.KindFileProcessing, "ingest", err)
	}

	return chat.UploadedFile{
		Name:      name,
		SizeBytes: size,
		Content:   content,
		Extension: ext,
	}, nil
}

// extractPDFText walks the pages in order and joins their text with a blank
// line between pages.
func extractPDFText(r io.Reader) (_ string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf decode: %v", rec)
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, rd.NumPage())
	for n := 1; n <= rd.NumPage(); n++ {
		p := rd.Page(n)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}

func readText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

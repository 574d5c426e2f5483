// Package extract pulls plain text out of source files for indexing.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is extracted source text with basic file facts.
type Document struct {
	Text     string
	Filename string
	Pages    int
}

// FromFile extracts text from a file based on its extension. PDFs go
// through the pdf reader; everything else is read as plain text.
func FromFile(path string) (Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fromPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Document{Text: string(data), Filename: filepath.Base(path)}, nil
}

func fromPDF(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	body, err := reader.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("extract pdf text %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return Document{}, fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return Document{
		Text:     buf.String(),
		Filename: filepath.Base(path),
		Pages:    reader.NumPage(),
	}, nil
}

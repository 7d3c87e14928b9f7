// Package ingestion builds the retrieval corpus: PDF extraction,
// chunking, embedding and persistence of both the chunk file and the
// vector index.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is one extracted PDF page. Number is 1-based.
type Page struct {
	Source string
	Number int
	Text   string
}

// ReadPDF extracts text from a PDF file, one Page per non-empty page.
// Pages that fail extraction are skipped; labeling PDFs frequently carry
// a malformed page or two and losing one page beats losing the document.
func ReadPDF(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	numPages := reader.NumPage()

	var pages []Page
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, Page{Source: source, Number: pageNum, Text: text})
	}

	return pages, nil
}

// ReadDir extracts pages from every PDF in dir, in sorted file order so
// chunk IDs are deterministic across runs.
func ReadDir(ctx context.Context, dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", dir)
	}

	var pages []Page
	for _, name := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		filePages, err := ReadPDF(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		pages = append(pages, filePages...)
	}

	return pages, nil
}

// Package ingest turns uploaded files into plain text for the pipeline.
// Extraction failures are terminal for the document and never retried.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/pkg/logger_i"
)

var logger = logger_i.NewLogger("Document Extraction ")

type docType int

const (
	pdfDoc docType = iota
	textDoc
	unsupportedDoc
)

// ExtractText reads the file at path and returns its plain text. The file
// extension decides the extractor.
func ExtractText(path string) (string, error) {
	switch getDocType(path) {
	case pdfDoc:
		return extractPDF(path)
	case textDoc:
		return extractDocxTxtRtf(path)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", errs.ErrInvalidInput, filepath.Ext(path))
	}
}

func getDocType(docPath string) docType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return pdfDoc
	case ".docx", ".odt", ".txt", ".rtf":
		return textDoc
	default:
		return unsupportedDoc
	}
}

func extractPDF(path string) (string, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "error", err.Error())
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// keep going, other pages may still parse
			logger.Error("Error parsing page content", "page", i, "Error", err)
			continue
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractDocxTxtRtf reads a .odt, .docx, .rtf or plaintext file and returns
// the content as a string.
func extractDocxTxtRtf(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc", "error", err.Error())
		return "", fmt.Errorf("failed to extract document text: %w", err)
	}
	return text, nil
}

// protectExtract guards a single page parse, the pdf library can hang on
// malformed content streams.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "timeout", page.V)
		return "", errors.New("timeout")
	}
}

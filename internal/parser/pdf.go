package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/lexquest/lexquiz/internal/doctree"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
}

type pdfPage struct {
	text   string
	bounds *doctree.Rect
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "lexquiz-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".pdf"),
		Pages: len(pages),
	}
	for i, page := range pages {
		text := strings.TrimSpace(page.text)
		if text == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title:  fmt.Sprintf("Página %d", i+1),
			Text:   text,
			Page:   i + 1,
			Bounds: page.bounds,
		})
	}
	return tree, nil
}

func extractPDFPages(path string) ([]pdfPage, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []pdfPage
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, pdfPage{})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, pdfPage{})
			continue
		}
		pages = append(pages, pdfPage{text: text, bounds: pageBounds(page)})
	}
	return pages, nil
}

// pageBounds computes the bounding box of the text runs on a page.
func pageBounds(page pdflib.Page) *doctree.Rect {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil
	}
	minX, minY := content.Text[0].X, content.Text[0].Y
	maxX, maxY := minX, minY
	for _, t := range content.Text {
		if t.X < minX {
			minX = t.X
		}
		if t.Y < minY {
			minY = t.Y
		}
		if right := t.X + t.W; right > maxX {
			maxX = right
		}
		if top := t.Y + t.FontSize; top > maxY {
			maxY = top
		}
	}
	return &doctree.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func extractPdftotext(path string) ([]pdfPage, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds. No layout boxes here.
	var pages []pdfPage
	for _, chunk := range strings.Split(string(out), "\f") {
		pages = append(pages, pdfPage{text: chunk})
	}
	return pages, nil
}

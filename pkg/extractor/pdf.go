package extractor

import (
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type pdfPages struct {
	file      *os.File
	reader    *pdf.Reader
	pageCount int
}

// OpenPDF opens a PDF file for first-page text extraction. The file must pass
// pdfcpu's relaxed validation; its page count is taken from pdfcpu.
func OpenPDF(path string) (Pages, error) {
	return openPDF(path, countPages)
}

func openPDF(path string, count func(io.ReadSeeker) (int, error)) (Pages, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	opened := false
	defer func() {
		if opened {
			return
		}
		file.Close()
		if r := recover(); r != nil {
			panic(r)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	pageCount, err := count(file)
	if err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, err
	}

	opened = true
	return &pdfPages{file: file, reader: reader, pageCount: pageCount}, nil
}

func countPages(rs io.ReadSeeker) (int, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(rs, conf)
}

func (p *pdfPages) NumPage() int {
	return p.pageCount
}

func (p *pdfPages) PageText(n int) (string, error) {
	page := p.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *pdfPages) Close() error {
	return p.file.Close()
}

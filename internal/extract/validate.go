package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNotPDF   = errors.New("file is not a valid PDF")
	ErrNoPages  = errors.New("PDF reports no pages")
	ErrEmptyPDF = errors.New("file is empty")
)

var pdfMagic = []byte("%PDF")

// ValidatePDF rejects input before the extraction chain ever runs: the file
// must start with the %PDF signature and open with at least one page.
func ValidatePDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat pdf failed: %w", err)
	}
	if info.Size() == 0 {
		return ErrEmptyPDF
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := f.Read(header); err != nil {
		return fmt.Errorf("read pdf header failed: %w", err)
	}
	if !bytes.Equal(header, pdfMagic) {
		return ErrNotPDF
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	defer file.Close()

	if reader.NumPage() < 1 {
		return ErrNoPages
	}
	return nil
}

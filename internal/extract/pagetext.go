package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageTextStrategy is the guaranteed-fallback step: plain text page by page,
// no structure recovery. The result is wrapped as one synthetic section so
// the chunker still sees markdown, and written to outDir so both strategies
// share the same artifact layout.
type PageTextStrategy struct{}

func NewPageTextStrategy() *PageTextStrategy { return &PageTextStrategy{} }

func (s *PageTextStrategy) Name() string { return "pagetext" }

func (s *PageTextStrategy) Extract(ctx context.Context, pdfPath, outDir string) (string, error) {
	file, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString("# PDF Text Extraction\n\n")
	sb.WriteString("Source: " + filepath.Base(pdfPath) + "\n")

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole document.
			continue
		}
		sb.WriteString(fmt.Sprintf("\n--- Page %d ---\n", i))
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := sb.String()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir failed: %w", err)
	}
	artifact := filepath.Join(outDir, "extracted_text.md")
	if err := os.WriteFile(artifact, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("write extracted text failed: %w", err)
	}
	return out, nil
}

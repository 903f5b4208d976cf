package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Strategy is one method of turning a PDF into markdown text. A strategy
// writes its markdown artifacts under outDir and returns the combined text.
// Returning empty text with a nil error means the strategy ran but found
// nothing; the chain falls through either way.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, pdfPath, outDir string) (string, error)
}

// Result is the outcome of a chain run. Empty Text with Method == "" means
// no strategy produced content ("no content extracted"), which is distinct
// from an extraction error.
type Result struct {
	Text   string
	Method string
}

// Chain tries strategies in order and short-circuits on the first one that
// yields non-empty text.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Extract runs the waterfall. It returns an error only when every strategy
// failed hard; if at least one ran cleanly but found nothing, the result is
// empty and the error nil.
func (c *Chain) Extract(ctx context.Context, pdfPath, outDir string) (Result, error) {
	var lastErr error
	ranClean := false

	for _, s := range c.strategies {
		text, err := s.Extract(ctx, pdfPath, outDir)
		if err != nil {
			log.Printf("extract strategy %s failed: %v", s.Name(), err)
			lastErr = fmt.Errorf("strategy %s: %w", s.Name(), err)
			continue
		}
		ranClean = true
		if strings.TrimSpace(text) != "" {
			return Result{Text: text, Method: s.Name()}, nil
		}
	}

	if !ranClean && lastErr != nil {
		return Result{}, fmt.Errorf("all extraction strategies failed: %w", lastErr)
	}
	return Result{}, nil
}

package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	name string
	text string
	err  error
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(_ context.Context, _, _ string) (string, error) {
	return f.text, f.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	chain := NewChain(
		&fakeStrategy{name: "primary", text: "# Section\nbody"},
		&fakeStrategy{name: "fallback", text: "should not be reached"},
	)

	res, err := chain.Extract(context.Background(), "manual.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Method)
	assert.Equal(t, "# Section\nbody", res.Text)
}

func TestChainFallsBackOnEmptyOutput(t *testing.T) {
	chain := NewChain(
		&fakeStrategy{name: "primary", text: "   "},
		&fakeStrategy{name: "fallback", text: "# PDF Text Extraction\n\npage one"},
	)

	res, err := chain.Extract(context.Background(), "manual.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Method)
	assert.NotEmpty(t, res.Text)
}

func TestChainFallsBackOnError(t *testing.T) {
	chain := NewChain(
		&fakeStrategy{name: "primary", err: errors.New("tool not installed")},
		&fakeStrategy{name: "fallback", text: "plain text"},
	)

	res, err := chain.Extract(context.Background(), "manual.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Method)
}

func TestChainNoContentIsNotAnError(t *testing.T) {
	chain := NewChain(
		&fakeStrategy{name: "primary", err: errors.New("boom")},
		&fakeStrategy{name: "fallback", text: ""},
	)

	res, err := chain.Extract(context.Background(), "manual.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Empty(t, res.Method)
}

func TestChainAllStrategiesFailHard(t *testing.T) {
	chain := NewChain(
		&fakeStrategy{name: "primary", err: errors.New("boom")},
		&fakeStrategy{name: "fallback", err: errors.New("also boom")},
	)

	_, err := chain.Extract(context.Background(), "manual.pdf", t.TempDir())
	assert.Error(t, err)
}

func TestValidatePDFRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf at all"), 0o644))

	err := ValidatePDF(path)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestValidatePDFRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	assert.ErrorIs(t, ValidatePDF(path), ErrEmptyPDF)
}

func TestValidatePDFRejectsMissingFile(t *testing.T) {
	assert.Error(t, ValidatePDF(filepath.Join(t.TempDir(), "missing.pdf")))
}

func TestCollectMarkdownOrdersLexically(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("second"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.md"), []byte("third"), 0o644))

	text := collectMarkdown(dir)
	assert.Equal(t, "first\n\nsecond\n\nthird", text)
}

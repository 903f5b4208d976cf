package chunk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByHeadings(t *testing.T) {
	text := "preamble to be discarded\n" +
		"# Installation\n" +
		"Mount the unit on a flat surface.\n" +
		"## Wiring\n" +
		"Connect the red wire to terminal 1.\n" +
		"Connect the black wire to terminal 2.\n"

	chunks := Split(text)
	require.Len(t, chunks, 2)

	assert.Equal(t, "# Installation", chunks[0].Heading)
	assert.Equal(t, "Mount the unit on a flat surface.", chunks[0].Text)
	assert.Equal(t, "## Wiring", chunks[1].Heading)
	assert.Contains(t, chunks[1].Text, "red wire")
	assert.Contains(t, chunks[1].Text, "black wire")
}

func TestSplitNoHeadingsYieldsSingleChunk(t *testing.T) {
	text := "  just a flat page of text\nwith two lines  \n"

	chunks := Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, FallbackHeading, chunks[0].Heading)
	assert.Equal(t, "just a flat page of text\nwith two lines", chunks[0].Text)
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("   \n\t\n"))
}

func TestSplitDropsEmptySections(t *testing.T) {
	text := "# Empty Section\n\n# Specs\nVoltage: 230V.\n"

	chunks := Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, "# Specs", chunks[0].Heading)
}

func TestSplitNonEmptyInvariant(t *testing.T) {
	inputs := []string{
		"# A\n\n# B\n\n# C\ncontent\n",
		"#\n##\n# Real\nbody\n",
		"# Only Image\n![diagram](img/fig1.png)\n# Tail\n",
	}
	for _, input := range inputs {
		for _, c := range Split(input) {
			hasContent := c.Text != "" || len(c.Images) > 0 || len(c.Tables) > 0
			assert.True(t, hasContent, "chunk %q must carry content", c.Heading)
		}
	}
}

func TestSplitCapturesImages(t *testing.T) {
	text := "# Parts\n" +
		"See ![exploded view](images/parts.png) and ![](images/detail.jpg).\n"

	chunks := Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"images/parts.png", "images/detail.jpg"}, chunks[0].Images)
}

func TestSplitCapturesMultilineTables(t *testing.T) {
	text := "# Specs\n" +
		"<table>\n<tr><td>Voltage</td><td>230V</td></tr>\n</table>\n" +
		"# Next\nafter\n"

	chunks := Split(text)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0].Tables, 1)
	assert.Contains(t, chunks[0].Tables[0], "<tr><td>Voltage</td>")
}

func TestSplitResetsMediaPerSection(t *testing.T) {
	text := "# One\n![a](a.png)\n# Two\n![b](b.png)\nbody\n"

	chunks := Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"a.png"}, chunks[0].Images)
	assert.Equal(t, []string{"b.png"}, chunks[1].Images)
}

func TestSplitDeterministic(t *testing.T) {
	text := "# A\nbody one.\n![x](x.png)\n# B\n<table><tr><td>1</td></tr></table>\n"

	first := Split(text)
	second := Split(text)
	assert.Equal(t, first, second)
}

func TestSplitDirMissingRoot(t *testing.T) {
	chunks := SplitDir(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Empty(t, chunks)
}

func TestSplitDirWalksMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# First\none\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# Second\ntwo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	chunks := SplitDir(dir)
	require.Len(t, chunks, 2)
	assert.Equal(t, "# First", chunks[0].Heading)
	assert.Equal(t, "# Second", chunks[1].Heading)
}

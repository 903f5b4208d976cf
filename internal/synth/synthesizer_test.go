package synth

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manualhub/internal/chunk"
	"manualhub/internal/config"
	"manualhub/internal/index"
)

func newTestSynthesizer() *Synthesizer {
	return NewSynthesizer(config.SynthesisConfig{
		MaxChunkChars:   2000,
		ConfidenceScale: 2.0,
	})
}

func result(heading, text string, relevance float64) index.Result {
	return index.Result{
		Chunk:     chunk.Chunk{Heading: heading, Text: text},
		Relevance: relevance,
	}
}

func TestSynthesizeNoContext(t *testing.T) {
	answer := newTestSynthesizer().Synthesize("how do I service the pump", nil, "Pump Manual")

	assert.Equal(t, noContextMessage, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, answer.Confidence)
}

func TestSynthesizeMaintenanceIntent(t *testing.T) {
	retrieved := []index.Result{
		result("# Maintenance", "Replace the oil filter during each service interval. The housing is blue.", 0.4),
	}
	answer := newTestSynthesizer().Synthesize("what is the maintenance schedule", retrieved, "Pump Manual")

	assert.True(t, strings.HasPrefix(answer.Text, "Based on the documentation, here are the maintenance requirements:"))
	assert.Contains(t, answer.Text, "• Replace the oil filter during each service interval")
	assert.NotContains(t, answer.Text, "housing is blue")
	assert.Equal(t, []string{"Maintenance"}, answer.Sources)
}

func TestSynthesizeIntentPriorityOrder(t *testing.T) {
	// "service" (maintenance) outranks "install" (installation) regardless of
	// word position in the query.
	retrieved := []index.Result{
		result("# Setup", "Mount the unit before the first service.", 0.5),
	}
	answer := newTestSynthesizer().Synthesize("install before service?", retrieved, "Manual")
	assert.True(t, strings.HasPrefix(answer.Text, "Based on the documentation, here are the maintenance requirements:"))
}

func TestSynthesizeCategoryNotFound(t *testing.T) {
	retrieved := []index.Result{
		result("# Overview", "This unit compresses air", 0.5),
	}
	answer := newTestSynthesizer().Synthesize("show the error diagnostics", retrieved, "Manual")
	assert.Equal(t, "No specific troubleshooting information found in the documentation.", answer.Text)
}

func TestSynthesizeCategoryLimit(t *testing.T) {
	var sentences []string
	for i := 0; i < 8; i++ {
		sentences = append(sentences, "Inspection step number "+strings.Repeat("x", i+1))
	}
	retrieved := []index.Result{
		result("# Maintenance", strings.Join(sentences, ". ")+".", 0.5),
	}
	answer := newTestSynthesizer().Synthesize("inspection schedule", retrieved, "Manual")
	assert.Equal(t, 5, strings.Count(answer.Text, "• "))
}

func TestSynthesizeGenericHandler(t *testing.T) {
	retrieved := []index.Result{
		result("# Overview", "The compressor unit weighs 40 kg. The paint is grey.", 0.5),
	}
	answer := newTestSynthesizer().Synthesize("how heavy is the compressor", retrieved, "Manual")

	assert.True(t, strings.HasPrefix(answer.Text, genericHeader))
	assert.Contains(t, answer.Text, "• The compressor unit weighs 40 kg")
	assert.NotContains(t, answer.Text, "paint is grey")
}

func TestSynthesizeGenericIgnoresShortWords(t *testing.T) {
	// "fan" has 3 characters so it must not match; only words longer than 3 do.
	retrieved := []index.Result{
		result("# Overview", "The fan spins clockwise.", 0.5),
	}
	answer := newTestSynthesizer().Synthesize("the fan", retrieved, "Manual")
	assert.Equal(t, genericNotFound, answer.Text)
}

func TestSynthesizeTruncatesLongChunks(t *testing.T) {
	long := strings.Repeat("a", 3000)
	s := newTestSynthesizer()
	context := s.buildContext([]index.Result{result("# Overview", long, 0.5)})

	require.Len(t, context, 2000+len(truncationMarker))
	assert.True(t, strings.HasSuffix(context, truncationMarker))
}

func TestSynthesizeTruncatesOnRuneBoundary(t *testing.T) {
	// A multi-byte rune straddling the limit must be dropped whole, never
	// split into a partial byte sequence.
	s := NewSynthesizer(config.SynthesisConfig{MaxChunkChars: 10, ConfidenceScale: 2.0})
	text := strings.Repeat("a", 9) + "日本語" // rune boundary falls inside 日
	context := s.buildContext([]index.Result{result("# Overview", text, 0.5)})

	require.True(t, utf8.ValidString(context))
	assert.Equal(t, strings.Repeat("a", 9)+truncationMarker, context)
}

func TestConfidenceScaledAndClamped(t *testing.T) {
	s := newTestSynthesizer()

	low := s.confidence([]index.Result{{Relevance: 0.2}, {Relevance: 0.3}})
	assert.InDelta(t, 0.5, low, 1e-9)

	high := s.confidence([]index.Result{{Relevance: 0.9}, {Relevance: 0.8}})
	assert.Equal(t, 1.0, high)
}

func TestConfidenceBounds(t *testing.T) {
	s := newTestSynthesizer()
	for _, scores := range [][]float64{{0}, {1}, {0, 1}, {0.01, 0.02}, {0.5, 0.5, 0.5}} {
		retrieved := make([]index.Result, len(scores))
		for i, score := range scores {
			retrieved[i].Relevance = score
		}
		got := s.confidence(retrieved)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestSourcesFallBackToDocumentName(t *testing.T) {
	retrieved := []index.Result{
		result("# Maintenance", "Service monthly.", 0.5),
		result("", "Unattributed text.", 0.5),
	}
	answer := newTestSynthesizer().Synthesize("maintenance", retrieved, "Pump Manual")
	assert.Equal(t, []string{"Maintenance", "Pump Manual"}, answer.Sources)
}

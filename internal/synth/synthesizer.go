// Package synth turns retrieved manual chunks into a user-facing answer with
// cited sources and a confidence score.
package synth

import (
	"strings"
	"time"
	"unicode/utf8"

	"manualhub/internal/config"
	"manualhub/internal/index"
)

const (
	noContextMessage = "I don't have any relevant documentation to answer your question. Please upload the device documentation first."
	genericNotFound  = "I couldn't find specific information related to your query in the documentation. Please try rephrasing your question or check if the relevant documentation has been uploaded."
	genericHeader    = "Based on the documentation, here's what I found:"

	truncationMarker = "..."

	categorySentenceLimit = 5
	genericSentenceLimit  = 3
	genericMinWordLen     = 3
)

// Answer is the synthesized response for one query.
type Answer struct {
	Text       string        `json:"answer"`
	Sources    []string      `json:"sources"`
	Confidence float64       `json:"confidence"`
	Elapsed    time.Duration `json:"-"`
}

type Synthesizer struct {
	maxChunkChars   int
	confidenceScale float64
}

func NewSynthesizer(cfg config.SynthesisConfig) *Synthesizer {
	return &Synthesizer{
		maxChunkChars:   cfg.MaxChunkChars,
		confidenceScale: cfg.ConfidenceScale,
	}
}

// Synthesize assembles the retrieved chunks into context, routes by query
// intent and scores confidence from the retrieval similarities. fallbackLabel
// cites chunks that carry no heading, typically the document display name.
func (s *Synthesizer) Synthesize(query string, retrieved []index.Result, fallbackLabel string) Answer {
	start := time.Now()

	if len(retrieved) == 0 {
		return Answer{
			Text:       noContextMessage,
			Sources:    []string{},
			Confidence: 0,
			Elapsed:    time.Since(start),
		}
	}

	context := s.buildContext(retrieved)

	var text string
	if category := classifyIntent(query); category != nil {
		text = categoryAnswer(category, context)
	} else {
		text = genericAnswer(query, context)
	}

	return Answer{
		Text:       text,
		Sources:    sourceLabels(retrieved, fallbackLabel),
		Confidence: s.confidence(retrieved),
		Elapsed:    time.Since(start),
	}
}

// buildContext joins chunk bodies with blank lines, truncating each body
// individually so one oversized chunk cannot crowd out the rest.
func (s *Synthesizer) buildContext(retrieved []index.Result) string {
	parts := make([]string, 0, len(retrieved))
	for _, res := range retrieved {
		text := res.Chunk.Text
		if len(text) > s.maxChunkChars {
			cut := s.maxChunkChars
			// Back up to a rune boundary so the cut never leaves a
			// partial UTF-8 sequence before the marker.
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + truncationMarker
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

func categoryAnswer(category *intentCategory, context string) string {
	var selected []string
	for _, sentence := range strings.Split(context, ".") {
		lower := strings.ToLower(sentence)
		for _, keyword := range category.keywords {
			if strings.Contains(lower, keyword) {
				selected = append(selected, strings.TrimSpace(sentence))
				break
			}
		}
		if len(selected) == categorySentenceLimit {
			break
		}
	}
	if len(selected) == 0 {
		return category.notFound
	}
	return bulletList(category.header, selected)
}

func genericAnswer(query, context string) string {
	words := strings.Fields(strings.ToLower(query))

	var selected []string
	for _, sentence := range strings.Split(context, ".") {
		lower := strings.ToLower(sentence)
		for _, word := range words {
			if len(word) > genericMinWordLen && strings.Contains(lower, word) {
				selected = append(selected, strings.TrimSpace(sentence))
				break
			}
		}
		if len(selected) == genericSentenceLimit {
			break
		}
	}
	if len(selected) == 0 {
		return genericNotFound
	}
	return bulletList(genericHeader, selected)
}

func bulletList(header string, sentences []string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, sentence := range sentences {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• ")
		b.WriteString(sentence)
	}
	return b.String()
}

// sourceLabels cites one label per retrieved chunk: its heading stripped of
// markdown markers, or the fallback when the chunk has none.
func sourceLabels(retrieved []index.Result, fallbackLabel string) []string {
	labels := make([]string, 0, len(retrieved))
	for _, res := range retrieved {
		label := strings.TrimSpace(strings.TrimLeft(res.Chunk.Heading, "# "))
		if label == "" {
			label = fallbackLabel
		}
		labels = append(labels, label)
	}
	return labels
}

// confidence averages the retrieval similarities and scales by the configured
// factor, clamped to [0,1]. The scale rewards tight clusters of close matches.
func (s *Synthesizer) confidence(retrieved []index.Result) float64 {
	sum := 0.0
	for _, res := range retrieved {
		sum += res.Relevance
	}
	scaled := sum / float64(len(retrieved)) * s.confidenceScale
	if scaled > 1 {
		return 1
	}
	if scaled < 0 {
		return 0
	}
	return scaled
}

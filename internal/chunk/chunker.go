package chunk

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// FallbackHeading labels the single chunk produced for input that has no
// markdown headings at all.
const FallbackHeading = "PDF Content"

// Chunk is one heading-scoped section of an extracted manual, the atomic
// retrievable unit. Images and Tables keep source order within the section.
type Chunk struct {
	Heading string   `json:"heading"`
	Text    string   `json:"text"`
	Images  []string `json:"images"`
	Tables  []string `json:"tables"`
}

var (
	headingPattern = regexp.MustCompile(`^#+\s*\S`)
	imagePattern   = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)
	tablePattern   = regexp.MustCompile(`(?is)(<table>.*?</table>)`)
)

// Split chunks markdown text by headings. It is a pure function: the same
// input always yields the same chunk sequence.
//
// A line starting with one or more '#' followed by non-empty text opens a
// new chunk; content before the first heading is discarded. If the text has
// no headings, the whole trimmed input becomes one chunk under
// FallbackHeading. A chunk is kept only if it has body text or at least one
// image or table reference.
func Split(text string) []Chunk {
	lines := strings.Split(text, "\n")

	hasHeadings := false
	for _, line := range lines {
		if isHeading(strings.TrimSpace(line)) {
			hasHeadings = true
			break
		}
	}

	if !hasHeadings {
		body := strings.TrimSpace(text)
		if body == "" {
			return nil
		}
		return []Chunk{{Heading: FallbackHeading, Text: body}}
	}

	var (
		chunks  []Chunk
		heading string
		started bool
		content []string
		images  []string
		tables  []string
	)

	flush := func() {
		if !started {
			return
		}
		body := strings.TrimSpace(strings.Join(content, "\n"))
		if body == "" && len(images) == 0 && len(tables) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Heading: heading,
			Text:    body,
			Images:  append([]string(nil), images...),
			Tables:  append([]string(nil), tables...),
		})
	}

	var tableBuf []string
	inTable := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if isHeading(stripped) {
			// A heading inside an unclosed table ends the fragment scan.
			inTable = false
			tableBuf = nil
			flush()
			heading = stripped
			started = true
			content = content[:0]
			images = images[:0]
			tables = tables[:0]
			continue
		}

		for _, m := range imagePattern.FindAllStringSubmatch(line, -1) {
			images = append(images, m[1])
		}

		// <table> fragments may span lines; buffer until the closing tag.
		lower := strings.ToLower(line)
		if !inTable && strings.Contains(lower, "<table>") {
			inTable = true
			tableBuf = tableBuf[:0]
		}
		if inTable {
			tableBuf = append(tableBuf, line)
			if strings.Contains(lower, "</table>") {
				fragment := strings.Join(tableBuf, "\n")
				if m := tablePattern.FindString(fragment); m != "" {
					tables = append(tables, m)
				}
				inTable = false
				tableBuf = nil
			}
		}

		if started {
			content = append(content, line)
		}
	}
	flush()

	return chunks
}

// SplitDir runs Split over every markdown file under root, in lexical path
// order so repeated runs yield the same sequence. A missing root is treated
// as "nothing extracted" and returns an empty slice, never an error.
func SplitDir(root string) []Chunk {
	if _, err := os.Stat(root); err != nil {
		return nil
	}

	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)

	var all []Chunk
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		all = append(all, Split(string(data))...)
	}
	return all
}

func isHeading(stripped string) bool {
	return headingPattern.MatchString(stripped)
}

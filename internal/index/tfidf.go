package index

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"manualhub/internal/chunk"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

type tfidfEntry struct {
	chunk chunk.Chunk
	index int
	terms map[string]float64 // raw term frequency
	norm  float64            // tf-idf vector norm, refreshed on rebuild
}

type tfidfCollection struct {
	meta    CollectionMeta
	created time.Time
	entries []*tfidfEntry
}

// TFIDFIndex is the in-process alternate backend: no server, no embedding
// model. The idf table spans every stored chunk and is rebuilt after each
// insert or delete so scores stay comparable across collections.
type TFIDFIndex struct {
	prefix string

	mu          sync.RWMutex
	collections map[string]*tfidfCollection
	idf         map[string]float64
}

func NewTFIDFIndex(prefix string) *TFIDFIndex {
	return &TFIDFIndex{
		prefix:      prefix,
		collections: make(map[string]*tfidfCollection),
		idf:         make(map[string]float64),
	}
}

func (t *TFIDFIndex) EnsureCollection(_ context.Context, name string, meta CollectionMeta) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.collections[name]; ok {
		return nil
	}
	created := time.Now().UTC()
	if ts, err := time.Parse(time.RFC3339, meta.CreatedAt); err == nil {
		created = ts
	}
	t.collections[name] = &tfidfCollection{meta: meta, created: created}
	return nil
}

func (t *TFIDFIndex) Exists(_ context.Context, name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.collections[name]
	return ok
}

func (t *TFIDFIndex) List(_ context.Context) ([]CollectionInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	infos := make([]CollectionInfo, 0, len(t.collections))
	for name, col := range t.collections {
		display := col.meta.Source
		if display == "" {
			display = DisplayName(t.prefix, name)
		}
		infos = append(infos, CollectionInfo{
			Name:       name,
			PDFName:    display,
			CreatedAt:  col.created,
			ChunkCount: len(col.entries),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (t *TFIDFIndex) Add(_ context.Context, name string, chunks []chunk.Chunk) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	col, ok := t.collections[name]
	if !ok {
		col = &tfidfCollection{created: time.Now().UTC()}
		t.collections[name] = col
	}
	for i, ch := range chunks {
		col.entries = append(col.entries, &tfidfEntry{
			chunk: ch,
			index: i,
			terms: termFrequency(ch.Heading + "\n" + ch.Text),
		})
	}
	t.rebuild()
	return len(chunks), nil
}

func (t *TFIDFIndex) Query(_ context.Context, name, query string, topK int) ([]Result, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	col, ok := t.collections[name]
	if !ok {
		return nil, nil
	}
	return t.rank(col.entries, query, topK), nil
}

func (t *TFIDFIndex) QueryScoped(_ context.Context, deviceID, query string, topK int) ([]Result, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	// Sorted collection order so tied scores rank the same on every call.
	names := make([]string, 0, len(t.collections))
	for name := range t.collections {
		names = append(names, name)
	}
	sort.Strings(names)

	var candidates []*tfidfEntry
	for _, name := range names {
		col := t.collections[name]
		if deviceID != "" && col.meta.DeviceID != deviceID {
			continue
		}
		candidates = append(candidates, col.entries...)
	}
	return t.rank(candidates, query, topK), nil
}

func (t *TFIDFIndex) Delete(_ context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.collections, name)
	t.rebuild()
	return nil
}

// rebuild recomputes document frequencies and cached vector norms over the
// whole store. Caller holds the write lock.
func (t *TFIDFIndex) rebuild() {
	df := make(map[string]float64)
	total := 0.0
	for _, col := range t.collections {
		for _, entry := range col.entries {
			total++
			for term := range entry.terms {
				df[term]++
			}
		}
	}
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+total)/(1+count)) + 1
	}
	t.idf = idf
	for _, col := range t.collections {
		for _, entry := range col.entries {
			entry.norm = t.vectorNorm(entry.terms)
		}
	}
}

func (t *TFIDFIndex) rank(entries []*tfidfEntry, query string, topK int) []Result {
	queryTerms := termFrequency(query)
	queryNorm := t.vectorNorm(queryTerms)

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		score := 0.0
		if queryNorm > 0 && entry.norm > 0 {
			dot := 0.0
			for term, qtf := range queryTerms {
				if dtf, ok := entry.terms[term]; ok {
					weight := t.idf[term]
					dot += qtf * weight * dtf * weight
				}
			}
			score = dot / (queryNorm * entry.norm)
		}
		results = append(results, Result{
			Chunk:      entry.chunk,
			ChunkIndex: entry.index,
			Distance:   1 - score,
			Relevance:  clamp01(score),
		})
	}
	rankResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (t *TFIDFIndex) vectorNorm(terms map[string]float64) float64 {
	sum := 0.0
	for term, tf := range terms {
		w := tf * t.idf[term]
		sum += w * w
	}
	return math.Sqrt(sum)
}

func termFrequency(text string) map[string]float64 {
	terms := make(map[string]float64)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		terms[token]++
	}
	return terms
}

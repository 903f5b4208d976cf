package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"manualhub/internal/chunk"
)

// ChromaStore talks to a Chroma server over its REST API. Embeddings are
// computed client-side through the injected Embedder so query and store
// vectors always come from the same model.
type ChromaStore struct {
	baseURL  string
	prefix   string
	embedder Embedder
	client   *http.Client
}

func NewChromaStore(baseURL, prefix string, embedder Embedder, timeout time.Duration) *ChromaStore {
	return &ChromaStore{
		baseURL:  baseURL,
		prefix:   prefix,
		embedder: embedder,
		client:   &http.Client{Timeout: timeout},
	}
}

type chromaCollection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

func (c *ChromaStore) EnsureCollection(ctx context.Context, name string, meta CollectionMeta) error {
	body := map[string]any{
		"name":          name,
		"get_or_create": true,
		"metadata": map[string]any{
			"created_at": meta.CreatedAt,
			"device_id":  meta.DeviceID,
			"source":     meta.Source,
		},
	}
	var col chromaCollection
	return c.do(ctx, http.MethodPost, "/api/v1/collections", body, &col)
}

func (c *ChromaStore) Exists(ctx context.Context, name string) bool {
	_, err := c.getCollection(ctx, name)
	return err == nil
}

func (c *ChromaStore) List(ctx context.Context) ([]CollectionInfo, error) {
	var cols []chromaCollection
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections", nil, &cols); err != nil {
		return nil, err
	}
	infos := make([]CollectionInfo, 0, len(cols))
	for _, col := range cols {
		info := CollectionInfo{
			Name:      col.Name,
			PDFName:   DisplayName(c.prefix, col.Name),
			CreatedAt: c.collectionCreatedAt(ctx, col),
		}
		info.ChunkCount, _ = c.count(ctx, col.ID)
		infos = append(infos, info)
	}
	return infos, nil
}

// collectionCreatedAt resolves a collection's creation time: collection
// metadata first, then the created_at stamped on a stored record (covers
// collections indexed out of band), then now.
func (c *ChromaStore) collectionCreatedAt(ctx context.Context, col chromaCollection) time.Time {
	if ts, ok := parseCreatedAt(col.Metadata); ok {
		return ts
	}
	if ts, ok := c.firstRecordCreatedAt(ctx, col.ID); ok {
		return ts
	}
	return time.Now().UTC()
}

func (c *ChromaStore) firstRecordCreatedAt(ctx context.Context, colID string) (time.Time, bool) {
	body := map[string]any{
		"limit":   1,
		"include": []string{"metadatas"},
	}
	var resp struct {
		Metadatas []map[string]any `json:"metadatas"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/collections/"+colID+"/get", body, &resp); err != nil {
		return time.Time{}, false
	}
	if len(resp.Metadatas) == 0 {
		return time.Time{}, false
	}
	return parseCreatedAt(resp.Metadatas[0])
}

func (c *ChromaStore) Add(ctx context.Context, name string, chunks []chunk.Chunk) (int, error) {
	col, err := c.getCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Heading + "\n" + ch.Text
	}
	embeddings, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks failed: %w", len(chunks), err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, len(chunks))
	docs := make([]string, len(chunks))
	metas := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		images, _ := json.Marshal(ch.Images)
		tables, _ := json.Marshal(ch.Tables)
		ids[i] = "chunk-" + strconv.Itoa(i)
		docs[i] = ch.Text
		metas[i] = map[string]any{
			"heading":     ch.Heading,
			"images":      string(images),
			"tables":      string(tables),
			"chunk_index": i,
			"created_at":  now,
		}
	}
	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  docs,
		"metadatas":  metas,
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/collections/"+col.ID+"/add", body, nil); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

func (c *ChromaStore) Query(ctx context.Context, name, query string, topK int) ([]Result, error) {
	col, err := c.getCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.queryCollection(ctx, col.ID, query, topK)
}

func (c *ChromaStore) QueryScoped(ctx context.Context, deviceID, query string, topK int) ([]Result, error) {
	var cols []chromaCollection
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections", nil, &cols); err != nil {
		return nil, err
	}
	// Merge in sorted collection order so tied relevances rank the same
	// regardless of the order the server lists collections in.
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	var merged []Result
	for _, col := range cols {
		if deviceID != "" {
			tag, _ := col.Metadata["device_id"].(string)
			if tag != deviceID {
				continue
			}
		}
		results, err := c.queryCollection(ctx, col.ID, query, topK)
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}
	rankResults(merged)
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

func (c *ChromaStore) Delete(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/collections/"+name, nil, nil)
}

func (c *ChromaStore) queryCollection(ctx context.Context, colID, query string, topK int) ([]Result, error) {
	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	body := map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var resp chromaQueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/collections/"+colID+"/query", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(resp.Documents[0]))
	for i, doc := range resp.Documents[0] {
		var res Result
		res.Chunk.Text = doc
		if i < len(resp.Metadatas[0]) {
			meta := resp.Metadatas[0][i]
			res.Chunk.Heading, _ = meta["heading"].(string)
			if raw, ok := meta["images"].(string); ok {
				_ = json.Unmarshal([]byte(raw), &res.Chunk.Images)
			}
			if raw, ok := meta["tables"].(string); ok {
				_ = json.Unmarshal([]byte(raw), &res.Chunk.Tables)
			}
			if idx, ok := meta["chunk_index"].(float64); ok {
				res.ChunkIndex = int(idx)
			}
		}
		if i < len(resp.Distances[0]) {
			res.Distance = resp.Distances[0][i]
		}
		res.Relevance = clamp01(1 - res.Distance)
		results = append(results, res)
	}
	return results, nil
}

func (c *ChromaStore) getCollection(ctx context.Context, name string) (*chromaCollection, error) {
	var col chromaCollection
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections/"+name, nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

func (c *ChromaStore) count(ctx context.Context, colID string) (int, error) {
	var n int
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections/"+colID+"/count", nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *ChromaStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body failed: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("vector store request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("vector store returned %d: %s", resp.StatusCode, truncateBody(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response failed: %w", err)
		}
	}
	return nil
}

func parseCreatedAt(metadata map[string]any) (time.Time, bool) {
	if raw, ok := metadata["created_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func truncateBody(data []byte) string {
	const limit = 256
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestChromaListCreatedAtFallsBackToRecordMetadata(t *testing.T) {
	tagged := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stamped := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []chromaCollection{
			{ID: "id-tagged", Name: "pdf_pump_11111111", Metadata: map[string]any{
				"created_at": tagged.Format(time.RFC3339),
			}},
			{ID: "id-bare", Name: "pdf_crane_22222222"},
		})
	})
	mux.HandleFunc("GET /api/v1/collections/{id}/count", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 4)
	})
	mux.HandleFunc("POST /api/v1/collections/id-bare/get", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"metadatas": []map[string]any{{"created_at": stamped.Format(time.RFC3339)}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewChromaStore(srv.URL, "pdf_", staticEmbedder{}, time.Second)
	infos, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	// Collection metadata wins when present; otherwise the stamp on a
	// stored record is used instead of defaulting to now.
	assert.True(t, infos[0].CreatedAt.Equal(tagged))
	assert.True(t, infos[1].CreatedAt.Equal(stamped))
	assert.Equal(t, "crane", infos[1].PDFName)
}

func TestChromaQueryScopedTiesFollowCollectionOrder(t *testing.T) {
	queryResponse := func(heading string) chromaQueryResponse {
		return chromaQueryResponse{
			IDs:       [][]string{{"chunk-0"}},
			Documents: [][]string{{"pressure relief valve calibration"}},
			Metadatas: [][]map[string]any{{{
				"heading":     heading,
				"chunk_index": float64(0),
			}}},
			Distances: [][]float64{{0.25}},
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections", func(w http.ResponseWriter, _ *http.Request) {
		// Listed in reverse lexical order on purpose.
		writeJSON(w, []chromaCollection{
			{ID: "id-z", Name: "pdf_zeta_22222222"},
			{ID: "id-a", Name: "pdf_alpha_11111111"},
		})
	})
	mux.HandleFunc("POST /api/v1/collections/id-z/query", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, queryResponse("# B"))
	})
	mux.HandleFunc("POST /api/v1/collections/id-a/query", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, queryResponse("# A"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewChromaStore(srv.URL, "pdf_", staticEmbedder{}, time.Second)
	for i := 0; i < 20; i++ {
		results, err := store.QueryScoped(context.Background(), "", "pressure relief valve", 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "# A", results[0].Chunk.Heading)
		assert.Equal(t, "# B", results[1].Chunk.Heading)
	}
}

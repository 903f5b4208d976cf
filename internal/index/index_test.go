package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manualhub/internal/chunk"
)

func TestCollectionNameSlugAndHash(t *testing.T) {
	name := CollectionName("pdf_", "Pump Manual (Rev 2).pdf", "deadbeefcafe0123")
	assert.Equal(t, "pdf_pump_manual_rev_2_deadbeef", name)
}

func TestCollectionNameDistinctContents(t *testing.T) {
	a := CollectionName("pdf_", "manual.pdf", "aaaaaaaa11111111")
	b := CollectionName("pdf_", "manual.pdf", "bbbbbbbb22222222")
	assert.NotEqual(t, a, b)
}

func TestCollectionNameEmptyStem(t *testing.T) {
	name := CollectionName("pdf_", "###.pdf", "deadbeef")
	assert.Equal(t, "pdf_document_deadbeef", name)
}

func TestDisplayNameRoundTrip(t *testing.T) {
	name := CollectionName("pdf_", "pump_manual.pdf", "deadbeefcafe")
	assert.Equal(t, "pump manual", DisplayName("pdf_", name))
}

func TestDisplayNameKeepsHexWordInStem(t *testing.T) {
	// Only the trailing hash is stripped, even when the stem itself ends
	// in an 8-hex-char word.
	name := CollectionName("pdf_", "spec_deadbeef.pdf", "0123456789abcdef")
	require.Equal(t, "pdf_spec_deadbeef_01234567", name)
	assert.Equal(t, "spec deadbeef", DisplayName("pdf_", name))
}

func newTestService() (*Service, *TFIDFIndex) {
	backend := NewTFIDFIndex("pdf_")
	return NewService(backend), backend
}

func testChunks() []chunk.Chunk {
	return []chunk.Chunk{
		{Heading: "# Installation", Text: "Mount the pump on a level surface and torque the bolts."},
		{Heading: "# Maintenance", Text: "Replace the pump filter every month and inspect hoses weekly."},
		{Heading: "# Troubleshooting", Text: "If the motor overheats, check the cooling fan and ventilation."},
	}
}

func TestStoreAndQuery(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	stored, err := svc.Store(ctx, "pdf_pump_deadbeef", CollectionMeta{}, testChunks())
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	results, err := svc.Query(ctx, "pdf_pump_deadbeef", "pump filter replacement", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "# Maintenance", results[0].Chunk.Heading)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Relevance, 0.0)
		assert.LessOrEqual(t, res.Relevance, 1.0)
	}
}

func TestStoreIdempotent(t *testing.T) {
	svc, backend := newTestService()
	ctx := context.Background()

	stored, err := svc.Store(ctx, "pdf_pump_deadbeef", CollectionMeta{}, testChunks())
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	again, err := svc.Store(ctx, "pdf_pump_deadbeef", CollectionMeta{}, testChunks())
	require.NoError(t, err)
	assert.Zero(t, again)

	infos, err := backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 3, infos[0].ChunkCount)
}

func TestQueryMissingCollectionReturnsEmpty(t *testing.T) {
	svc, _ := newTestService()
	results, err := svc.Query(context.Background(), "pdf_absent_00000000", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryScopedFiltersByDevice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Store(ctx, "pdf_pump_aaaaaaaa", CollectionMeta{DeviceID: "pump-7"},
		[]chunk.Chunk{{Heading: "# Pump", Text: "pressure relief valve calibration"}})
	require.NoError(t, err)
	_, err = svc.Store(ctx, "pdf_crane_bbbbbbbb", CollectionMeta{DeviceID: "crane-2"},
		[]chunk.Chunk{{Heading: "# Crane", Text: "pressure relief valve calibration"}})
	require.NoError(t, err)

	results, err := svc.QueryScoped(ctx, "pump-7", "pressure relief valve", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "# Pump", results[0].Chunk.Heading)

	all, err := svc.QueryScoped(ctx, "", "pressure relief valve", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQueryScopedTiesDeterministic(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Identical text under headings that score the same, stored into
	// collections in reverse lexical order. Ties must always come back in
	// sorted collection order, not whatever order the store iterates in.
	const text = "pressure relief valve calibration"
	_, err := svc.Store(ctx, "pdf_zeta_22222222", CollectionMeta{},
		[]chunk.Chunk{{Heading: "# B", Text: text}})
	require.NoError(t, err)
	_, err = svc.Store(ctx, "pdf_alpha_11111111", CollectionMeta{},
		[]chunk.Chunk{{Heading: "# A", Text: text}})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		results, err := svc.QueryScoped(ctx, "", "pressure relief valve", 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "# A", results[0].Chunk.Heading)
		assert.Equal(t, "# B", results[1].Chunk.Heading)
	}
}

func TestRankingStableOnTies(t *testing.T) {
	results := []Result{
		{ChunkIndex: 2, Relevance: 0.5},
		{ChunkIndex: 0, Relevance: 0.5},
		{ChunkIndex: 1, Relevance: 0.9},
	}
	rankResults(results)
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, 0, results[1].ChunkIndex)
	assert.Equal(t, 2, results[2].ChunkIndex)
}

func TestDeleteRemovesCollection(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Store(ctx, "pdf_pump_deadbeef", CollectionMeta{}, testChunks())
	require.NoError(t, err)
	require.True(t, svc.Exists(ctx, "pdf_pump_deadbeef"))

	require.NoError(t, svc.Delete(ctx, "pdf_pump_deadbeef"))
	assert.False(t, svc.Exists(ctx, "pdf_pump_deadbeef"))

	results, err := svc.Query(ctx, "pdf_pump_deadbeef", "pump", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTFIDFIrrelevantQueryScoresZero(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Store(ctx, "pdf_pump_deadbeef", CollectionMeta{}, testChunks())
	require.NoError(t, err)

	results, err := svc.Query(ctx, "pdf_pump_deadbeef", "zzzz qqqq xxxx", 5)
	require.NoError(t, err)
	for _, res := range results {
		assert.Zero(t, res.Relevance)
	}
}

package index

import (
	"context"
	"math"
	"testing"

	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns canned vectors per text, a fixed default otherwise
type fakeProvider struct {
	dim     int
	vectors map[string][]float32
}

func (f *fakeProvider) Dimension() int { return f.dim }

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := f.vectors[text]; ok {
		return append([]float32(nil), vec...), nil
	}
	vec := make([]float32, f.dim)
	vec[0] = 1
	return vec, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func testIndex(vectors [][]float32) *Index {
	meta := make([]Meta, len(vectors))
	for i := range vectors {
		meta[i] = Meta{ID: string(rune('a' + i)), Name: string(rune('a' + i))}
		NormalizeL2(vectors[i])
	}
	return &Index{
		dimension: len(vectors[0]),
		vectors:   vectors,
		meta:      meta,
		logger:    logger.New("index"),
	}
}

func TestNormalizeL2(t *testing.T) {
	vec := NormalizeL2([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-6)

	// Zero vectors cannot be normalized and come back unchanged
	zero := NormalizeL2([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestBuild(t *testing.T) {
	provider := &fakeProvider{dim: 3, vectors: map[string][]float32{
		"현미밥": {1, 0, 0},
		"김치":  {0, 2, 0}, // un-normalized on purpose
	}}
	records := []models.FoodRecord{
		{ID: "r1", Name: "현미밥", Nutrients: models.Nutrients{Kcal: 310, Protein: 6.2}},
		{ID: "r2", Name: "김치", Nutrients: models.Nutrients{Kcal: 15}},
	}

	idx, err := Build(context.Background(), records, provider)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Count())
	assert.Equal(t, 3, idx.Dimension())

	// Metadata follows record order and carries the persisted macros
	assert.Equal(t, "r1", idx.MetaAt(0).ID)
	assert.Equal(t, "현미밥", idx.MetaAt(0).Name)
	assert.Equal(t, 310.0, idx.MetaAt(0).Kcal)
	assert.Equal(t, "r2", idx.MetaAt(1).ID)

	// Stored vectors are unit length even when the provider's are not
	var norm float64
	for _, v := range idx.vectors[1] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestBuildZeroRecords(t *testing.T) {
	provider := &fakeProvider{dim: 3}

	idx, err := Build(context.Background(), nil, provider)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Count())
	assert.Empty(t, idx.Query([]float32{1, 0, 0}, 5))
}

func TestQueryOrdering(t *testing.T) {
	idx := testIndex([][]float32{
		{0, 1, 0},
		{1, 0, 0},
		{0.9, 0.1, 0},
	})

	hits := idx.Query([]float32{1, 0, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].Pos)
	assert.Equal(t, 2, hits[1].Pos)
	assert.Equal(t, 0, hits[2].Pos)
	assert.True(t, hits[0].Score >= hits[1].Score && hits[1].Score >= hits[2].Score)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}

func TestQueryTieBreaksByInsertionOrder(t *testing.T) {
	idx := testIndex([][]float32{
		{0, 1, 0},
		{1, 0, 0},
		{1, 0, 0},
	})

	hits := idx.Query([]float32{1, 0, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, 1, hits[0].Pos)
	assert.Equal(t, 2, hits[1].Pos)
}

func TestQueryTruncation(t *testing.T) {
	idx := testIndex([][]float32{{1, 0}, {0, 1}, {1, 1}})

	assert.Len(t, idx.Query([]float32{1, 0}, 2), 2)
	assert.Len(t, idx.Query([]float32{1, 0}, 10), 3)
	assert.Empty(t, idx.Query([]float32{1, 0}, 0))
}

func TestQueryNormalizesDefensively(t *testing.T) {
	idx := testIndex([][]float32{{1, 0}, {0, 1}})

	normalized := idx.Query([]float32{1, 0}, 1)
	scaled := idx.Query([]float32{42, 0}, 1)
	require.Len(t, scaled, 1)
	assert.Equal(t, normalized[0].Pos, scaled[0].Pos)
	assert.InDelta(t, float64(normalized[0].Score), float64(scaled[0].Score), 1e-6)
}

func TestQueryDimensionMismatch(t *testing.T) {
	idx := testIndex([][]float32{{1, 0}})
	assert.Empty(t, idx.Query([]float32{1, 0, 0}, 1))
}

func TestEncodeLoadRoundtrip(t *testing.T) {
	provider := &fakeProvider{dim: 2, vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0.6, 0.8},
	}}
	records := []models.FoodRecord{
		{ID: "r1", Name: "a", Nutrients: models.Nutrients{Kcal: 100}},
		{ID: "r2", Name: "b", Nutrients: models.Nutrients{Kcal: 200}},
	}

	built, err := Build(context.Background(), records, provider)
	require.NoError(t, err)

	blob, meta, err := built.Encode()
	require.NoError(t, err)

	loaded, err := Load(blob, meta, 2)
	require.NoError(t, err)
	assert.Equal(t, built.Count(), loaded.Count())
	assert.Equal(t, built.Dimension(), loaded.Dimension())
	assert.Equal(t, built.meta, loaded.meta)

	for i := range built.vectors {
		for j := range built.vectors[i] {
			if math.IsNaN(float64(loaded.vectors[i][j])) {
				t.Fatalf("NaN in loaded vector %d", i)
			}
			assert.Equal(t, built.vectors[i][j], loaded.vectors[i][j])
		}
	}

	// Same query, same result on the loaded copy
	query := []float32{0.7, 0.7}
	assert.Equal(t, built.Query(query, 2), loaded.Query(query, 2))
}

func TestLoadDimensionMismatch(t *testing.T) {
	built, err := Build(context.Background(), []models.FoodRecord{{ID: "r1", Name: "a"}}, &fakeProvider{dim: 4})
	require.NoError(t, err)

	blob, meta, err := built.Encode()
	require.NoError(t, err)

	_, err = Load(blob, meta, 8)
	var integrity *IntegrityError
	assert.ErrorAs(t, err, &integrity)
}

func TestLoadCountMismatch(t *testing.T) {
	records := []models.FoodRecord{
		{ID: "r1", Name: "a"}, {ID: "r2", Name: "b"}, {ID: "r3", Name: "c"},
	}
	built, err := Build(context.Background(), records, &fakeProvider{dim: 2})
	require.NoError(t, err)

	blob, _, err := built.Encode()
	require.NoError(t, err)

	// Metadata with fewer entries than stored vectors must be rejected
	shortMeta := []byte(`[{"id":"r1","name":"a"},{"id":"r2","name":"b"}]`)
	_, err = Load(blob, shortMeta, 2)
	var integrity *IntegrityError
	assert.ErrorAs(t, err, &integrity)
}

func TestLoadTruncatedBlob(t *testing.T) {
	built, err := Build(context.Background(), []models.FoodRecord{{ID: "r1", Name: "a"}}, &fakeProvider{dim: 3})
	require.NoError(t, err)

	blob, meta, err := built.Encode()
	require.NoError(t, err)

	var integrity *IntegrityError
	_, err = Load(blob[:len(blob)-2], meta, 3)
	assert.ErrorAs(t, err, &integrity)

	_, err = Load(blob[:4], meta, 3)
	assert.ErrorAs(t, err, &integrity)

	_, err = Load([]byte(`garbage`), meta, 3)
	assert.ErrorAs(t, err, &integrity)
}

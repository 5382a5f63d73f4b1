package matcher_test

import (
	"context"
	"testing"

	"github.com/korjavin/nutritrack/pkg/index"
	"github.com/korjavin/nutritrack/pkg/matcher"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns canned vectors per text; unknown texts get a vector
// far away from every reference food.
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
	vec[f.dim-1] = 1
	return vec, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, _ := f.Embed(ctx, text)
		out[i] = vec
	}
	return out, nil
}

var testRecords = []models.FoodRecord{
	{
		ID:   "r-rice",
		Name: "brown rice",
		Nutrients: models.Nutrients{
			Kcal: 310, Protein: 6.2, Fat: 1.0, Carbs: 66.9,
			Sodium: 8, Potassium: 210, Phosphorus: 135,
		},
	},
	{
		ID:        "r-kimchi",
		Name:      "kimchi",
		Nutrients: models.Nutrients{Kcal: 15, Protein: 1.1, Carbs: 2.4},
	},
}

func newTestMatcher(t *testing.T) (*matcher.Matcher, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{dim: 4, vectors: map[string][]float32{
		"brown rice": {1, 0, 0, 0},
		"kimchi":     {0, 1, 0, 0},
		// A query that is vaguely ricelike but below the 0.3 threshold
		"mystery stew": {0.2, 0.1, 1, 0},
	}}

	idx, err := index.Build(context.Background(), testRecords, provider)
	require.NoError(t, err)

	return matcher.New(provider, idx, testRecords, matcher.DefaultThreshold), provider
}

func TestMatchExact(t *testing.T) {
	m, _ := newTestMatcher(t)

	result, err := m.Match(context.Background(), "brown rice 1 bowl")
	require.NoError(t, err)

	assert.Equal(t, "brown rice 1 bowl", result.Original)
	assert.Equal(t, "brown rice", result.ParsedName)
	require.True(t, result.Matched())
	assert.Equal(t, "r-rice", *result.MatchedID)
	assert.Equal(t, "brown rice", result.MatchedName)
	assert.Equal(t, 1.0, *result.Score)

	// Nutrients are copied from the reference record exactly, all seven keys
	assert.Equal(t, testRecords[0].Nutrients, result.Nutrients)
}

func TestMatchBelowThresholdIsUnmatched(t *testing.T) {
	m, _ := newTestMatcher(t)

	result, err := m.Match(context.Background(), "mystery stew")
	require.NoError(t, err)

	assert.False(t, result.Matched())
	assert.Nil(t, result.MatchedID)
	assert.Nil(t, result.Score)
	assert.Equal(t, models.Nutrients{}, result.Nutrients)
}

func TestFindBestMatchIgnoresThreshold(t *testing.T) {
	m, _ := newTestMatcher(t)

	// The same item that Match rejects still gets its nearest neighbor here
	result, err := m.FindBestMatch(context.Background(), "mystery stew")
	require.NoError(t, err)
	require.True(t, result.Matched())
	assert.Equal(t, "r-rice", *result.MatchedID)
	assert.Less(t, *result.Score, matcher.DefaultThreshold)
}

func TestMatchIsDeterministic(t *testing.T) {
	m, _ := newTestMatcher(t)

	first, err := m.Match(context.Background(), "kimchi 100g")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.Match(context.Background(), "kimchi 100g")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMatchEmptyInputStillQueries(t *testing.T) {
	m, _ := newTestMatcher(t)

	// Empty input is embedded and queried like anything else; with the fake
	// provider it lands far from every food and comes back unmatched.
	result, err := m.Match(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "", result.ParsedName)
	assert.False(t, result.Matched())
}

func TestMatchEmptyIndex(t *testing.T) {
	provider := &fakeProvider{dim: 4}
	idx, err := index.Build(context.Background(), nil, provider)
	require.NoError(t, err)
	m := matcher.New(provider, idx, nil, matcher.DefaultThreshold)

	result, err := m.Match(context.Background(), "brown rice")
	require.NoError(t, err)
	assert.False(t, result.Matched())

	best, err := m.FindBestMatch(context.Background(), "brown rice")
	require.NoError(t, err)
	assert.False(t, best.Matched())
}

func TestSearch(t *testing.T) {
	m, _ := newTestMatcher(t)

	hits, err := m.Search(context.Background(), "brown rice", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "brown rice", hits[0].Name)
	assert.Equal(t, 1.0, hits[0].Score)
	// Search results carry the full profile, not just the persisted macros
	assert.Equal(t, 210.0, hits[0].Nutrients.Potassium)

	// Sub-threshold candidates are filtered out
	hits, err = m.Search(context.Background(), "mystery stew", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNutrientFallbackForUnknownID(t *testing.T) {
	provider := &fakeProvider{dim: 4, vectors: map[string][]float32{
		"brown rice": {1, 0, 0, 0},
	}}
	idx, err := index.Build(context.Background(), testRecords, provider)
	require.NoError(t, err)

	// Matcher built without the catalog, as after loading a stale index:
	// the persisted macros are used and the mg nutrients stay zero.
	m := matcher.New(provider, idx, nil, matcher.DefaultThreshold)

	result, err := m.Match(context.Background(), "brown rice")
	require.NoError(t, err)
	require.True(t, result.Matched())
	assert.Equal(t, 310.0, result.Nutrients.Kcal)
	assert.Equal(t, 66.9, result.Nutrients.Carbs)
	assert.Zero(t, result.Nutrients.Potassium)
}

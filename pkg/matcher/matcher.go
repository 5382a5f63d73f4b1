// Package matcher resolves free-text meal items to reference foods. It wires
// the text normalizer, the embedding provider and the similarity index into a
// single lookup: strip quantity tokens, embed what remains, take the nearest
// neighbors and gate them by a similarity threshold.
package matcher

import (
	"context"
	"fmt"

	"github.com/korjavin/nutritrack/pkg/embedding"
	"github.com/korjavin/nutritrack/pkg/index"
	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/korjavin/nutritrack/pkg/normalize"
)

// Default query parameters for the threshold-gated match path
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.3
)

// Matcher resolves one item string to zero-or-one best reference food
type Matcher struct {
	provider  embedding.Provider
	index     *index.Index
	byID      map[string]models.FoodRecord
	threshold float64
	logger    *logger.Logger
}

// New creates a new matcher over an index and the catalog it was built from.
// The catalog supplies the full nutrient profiles; the index metadata only
// carries the four persisted macros. threshold <= 0 selects the default.
func New(provider embedding.Provider, idx *index.Index, records []models.FoodRecord, threshold float64) *Matcher {
	byID := make(map[string]models.FoodRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Matcher{
		provider:  provider,
		index:     idx,
		byID:      byID,
		threshold: threshold,
		logger:    logger.New("matcher"),
	}
}

// Match resolves an item with the confident, threshold-gated policy: if no
// candidate reaches the similarity threshold the item is unmatched, with
// all-zero nutrients. Unmatched is a normal outcome, not an error.
func (m *Matcher) Match(ctx context.Context, itemText string) (models.MatchResult, error) {
	threshold := m.threshold
	return m.match(ctx, itemText, DefaultTopK, &threshold)
}

// FindBestMatch resolves an item with the best-effort policy: the single
// nearest neighbor is returned regardless of score. Only an empty index
// yields an unmatched result.
func (m *Matcher) FindBestMatch(ctx context.Context, itemText string) (models.MatchResult, error) {
	return m.match(ctx, itemText, 1, nil)
}

func (m *Matcher) match(ctx context.Context, itemText string, topK int, threshold *float64) (models.MatchResult, error) {
	parsed := normalize.Normalize(itemText)

	result := models.MatchResult{
		Original:   itemText,
		ParsedName: parsed,
	}

	vec, err := m.provider.Embed(ctx, parsed)
	if err != nil {
		return result, fmt.Errorf("failed to embed %q: %w", parsed, err)
	}

	hits := m.index.Query(index.NormalizeL2(vec), topK)
	if len(hits) == 0 {
		return result, nil
	}

	best := hits[0]
	score := float64(best.Score)
	if threshold != nil && score < *threshold {
		m.logger.Debug("Best candidate for %q scored %.3f, below threshold %.3f", parsed, score, *threshold)
		return result, nil
	}

	meta := m.index.MetaAt(best.Pos)
	id := meta.ID
	result.MatchedID = &id
	result.MatchedName = meta.Name
	result.Score = &score
	result.Nutrients = m.nutrientsFor(meta)

	if score < 1.0 {
		m.logger.Debug("Matched %q -> %q (score %.3f)", itemText, meta.Name, score)
	}
	return result, nil
}

// Search returns the top-K reference foods similar to a raw query, gated by
// the matcher's threshold. Unlike Match, the query is embedded as-is.
func (m *Matcher) Search(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	vec, err := m.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %q: %w", query, err)
	}

	hits := m.index.Query(index.NormalizeL2(vec), topK)
	results := make([]models.SearchHit, 0, len(hits))
	for _, h := range hits {
		if float64(h.Score) < m.threshold {
			continue
		}
		meta := m.index.MetaAt(h.Pos)
		results = append(results, models.SearchHit{
			Name:      meta.Name,
			Score:     float64(h.Score),
			Nutrients: m.nutrientsFor(meta),
		})
	}
	return results, nil
}

// nutrientsFor returns the full nutrient profile for an index hit. Profiles
// come from the catalog by record id; if the id is unknown (a stale loaded
// index) the four macros persisted in the metadata are used instead.
func (m *Matcher) nutrientsFor(meta index.Meta) models.Nutrients {
	if record, ok := m.byID[meta.ID]; ok {
		return record.Nutrients
	}
	return models.Nutrients{
		Kcal:    meta.Kcal,
		Protein: meta.Protein,
		Fat:     meta.Fat,
		Carbs:   meta.Carbs,
	}
}

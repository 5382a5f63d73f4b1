// Package index implements the in-memory similarity index over the reference
// food database: L2-normalized embedding vectors stored in parallel with
// per-food metadata, queried by cosine similarity (inner product on unit
// vectors). The index is read-only once built or loaded, so concurrent
// queries need no locking.
package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/korjavin/nutritrack/pkg/embedding"
	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/models"
)

// Meta is the per-vector metadata persisted alongside the index blob.
// vectors[i] always describes meta[i].
type Meta struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

// Hit is one query result: the position of a reference food in the metadata
// array and its cosine similarity to the query vector.
type Hit struct {
	Pos   int
	Score float32
}

// Index holds the reference vectors and their parallel metadata
type Index struct {
	dimension int
	vectors   [][]float32
	meta      []Meta
	logger    *logger.Logger
}

// Build embeds every record's name, normalizes the vectors and stores them in
// record order. A zero-record input produces an empty but queryable index.
func Build(ctx context.Context, records []models.FoodRecord, provider embedding.Provider) (*Index, error) {
	log := logger.New("index")

	idx := &Index{
		dimension: provider.Dimension(),
		vectors:   make([][]float32, 0, len(records)),
		meta:      make([]Meta, 0, len(records)),
		logger:    log,
	}

	if len(records) == 0 {
		log.Warn("Building index over zero records; all queries will return empty results")
		return idx, nil
	}

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}

	log.Info("Embedding %d food names...", len(names))
	vectors, err := provider.EmbedBatch(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to embed food names: %w", err)
	}

	for i, vec := range vectors {
		idx.vectors = append(idx.vectors, NormalizeL2(vec))
		idx.meta = append(idx.meta, Meta{
			ID:      records[i].ID,
			Name:    records[i].Name,
			Kcal:    records[i].Nutrients.Kcal,
			Protein: records[i].Nutrients.Protein,
			Fat:     records[i].Nutrients.Fat,
			Carbs:   records[i].Nutrients.Carbs,
		})
	}

	log.Info("Index built: %d vectors, dimension %d", len(idx.vectors), idx.dimension)
	return idx, nil
}

// Query returns up to topK hits ordered by descending cosine similarity,
// ties broken by insertion order. The query vector is normalized defensively,
// so callers may pass un-normalized vectors.
func (idx *Index) Query(vec []float32, topK int) []Hit {
	if len(idx.vectors) == 0 || topK <= 0 {
		return nil
	}
	if len(vec) != idx.dimension {
		idx.logger.Warn("Query vector has dimension %d, index expects %d", len(vec), idx.dimension)
		return nil
	}

	query := NormalizeL2(append([]float32(nil), vec...))

	hits := make([]Hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = Hit{Pos: i, Score: dot(query, v)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Pos < hits[j].Pos
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}

// MetaAt returns the metadata at a query hit position
func (idx *Index) MetaAt(pos int) Meta {
	return idx.meta[pos]
}

// Count returns the number of indexed vectors
func (idx *Index) Count() int {
	return len(idx.vectors)
}

// Dimension returns the vector dimension of the index
func (idx *Index) Dimension() int {
	return idx.dimension
}

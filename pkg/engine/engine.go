// Package engine ties the nutrition resolution pipeline together: the
// embedding provider, the similarity index with its persisted state, the food
// matcher and the aggregator. One engine instance is shared by all requests;
// after Init completes its state is read-only, so concurrent calls are safe
// without locking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/korjavin/nutritrack/pkg/budget"
	"github.com/korjavin/nutritrack/pkg/catalog"
	"github.com/korjavin/nutritrack/pkg/embedding"
	"github.com/korjavin/nutritrack/pkg/index"
	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/matcher"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/korjavin/nutritrack/pkg/nutrition"
	"github.com/korjavin/nutritrack/pkg/snacks"
	"github.com/korjavin/nutritrack/pkg/storage"
)

// Storage keys for the persisted index pair. The blob and the metadata are
// only valid together and are always written in one transaction.
const (
	indexVectorsKey = "foodindex:vectors"
	indexMetaKey    = "foodindex:meta"
)

// ErrNotInitialized is returned when the engine is used before Init
var ErrNotInitialized = errors.New("engine not initialized")

// Engine is the shared nutrition resolution engine
type Engine struct {
	provider  embedding.Provider
	store     *storage.Store
	catalog   []models.FoodRecord
	threshold float64
	logger    *logger.Logger

	initOnce sync.Once
	initErr  error

	index      *index.Index
	matcher    *matcher.Matcher
	aggregator *nutrition.Aggregator
}

// New creates a new engine over a loaded catalog. Call Init before serving.
func New(provider embedding.Provider, store *storage.Store, records []models.FoodRecord, threshold float64) *Engine {
	return &Engine{
		provider:  provider,
		store:     store,
		catalog:   records,
		threshold: threshold,
		logger:    logger.New("engine"),
	}
}

// Init loads the persisted index or rebuilds it from the catalog. It runs at
// most once per process; concurrent callers share the first outcome, so two
// requests can never race to build and persist the same index.
func (e *Engine) Init(ctx context.Context) error {
	e.initOnce.Do(func() {
		e.initErr = e.initialize(ctx)
	})
	return e.initErr
}

func (e *Engine) initialize(ctx context.Context) error {
	idx, err := e.loadIndex()
	if err != nil {
		var integrity *index.IntegrityError
		switch {
		case errors.Is(err, storage.ErrNotFound):
			e.logger.Info("No persisted index found, building from catalog")
		case errors.As(err, &integrity):
			e.logger.Warn("Persisted index rejected (%v), rebuilding from catalog", integrity)
		default:
			return err
		}

		idx, err = e.buildIndex(ctx)
		if err != nil {
			return err
		}
	}

	e.index = idx
	e.matcher = matcher.New(e.provider, idx, e.catalog, e.threshold)
	e.aggregator = nutrition.New(e.matcher)
	e.logger.Info("Engine ready: %d foods indexed, dimension %d", idx.Count(), idx.Dimension())
	return nil
}

// loadIndex fetches and validates the persisted index pair
func (e *Engine) loadIndex() (*index.Index, error) {
	blob, err := e.store.GetRaw(indexVectorsKey)
	if err != nil {
		return nil, err
	}
	meta, err := e.store.GetRaw(indexMetaKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Blob without metadata: the pair is broken, rebuild
			return nil, &index.IntegrityError{Reason: "metadata missing for stored vectors"}
		}
		return nil, err
	}

	idx, err := index.Load(blob, meta, e.provider.Dimension())
	if err != nil {
		return nil, err
	}

	e.logger.Info("Loaded persisted index: %d vectors", idx.Count())
	return idx, nil
}

// buildIndex builds the index from the source catalog and persists it
func (e *Engine) buildIndex(ctx context.Context) (*index.Index, error) {
	if len(e.catalog) == 0 {
		return nil, fmt.Errorf("cannot build index: %w", catalog.ErrEmptyCatalog)
	}

	idx, err := index.Build(ctx, e.catalog, e.provider)
	if err != nil {
		return nil, err
	}

	blob, meta, err := idx.Encode()
	if err != nil {
		return nil, err
	}
	if err := e.store.SetRawPair(indexVectorsKey, blob, indexMetaKey, meta); err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	e.logger.Info("Index persisted: %d vectors", idx.Count())
	return idx, nil
}

// Match resolves one item with the threshold-gated policy
func (e *Engine) Match(ctx context.Context, item string) (models.MatchResult, error) {
	if e.matcher == nil {
		return models.MatchResult{}, ErrNotInitialized
	}
	return e.matcher.Match(ctx, item)
}

// FindBestMatch resolves one item with the best-effort policy
func (e *Engine) FindBestMatch(ctx context.Context, item string) (models.MatchResult, error) {
	if e.matcher == nil {
		return models.MatchResult{}, ErrNotInitialized
	}
	return e.matcher.FindBestMatch(ctx, item)
}

// Aggregate resolves a meal's items and sums their nutrients
func (e *Engine) Aggregate(ctx context.Context, items []string) (models.NutritionTotals, error) {
	if e.aggregator == nil {
		return models.NutritionTotals{}, ErrNotInitialized
	}
	return e.aggregator.Aggregate(ctx, items), nil
}

// EstimateKcal estimates consumed calories for a list of items
func (e *Engine) EstimateKcal(ctx context.Context, items []string) (float64, error) {
	if e.aggregator == nil {
		return 0, ErrNotInitialized
	}
	return e.aggregator.EstimateKcal(ctx, items), nil
}

// Search returns reference foods similar to a raw query
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	if e.matcher == nil {
		return nil, ErrNotInitialized
	}
	return e.matcher.Search(ctx, query, topK)
}

// RecommendSnacks returns the remaining calorie budget for a goal and the
// snack candidates that fit it
func (e *Engine) RecommendSnacks(goal models.Goal, consumedKcal float64, topK int) (float64, []models.FoodRecord) {
	remaining := budget.RemainingKcal(goal, consumedKcal)
	return remaining, snacks.Select(e.catalog, remaining, topK)
}

// Catalog returns the reference food records the engine was built over
func (e *Engine) Catalog() []models.FoodRecord {
	return e.catalog
}

// Package nutrition aggregates nutrient profiles across a meal's items.
package nutrition

import (
	"context"

	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/matcher"
	"github.com/korjavin/nutritrack/pkg/models"
)

// fallbackItemKcal is the placeholder used in the consumed-kcal estimate when
// an item cannot be resolved at all.
const fallbackItemKcal = 300

// Aggregator sums nutrient profiles over meal items via the food matcher
type Aggregator struct {
	matcher *matcher.Matcher
	logger  *logger.Logger
}

// New creates a new nutrition aggregator
func New(m *matcher.Matcher) *Aggregator {
	return &Aggregator{
		matcher: m,
		logger:  logger.New("nutrition"),
	}
}

// Aggregate resolves every item and sums the matched nutrient profiles.
// Unmatched items contribute zero to every nutrient and are recorded
// separately; a failing item never aborts the rest of the batch. Input order
// is preserved in both the matched and unmatched sequences.
func (a *Aggregator) Aggregate(ctx context.Context, items []string) models.NutritionTotals {
	totals := models.NutritionTotals{
		MatchedItems:   make([]models.MatchResult, 0, len(items)),
		UnmatchedItems: make([]string, 0),
	}

	for _, item := range items {
		result, err := a.matcher.Match(ctx, item)
		if err != nil {
			a.logger.Error("Failed to match %q: %v", item, err)
			totals.UnmatchedItems = append(totals.UnmatchedItems, item)
			continue
		}

		if !result.Matched() {
			a.logger.Info("No reference food found for %q", item)
			totals.UnmatchedItems = append(totals.UnmatchedItems, item)
			continue
		}

		totals.Totals.Add(result.Nutrients)
		totals.MatchedItems = append(totals.MatchedItems, result)
	}

	if len(totals.UnmatchedItems) > 0 {
		a.logger.Warn("Matched %d of %d items; unmatched: %v",
			len(totals.MatchedItems), len(items), totals.UnmatchedItems)
	}
	return totals
}

// EstimateKcal returns a best-effort calorie total for a list of items, used
// to estimate already-consumed calories for snack recommendations. Items that
// resolve to nothing count as fallbackItemKcal instead of zero so the
// estimate errs on the safe side.
func (a *Aggregator) EstimateKcal(ctx context.Context, items []string) float64 {
	var total float64
	for _, item := range items {
		result, err := a.matcher.FindBestMatch(ctx, item)
		if err != nil || !result.Matched() {
			a.logger.Warn("No kcal data for %q, using %d kcal placeholder", item, fallbackItemKcal)
			total += fallbackItemKcal
			continue
		}
		total += result.Nutrients.Kcal
	}
	return total
}

// Package snacks selects snack candidates that fit a remaining calorie
// budget. This is intentionally a simple budget-fit filter over the catalog,
// not a nutritional optimization search.
package snacks

import (
	"github.com/korjavin/nutritrack/pkg/models"
)

// DefaultTopK is the default number of snack candidates returned
const DefaultTopK = 5

// Select filters the catalog for snack-eligible records whose calories are
// positive and fit within the remaining budget, in catalog order, truncated
// to topK. A non-positive budget always yields an empty result.
func Select(catalog []models.FoodRecord, remainingKcal float64, topK int) []models.FoodRecord {
	if topK <= 0 {
		topK = DefaultTopK
	}

	candidates := make([]models.FoodRecord, 0, topK)
	for _, record := range catalog {
		if !record.IsSnack() {
			continue
		}
		if record.Nutrients.Kcal <= 0 || record.Nutrients.Kcal > remainingKcal {
			continue
		}
		candidates = append(candidates, record)
		if len(candidates) == topK {
			break
		}
	}
	return candidates
}

package models

import (
	"time"
)

// Nutrients is the nutrient profile tracked for every food record and meal
// total. Sodium, potassium and phosphorus are in mg, the macros in g.
type Nutrients struct {
	Kcal       float64 `json:"kcal"`
	Protein    float64 `json:"protein"`
	Fat        float64 `json:"fat"`
	Carbs      float64 `json:"carbs"`
	Sodium     float64 `json:"sodium"`
	Potassium  float64 `json:"potassium"`
	Phosphorus float64 `json:"phosphorus"`
}

// Add accumulates another nutrient profile into this one
func (n *Nutrients) Add(o Nutrients) {
	n.Kcal += o.Kcal
	n.Protein += o.Protein
	n.Fat += o.Fat
	n.Carbs += o.Carbs
	n.Sodium += o.Sodium
	n.Potassium += o.Potassium
	n.Phosphorus += o.Phosphorus
}

// CategorySnack marks records eligible for snack recommendations.
// It corresponds to the processed-food code in the source catalog.
const CategorySnack = "processed/snack"

// FoodRecord is one reference food from the composition database.
// Records are created at index-build time and never mutated afterwards.
type FoodRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nutrients Nutrients `json:"nutrients"`
	Category  string    `json:"category"`
}

// IsSnack reports whether the record is eligible for snack recommendations
func (r FoodRecord) IsSnack() bool {
	return r.Category == CategorySnack
}

// MatchResult is the outcome of resolving one free-text meal item against
// the reference database. MatchedID and Score are nil when no reference food
// was similar enough; Nutrients is all-zero in that case.
type MatchResult struct {
	Original    string    `json:"original"`
	ParsedName  string    `json:"parsed_name"`
	MatchedID   *string   `json:"matched_record_id"`
	MatchedName string    `json:"matched_name,omitempty"`
	Score       *float64  `json:"similarity_score"`
	Nutrients   Nutrients `json:"nutrients"`
}

// Matched reports whether the item resolved to a reference food
func (r MatchResult) Matched() bool {
	return r.MatchedID != nil
}

// NutritionTotals is the aggregate over one meal's items. MatchedItems and
// UnmatchedItems preserve the input order so callers can explain partial data.
type NutritionTotals struct {
	Totals         Nutrients     `json:"totals"`
	MatchedItems   []MatchResult `json:"matched_items"`
	UnmatchedItems []string      `json:"unmatched_items"`
}

// Goal holds the user's weight target and activity level
// (one of "low", "medium", "high").
type Goal struct {
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	PeriodDays    int     `json:"period_days"`
	ActivityLevel string  `json:"activity_level"`
}

// Meal is one logged meal with its resolved nutrition
type Meal struct {
	ID        string        `json:"id"`
	Date      string        `json:"date"` // YYYY-MM-DD
	Type      string        `json:"type"` // breakfast, lunch, dinner, snack
	Items     []string      `json:"items"`
	Nutrition Nutrients     `json:"nutrition"`
	Matched   []MatchResult `json:"matched_items,omitempty"`
	Unmatched []string      `json:"unmatched_items,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// SearchHit is one result of a free-text food search
type SearchHit struct {
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
	Nutrients Nutrients `json:"nutrition"`
}

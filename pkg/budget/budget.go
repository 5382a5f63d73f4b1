// Package budget derives daily calorie targets from a user's goal.
package budget

import (
	"github.com/korjavin/nutritrack/pkg/models"
)

// Daily kcal-per-kg factors by activity level
const (
	factorLow    = 25
	factorMedium = 30
	factorHigh   = 35
)

// activityFactors maps activity levels to kcal-per-kg factors
var activityFactors = map[string]float64{
	"low":    factorLow,
	"medium": factorMedium,
	"high":   factorHigh,
}

// TargetKcal returns the daily calorie target for a goal: target weight times
// the activity factor. An unrecognized activity level deliberately falls back
// to the medium factor instead of failing.
func TargetKcal(goal models.Goal) float64 {
	factor, ok := activityFactors[goal.ActivityLevel]
	if !ok {
		factor = factorMedium
	}
	return goal.TargetWeight * factor
}

// RemainingKcal returns the calorie budget left after consumption. The result
// may be negative: exceeding the target is meaningful output, and downstream
// snack selection legitimately returns nothing for it.
func RemainingKcal(goal models.Goal, consumedKcal float64) float64 {
	return TargetKcal(goal) - consumedKcal
}

// Package normalize strips quantity and unit annotations from free-text meal
// items so that only the bare food name is left for matching
// (e.g. "현미밥 1공기" -> "현미밥", "brown rice 1 bowl" -> "brown rice").
package normalize

import (
	"regexp"
	"strings"
)

// quantity is the numeric part of an annotation: "1", "0.5", "100"
const quantity = `\d+(?:\.\d+)?`

// unitPatterns are applied in this fixed order on every pass. The unit
// vocabulary covers the count, weight, volume and portion words that appear
// in the reference catalog and in user input.
var unitPatterns = []*regexp.Regexp{
	// Korean count and portion words
	regexp.MustCompile(quantity + `\s*공기`),
	regexp.MustCompile(quantity + `\s*개`),
	regexp.MustCompile(quantity + `\s*컵`),
	regexp.MustCompile(quantity + `\s*큰술`),
	regexp.MustCompile(quantity + `\s*작은술`),
	regexp.MustCompile(quantity + `\s*조각`),
	regexp.MustCompile(quantity + `\s*장`),
	regexp.MustCompile(quantity + `\s*알`),
	// Weight and volume units
	regexp.MustCompile(quantity + `\s*kg\b`),
	regexp.MustCompile(quantity + `\s*g\b`),
	regexp.MustCompile(quantity + `\s*ml\b`),
	// English portion words
	regexp.MustCompile(quantity + `\s*bowls?\b`),
	regexp.MustCompile(quantity + `\s*cups?\b`),
	regexp.MustCompile(quantity + `\s*pieces?\b`),
	regexp.MustCompile(quantity + `\s*slices?\b`),
	regexp.MustCompile(quantity + `\s*servings?\b`),
	regexp.MustCompile(quantity + `\s*tbsp\b`),
	regexp.MustCompile(quantity + `\s*tsp\b`),
}

// Normalize removes quantity/unit annotations and surrounding whitespace from
// a raw meal item. Patterns are applied in a fixed order and the pass repeats
// until nothing more is removed, so stacked annotations ("2 cups 100g") are
// stripped too. Inputs with no annotation come back unchanged apart from
// trimming; Normalize never fails.
func Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	for {
		changed := false
		for _, p := range unitPatterns {
			stripped := strings.TrimSpace(p.ReplaceAllString(name, ""))
			if stripped != name {
				name = stripped
				changed = true
			}
		}
		if !changed {
			return name
		}
	}
}

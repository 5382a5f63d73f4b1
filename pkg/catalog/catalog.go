// Package catalog loads the source-of-truth food composition database that
// the similarity index is built from. The file follows the Korean national
// food DB layout; numeric fields are known to contain inconsistent formatting,
// so parsing is deliberately permissive: anything unparsable becomes 0.0.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/korjavin/nutritrack/pkg/models"
)

// Source catalog field names
const (
	fieldName       = "식품명"
	fieldID         = "식품코드"
	fieldKcal       = "에너지(kcal)"
	fieldProtein    = "단백질(g)"
	fieldFat        = "지방(g)"
	fieldCarbs      = "탄수화물(g)"
	fieldSodium     = "나트륨(mg)"
	fieldPotassium  = "칼륨(mg)"
	fieldPhosphorus = "인(mg)"
	fieldCategory   = "데이터구분코드"
)

// snackCategoryCode marks processed foods in the source catalog
const snackCategoryCode = "P"

// ErrEmptyCatalog is returned when the catalog contains no usable records.
// Without records the index cannot be built, so this is fatal at startup.
var ErrEmptyCatalog = errors.New("food catalog contains no records")

// Load reads and parses the food catalog from a JSON file
func Load(path string) ([]models.FoodRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read food catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes catalog JSON. Both the wrapped form {"records": [...]} and a
// bare record array are accepted.
func Parse(data []byte) ([]models.FoodRecord, error) {
	var wrapped struct {
		Records []map[string]interface{} `json:"records"`
	}
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Records == nil {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse food catalog: %w", err)
		}
	} else {
		raw = wrapped.Records
	}

	records := make([]models.FoodRecord, 0, len(raw))
	for i, item := range raw {
		name := strings.TrimSpace(stringField(item, fieldName))
		if name == "" {
			continue
		}

		id := strings.TrimSpace(stringField(item, fieldID))
		if id == "" {
			id = fmt.Sprintf("food-%05d", i)
		}

		category := strings.TrimSpace(stringField(item, fieldCategory))
		if category == snackCategoryCode {
			category = models.CategorySnack
		}

		records = append(records, models.FoodRecord{
			ID:       id,
			Name:     name,
			Category: category,
			Nutrients: models.Nutrients{
				Kcal:       safeFloat(item[fieldKcal]),
				Protein:    safeFloat(item[fieldProtein]),
				Fat:        safeFloat(item[fieldFat]),
				Carbs:      safeFloat(item[fieldCarbs]),
				Sodium:     safeFloat(item[fieldSodium]),
				Potassium:  safeFloat(item[fieldPotassium]),
				Phosphorus: safeFloat(item[fieldPhosphorus]),
			},
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	return records, nil
}

// stringField returns a field as a string, tolerating numeric JSON values
func stringField(item map[string]interface{}, key string) string {
	switch v := item[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// safeFloat coerces a nutrient value to float64, falling back to 0.0 for
// missing or malformed values. The reference catalog mixes numbers, numeric
// strings and empty strings, and a zero is preferred over a failed load.
func safeFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWrappedRecords(t *testing.T) {
	data := []byte(`{"records": [
		{"식품코드": "D000001", "식품명": "현미밥", "에너지(kcal)": 310, "단백질(g)": 6.2,
		 "지방(g)": 1.0, "탄수화물(g)": 66.9, "나트륨(mg)": 8, "칼륨(mg)": 210,
		 "인(mg)": 135, "데이터구분코드": "D"}
	]}`)

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "D000001", r.ID)
	assert.Equal(t, "현미밥", r.Name)
	assert.Equal(t, "D", r.Category)
	assert.Equal(t, 310.0, r.Nutrients.Kcal)
	assert.Equal(t, 6.2, r.Nutrients.Protein)
	assert.Equal(t, 210.0, r.Nutrients.Potassium)
}

func TestParseBareArray(t *testing.T) {
	data := []byte(`[{"식품명": "김치", "에너지(kcal)": "15"}]`)

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "김치", records[0].Name)
	assert.Equal(t, 15.0, records[0].Nutrients.Kcal)
}

func TestParsePermissiveCoercion(t *testing.T) {
	// Malformed or missing nutrient values become 0.0 rather than failing
	data := []byte(`[{
		"식품명": "이상한음식",
		"에너지(kcal)": " 120.5 ",
		"단백질(g)": "",
		"지방(g)": "n/a",
		"탄수화물(g)": null
	}]`)

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)

	n := records[0].Nutrients
	assert.Equal(t, 120.5, n.Kcal)
	assert.Zero(t, n.Protein)
	assert.Zero(t, n.Fat)
	assert.Zero(t, n.Carbs)
	assert.Zero(t, n.Sodium)
}

func TestParseSnackCategory(t *testing.T) {
	data := []byte(`[
		{"식품명": "쌀과자", "에너지(kcal)": 120, "데이터구분코드": "P"},
		{"식품명": "현미밥", "에너지(kcal)": 310, "데이터구분코드": "D"}
	]`)

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.CategorySnack, records[0].Category)
	assert.True(t, records[0].IsSnack())
	assert.False(t, records[1].IsSnack())
}

func TestParseIDFallback(t *testing.T) {
	data := []byte(`[{"식품명": "밥"}, {"식품명": "국"}]`)

	records, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "food-00000", records[0].ID)
	assert.Equal(t, "food-00001", records[1].ID)
}

func TestParseSkipsNamelessRecords(t *testing.T) {
	data := []byte(`[{"식품명": ""}, {"에너지(kcal)": 100}, {"식품명": "밥"}]`)

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "밥", records[0].Name)
}

func TestParseEmptyCatalog(t *testing.T) {
	_, err := Parse([]byte(`{"records": []}`))
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = Parse([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "food_db.json")
	err := os.WriteFile(path, []byte(`[{"식품명": "밥", "에너지(kcal)": 300}]`), 0o644)
	require.NoError(t, err)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 300.0, records[0].Nutrients.Kcal)
}

package fertilizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

func input(n, p, k, moisture float64, soil entities.SoilType, crop entities.CropType) entities.FertilizerInput {
	return entities.FertilizerInput{Nitrogen: n, Phosphorus: p, Potassium: k, Moisture: moisture, Soil: soil, Crop: crop}
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	assert.Equal(t, 23, tbl.Len())

	e, ok := tbl.Lookup(entities.SoilClay, entities.CropRice)
	require.True(t, ok)
	assert.Equal(t, "Urea", e.Fertilizer)

	_, ok = tbl.Lookup(entities.SoilRed, entities.CropSugarcane)
	assert.False(t, ok)
	_, ok = tbl.Lookup(entities.SoilSandy, entities.CropCotton)
	assert.False(t, ok)
}

func TestTable_LookupReturnsCopy(t *testing.T) {
	tbl := DefaultTable()
	e, ok := tbl.Lookup(entities.SoilClay, entities.CropSugarcane)
	require.True(t, ok)
	require.NotEmpty(t, e.Alternatives)
	e.Alternatives[0] = "mutated"

	again, _ := tbl.Lookup(entities.SoilClay, entities.CropSugarcane)
	assert.Equal(t, "MOP", again.Alternatives[0])
}

func TestParseTable_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "clay: [",
		"unknown soil":  "peat:\n  rice: {fertilizer: Urea}\n",
		"unknown crop":  "clay:\n  potato: {fertilizer: Urea}\n",
		"no fertilizer": "clay:\n  rice: {note: x}\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestAdvisor_TableHit(t *testing.T) {
	a := NewAdvisor(DefaultTable())
	adv := a.Recommend(input(10, 10, 10, 50, entities.SoilBlack, entities.CropCotton))
	assert.Equal(t, entities.AdviceFromTable, adv.Source)
	assert.Equal(t, "Urea", adv.Fertilizer)
	assert.Equal(t, []string{"DAP"}, adv.Alternatives)
	require.Len(t, adv.Notes, 1)
}

func TestAdvisor_TableHitWithMoistureNote(t *testing.T) {
	a := NewAdvisor(DefaultTable())
	adv := a.Recommend(input(60, 40, 40, 10, entities.SoilLoamy, entities.CropWheat))
	assert.Equal(t, entities.AdviceFromTable, adv.Source)
	require.Len(t, adv.Notes, 2)
	assert.Contains(t, adv.Notes[1], "irrigate")
}

func TestAdvisor_MissFallsBackToHeuristic(t *testing.T) {
	a := NewAdvisor(DefaultTable())
	adv := a.Recommend(input(10, 60, 60, 50, entities.SoilRed, entities.CropSugarcane))
	assert.Equal(t, entities.AdviceFromHeuristic, adv.Source)
	assert.Equal(t, Urea, adv.Fertilizer)
}

func TestAdvisor_NilTable(t *testing.T) {
	a := NewAdvisor(nil)
	adv := a.Recommend(input(60, 60, 60, 50, entities.SoilClay, entities.CropRice))
	assert.Equal(t, entities.AdviceFromHeuristic, adv.Source)
	assert.Equal(t, Compost, adv.Fertilizer)
}

func TestHeuristic(t *testing.T) {
	cases := []struct {
		name         string
		n, p, k      float64
		want         string
		alternatives []string
	}{
		{"adequate", 60, 40, 40, Compost, nil},
		{"at target is adequate", 50, 30, 30, Compost, nil},
		{"low nitrogen", 20, 40, 40, Urea, nil},
		{"low phosphorus", 60, 10, 40, DAP, nil},
		{"low potassium", 60, 40, 5, MOP, nil},
		{"low N and P, P worse", 40, 6, 40, "28-28", []string{DAP, Urea}},
		{"low P and K, K worse", 60, 20, 3, "10-26-26", []string{MOP, DAP}},
		{"low N and K", 10, 40, 20, "20-20", []string{Urea, MOP}},
		{"all low", 0, 20, 25, "17-17-17", []string{Urea}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adv := Heuristic(input(tc.n, tc.p, tc.k, 50, entities.SoilRed, entities.CropSugarcane))
			assert.Equal(t, entities.AdviceFromHeuristic, adv.Source)
			assert.Equal(t, tc.want, adv.Fertilizer)
			assert.Equal(t, tc.alternatives, adv.Alternatives)
			assert.NotEmpty(t, adv.Notes)
		})
	}
}

func TestHeuristic_MoistureNotes(t *testing.T) {
	dry := Heuristic(input(60, 40, 40, 5, entities.SoilRed, entities.CropSugarcane))
	require.Len(t, dry.Notes, 2)
	assert.Contains(t, dry.Notes[1], "irrigate")

	wet := Heuristic(input(60, 40, 40, 95, entities.SoilRed, entities.CropSugarcane))
	require.Len(t, wet.Notes, 2)
	assert.Contains(t, wet.Notes[1], "waterlogged")

	normal := Heuristic(input(60, 40, 40, 50, entities.SoilRed, entities.CropSugarcane))
	assert.Len(t, normal.Notes, 1)
}

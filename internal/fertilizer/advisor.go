// Package fertilizer recommends a fertilizer from soil type, crop type and
// nutrient levels. Known soil/crop pairs come from a static table; any other
// pair falls back to nutrient threshold rules.
package fertilizer

import "github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"

type Advisor struct {
	table *Table
}

// NewAdvisor uses table for lookups; a nil table means heuristic only.
func NewAdvisor(table *Table) *Advisor {
	return &Advisor{table: table}
}

// Recommend never fails: table misses use Heuristic.
func (a *Advisor) Recommend(in entities.FertilizerInput) entities.FertilizerAdvice {
	e, ok := a.table.Lookup(in.Soil, in.Crop)
	if !ok {
		return Heuristic(in)
	}
	advice := entities.FertilizerAdvice{
		Fertilizer:   e.Fertilizer,
		Alternatives: e.Alternatives,
		Source:       entities.AdviceFromTable,
	}
	if e.Note != "" {
		advice.Notes = append(advice.Notes, e.Note)
	}
	advice.Notes = append(advice.Notes, moistureNotes(in.Moisture)...)
	return advice
}

package fertilizer

import (
	"sort"
	"strings"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

// Nutrient levels below these targets count as deficient.
const (
	TargetNitrogen   = 50.0
	TargetPhosphorus = 30.0
	TargetPotassium  = 30.0

	DryMoisture = 30.0
	WetMoisture = 80.0
)

const (
	Urea       = "Urea"
	DAP        = "DAP"
	MOP        = "MOP"
	Balanced   = "17-17-17"
	Compost    = "Compost"
	compoundNP = "28-28"
	compoundPK = "10-26-26"
	compoundNK = "20-20"
)

type deficit struct {
	nutrient   string
	straight   string
	relDeficit float64
}

// deficits lists the nutrients below target, most deficient first.
func deficits(in entities.FertilizerInput) []deficit {
	var out []deficit
	check := func(nutrient, straight string, value, target float64) {
		if value < target {
			out = append(out, deficit{nutrient: nutrient, straight: straight, relDeficit: (target - value) / target})
		}
	}
	check("N", Urea, in.Nitrogen, TargetNitrogen)
	check("P", DAP, in.Phosphorus, TargetPhosphorus)
	check("K", MOP, in.Potassium, TargetPotassium)
	sort.SliceStable(out, func(i, j int) bool { return out[i].relDeficit > out[j].relDeficit })
	return out
}

// Heuristic picks a fertilizer from the nutrient levels alone.
func Heuristic(in entities.FertilizerInput) entities.FertilizerAdvice {
	ds := deficits(in)
	advice := entities.FertilizerAdvice{Source: entities.AdviceFromHeuristic}

	switch len(ds) {
	case 0:
		advice.Fertilizer = Compost
		advice.Notes = append(advice.Notes, "Nutrient levels are adequate: maintain them with organic matter.")
	case 1:
		advice.Fertilizer = ds[0].straight
		advice.Notes = append(advice.Notes, lowNote(ds))
	case 2:
		advice.Fertilizer = compoundFor(ds)
		advice.Alternatives = []string{ds[0].straight, ds[1].straight}
		advice.Notes = append(advice.Notes, lowNote(ds))
	default:
		advice.Fertilizer = Balanced
		advice.Alternatives = []string{ds[0].straight}
		advice.Notes = append(advice.Notes, lowNote(ds))
	}
	advice.Notes = append(advice.Notes, moistureNotes(in.Moisture)...)
	return advice
}

func compoundFor(ds []deficit) string {
	has := map[string]bool{}
	for _, d := range ds {
		has[d.nutrient] = true
	}
	switch {
	case has["N"] && has["P"]:
		return compoundNP
	case has["P"] && has["K"]:
		return compoundPK
	default:
		return compoundNK
	}
}

func lowNote(ds []deficit) string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.nutrient)
	}
	return "Low " + strings.Join(names, ", ") + " compared to typical crop needs."
}

func moistureNotes(moisture float64) []string {
	switch {
	case moisture < DryMoisture:
		return []string{"Soil moisture is low: irrigate before applying fertilizer."}
	case moisture > WetMoisture:
		return []string{"Soil is waterlogged: delay application to limit nutrient runoff."}
	}
	return nil
}

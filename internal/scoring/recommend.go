package scoring

import (
	"strings"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

// MaxAlternatives is how many runners-up a recommendation carries.
const MaxAlternatives = 2

// Recommend turns a ranking into a primary crop plus up to MaxAlternatives
// alternatives. The primary never shows up again among the alternatives.
// An empty ranking gives a recommendation without primary.
func Recommend(ranked []entities.ScoredCrop) entities.Recommendation {
	rec := entities.Recommendation{Alternatives: []entities.ScoredCrop{}, Source: entities.SourceLocal}
	if len(ranked) == 0 {
		return rec
	}
	primary := ranked[0]
	rec.Primary = &primary
	rec.Alternatives = pickAlternatives(ranked[1:], primary.Crop)
	return rec
}

// Promote builds a recommendation whose primary is crop, taken from ranked
// with its score; alternatives are the best remaining entries. It reports
// false when crop is not part of the ranking.
func Promote(ranked []entities.ScoredCrop, crop string) (entities.Recommendation, bool) {
	for _, sc := range ranked {
		if strings.EqualFold(sc.Crop, crop) {
			primary := sc
			return entities.Recommendation{
				Primary:      &primary,
				Alternatives: pickAlternatives(ranked, sc.Crop),
				Source:       entities.SourceLocal,
			}, true
		}
	}
	return entities.Recommendation{}, false
}

func pickAlternatives(ranked []entities.ScoredCrop, primary string) []entities.ScoredCrop {
	out := make([]entities.ScoredCrop, 0, MaxAlternatives)
	seen := map[string]bool{strings.ToLower(primary): true}
	for _, sc := range ranked {
		if len(out) == MaxAlternatives {
			break
		}
		k := strings.ToLower(sc.Crop)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, sc)
	}
	return out
}

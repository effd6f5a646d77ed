package scoring

import (
	"math"
	"sort"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

// Normalization scale of each feature, in FeatureVector.Values order.
var scales = [7]float64{
	100, // nitrogen
	100, // phosphorus
	100, // potassium
	30,  // temperature
	100, // humidity
	14,  // ph
	300, // rainfall
}

// Weight of each feature; they sum to 1.
var weights = [7]float64{
	0.20, // nitrogen
	0.15, // phosphorus
	0.15, // potassium
	0.15, // temperature
	0.10, // humidity
	0.15, // ph
	0.10, // rainfall
}

// Similarity scores query against a crop's ideal conditions.
func Similarity(query, ideal entities.FeatureVector) float64 {
	q, r := query.Values(), ideal.Values()
	var diff float64
	for i := range q {
		diff += weights[i] * math.Abs(q[i]-r[i]) / scales[i]
	}
	return 1 - diff
}

// Rank scores every profile and sorts them best first. Equal scores keep
// the order of profiles.
func Rank(query entities.FeatureVector, profiles []entities.CropProfile) []entities.ScoredCrop {
	out := make([]entities.ScoredCrop, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, entities.ScoredCrop{Crop: p.Name, Score: Similarity(query, p.Ideal)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

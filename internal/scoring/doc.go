// Package scoring ranks crops by how closely their ideal growing conditions
// match a plot's FeatureVector.
//
// The score of a crop is
//
//	1 - Σ weight_i * |query_i - ideal_i| / scale_i
//
// over the seven features. A query identical to a profile scores exactly 1;
// nothing is clamped, so a query far enough from a profile scores below 0.
// Rankings are stable: crops with equal scores keep their table order.
package scoring

package world

import "math"

// Satisfaction weights. Wait time dominates; accessibility matters least.
var satisfactionWeights = struct {
	wait, travel, crowding, reliability, coverage, cleanliness, safety, accessibility float64
}{0.20, 0.15, 0.15, 0.15, 0.10, 0.10, 0.10, 0.05}

// OverallSatisfaction folds the factor set into a single 0-100 score. Wait,
// travel and crowding are first converted to higher-is-better scores with
// linear penalties.
func OverallSatisfaction(f SatisfactionFactors) float64 {
	waitScore := math.Max(0, 100-f.WaitTime*5)
	travelScore := math.Max(0, 100-f.TravelTime*2)
	crowdingScore := (1 - f.Crowding) * 100
	coverageScore := f.Coverage * 100

	w := satisfactionWeights
	return waitScore*w.wait +
		travelScore*w.travel +
		crowdingScore*w.crowding +
		f.Reliability*w.reliability +
		coverageScore*w.coverage +
		f.Cleanliness*w.cleanliness +
		f.Safety*w.safety +
		f.Accessibility*w.accessibility
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// finiteOr replaces NaN/Inf with a fallback so a degenerate ratio can never
// reach persisted state.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

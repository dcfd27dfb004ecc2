package style

import "math"

const (
	learningRateFloor = 0.05
	learningRateBase  = 0.3
	learningRateDecay = 0.9
	learningRateHalfLife = 10.0

	sessionCap = 0.01
)

// LearningRate decays the adaptation rate as the user's cumulative
// interaction count n grows, so early impressions move the style profile
// quickly while a long history of feedback stabilizes it.
func LearningRate(n int) float64 {
	rate := learningRateBase * math.Pow(learningRateDecay, float64(n)/learningRateHalfLife)
	if rate < learningRateFloor {
		return learningRateFloor
	}
	return rate
}

// SessionCap bounds the absolute change any single dimension may undergo in
// one session: a highly engaged session earns a smaller per-update cap
// (since many small updates will accumulate) while a barely-engaged session
// is capped more generously per update.
func SessionCap(sessionEngagement float64) float64 {
	denom := sessionEngagement
	if denom < 0.01 {
		denom = 0.01
	}
	return sessionCap / denom
}

// ClampDelta bounds delta to ±limit.
func ClampDelta(delta, limit float64) float64 {
	if delta > limit {
		return limit
	}
	if delta < -limit {
		return -limit
	}
	return delta
}

package style

// Bound is an allowed range for one ethical dimension, with a human-readable
// description surfaced when a violation is reported.
type Bound struct {
	Dimension   string
	Min         float64
	Max         float64
	Description string
}

// bounds is the closed table of dimensions checked before an AI draft is
// finalized. Each bound is one-sided in practice (only Min or only Max is
// meaningful) but both are carried so the violation check stays uniform.
var bounds = []Bound{
	{Dimension: "manipulation_score", Min: 0, Max: 0.3, Description: "draft should not use manipulative persuasion tactics"},
	{Dimension: "sycophancy", Min: 0, Max: 0.4, Description: "draft should not be excessively agreeable or flattering"},
	{Dimension: "authenticity", Min: 0.6, Max: 1, Description: "draft should sound like the user, not a generic assistant"},
}

// violationMargin is how close to a bound a score must fall to be treated
// as a "warning" rather than a hard "block".
const violationMargin = 0.2

// Violation records one dimension falling outside its ethical bound.
type Violation struct {
	Dimension string
	Score     float64
	Bound     Bound
	Severity  string // "warning" | "block"
}

// DraftScores is the per-dimension analysis of one AI-drafted message,
// keyed by Bound.Dimension.
type DraftScores map[string]float64

// Assessment is the result of checking a draft's scores against bounds.
type Assessment struct {
	Violations []Violation
	RiskLevel  string // "none" | "low" | "high"
	Rejected   bool
}

// CheckDraft evaluates scores against the ethical bounds table. Any "block"
// violation makes the overall risk "high" and rejects the draft outright;
// warnings alone leave the draft accepted but flagged as "low" risk.
func CheckDraft(scores DraftScores) Assessment {
	var violations []Violation
	hasBlock := false

	for _, b := range bounds {
		score, ok := scores[b.Dimension]
		if !ok {
			continue
		}
		var outside bool
		var distance float64
		switch {
		case score > b.Max:
			outside = true
			distance = score - b.Max
		case score < b.Min:
			outside = true
			distance = b.Min - score
		}
		if !outside {
			continue
		}

		severity := "block"
		if distance <= violationMargin {
			severity = "warning"
		} else {
			hasBlock = true
		}
		violations = append(violations, Violation{Dimension: b.Dimension, Score: score, Bound: b, Severity: severity})
	}

	risk := "none"
	switch {
	case hasBlock:
		risk = "high"
	case len(violations) > 0:
		risk = "low"
	}

	return Assessment{Violations: violations, RiskLevel: risk, Rejected: hasBlock}
}

// Adjustment is a deterministic rewrite applied to bring a draft back
// within bounds instead of rejecting it outright.
type Adjustment struct {
	Dimension   string
	Description string
}

// adjustments maps a dimension to the deterministic rewrite applied when
// that dimension is in violation, tried before falling back to rejection.
var adjustments = map[string]Adjustment{
	"manipulation_score": {Dimension: "manipulation_score", Description: "strip urgency markers and artificial scarcity language"},
	"sycophancy":         {Dimension: "sycophancy", Description: "soften unqualified agreement and excessive praise"},
	"authenticity":       {Dimension: "authenticity", Description: "reintroduce the user's own phrasing patterns"},
}

// AdjustmentFor returns the deterministic rewrite for a violated dimension,
// if one is defined.
func AdjustmentFor(dimension string) (Adjustment, bool) {
	a, ok := adjustments[dimension]
	return a, ok
}

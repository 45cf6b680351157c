package pipeline

import "github.com/thomas-vilte/commitlens/internal/models"

const (
	minAccuracyWithoutCritical = 60
	minAccuracyOverride        = 80
)

const (
	ReasonQualityMet       = "quality_met"
	ReasonMaxIterations    = "max_iterations"
	ReasonRefinementFailed = "refinement_failed"
)

// Threshold is the quality score a candidate needs at the given iteration.
// From the second iteration on it drops by IterationDecay, never below
// ThresholdFloor.
func Threshold(cfg Config, complexity models.Complexity, iteration int) int {
	var base int
	switch complexity {
	case models.ComplexitySimple:
		base = cfg.SimpleThreshold
	case models.ComplexityComplex:
		base = cfg.ComplexThreshold
	default:
		base = cfg.ModerateThreshold
	}

	if iteration >= 2 {
		base = max(base-cfg.IterationDecay, cfg.ThresholdFloor)
	}
	return base
}

// QualityAcceptable requires the overall score to reach threshold and, unless
// the floor is NoCriteriaFloor, no individual criterion to fall below it.
func QualityAcceptable(cfg Config, fb models.ReflectionFeedback, threshold int) bool {
	if fb.QualityScore < threshold {
		return false
	}
	if cfg.MinCriteriaScore == NoCriteriaFloor {
		return true
	}
	for _, score := range fb.CriteriaScores {
		if score < cfg.MinCriteriaScore {
			return false
		}
	}
	return true
}

func FactuallyAccurate(v models.VerificationResult) bool {
	if !v.HasCriticalIssues && v.FactualAccuracy >= minAccuracyWithoutCritical {
		return true
	}
	return v.FactualAccuracy >= minAccuracyOverride
}

// Decide reports whether the candidate of iteration i is accepted and why.
// Reaching MaxIterations always accepts.
func Decide(cfg Config, fb models.ReflectionFeedback, v models.VerificationResult, threshold, iteration int) (bool, string) {
	if fb.Decision == models.DecisionAccept && QualityAcceptable(cfg, fb, threshold) && FactuallyAccurate(v) {
		return true, ReasonQualityMet
	}
	if iteration >= cfg.MaxIterations {
		return true, ReasonMaxIterations
	}
	return false, ""
}

// Confidence is the mean of the final quality and accuracy scores scaled to [0,1].
func Confidence(quality, accuracy int) float64 {
	c := float64(quality+accuracy) / 200
	return min(max(c, 0), 1)
}

package models

import (
	"encoding/json"
	"math"
	"time"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionRefine Decision = "refine"
)

type (
	// ReflectionFeedback is the model's critique of its own candidate.
	ReflectionFeedback struct {
		Decision       Decision       `json:"decision"`
		Issues         []string       `json:"issues"`
		Improvements   []string       `json:"improvements"`
		Reasoning      string         `json:"reasoning"`
		QualityScore   int            `json:"quality_score"`
		CriteriaScores map[string]int `json:"criteria_scores,omitempty"`
		Fallback       bool           `json:"fallback,omitempty"`
	}

	// VerificationResult is the factual check of a candidate against the literal diff.
	VerificationResult struct {
		FactualAccuracy     int      `json:"factual_accuracy"`
		HasCriticalIssues   bool     `json:"has_critical_issues"`
		Issues              []string `json:"issues"`
		VerifiedSymbols     []string `json:"verified_symbols"`
		MissingSymbols      []string `json:"missing_symbols"`
		HallucinatedSymbols []string `json:"hallucinated_symbols"`
		Recommendations     []string `json:"recommendations"`
		Reasoning           string   `json:"reasoning"`
		Fallback            bool     `json:"fallback,omitempty"`
	}

	PhaseTimings struct {
		Generation   time.Duration `json:"generation"`
		Reflection   time.Duration `json:"reflection"`
		Verification time.Duration `json:"verification"`
		Refinement   time.Duration `json:"refinement"`
		Total        time.Duration `json:"total"`
	}

	// PipelineResult is created once per invocation and not mutated after it is returned.
	PipelineResult struct {
		RunID             string               `json:"run_id"`
		Success           bool                 `json:"success"`
		Message           CommitMessage        `json:"message"`
		FormattedMessage  string               `json:"formatted_message"`
		Confidence        float64              `json:"confidence"`
		Iterations        int                  `json:"iterations"`
		Reflections       []ReflectionFeedback `json:"reflections"`
		Verifications     []VerificationResult `json:"verifications"`
		FinalQualityScore int                  `json:"final_quality_score"`
		FinalAccuracy     int                  `json:"final_accuracy"`
		Threshold         int                  `json:"threshold"`
		AcceptReason      string               `json:"accept_reason,omitempty"`
		FinalState        string               `json:"final_state"`
		Timings           PhaseTimings         `json:"timings"`
		Usage             *TokenUsage          `json:"usage,omitempty"`
		Error             string               `json:"error,omitempty"`
	}
)

// DefaultReflection is substituted when the critique cannot be parsed.
func DefaultReflection(reason string) ReflectionFeedback {
	return ReflectionFeedback{
		Decision:     DecisionAccept,
		Issues:       []string{},
		Improvements: []string{},
		Reasoning:    reason,
		QualityScore: 70,
		Fallback:     true,
	}
}

// DefaultVerification is substituted when the verification cannot be parsed.
func DefaultVerification(reason string) VerificationResult {
	return VerificationResult{
		FactualAccuracy:     70,
		HasCriticalIssues:   false,
		Issues:              []string{},
		VerifiedSymbols:     []string{},
		MissingSymbols:      []string{},
		HallucinatedSymbols: []string{},
		Recommendations:     []string{},
		Reasoning:           reason,
		Fallback:            true,
	}
}

// UnmarshalJSON accepts fractional scores such as 40.5 and rounds them.
func (f *ReflectionFeedback) UnmarshalJSON(data []byte) error {
	type plain ReflectionFeedback
	aux := struct {
		*plain
		QualityScore   float64            `json:"quality_score"`
		CriteriaScores map[string]float64 `json:"criteria_scores,omitempty"`
	}{plain: (*plain)(f), QualityScore: float64(f.QualityScore)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.QualityScore = roundScore(aux.QualityScore)
	f.CriteriaScores = nil
	if aux.CriteriaScores != nil {
		f.CriteriaScores = make(map[string]int, len(aux.CriteriaScores))
		for k, v := range aux.CriteriaScores {
			f.CriteriaScores[k] = roundScore(v)
		}
	}
	return nil
}

// UnmarshalJSON accepts a fractional factual_accuracy and rounds it.
func (v *VerificationResult) UnmarshalJSON(data []byte) error {
	type plain VerificationResult
	aux := struct {
		*plain
		FactualAccuracy float64 `json:"factual_accuracy"`
	}{plain: (*plain)(v), FactualAccuracy: float64(v.FactualAccuracy)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v.FactualAccuracy = roundScore(aux.FactualAccuracy)
	return nil
}

// roundScore rounds half away from zero and clamps to [0,100].
func roundScore(s float64) int {
	return int(math.Round(min(max(s, 0), 100)))
}

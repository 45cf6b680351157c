package history

import (
	"encoding/json"
	"time"

	"github.com/thomas-vilte/commitlens/internal/models"
)

// Run is one persisted pipeline invocation with its audit trail.
type Run struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RunID     string    `gorm:"uniqueIndex;size:36" json:"run_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Branch     string `json:"branch"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Complexity string `json:"complexity"`
	FileCount  int    `json:"file_count"`

	Success      bool    `json:"success"`
	FinalState   string  `json:"final_state"`
	AcceptReason string  `json:"accept_reason"`
	Iterations   int     `json:"iterations"`
	Threshold    int     `json:"threshold"`
	QualityScore int     `json:"quality_score"`
	Accuracy     int     `json:"accuracy"`
	Confidence   float64 `json:"confidence"`
	Message      string  `gorm:"type:text" json:"message"`
	Error        string  `gorm:"type:text" json:"error,omitempty"`

	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	DurationMs   int64   `json:"duration_ms"`

	ReflectionsJSON   string `gorm:"type:text" json:"-"`
	VerificationsJSON string `gorm:"type:text" json:"-"`
}

// RunMeta is context about a run that the pipeline result does not carry.
type RunMeta struct {
	Branch     string
	Complexity models.Complexity
	FileCount  int
	Provider   string
	Model      string
}

// NewRun flattens a pipeline result for storage.
func NewRun(result *models.PipelineResult, meta RunMeta) (*Run, error) {
	reflections, err := json.Marshal(result.Reflections)
	if err != nil {
		return nil, err
	}
	verifications, err := json.Marshal(result.Verifications)
	if err != nil {
		return nil, err
	}

	run := &Run{
		RunID:             result.RunID,
		Branch:            meta.Branch,
		Provider:          meta.Provider,
		Model:             meta.Model,
		Complexity:        string(meta.Complexity),
		FileCount:         meta.FileCount,
		Success:           result.Success,
		FinalState:        result.FinalState,
		AcceptReason:      result.AcceptReason,
		Iterations:        result.Iterations,
		Threshold:         result.Threshold,
		QualityScore:      result.FinalQualityScore,
		Accuracy:          result.FinalAccuracy,
		Confidence:        result.Confidence,
		Message:           result.FormattedMessage,
		Error:             result.Error,
		DurationMs:        result.Timings.Total.Milliseconds(),
		ReflectionsJSON:   string(reflections),
		VerificationsJSON: string(verifications),
	}
	if u := result.Usage; u != nil {
		run.InputTokens = u.InputTokens
		run.OutputTokens = u.OutputTokens
		run.CostUSD = u.CostUSD
	}
	return run, nil
}

// Reflections decodes the stored critique trail.
func (r *Run) Reflections() ([]models.ReflectionFeedback, error) {
	var out []models.ReflectionFeedback
	if r.ReflectionsJSON == "" {
		return out, nil
	}
	err := json.Unmarshal([]byte(r.ReflectionsJSON), &out)
	return out, err
}

// Verifications decodes the stored verification trail.
func (r *Run) Verifications() ([]models.VerificationResult, error) {
	var out []models.VerificationResult
	if r.VerificationsJSON == "" {
		return out, nil
	}
	err := json.Unmarshal([]byte(r.VerificationsJSON), &out)
	return out, err
}

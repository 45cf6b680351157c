package pipeline

import "time"

// NoCriteriaFloor disables the per-criterion minimum in QualityAcceptable.
const NoCriteriaFloor = -1

// Config carries every knob of a pipeline run. It is passed by value and never
// read from the environment.
type Config struct {
	MaxIterations int
	Debug         bool

	SimpleThreshold   int
	ModerateThreshold int
	ComplexThreshold  int
	ThresholdFloor    int
	IterationDecay    int
	// MinCriteriaScore is the lowest score any single criterion may have.
	// Zero selects the default; NoCriteriaFloor turns the check off.
	MinCriteriaScore int

	// CallTimeout bounds each individual generation call. Zero disables it.
	CallTimeout time.Duration

	Language        string
	MaxLength       int
	Temperature     float32
	MaxOutputTokens int
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:     2,
		SimpleThreshold:   75,
		ModerateThreshold: 80,
		ComplexThreshold:  85,
		ThresholdFloor:    70,
		IterationDecay:    10,
		MinCriteriaScore:  60,
		CallTimeout:       60 * time.Second,
		Language:          "en",
		MaxLength:         72,
		Temperature:       0.3,
		MaxOutputTokens:   2048,
	}
}

// withDefaults fills zero values so a partially built Config still runs.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxIterations < 1 {
		c.MaxIterations = 1
	}
	if c.SimpleThreshold == 0 && c.ModerateThreshold == 0 && c.ComplexThreshold == 0 {
		c.SimpleThreshold = d.SimpleThreshold
		c.ModerateThreshold = d.ModerateThreshold
		c.ComplexThreshold = d.ComplexThreshold
		c.ThresholdFloor = d.ThresholdFloor
		c.IterationDecay = d.IterationDecay
	}
	if c.MinCriteriaScore == 0 {
		c.MinCriteriaScore = d.MinCriteriaScore
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.MaxLength <= 0 {
		c.MaxLength = d.MaxLength
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = d.MaxOutputTokens
	}
	return c
}

package run

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"goxtab/domain/core"
)

// TestFamily selects which pairwise tests the significance engine runs
type TestFamily string

const (
	TestAuto  TestFamily = "auto"  // z for proportions, Welch t for means
	TestZOnly TestFamily = "z"     // proportions only; mean rows untested
	TestTOnly TestFamily = "t"     // means only; percent rows untested
)

// Config is the run configuration the engine consumes. It arrives
// already parsed; the engine only validates it.
type Config struct {
	Alpha            float64    `json:"alpha"`             // per-comparison significance level
	MinBase          int        `json:"min_base"`          // unweighted minimum for a column to be tested
	Bonferroni       bool       `json:"bonferroni"`        // divide alpha by the pair count per question
	TestFamily       TestFamily `json:"test_family"`       // auto / z / t
	OverallChiSquare bool       `json:"overall_chi_square"` // chi-square across option x column, categorical only
	Precision        int        `json:"precision"`         // decimals for reported values
	TopBox           int        `json:"top_box"`           // top-N-box size for numeric questions, 0 disables
	BottomBox        int        `json:"bottom_box"`        // bottom-N-box size, 0 disables
	Workers          int        `json:"workers"`           // question worker pool size, 0 means GOMAXPROCS
	DeffWarn         float64    `json:"deff_warn"`         // design-effect level that triggers a warning
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		Alpha:      0.05,
		MinBase:    30,
		TestFamily: TestAuto,
		Precision:  1,
		TopBox:     2,
		BottomBox:  2,
		DeffWarn:   2.0,
	}
}

// Validate checks structural validity. Failures here are hard gates.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("%w: alpha %g outside (0, 1)", core.ErrInvalidConfig, c.Alpha)
	}
	if c.MinBase < 0 {
		return fmt.Errorf("%w: negative minimum base %d", core.ErrInvalidConfig, c.MinBase)
	}
	switch c.TestFamily {
	case TestAuto, TestZOnly, TestTOnly:
	default:
		return fmt.Errorf("%w: unknown test family %q", core.ErrInvalidConfig, c.TestFamily)
	}
	if c.Precision < 0 || c.Precision > 6 {
		return fmt.Errorf("%w: precision %d outside 0..6", core.ErrInvalidConfig, c.Precision)
	}
	if c.TopBox < 0 || c.BottomBox < 0 {
		return fmt.Errorf("%w: box sizes must be non-negative", core.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", core.ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Status is the final run outcome
type Status string

const (
	StatusPass    Status = "PASS"    // all selected questions produced results
	StatusPartial Status = "PARTIAL" // some questions were skipped
	StatusRefused Status = "REFUSED" // a hard gate failed before processing
)

// SkipReason classifies why a question was skipped
type SkipReason string

const (
	SkipMissingColumn SkipReason = "missing_source_column"
	SkipEmptyBase     SkipReason = "empty_base"
	SkipAmbiguousType SkipReason = "ambiguous_type"
	SkipComposite     SkipReason = "composite_dependency"
	SkipProcessing    SkipReason = "processing_error"
)

// Skip records one skipped question
type Skip struct {
	Question core.QuestionCode `json:"question"`
	Reason   SkipReason        `json:"reason"`
	Detail   string            `json:"detail"`
}

// Warning records a non-fatal observation that does not change
// question-level success.
type Warning struct {
	Question core.QuestionCode `json:"question,omitempty"`
	Column   core.ColumnID     `json:"column,omitempty"`
	Message  string            `json:"message"`
}

// Summary is the run-end guard summary handed to the report collaborator
type Summary struct {
	Status       Status    `json:"status"`
	QuestionsRun int       `json:"questions_run"`
	Skipped      []Skip    `json:"skipped,omitempty"`
	Warnings     []Warning `json:"warnings,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Fingerprint hashes everything that determines a run's output, so that
// byte-identical inputs and configuration can be shown to produce
// byte-identical results.
func Fingerprint(parts ...interface{}) core.Hash {
	h := sha256.New()
	for _, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			fmt.Fprintf(h, "%v", p)
			continue
		}
		h.Write(b)
	}
	return core.Hash(fmt.Sprintf("%x", h.Sum(nil)))
}

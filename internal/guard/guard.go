// Package guard implements the run's two gate kinds: hard pre-flight
// gates that abort the run with a structured refusal, and soft
// per-question gates that skip one question and keep going. The State
// accumulator is run-scoped and passed through the run call; it is the
// only mutable state questions share, so it is safe under the question
// worker pool.
package guard

import (
	"sort"
	"sync"
	"time"

	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/internal/errors"
)

// State accumulates skips and warnings for one run
type State struct {
	mu       sync.Mutex
	skipped  []run.Skip
	warnings []run.Warning
	started  time.Time
}

// NewState creates an empty guard state for a run
func NewState() *State {
	return &State{started: time.Now()}
}

// Skip records a skipped question
func (s *State) Skip(code core.QuestionCode, reason run.SkipReason, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = append(s.skipped, run.Skip{Question: code, Reason: reason, Detail: detail})
}

// Warn records a warning that does not change question-level success
func (s *State) Warn(code core.QuestionCode, column core.ColumnID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, run.Warning{Question: code, Column: column, Message: message})
}

// Skipped returns a copy of the recorded skips
func (s *State) Skipped() []run.Skip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]run.Skip, len(s.skipped))
	copy(out, s.skipped)
	return out
}

// Summarize computes the final run summary. Skips and warnings are
// sorted by question code so repeated runs summarize identically
// regardless of worker completion order.
func (s *State) Summarize(questionsRun int) run.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	skipped := make([]run.Skip, len(s.skipped))
	copy(skipped, s.skipped)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Question < skipped[j].Question })

	warnings := make([]run.Warning, len(s.warnings))
	copy(warnings, s.warnings)
	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Question != warnings[j].Question {
			return warnings[i].Question < warnings[j].Question
		}
		return warnings[i].Message < warnings[j].Message
	})

	status := run.StatusPass
	if len(skipped) > 0 {
		status = run.StatusPartial
	}

	return run.Summary{
		Status:       status,
		QuestionsRun: questionsRun,
		Skipped:      skipped,
		Warnings:     warnings,
		StartedAt:    s.started,
		FinishedAt:   time.Now(),
	}
}

// PreFlight evaluates every hard gate. Any failure refuses the run
// before processing starts; no partial output is produced.
func PreFlight(questions []survey.Question, data survey.Dataset, weights survey.Weights, spec banner.Spec, cfg run.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if len(questions) == 0 {
		return errors.NoQuestions()
	}
	if data.Len() == 0 {
		return errors.DataMissing("dataset contains no respondents")
	}
	if weights != nil {
		if err := weights.Validate(data.Len()); err != nil {
			return errors.WeightsInvalid(err)
		}
	}
	if err := checkRequiredColumns(questions, data); err != nil {
		return err
	}
	return checkBannerSources(spec, data)
}

// checkRequiredColumns refuses only when every selected question is
// unanswerable; a single absent column is a per-question soft gate.
func checkRequiredColumns(questions []survey.Question, data survey.Dataset) error {
	anyPresent := false
	for _, q := range questions {
		if q.Type == survey.TypeComposite {
			// Composites read other questions' results, not raw columns.
			anyPresent = true
			continue
		}
		if QuestionColumnsPresent(q, data) {
			anyPresent = true
		}
	}
	if !anyPresent {
		return errors.DataMissing("none of the selected questions have source columns in the data")
	}
	return nil
}

// checkBannerSources refuses when a banner entry references a column
// absent from the data: the column would match nobody, which the
// builder treats as a dead column anyway.
func checkBannerSources(spec banner.Spec, data survey.Dataset) error {
	for _, entry := range spec.Entries {
		if !data.HasColumn(string(entry.Source)) {
			return errors.BannerDeadColumn(entry.Label)
		}
	}
	return nil
}

// QuestionColumnsPresent reports whether a question's source columns
// exist in the data. Grid-derived questions (rank) need at least one
// item sub-column; everything else reads its own code.
func QuestionColumnsPresent(q survey.Question, data survey.Dataset) bool {
	switch q.Type {
	case survey.TypeRank:
		for _, opt := range q.Options {
			if data.HasColumn(q.SubCode(opt.Code)) {
				return true
			}
		}
		return false
	case survey.TypeMulti:
		if data.HasColumn(string(q.Code)) {
			return true
		}
		for _, opt := range q.Options {
			if data.HasColumn(q.SubCode(opt.Code)) {
				return true
			}
		}
		return false
	case survey.TypeComposite:
		return true
	default:
		return data.HasColumn(string(q.Code))
	}
}

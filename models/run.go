package models

import (
	"time"

	"goxtab/domain/run"
	"goxtab/domain/tabs"
)

// RunRecord is the persisted shape of one engine run: the summary and
// result tables as stored in the runs table (results as JSONB).
type RunRecord struct {
	ID          string                 `db:"id" json:"id"`
	Fingerprint string                 `db:"fingerprint" json:"fingerprint"`
	Status      run.Status             `db:"status" json:"status"`
	Questions   int                    `db:"questions" json:"questions"`
	Skipped     []run.Skip             `json:"skipped,omitempty"`
	Warnings    []run.Warning          `json:"warnings,omitempty"`
	Results     []*tabs.QuestionResult `json:"results,omitempty"`
	StartedAt   time.Time              `db:"started_at" json:"started_at"`
	FinishedAt  time.Time              `db:"finished_at" json:"finished_at"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
}

// NewRunRecord flattens an engine result into its persisted shape
func NewRunRecord(result *tabs.RunResult) *RunRecord {
	return &RunRecord{
		ID:          result.RunID.String(),
		Fingerprint: result.Fingerprint.String(),
		Status:      result.Summary.Status,
		Questions:   result.Summary.QuestionsRun,
		Skipped:     result.Summary.Skipped,
		Warnings:    result.Summary.Warnings,
		Results:     result.Results,
		StartedAt:   result.Summary.StartedAt,
		FinishedAt:  result.Summary.FinishedAt,
	}
}

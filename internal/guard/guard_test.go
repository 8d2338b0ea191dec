package guard

import (
	"fmt"
	"sync"
	"testing"

	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	apperrors "goxtab/internal/errors"
)

func gateData() survey.Dataset {
	return survey.Dataset{Records: []survey.Record{
		{"gender": survey.CodeValue("m"), "Q1": survey.CodeValue("a")},
		{"gender": survey.CodeValue("f"), "Q1": survey.CodeValue("b")},
	}}
}

func gateQuestions() []survey.Question {
	return []survey.Question{{
		Code: "Q1", Type: survey.TypeSingle,
		Options: []survey.Option{{Code: "a"}, {Code: "b"}},
	}}
}

func gateBanner() banner.Spec {
	return banner.Spec{Entries: []banner.Entry{
		{ID: "male", Label: "Male", Source: "gender", Accept: []string{"m"}},
	}}
}

func TestPreFlight_Passes(t *testing.T) {
	err := PreFlight(gateQuestions(), gateData(), survey.Uniform(2), gateBanner(), run.DefaultConfig())
	if err != nil {
		t.Errorf("pre-flight should pass on a well-formed run: %v", err)
	}
}

func TestPreFlight_HardGates(t *testing.T) {
	badConfig := run.DefaultConfig()
	badConfig.Alpha = 0

	cases := []struct {
		name      string
		questions []survey.Question
		data      survey.Dataset
		weights   survey.Weights
		spec      banner.Spec
		cfg       run.Config
		wantCode  string
	}{
		{
			name:      "invalid config",
			questions: gateQuestions(), data: gateData(), weights: survey.Uniform(2),
			spec: gateBanner(), cfg: badConfig,
			wantCode: apperrors.CodeConfigInvalid,
		},
		{
			name: "no questions",
			data: gateData(), weights: survey.Uniform(2),
			spec: gateBanner(), cfg: run.DefaultConfig(),
			wantCode: apperrors.CodeNoQuestions,
		},
		{
			name:      "empty dataset",
			questions: gateQuestions(), weights: survey.Weights{},
			spec: gateBanner(), cfg: run.DefaultConfig(),
			wantCode: apperrors.CodeDataMissing,
		},
		{
			name:      "negative weight",
			questions: gateQuestions(), data: gateData(), weights: survey.Weights{1, -1},
			spec: gateBanner(), cfg: run.DefaultConfig(),
			wantCode: apperrors.CodeWeightsInvalid,
		},
		{
			name:      "all-zero weights",
			questions: gateQuestions(), data: gateData(), weights: survey.Weights{0, 0},
			spec: gateBanner(), cfg: run.DefaultConfig(),
			wantCode: apperrors.CodeWeightsInvalid,
		},
		{
			name: "every question unanswerable",
			questions: []survey.Question{{
				Code: "QX", Type: survey.TypeSingle,
				Options: []survey.Option{{Code: "a"}},
			}},
			data: gateData(), weights: survey.Uniform(2),
			spec: gateBanner(), cfg: run.DefaultConfig(),
			wantCode: apperrors.CodeDataMissing,
		},
		{
			name:      "banner source column absent",
			questions: gateQuestions(), data: gateData(), weights: survey.Uniform(2),
			spec: banner.Spec{Entries: []banner.Entry{
				{ID: "region", Label: "Region", Source: "region", Accept: []string{"north"}},
			}},
			cfg:      run.DefaultConfig(),
			wantCode: apperrors.CodeBannerDeadColumn,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := PreFlight(tc.questions, tc.data, tc.weights, tc.spec, tc.cfg)
			if err == nil {
				t.Fatal("expected a refusal")
			}
			if code := apperrors.GetCode(err); code != tc.wantCode {
				t.Errorf("error code = %q, expected %s", code, tc.wantCode)
			}
		})
	}
}

func TestPreFlight_OneMissingQuestionIsSoft(t *testing.T) {
	// A single absent column is a per-question skip, not a refusal.
	questions := append(gateQuestions(), survey.Question{
		Code: "QX", Type: survey.TypeSingle,
		Options: []survey.Option{{Code: "a"}},
	})
	err := PreFlight(questions, gateData(), survey.Uniform(2), gateBanner(), run.DefaultConfig())
	if err != nil {
		t.Errorf("one unanswerable question among answerable ones must not refuse: %v", err)
	}
}

func TestQuestionColumnsPresent(t *testing.T) {
	data := survey.Dataset{Records: []survey.Record{
		{"Q1": survey.CodeValue("a"), "Q6_price": survey.Num(1), "Q2_tv": survey.CodeValue("1")},
	}}

	cases := []struct {
		name string
		q    survey.Question
		want bool
	}{
		{"single present", survey.Question{Code: "Q1", Type: survey.TypeSingle}, true},
		{"single absent", survey.Question{Code: "QX", Type: survey.TypeSingle}, false},
		{"rank via sub-column", survey.Question{
			Code: "Q6", Type: survey.TypeRank,
			Options: []survey.Option{{Code: "price"}, {Code: "quality"}},
		}, true},
		{"rank no sub-columns", survey.Question{
			Code: "Q7", Type: survey.TypeRank,
			Options: []survey.Option{{Code: "price"}},
		}, false},
		{"multi via sub-column", survey.Question{
			Code: "Q2", Type: survey.TypeMulti,
			Options: []survey.Option{{Code: "tv"}},
		}, true},
		{"composite needs no columns", survey.Question{Code: "IDX", Type: survey.TypeComposite}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QuestionColumnsPresent(tc.q, data); got != tc.want {
				t.Errorf("got %v, expected %v", got, tc.want)
			}
		})
	}
}

func TestState_SummarizeSortsAndSetsStatus(t *testing.T) {
	state := NewState()
	state.Skip("Q9", run.SkipEmptyBase, "nobody answered")
	state.Skip("Q1", run.SkipMissingColumn, "column absent")
	state.Warn("Q5", "male", "degraded design effect 2.31")
	state.Warn("Q2", "", "empty base after filtering")

	summary := state.Summarize(5)

	if summary.Status != run.StatusPartial {
		t.Errorf("status = %s, expected PARTIAL with skips present", summary.Status)
	}
	if summary.QuestionsRun != 5 {
		t.Errorf("questions run = %d, expected 5", summary.QuestionsRun)
	}
	if summary.Skipped[0].Question != "Q1" || summary.Skipped[1].Question != "Q9" {
		t.Errorf("skips not sorted by question: %v", summary.Skipped)
	}
	if summary.Warnings[0].Question != "Q2" || summary.Warnings[1].Question != "Q5" {
		t.Errorf("warnings not sorted by question: %v", summary.Warnings)
	}
	if summary.FinishedAt.Before(summary.StartedAt) {
		t.Error("finished before started")
	}
}

func TestState_PassWithWarningsOnly(t *testing.T) {
	state := NewState()
	state.Warn("Q1", "male", "degraded design effect 2.10")

	summary := state.Summarize(3)
	if summary.Status != run.StatusPass {
		t.Errorf("status = %s, warnings alone must not demote a PASS", summary.Status)
	}
}

func TestState_ConcurrentAccess(t *testing.T) {
	state := NewState()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := core.QuestionCode(fmt.Sprintf("Q%02d", i))
			state.Skip(code, run.SkipEmptyBase, "empty")
			state.Warn(code, "", "warn")
		}(i)
	}
	wg.Wait()

	summary := state.Summarize(0)
	if len(summary.Skipped) != 50 || len(summary.Warnings) != 50 {
		t.Errorf("recorded %d skips / %d warnings, expected 50 each",
			len(summary.Skipped), len(summary.Warnings))
	}
	for i := 1; i < len(summary.Skipped); i++ {
		if summary.Skipped[i-1].Question > summary.Skipped[i].Question {
			t.Fatal("skips not sorted after concurrent writes")
		}
	}
}

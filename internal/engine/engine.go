// Package engine implements the weighted cross-tabulation pipeline:
// banner building, base calculation, question orchestration, type
// dispatch, and the run entry point. Significance annotation lives in
// internal/sig; gate policy in internal/guard.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
	"goxtab/internal"
	"goxtab/internal/guard"
	"goxtab/internal/sig"
)

// Engine holds the immutable per-run inputs shared by all question
// workers. Workers only read from it; the guard state is the single
// shared mutable structure and synchronizes itself.
type Engine struct {
	data       survey.Dataset
	weights    survey.Weights
	banner     *Banner
	cfg        run.Config
	dispatcher *Dispatcher
	log        *internal.Logger
}

// Run is the engine's public entry point. It evaluates the hard gates,
// builds the banner once, processes every selected question (skipping,
// never aborting, on per-question failures), annotates significance,
// and returns the ordered results with the final guard summary.
//
// Questions are independent of each other except composite indices,
// which run after their declared dependencies: plain questions go
// through a bounded worker pool, composites run afterwards in
// dependency order.
func Run(ctx context.Context, questions []survey.Question, data survey.Dataset,
	weights survey.Weights, spec banner.Spec, cfg run.Config) (*tabs.RunResult, error) {

	logger := internal.DefaultLogger

	if weights == nil {
		weights = survey.Uniform(data.Len())
	}

	if err := guard.PreFlight(questions, data, weights, spec, cfg); err != nil {
		return nil, err
	}

	b, err := BuildBanner(spec, data)
	if err != nil {
		return nil, err
	}

	state := guard.NewState()
	warnWeightQuality(weights, cfg, state)

	e := &Engine{
		data:       data,
		weights:    weights,
		banner:     b,
		cfg:        cfg,
		dispatcher: NewDispatcher(),
		log:        logger,
	}

	results := make([]*tabs.QuestionResult, len(questions))

	if err := e.runPlain(ctx, questions, results, state); err != nil {
		return nil, err
	}
	e.runComposites(questions, results, state)

	ordered := make([]*tabs.QuestionResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			ordered = append(ordered, res)
		}
	}

	summary := state.Summarize(len(ordered))
	logger.Info("run finished: status=%s questions=%d skipped=%d warnings=%d",
		summary.Status, summary.QuestionsRun, len(summary.Skipped), len(summary.Warnings))

	return &tabs.RunResult{
		RunID:       core.RunID(core.NewID()),
		Fingerprint: run.Fingerprint(questions, data.Records, weights, spec, cfg),
		Columns:     b.Headers(),
		Results:     ordered,
		Summary:     summary,
	}, nil
}

// runPlain processes every non-composite question through the worker
// pool. Each worker writes only its own pre-sized result slot.
func (e *Engine) runPlain(ctx context.Context, questions []survey.Question,
	results []*tabs.QuestionResult, state *guard.State) error {

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	for qi, q := range questions {
		if q.Type == survey.TypeComposite {
			continue
		}
		qi, q := qi, q
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			results[qi] = e.processOne(q, nil, state)
			return nil
		})
	}
	return g.Wait()
}

// runComposites processes composite questions sequentially in
// dependency order, feeding each one its dependencies' results.
func (e *Engine) runComposites(questions []survey.Question, results []*tabs.QuestionResult, state *guard.State) {
	byCode := make(map[core.QuestionCode]int, len(questions))
	for qi, q := range questions {
		byCode[q.Code] = qi
	}

	order, cyclic := compositeOrder(questions)
	for _, code := range cyclic {
		state.Skip(code, run.SkipComposite, "dependency cycle")
	}

	for _, qi := range order {
		q := questions[qi]
		deps, missing := collectDeps(q, questions, byCode, results)
		if missing != "" {
			state.Skip(q.Code, run.SkipComposite, fmt.Sprintf("dependency %s unavailable", missing))
			continue
		}
		results[qi] = e.processOne(q, deps, state)
	}
}

// collectDeps resolves a composite's dependency results; returns the
// first unavailable dependency code when the composite cannot run.
func collectDeps(q survey.Question, questions []survey.Question, byCode map[core.QuestionCode]int,
	results []*tabs.QuestionResult) (map[core.QuestionCode]Dep, string) {

	if q.Composite == nil {
		return nil, string(q.Code)
	}
	deps := make(map[core.QuestionCode]Dep, len(q.Composite.Terms))
	for _, term := range q.Composite.Terms {
		di, ok := byCode[term.Source]
		if !ok || results[di] == nil {
			return nil, string(term.Source)
		}
		deps[term.Source] = Dep{Question: questions[di], Result: results[di]}
	}
	return deps, ""
}

// processOne runs a single question end to end. Every failure here is
// caught at this boundary and converted into a skip; nothing a question
// does can abort the run.
func (e *Engine) processOne(q survey.Question, deps map[core.QuestionCode]Dep, state *guard.State) *tabs.QuestionResult {
	qc, err := e.Orchestrate(q, state)
	if err != nil {
		state.Skip(q.Code, skipReason(err), err.Error())
		e.log.Debug("question %s skipped: %v", q.Code, err)
		return nil
	}
	qc.CompositeDeps = deps

	res, err := e.dispatcher.Dispatch(qc)
	if err != nil {
		state.Skip(q.Code, skipReason(err), err.Error())
		e.log.Debug("question %s skipped: %v", q.Code, err)
		return nil
	}

	sig.Annotate(res, e.cfg)
	return res
}

// warnWeightQuality records run-level weight diagnostics
func warnWeightQuality(weights survey.Weights, cfg run.Config, state *guard.State) {
	diag, err := DiagnoseWeights(weights)
	if err != nil {
		return
	}
	if diag.ZeroCount > 0 {
		state.Warn("", "", fmt.Sprintf("%d respondents carry zero weight and are excluded from weighted aggregates", diag.ZeroCount))
	}
	if wholeDeff := 1 + diag.CV*diag.CV; wholeDeff > cfg.DeffWarn {
		state.Warn("", "", fmt.Sprintf("sample-wide design effect %.2f exceeds %.2f; significance power is degraded", wholeDeff, cfg.DeffWarn))
	}
}

// skipReason classifies a question-boundary error
func skipReason(err error) run.SkipReason {
	switch {
	case errors.Is(err, core.ErrMissingColumn):
		return run.SkipMissingColumn
	case errors.Is(err, core.ErrEmptyBase):
		return run.SkipEmptyBase
	case errors.Is(err, core.ErrAmbiguousOptions):
		return run.SkipAmbiguousType
	case errors.Is(err, core.ErrCompositeCycle), errors.Is(err, core.ErrCompositeDependent):
		return run.SkipComposite
	default:
		return run.SkipProcessing
	}
}

// compositeOrder returns the composite question indices in dependency
// order, plus the codes trapped in dependency cycles. Dependencies on
// non-composite questions impose no ordering: those always run first.
func compositeOrder(questions []survey.Question) (order []int, cyclic []core.QuestionCode) {
	composites := make(map[core.QuestionCode]int)
	for qi, q := range questions {
		if q.Type == survey.TypeComposite {
			composites[q.Code] = qi
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	marks := make(map[core.QuestionCode]int, len(composites))

	ordered := make(map[core.QuestionCode]bool, len(composites))

	var visit func(code core.QuestionCode) bool
	visit = func(code core.QuestionCode) bool {
		switch marks[code] {
		case done:
			return ordered[code]
		case visiting:
			return false
		}
		marks[code] = visiting
		qi := composites[code]
		ok := true
		if spec := questions[qi].Composite; spec != nil {
			for _, term := range spec.Terms {
				if _, isComposite := composites[term.Source]; !isComposite {
					continue
				}
				if !visit(term.Source) {
					ok = false
					break
				}
			}
		}
		marks[code] = done
		if ok {
			ordered[code] = true
			order = append(order, qi)
		}
		return ok
	}

	// Iterate in declaration order for deterministic scheduling.
	for _, q := range questions {
		if q.Type != survey.TypeComposite {
			continue
		}
		visit(q.Code)
	}
	for _, q := range questions {
		if q.Type == survey.TypeComposite && !ordered[q.Code] {
			cyclic = append(cyclic, q.Code)
		}
	}
	return order, cyclic
}

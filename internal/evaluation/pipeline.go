// Package evaluation runs suites of ranking metrics over dataset batches.
package evaluation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/csrank/objrank/internal/dataset"
	"github.com/csrank/objrank/internal/utils/logger"
	"github.com/csrank/objrank/pkg/metrics"
)

const DefaultConcurrency = 4

type Evaluator struct {
	DefaultK    int
	Concurrency int
	registry    *metrics.Registry
}

type EvaluatorOption func(*Evaluator)

func WithDefaultK(k int) EvaluatorOption {
	return func(e *Evaluator) {
		e.DefaultK = k
	}
}

func WithConcurrency(n int) EvaluatorOption {
	return func(e *Evaluator) {
		e.Concurrency = n
	}
}

// WithRegistry makes custom metrics resolvable by name. Names missing from the
// registry are still built with metrics.NewMetric.
func WithRegistry(r *metrics.Registry) EvaluatorOption {
	return func(e *Evaluator) {
		e.registry = r
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		DefaultK:    metrics.DefaultK,
		Concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.Concurrency <= 0 {
		e.Concurrency = 1
	}

	return e
}

// Resolve returns the metric a spec refers to. Parameterised metrics are
// rebuilt so the requested k is honoured; any other name is looked up in the
// registry first.
func (e *Evaluator) Resolve(spec MetricSpec) (metrics.Metric, error) {
	k := spec.K
	if k <= 0 {
		k = e.DefaultK
	}

	if e.registry != nil && !metrics.Parameterised(spec.Name) {
		if m, err := e.registry.Get(spec.Name); err == nil {
			return m, nil
		}
	}
	return metrics.NewMetric(spec.Name, k)
}

// MetricNames lists every name Resolve accepts, in lexical order.
func (e *Evaluator) MetricNames() []string {
	names := metrics.DefaultRegistry().Names()
	if e.registry != nil {
		names = append(names, e.registry.Names()...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Evaluate runs every metric of the suite on the batch. Metrics run
// concurrently; a failing metric is reported in its Result and does not stop
// the others. Only context cancellation returns an error.
func (e *Evaluator) Evaluate(ctx context.Context, batch *dataset.Batch, suite Suite) (*Report, error) {
	if len(suite.Metrics) == 0 {
		return nil, ErrEmptySuite
	}

	startTime := time.Now()
	rows, cols := batch.YTrue.Dims()
	logger.Sugar().Infow("Evaluating suite", "metrics", len(suite.Metrics), "instances", rows, "objects", cols)

	report := &Report{
		Instances: rows,
		Objects:   cols,
		Results:   make([]Result, len(suite.Metrics)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)
	for i, spec := range suite.Metrics {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Results[i] = e.evaluateOne(spec, batch.YTrue, batch.YPred)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate suite: %w", err)
	}

	log.Debug().Msgf("Evaluated %d metrics in %v", len(suite.Metrics), time.Since(startTime))
	return report, nil
}

func (e *Evaluator) evaluateOne(spec MetricSpec, yTrue, yPred mat.Matrix) (result Result) {
	result = Result{Name: spec.Name, K: spec.K}

	m, err := e.Resolve(spec)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	// shape violations surface as panics from the metric layer
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("metric", spec.Name).Interface("panic", r).Msg("metric failed")
			result.Err = fmt.Sprintf("metric panicked: %v", r)
		}
	}()

	result.Value = m(yTrue, yPred)
	log.Debug().Str("metric", spec.Name).Float64("value", result.Value).Msg("metric evaluated")
	return result
}

// Package ranker adapts score-producing models to object ranking.
package ranker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/csrank/objrank/pkg/metrics"
)

type namedMetric struct {
	name   string
	metric metrics.Metric
}

// ObjectRanker turns the scores of a Scorer into rankings and monitors them
// with a list of metrics.
type ObjectRanker struct {
	scorer  Scorer
	metrics []namedMetric
}

type Option func(*ObjectRanker)

// WithMetric adds a monitoring metric. Without any, the ranker monitors the
// zero-one rank loss for scores.
func WithMetric(name string, m metrics.Metric) Option {
	return func(r *ObjectRanker) {
		r.metrics = append(r.metrics, namedMetric{name: name, metric: m})
	}
}

func NewObjectRanker(scorer Scorer, opts ...Option) *ObjectRanker {
	r := &ObjectRanker{scorer: scorer}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.metrics) == 0 {
		r.metrics = []namedMetric{{
			name:   metrics.NameZeroOneRankLossForScores,
			metric: metrics.ZeroOneRankLossForScores,
		}}
	}

	return r
}

func (r *ObjectRanker) PredictScores(ctx context.Context, x []*mat.Dense) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, ErrNoInstances
	}

	scores, err := r.scorer.PredictScores(ctx, x)
	if err != nil {
		return nil, fmt.Errorf("predict scores: %w", err)
	}
	return scores, nil
}

// Predict returns the ranking matrix for x.
func (r *ObjectRanker) Predict(ctx context.Context, x []*mat.Dense) (*mat.Dense, error) {
	scores, err := r.PredictScores(ctx, x)
	if err != nil {
		return nil, err
	}
	return r.PredictForScores(scores), nil
}

// PredictForScores ranks precomputed scores.
func (r *ObjectRanker) PredictForScores(scores mat.Matrix) *mat.Dense {
	return metrics.ScoresToRankings(scores)
}

// Evaluate scores x and applies every monitoring metric against yTrue.
func (r *ObjectRanker) Evaluate(ctx context.Context, x []*mat.Dense, yTrue mat.Matrix) ([]MetricResult, error) {
	scores, err := r.PredictScores(ctx, x)
	if err != nil {
		return nil, err
	}

	results := make([]MetricResult, 0, len(r.metrics))
	for _, m := range r.metrics {
		value := m.metric(yTrue, scores)
		log.Debug().Str("metric", m.name).Float64("value", value).Msg("monitoring metric evaluated")
		results = append(results, MetricResult{Name: m.name, Value: value})
	}
	return results, nil
}

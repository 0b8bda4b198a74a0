package ranker

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoInstances       = errors.New("no instances to score")
	ErrInconsistentBatch = errors.New("instances have different numbers of objects")
)

// Scorer is the prediction contract of a ranking model. Each element of x is
// one instance's (n_objects x n_features) feature matrix; the result holds one
// row of object scores per instance, higher meaning more relevant.
type Scorer interface {
	PredictScores(ctx context.Context, x []*mat.Dense) (*mat.Dense, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, x []*mat.Dense) (*mat.Dense, error)

func (f ScorerFunc) PredictScores(ctx context.Context, x []*mat.Dense) (*mat.Dense, error) {
	return f(ctx, x)
}

// MetricResult pairs a monitoring metric with its value.
type MetricResult struct {
	Name  string
	Value float64
}

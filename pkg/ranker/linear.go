package ranker

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// LinearScorer scores every object with the dot product of its features and
// a fixed weight vector.
type LinearScorer struct {
	Weights []float64
}

func (s LinearScorer) PredictScores(_ context.Context, x []*mat.Dense) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, ErrNoInstances
	}

	nObjects, _ := x[0].Dims()
	weights := mat.NewVecDense(len(s.Weights), s.Weights)
	scores := mat.NewDense(len(x), nObjects, nil)

	var objectScores mat.VecDense
	for i, features := range x {
		rows, _ := features.Dims()
		if rows != nObjects {
			return nil, ErrInconsistentBatch
		}
		objectScores.MulVec(features, weights)
		scores.SetRow(i, objectScores.RawVector().Data)
	}

	return scores, nil
}

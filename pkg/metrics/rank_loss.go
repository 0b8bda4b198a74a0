package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// ZeroOneRankLossForScoresTiesPerInstance returns, per instance, the fraction
// of object pairs on which the predicted scores disagree with the ground truth
// ranking. A pair tied in sPred counts as half a disagreement.
//
// yTrue holds ranks (lower is better); sPred holds scores (higher is better).
func ZeroOneRankLossForScoresTiesPerInstance(yTrue, sPred mat.Matrix) []float64 {
	rows, nObjects := mustMatchDims(yTrue, sPred)

	denominator := float64(nObjects) * (float64(nObjects) - 1.0) / 2.0
	losses := make([]float64, rows)

	truth := make([]float64, nObjects)
	scores := make([]float64, nObjects)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(scores, rowIdx, sPred)

		transpositions := 0
		equalPairs := 0
		for j := range nObjects {
			for k := range nObjects {
				if truth[k] > truth[j] && scores[k] > scores[j] {
					transpositions++
				}
				if scores[k] == scores[j] {
					equalPairs++
				}
			}
		}

		// equalPairs includes the nObjects diagonal entries and counts every
		// tied unordered pair twice; each such pair is worth 0.5.
		tieCorrection := float64(equalPairs-nObjects) / 4.0

		losses[rowIdx] = (float64(transpositions) + tieCorrection) / denominator
	}

	return losses
}

// ZeroOneRankLossForScoresTies is the batch mean of
// ZeroOneRankLossForScoresTiesPerInstance.
func ZeroOneRankLossForScoresTies(yTrue, sPred mat.Matrix) float64 {
	return Mean(ZeroOneRankLossForScoresTiesPerInstance(yTrue, sPred))
}

// ZeroOneRankLossForScores is the default monitoring metric of object rankers.
func ZeroOneRankLossForScores(yTrue, sPred mat.Matrix) float64 {
	return ZeroOneRankLossForScoresTies(yTrue, sPred)
}

// KendallsTauForScores derives Kendall's tau from the tie-aware rank loss.
func KendallsTauForScores(yTrue, sPred mat.Matrix) float64 {
	return 1.0 - 2.0*ZeroOneRankLossForScoresTies(yTrue, sPred)
}

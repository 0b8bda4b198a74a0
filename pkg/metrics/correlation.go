package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SpearmanCorrelationForScoresPerInstance applies the closed form
// 1 - 6*sum(d^2)/(m(m^2-1)) to the rankings induced by sPred. Instances whose
// scores contain a tie are NaN, since the closed form only holds for strict
// permutations.
func SpearmanCorrelationForScoresPerInstance(yTrue, sPred mat.Matrix) []float64 {
	rows, nObjects := mustMatchDims(yTrue, sPred)
	yPred := ScoresToRankings(sPred)

	m := float64(nObjects)
	denominator := m * (m*m - 1)
	rho := make([]float64, rows)

	truth := make([]float64, nObjects)
	pred := make([]float64, nObjects)
	scores := make([]float64, nObjects)
	for rowIdx := range rows {
		mat.Row(scores, rowIdx, sPred)
		if hasTies(scores) {
			rho[rowIdx] = math.NaN()
			continue
		}

		mat.Row(truth, rowIdx, yTrue)
		mat.Row(pred, rowIdx, yPred)
		floats.Sub(pred, truth)
		sumSquares := floats.Dot(pred, pred)

		rho[rowIdx] = 1 - 6*sumSquares/denominator
	}

	return rho
}

// SpearmanCorrelationForScores is the NaN-ignoring batch mean of
// SpearmanCorrelationForScoresPerInstance.
func SpearmanCorrelationForScores(yTrue, sPred mat.Matrix) float64 {
	return NanMean(SpearmanCorrelationForScoresPerInstance(yTrue, sPred))
}

// SpearmanCorrelationForScoresReferencePerInstance computes Spearman's rho as
// the Pearson correlation of average ranks, which stays defined when the
// scores tie. A row with constant truth or constant scores is NaN.
func SpearmanCorrelationForScoresReferencePerInstance(yTrue, sPred mat.Matrix) []float64 {
	rows, nObjects := mustMatchDims(yTrue, sPred)
	rho := make([]float64, rows)

	truth := make([]float64, nObjects)
	scores := make([]float64, nObjects)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(scores, rowIdx, sPred)
		// negate so the highest score receives the smallest rank
		floats.Scale(-1, scores)

		truthRanks := FractionalRanks(truth)
		predRanks := FractionalRanks(scores)
		if isConstant(truthRanks) || isConstant(predRanks) {
			rho[rowIdx] = math.NaN()
			continue
		}
		rho[rowIdx] = stat.Correlation(truthRanks, predRanks, nil)
	}

	return rho
}

// SpearmanCorrelationForScoresReference is the NaN-ignoring batch mean of
// SpearmanCorrelationForScoresReferencePerInstance.
func SpearmanCorrelationForScoresReference(yTrue, sPred mat.Matrix) float64 {
	return NanMean(SpearmanCorrelationForScoresReferencePerInstance(yTrue, sPred))
}

func hasTies(values []float64) bool {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

func isConstant(values []float64) bool {
	return len(values) == 0 || floats.Min(values) == floats.Max(values)
}

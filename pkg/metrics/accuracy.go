package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// ZeroOneAccuracy is the fraction of instances whose predicted row equals the
// ground truth row in every position.
func ZeroOneAccuracy(yTrue, yPred mat.Matrix) float64 {
	rows, cols := mustMatchDims(yTrue, yPred)

	truth := make([]float64, cols)
	pred := make([]float64, cols)
	matches := 0
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(pred, rowIdx, yPred)
		if rowsEqual(truth, pred) {
			matches++
		}
	}

	return float64(matches) / float64(rows)
}

// ZeroOneAccuracyForScores ranks sPred first and then applies ZeroOneAccuracy.
func ZeroOneAccuracyForScores(yTrue, sPred mat.Matrix) float64 {
	mustMatchDims(yTrue, sPred)
	return ZeroOneAccuracy(yTrue, ScoresToRankings(sPred))
}

// CategoricalAccuracy compares the argmax of each true row with the argmax of
// the matching predicted row. The first maximum wins on ties.
func CategoricalAccuracy(yTrue, yPred mat.Matrix) float64 {
	rows, cols := mustMatchDims(yTrue, yPred)

	truth := make([]float64, cols)
	pred := make([]float64, cols)
	hits := 0
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(pred, rowIdx, yPred)
		if argmax(truth) == argmax(pred) {
			hits++
		}
	}

	return float64(hits) / float64(rows)
}

// TopKCategoricalAccuracy returns a Metric counting an instance as correct
// when its true class is among the k highest predicted scores.
func TopKCategoricalAccuracy(k int) Metric {
	return func(yTrue, yPred mat.Matrix) float64 {
		rows, cols := mustMatchDims(yTrue, yPred)

		truth := make([]float64, cols)
		pred := make([]float64, cols)
		hits := 0
		for rowIdx := range rows {
			mat.Row(truth, rowIdx, yTrue)
			mat.Row(pred, rowIdx, yPred)

			trueClass := argmax(truth)
			for _, class := range topK(pred, k) {
				if class == trueClass {
					hits++
					break
				}
			}
		}

		return float64(hits) / float64(rows)
	}
}

// topK clamps k to the number of classes.
func topK(values []float64, k int) []int {
	return descendingOrder(values)[:min(k, len(values))]
}

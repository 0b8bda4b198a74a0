package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// confusion holds the per-instance counts of a binary indicator row.
type confusion struct {
	tp, fp, fn, tn int
}

func rowConfusion(truth, pred []float64) confusion {
	var c confusion
	for j := range truth {
		t, p := truth[j] != 0, pred[j] != 0
		switch {
		case t && p:
			c.tp++
		case !t && p:
			c.fp++
		case t && !p:
			c.fn++
		default:
			c.tn++
		}
	}
	return c
}

func samplesAverage(yTrue, yPred mat.Matrix, score func(confusion) float64) float64 {
	rows, cols := mustMatchDims(yTrue, yPred)

	truth := make([]float64, cols)
	pred := make([]float64, cols)
	values := make([]float64, rows)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(pred, rowIdx, yPred)
		values[rowIdx] = score(rowConfusion(truth, pred))
	}

	return Mean(values)
}

// safeRatio treats 0/0 as 0, matching zero_division=0 in samples averaging.
func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Precision is the samples-averaged precision of indicator predictions.
func Precision(yTrue, yPred mat.Matrix) float64 {
	return samplesAverage(yTrue, yPred, func(c confusion) float64 {
		return safeRatio(c.tp, c.tp+c.fp)
	})
}

// Recall is the samples-averaged recall of indicator predictions.
func Recall(yTrue, yPred mat.Matrix) float64 {
	return samplesAverage(yTrue, yPred, func(c confusion) float64 {
		return safeRatio(c.tp, c.tp+c.fn)
	})
}

// F1Measure is the samples-averaged F1 score of indicator predictions.
func F1Measure(yTrue, yPred mat.Matrix) float64 {
	return samplesAverage(yTrue, yPred, func(c confusion) float64 {
		return safeRatio(2*c.tp, 2*c.tp+c.fp+c.fn)
	})
}

// Hamming is the fraction of mismatching labels over the whole matrix.
func Hamming(yTrue, yPred mat.Matrix) float64 {
	rows, cols := mustMatchDims(yTrue, yPred)

	mismatches := 0
	for i := range rows {
		for j := range cols {
			if (yTrue.At(i, j) != 0) != (yPred.At(i, j) != 0) {
				mismatches++
			}
		}
	}

	return float64(mismatches) / float64(rows*cols)
}

// Subset01Loss is the fraction of instances whose label set is not predicted
// exactly.
func Subset01Loss(yTrue, yPred mat.Matrix) float64 {
	return 1 - ZeroOneAccuracy(yTrue, yPred)
}

// InstanceInformednessPerInstance returns TPR + TNR - 1 per instance. Rows
// without positives or without negatives are NaN.
func InstanceInformednessPerInstance(yTrue, yPred mat.Matrix) []float64 {
	rows, cols := mustMatchDims(yTrue, yPred)

	truth := make([]float64, cols)
	pred := make([]float64, cols)
	values := make([]float64, rows)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(pred, rowIdx, yPred)
		c := rowConfusion(truth, pred)

		// float division keeps 0/0 as NaN
		tpr := float64(c.tp) / float64(c.tp+c.fn)
		tnr := float64(c.tn) / float64(c.tn+c.fp)
		values[rowIdx] = tpr + tnr - 1
	}

	return values
}

// InstanceInformedness is the NaN-ignoring mean of
// InstanceInformednessPerInstance.
func InstanceInformedness(yTrue, yPred mat.Matrix) float64 {
	return NanMean(InstanceInformednessPerInstance(yTrue, yPred))
}

// AUCScore is the samples-averaged ROC AUC of sPred against indicator labels.
// Rows with 0, 1, m-1 or m positives are excluded first. One remaining row is
// scored on its own; none gives NaN.
func AUCScore(yTrue, sPred mat.Matrix) float64 {
	rows, nObjects := mustMatchDims(yTrue, sPred)

	truth := make([]float64, nObjects)
	valid := make([]int, 0, rows)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		positives := countPositives(truth)
		if positives != nObjects-1 &&
			positives != nObjects &&
			positives != 1 &&
			positives != 0 {
			valid = append(valid, rowIdx)
		}
	}

	scores := make([]float64, nObjects)
	switch {
	case len(valid) > 1:
		aucs := make([]float64, len(valid))
		for i, rowIdx := range valid {
			mat.Row(truth, rowIdx, yTrue)
			mat.Row(scores, rowIdx, sPred)
			aucs[i] = rowAUC(truth, scores)
		}
		return Mean(aucs)
	case len(valid) == 1:
		mat.Row(truth, valid[0], yTrue)
		mat.Row(scores, valid[0], sPred)
		return rowAUC(truth, scores)
	default:
		return math.NaN()
	}
}

// rowAUC is the Mann-Whitney estimate of P(score(pos) > score(neg)), tied
// pairs counting one half.
func rowAUC(truth, scores []float64) float64 {
	var wins float64
	positives, negatives := 0, 0
	for i := range truth {
		if truth[i] == 0 {
			negatives++
			continue
		}
		positives++
		for j := range truth {
			if truth[j] != 0 {
				continue
			}
			switch {
			case scores[i] > scores[j]:
				wins++
			case scores[i] == scores[j]:
				wins += 0.5
			}
		}
	}
	return wins / float64(positives*negatives)
}

// AveragePrecisionPerInstance returns the step-wise average precision of each
// row, thresholding at every distinct score. Rows without positives score 0.
func AveragePrecisionPerInstance(yTrue, sPred mat.Matrix) []float64 {
	rows, nObjects := mustMatchDims(yTrue, sPred)

	truth := make([]float64, nObjects)
	scores := make([]float64, nObjects)
	values := make([]float64, rows)
	for rowIdx := range rows {
		mat.Row(truth, rowIdx, yTrue)
		mat.Row(scores, rowIdx, sPred)
		values[rowIdx] = rowAveragePrecision(truth, scores)
	}

	return values
}

// AveragePrecision is the mean of AveragePrecisionPerInstance.
func AveragePrecision(yTrue, sPred mat.Matrix) float64 {
	return Mean(AveragePrecisionPerInstance(yTrue, sPred))
}

func rowAveragePrecision(truth, scores []float64) float64 {
	positives := countPositives(truth)
	if positives == 0 {
		return 0
	}

	order := descendingOrder(scores)

	ap, prevRecall := 0.0, 0.0
	tp := 0
	for start := 0; start < len(order); {
		end := start
		// objects sharing a score cross the threshold together
		for end < len(order) && scores[order[end]] == scores[order[start]] {
			if truth[order[end]] != 0 {
				tp++
			}
			end++
		}

		recall := float64(tp) / float64(positives)
		precision := float64(tp) / float64(end)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
		start = end
	}

	return ap
}

func countPositives(row []float64) int {
	n := 0
	for _, v := range row {
		if v != 0 {
			n++
		}
	}
	return n
}

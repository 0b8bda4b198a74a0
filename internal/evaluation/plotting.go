package evaluation

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// PlotInstanceValues writes a horizontal bar chart of per-instance metric
// values in ascending order. NaN instances are listed last without a bar.
func PlotInstanceValues(w io.Writer, values []float64, title string) {
	type instanceValue struct {
		Instance int
		Value    float64
	}

	finite := make([]instanceValue, 0, len(values))
	var undefined []int
	for i, v := range values {
		if math.IsNaN(v) {
			undefined = append(undefined, i)
			continue
		}
		finite = append(finite, instanceValue{Instance: i, Value: v})
	}

	sort.SliceStable(finite, func(i, j int) bool {
		return finite[i].Value < finite[j].Value
	})

	fmt.Fprintf(w, "\n%s (Terminal Plot - Ascending Order):\n", title)
	fmt.Fprintln(w, "Instance | Value     | Bar Chart")
	fmt.Fprintln(w, "---------|-----------|"+strings.Repeat("-", 50))

	if len(finite) == 0 {
		fmt.Fprintln(w, "no defined values")
	} else {
		minValue := finite[0].Value
		maxValue := finite[len(finite)-1].Value

		maxBarWidth := 50
		for _, iv := range finite {
			var barWidth int
			if maxValue != minValue {
				barWidth = int((iv.Value - minValue) / (maxValue - minValue) * float64(maxBarWidth))
			} else {
				barWidth = maxBarWidth / 2
			}

			bar := strings.Repeat("█", barWidth)
			if barWidth == 0 {
				bar = "▏"
			}

			fmt.Fprintf(w, "%8d | %9.6f | %s\n", iv.Instance, iv.Value, bar)
		}

		fmt.Fprintf(w, "\nScale: Min=%.6f, Max=%.6f\n", minValue, maxValue)
	}

	for _, i := range undefined {
		fmt.Fprintf(w, "%8d |       NaN |\n", i)
	}
}

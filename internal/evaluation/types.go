package evaluation

import (
	"math"

	"github.com/bytedance/sonic"
)

// MetricSpec names one metric of a suite. K is read by cutoff metrics only.
type MetricSpec struct {
	Name string `yaml:"name" json:"name"`
	K    int    `yaml:"k,omitempty" json:"k,omitempty"`
}

// Suite is the list of metrics evaluated on a batch.
type Suite struct {
	Metrics []MetricSpec `yaml:"metrics" json:"metrics"`
}

// Result is the outcome of one metric. Err is set instead of Value when the
// metric could not be evaluated, e.g. because of mismatched shapes.
type Result struct {
	Name  string  `json:"name"`
	K     int     `json:"k,omitempty"`
	Value float64 `json:"value"`
	Err   string  `json:"error,omitempty"`
}

// MarshalJSON writes undefined values (NaN, infinities) as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Name  string   `json:"name"`
		K     int      `json:"k,omitempty"`
		Value *float64 `json:"value"`
		Err   string   `json:"error,omitempty"`
	}{Name: r.Name, K: r.K, Err: r.Err}

	if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
		v := r.Value
		out.Value = &v
	}
	return sonic.Marshal(out)
}

// Report keeps results in suite order.
type Report struct {
	Instances int      `json:"instances"`
	Objects   int      `json:"objects"`
	Results   []Result `json:"results"`
}

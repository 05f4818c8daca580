package report

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// numericThreshold is the fraction of non-missing values that must parse as
// numbers for a column to be treated as numeric. The boundary is inclusive.
const numericThreshold = 0.7

// maxHistogramBuckets and maxCategories bound the size of a report.
const (
	maxHistogramBuckets = 50
	maxCategories       = 50
)

// NumericSummary holds descriptive statistics over the valid (parseable,
// non-missing) values of a numeric column.
type NumericSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// ValueCount is one categorical value and its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary lists the most frequent values of a categorical column.
// Values beyond the top 50 are dropped, not folded into an "other" bucket.
type CategoricalSummary struct {
	Count        int          `json:"count"`
	UniqueValues int          `json:"unique_values"`
	TopValues    []ValueCount `json:"top_values"`
}

// Histogram is an equal-width bucketing of a numeric column. Edges has one
// more entry than Counts.
type Histogram struct {
	BucketCount int       `json:"bucket_count"`
	Edges       []float64 `json:"edges"`
	Counts      []int     `json:"counts"`
}

// BoxPlot holds linear-interpolation quartiles with whiskers clipped to the
// actual data values inside the 1.5*IQR fences.
type BoxPlot struct {
	Min         float64 `json:"min"`
	Q1          float64 `json:"q1"`
	Median      float64 `json:"median"`
	Q3          float64 `json:"q3"`
	Max         float64 `json:"max"`
	IQR         float64 `json:"iqr"`
	WhiskerLow  float64 `json:"whisker_low"`
	WhiskerHigh float64 `json:"whisker_high"`
}

// Distribution pairs the histogram and box plot of a numeric column.
type Distribution struct {
	Histogram Histogram `json:"histogram"`
	BoxPlot   BoxPlot   `json:"box_plot"`
}

// classifyColumn decides whether a column is numeric or categorical.
// Missing entries (nil or empty string) are excluded up front; of the
// remainder, values that fail to parse are coerced to missing. When the
// parsed fraction of non-missing values reaches the threshold, the column is
// numeric and the coerced values feed the statistics.
func classifyColumn(values []*string) (numeric bool, parsed []float64, missing int) {
	var nonMissing int
	for _, v := range values {
		if v == nil || *v == "" {
			missing++
			continue
		}
		nonMissing++
		if f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			parsed = append(parsed, f)
		}
	}
	if nonMissing == 0 {
		return false, nil, missing
	}
	if float64(len(parsed))/float64(nonMissing) >= numericThreshold {
		return true, parsed, missing
	}
	return false, nil, missing
}

func summarize(values []float64) NumericSummary {
	s := NumericSummary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	s.Min = values[0]
	s.Max = values[0]
	var sum float64
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = sum / float64(len(values))

	if len(values) > 1 {
		var ss float64
		for _, v := range values {
			d := v - s.Mean
			ss += d * d
		}
		s.StdDev = math.Sqrt(ss / float64(len(values)-1))
	}
	return s
}

// histogram buckets values into min(50, floor(sqrt(n))) equal-width bins.
// The caller guarantees values is non-empty.
func histogram(values []float64) Histogram {
	n := len(values)
	buckets := int(math.Floor(math.Sqrt(float64(n))))
	if buckets > maxHistogramBuckets {
		buckets = maxHistogramBuckets
	}
	if buckets < 1 {
		buckets = 1
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	h := Histogram{
		BucketCount: buckets,
		Edges:       make([]float64, buckets+1),
		Counts:      make([]int, buckets),
	}

	if lo == hi {
		// Degenerate range: a single bucket holds everything.
		h.BucketCount = 1
		h.Edges = []float64{lo, hi}
		h.Counts = []int{n}
		return h
	}

	width := (hi - lo) / float64(buckets)
	for i := 0; i <= buckets; i++ {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[buckets] = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		h.Counts[idx]++
	}
	return h
}

// quantile computes the q-th quantile of sorted values by linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// boxPlot computes quartiles plus whiskers clipped to the nearest actual
// data value inside [Q1-1.5*IQR, Q3+1.5*IQR]. The caller guarantees values
// is non-empty; values is sorted in place.
func boxPlot(values []float64) BoxPlot {
	sort.Float64s(values)

	b := BoxPlot{
		Min:    values[0],
		Q1:     quantile(values, 0.25),
		Median: quantile(values, 0.5),
		Q3:     quantile(values, 0.75),
		Max:    values[len(values)-1],
	}
	b.IQR = b.Q3 - b.Q1

	lowFence := b.Q1 - 1.5*b.IQR
	highFence := b.Q3 + 1.5*b.IQR

	b.WhiskerLow = b.Min
	for _, v := range values {
		if v >= lowFence {
			b.WhiskerLow = v
			break
		}
	}
	b.WhiskerHigh = b.Max
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] <= highFence {
			b.WhiskerHigh = values[i]
			break
		}
	}
	return b
}

// valueCounts tallies raw string values and keeps the top limit by
// frequency, ties broken by value for a stable report.
func valueCounts(values []*string, limit int) (total int, unique int, top []ValueCount) {
	counts := make(map[string]int)
	for _, v := range values {
		if v == nil || *v == "" {
			continue
		}
		counts[*v]++
		total++
	}

	all := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		all = append(all, ValueCount{Value: v, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Value < all[j].Value
	})

	unique = len(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return total, unique, all
}

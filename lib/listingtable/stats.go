package listingtable

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Summary is the descriptive statistics of one numeric column. Absent
// values are skipped, Count is the number of present ones.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// NumericColumns are the columns Describe covers by default.
func NumericColumns() []string {
	var names []string
	for _, c := range columns {
		if c.numeric {
			names = append(names, c.name)
		}
	}
	return names
}

func numericValues(records []Record, c column) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		cell := c.get(r)
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}

// quantile uses linear interpolation between closest ranks, values must be
// sorted and non-empty.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// Describe summarises the named numeric columns, all of NumericColumns when
// none are given.
func Describe(records []Record, names ...string) ([]Summary, error) {
	if len(names) == 0 {
		names = NumericColumns()
	}

	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		c, ok := lookupColumn(name)
		if !ok || !c.numeric {
			return nil, fmt.Errorf("%q is not a numeric column", name)
		}

		values := numericValues(records, c)
		s := Summary{Column: name, Count: len(values)}
		if len(values) == 0 {
			summaries = append(summaries, s)
			continue
		}
		slices.Sort(values)

		var sum float64
		for _, v := range values {
			sum += v
		}
		s.Mean = sum / float64(len(values))
		if len(values) > 1 {
			var sq float64
			for _, v := range values {
				sq += (v - s.Mean) * (v - s.Mean)
			}
			s.Std = math.Sqrt(sq / float64(len(values)-1))
		}
		s.Min = values[0]
		s.Q1 = quantile(values, 0.25)
		s.Median = quantile(values, 0.5)
		s.Q3 = quantile(values, 0.75)
		s.Max = values[len(values)-1]
		summaries = append(summaries, s)
	}
	return summaries, nil
}

type ValueCount struct {
	Value string
	Count int
}

// ValueCounts tallies a text column, most frequent first, ties by value.
func ValueCounts(records []Record, name string) ([]ValueCount, error) {
	c, ok := lookupColumn(name)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}

	counts := map[string]int{}
	for _, r := range records {
		counts[c.get(r)]++
	}

	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	slices.SortFunc(out, func(a, b ValueCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Value < b.Value {
			return -1
		}
		if a.Value > b.Value {
			return 1
		}
		return 0
	})
	return out, nil
}

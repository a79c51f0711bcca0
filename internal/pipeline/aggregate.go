package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/cleaner/internal/dataset"
	"github.com/spf13/cast"
)

// Group key and measure columns used by Aggregate.
var (
	GroupColumns   = []string{"country", "date"}
	MeasureColumns = []string{"cases", "deaths", "recovered"}
)

// AggregateStats describes what Aggregate did.
type AggregateStats struct {
	Applied    bool
	Groups     int
	NonNumeric int // measure values that could not be read as numbers and counted as 0
}

// Aggregate groups rows by (country, date) and sums the measure columns.
// It applies only when every group and measure column is present; otherwise
// ds is returned unchanged. Groups appear in the order their key is first seen.
func Aggregate(ds *dataset.Dataset) (*dataset.Dataset, AggregateStats) {
	required := append(append([]string(nil), GroupColumns...), MeasureColumns...)
	if !ds.HasColumns(required...) {
		return ds, AggregateStats{}
	}

	keyIdx := make([]int, len(GroupColumns))
	for i, name := range GroupColumns {
		keyIdx[i] = ds.ColumnIndex(name)
	}
	measureIdx := make([]int, len(MeasureColumns))
	for i, name := range MeasureColumns {
		measureIdx[i] = ds.ColumnIndex(name)
	}

	type group struct {
		key  []dataset.Value
		sums []*sum
	}

	var order []*group
	groups := make(map[string]*group)
	stats := AggregateStats{Applied: true}

	for r := 0; r < ds.NumRows(); r++ {
		keyVals := make([]dataset.Value, len(keyIdx))
		for i, c := range keyIdx {
			keyVals[i] = ds.Value(r, c)
		}
		k := dataset.Key(keyVals...)

		g, ok := groups[k]
		if !ok {
			g = &group{key: keyVals, sums: make([]*sum, len(measureIdx))}
			for i := range g.sums {
				g.sums[i] = &sum{integral: true}
			}
			groups[k] = g
			order = append(order, g)
		}

		for i, c := range measureIdx {
			if !g.sums[i].add(ds.Value(r, c)) {
				stats.NonNumeric++
			}
		}
	}

	rows := make([][]dataset.Value, len(order))
	for i, g := range order {
		row := make([]dataset.Value, 0, len(required))
		row = append(row, g.key...)
		for _, s := range g.sums {
			row = append(row, s.value())
		}
		rows[i] = row
	}
	stats.Groups = len(order)

	// required names are distinct and rows are rectangular.
	return dataset.MustFromRows(required, rows), stats
}

// sum accumulates a column total, staying integral while every input is.
type sum struct {
	integral bool
	i        int64
	f        float64
}

// add folds v into the total. It reports false when v is not numeric, in
// which case v contributes nothing.
func (s *sum) add(v dataset.Value) bool {
	switch x := v.(type) {
	case int64:
		s.i += x
		s.f += float64(x)
		return true
	case bool:
		n := cast.ToInt64(x)
		s.i += n
		s.f += float64(n)
		return true
	case float64:
		s.integral = false
		s.f += x
		return true
	case string:
		str := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			s.i += n
			s.f += float64(n)
			return true
		}
		if f, ok := parseDecimal(str); ok {
			s.integral = false
			s.f += f
			return true
		}
		return false
	default:
		if f, err := cast.ToFloat64E(x); err == nil {
			s.integral = false
			s.f += f
			return true
		}
		return false
	}
}

// parseDecimal reads s as a base-10 number. Hex, underscores and non-finite
// values are rejected.
func parseDecimal(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (s *sum) value() dataset.Value {
	if s.integral {
		return s.i
	}
	return s.f
}

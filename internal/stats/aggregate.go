// Package stats computes the critical-day exceedance aggregation.
package stats

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/tommy-klein/heatdays/internal/series"
)

// PointYear is one stage-1 row: the count of critical days for one grid
// point in one year, carrying the point's region names.
type PointYear struct {
	Year     int
	PointID  int
	Level1   string
	Level2   string
	Critical int
}

// Aggregate is one stage-2 row: the mean critical-day count across the grid
// points of one region in one year.
type Aggregate struct {
	Year   int
	Level1 string
	Level2 string
	Mean   float64
}

// CriticalDays groups the joined table by (year, point, region) and counts
// days whose value is strictly greater than threshold. A value exactly equal
// to the threshold does not count; NaN never counts. Output is sorted by
// (year, point) for determinism.
func CriticalDays(rows []series.Row, threshold float64) []PointYear {
	type key struct {
		year    int
		pointID int
	}
	counts := make(map[key]*PointYear)

	for _, r := range rows {
		k := key{year: r.Date.Year(), pointID: r.PointID}
		py, ok := counts[k]
		if !ok {
			py = &PointYear{Year: k.year, PointID: k.pointID, Level1: r.Level1, Level2: r.Level2}
			counts[k] = py
		}
		if !math.IsNaN(r.Value) && r.Value > threshold {
			py.Critical++
		}
	}

	out := make([]PointYear, 0, len(counts))
	for _, py := range counts {
		out = append(out, *py)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].PointID < out[j].PointID
	})
	return out
}

// MeanByRegion groups stage-1 counts by (year, region) and takes the
// arithmetic mean across points. Only observed (year, region) pairs appear;
// nothing is imputed. Output is sorted by (year, level1, level2).
func MeanByRegion(pointYears []PointYear) []Aggregate {
	type key struct {
		year           int
		level1, level2 string
	}
	groups := make(map[key][]float64)

	for _, py := range pointYears {
		k := key{year: py.Year, level1: py.Level1, level2: py.Level2}
		groups[k] = append(groups[k], float64(py.Critical))
	}

	out := make([]Aggregate, 0, len(groups))
	for k, vals := range groups {
		out = append(out, Aggregate{
			Year:   k.year,
			Level1: k.level1,
			Level2: k.level2,
			Mean:   stat.Mean(vals, nil),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Level1 != out[j].Level1 {
			return out[i].Level1 < out[j].Level1
		}
		return out[i].Level2 < out[j].Level2
	})

	zap.L().Info("aggregated critical days",
		zap.Int("point_years", len(pointYears)),
		zap.Int("year_regions", len(out)),
	)
	return out
}

// MeanOverYears collapses the aggregate table to the long-run mean per
// level-2 region, for the choropleth.
func MeanOverYears(aggs []Aggregate) map[string]float64 {
	sums := make(map[string]float64)
	ns := make(map[string]int)
	for _, a := range aggs {
		sums[a.Level2] += a.Mean
		ns[a.Level2]++
	}
	out := make(map[string]float64, len(sums))
	for k, s := range sums {
		out[k] = s / float64(ns[k])
	}
	return out
}

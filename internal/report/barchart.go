package report

import (
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/tommy-klein/heatdays/internal/stats"
)

// StackedBars renders one bar per year, segments stacked by region, no
// legend, writing a PNG to path. Segment colors are assigned from the
// default palette by sorted region name, so a region keeps its color across
// years.
func StackedBars(path string, aggs []stats.Aggregate) error {
	years, regions := axes(aggs)
	if len(years) == 0 {
		zap.L().Warn("stacked bar chart skipped: no aggregate rows")
		return nil
	}

	colorOf := make(map[string]drawing.Color, len(regions))
	for i, reg := range regions {
		colorOf[reg] = chart.GetDefaultColor(i)
	}

	byYear := make(map[int]map[string]float64)
	var maxTotal float64
	for _, a := range aggs {
		if byYear[a.Year] == nil {
			byYear[a.Year] = make(map[string]float64)
		}
		byYear[a.Year][a.Level2] += a.Mean
	}
	for _, vals := range byYear {
		var total float64
		for _, v := range vals {
			total += v
		}
		if total > maxTotal {
			maxTotal = total
		}
	}
	if maxTotal == 0 {
		zap.L().Warn("stacked bar chart skipped: all aggregate values are zero")
		return nil
	}

	var bars []chart.StackedBar
	for _, year := range years {
		vals := byYear[year]
		var total float64
		values := make([]chart.Value, 0, len(regions)+1)
		for _, reg := range regions {
			v, ok := vals[reg]
			if !ok || v == 0 {
				continue
			}
			total += v
			values = append(values, chart.Value{
				Value: v,
				Style: chart.Style{
					FillColor:   colorOf[reg],
					StrokeColor: colorOf[reg],
				},
			})
		}
		// go-chart normalizes each bar to full height. A transparent filler
		// up to the tallest year keeps bar heights proportional to the
		// actual yearly totals.
		if maxTotal > total {
			values = append(values, chart.Value{
				Value: maxTotal - total,
				Style: chart.Style{
					FillColor:   drawing.ColorTransparent,
					StrokeColor: drawing.ColorTransparent,
				},
			})
		}
		bars = append(bars, chart.StackedBar{
			Name:   fmt.Sprintf("%d", year),
			Width:  40,
			Values: values,
		})
	}

	graph := chart.StackedBarChart{
		Title: "Mean critical days per year by region",
		TitleStyle: chart.Style{
			FontSize: 14,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 40},
		},
		Width:      1100,
		Height:     500,
		BarSpacing: 12,
		XAxis:      chart.Shown(),
		YAxis:      chart.Hidden(),
		Bars:       bars,
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := graph.Render(chart.PNG, f); err != nil {
		return eris.Wrapf(err, "report: render stacked bars %s", path)
	}
	zap.L().Info("stacked bar chart written", zap.String("path", path), zap.Int("years", len(years)))
	return nil
}

// axes returns the sorted distinct years and level-2 region names.
func axes(aggs []stats.Aggregate) ([]int, []string) {
	yearSet := make(map[int]bool)
	regionSet := make(map[string]bool)
	for _, a := range aggs {
		yearSet[a.Year] = true
		regionSet[a.Level2] = true
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	regions := make([]string, 0, len(regionSet))
	for r := range regionSet {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return years, regions
}

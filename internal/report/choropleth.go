// Package report renders the terminal artifacts of a run: a choropleth map,
// a stacked yearly bar chart, and a CSV export of the aggregate table.
package report

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/tommy-klein/heatdays/internal/boundary"
)

// ramp endpoints, light yellow to dark red. Monotonic in value.
var (
	rampLow  = color.RGBA{R: 255, G: 237, B: 160, A: 255}
	rampHigh = color.RGBA{R: 189, G: 0, B: 38, A: 255}
	noData   = color.RGBA{R: 224, G: 224, B: 224, A: 255}
	outline  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// Choropleth renders the collection's polygons filled by the per-region value
// on a monotonic color ramp, writing a PNG to path. Regions absent from
// values are drawn gray. Values are keyed by the region's level-2 name.
func Choropleth(path string, c *boundary.Collection, values map[string]float64, width, height int) error {
	lo, hi := valueRange(values)

	b := c.Bounds()
	project := projector(b, width, height)

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFillRule(gg.FillRuleEvenOdd)

	for _, r := range c.Regions {
		v, ok := values[r.Name()]
		if ok && hi > lo {
			dc.SetColor(rampColor((v - lo) / (hi - lo)))
		} else if ok {
			dc.SetColor(rampColor(1))
		} else {
			dc.SetColor(noData)
		}
		tracePolygons(dc, r.Geom, project)
		dc.Fill()

		dc.SetColor(outline)
		dc.SetLineWidth(0.8)
		tracePolygons(dc, r.Geom, project)
		dc.Stroke()
	}

	if err := dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "report: write choropleth %s", path)
	}
	zap.L().Info("choropleth written", zap.String("path", path), zap.Int("regions", len(c.Regions)))
	return nil
}

func valueRange(values map[string]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// projector maps lon/lat to canvas coordinates, preserving aspect and
// flipping latitude into screen space.
func projector(b *geom.Bounds, width, height int) func(lon, lat float64) (float64, float64) {
	const margin = 20.0
	spanX := b.Max(0) - b.Min(0)
	spanY := b.Max(1) - b.Min(1)
	scale := math.Min(
		(float64(width)-2*margin)/spanX,
		(float64(height)-2*margin)/spanY,
	)
	// Center the drawing.
	offX := (float64(width) - spanX*scale) / 2
	offY := (float64(height) - spanY*scale) / 2
	minLon, maxLat := b.Min(0), b.Max(1)

	return func(lon, lat float64) (float64, float64) {
		return offX + (lon-minLon)*scale, offY + (maxLat-lat)*scale
	}
}

func rampColor(t float64) color.Color {
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b uint8) uint8 { return uint8(float64(a) + t*(float64(b)-float64(a))) }
	return color.RGBA{
		R: lerp(rampLow.R, rampHigh.R),
		G: lerp(rampLow.G, rampHigh.G),
		B: lerp(rampLow.B, rampHigh.B),
		A: 255,
	}
}

// tracePolygons adds every ring of the multipolygon as a subpath; with the
// even-odd fill rule, interior rings become holes.
func tracePolygons(dc *gg.Context, mp *geom.MultiPolygon, project func(lon, lat float64) (float64, float64)) {
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for ri := 0; ri < poly.NumLinearRings(); ri++ {
			flat := poly.LinearRing(ri).FlatCoords()
			for j := 0; j+1 < len(flat); j += 2 {
				x, y := project(flat[j], flat[j+1])
				if j == 0 {
					dc.NewSubPath()
					dc.MoveTo(x, y)
				} else {
					dc.LineTo(x, y)
				}
			}
			dc.ClosePath()
		}
	}
}

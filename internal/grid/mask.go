// Package grid intersects raster cell centers with a boundary collection.
package grid

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tommy-klein/heatdays/internal/boundary"
	"github.com/tommy-klein/heatdays/internal/raster"
)

// Point is a retained raster cell center. ID is the point's position in the
// retained sequence, dense 0..N-1, assigned in row-major order (lat outer,
// lon inner) over the cropped extent.
type Point struct {
	ID   int
	Lon  float64
	Lat  float64
	XIdx int
	YIdx int
}

// RegionRef names the region enclosing a point. Found is false for points
// that matched no polygon; such points are kept, never dropped.
type RegionRef struct {
	Level1 string
	Level2 string
	Found  bool
}

// Lookup maps point ID to its enclosing region, one entry per point.
type Lookup map[int]RegionRef

// sameCRS accepts the common aliases for geographic WGS 84.
func sameCRS(a, b string) bool {
	norm := func(s string) string {
		switch s {
		case "EPSG:4326", "WGS 84", "WGS84":
			return "WGS84"
		}
		return s
	}
	return norm(a) == norm(b)
}

// Mask retains the raster cell centers that fall inside the collection's
// union and are non-missing in the reference layer (day 0), and builds the
// point-to-region lookup table.
func Mask(r *raster.Raster, c *boundary.Collection) ([]Point, Lookup, error) {
	if !sameCRS(r.CRS(), c.CRS()) {
		return nil, nil, eris.Wrapf(boundary.ErrProjectionMismatch,
			"grid: raster CRS %q vs boundary CRS %q", r.CRS(), c.CRS())
	}
	if r.NumDays() == 0 {
		return nil, nil, eris.New("grid: raster has no layers")
	}

	// Crop iteration to the collection's bounding box before the per-cell
	// containment tests.
	b := c.Bounds()
	minLon, minLat := b.Min(0), b.Min(1)
	maxLon, maxLat := b.Max(0), b.Max(1)

	var points []Point
	lookup := make(Lookup)
	var unmatched int

	for yi := 0; yi < r.NY(); yi++ {
		lat := r.Lat[yi]
		if lat < minLat || lat > maxLat {
			continue
		}
		for xi := 0; xi < r.NX(); xi++ {
			lon := r.Lon[xi]
			if lon < minLon || lon > maxLon {
				continue
			}
			if math.IsNaN(r.Value(0, yi, xi)) {
				continue
			}
			if !c.Contains(lon, lat) {
				continue
			}

			id := len(points)
			points = append(points, Point{ID: id, Lon: lon, Lat: lat, XIdx: xi, YIdx: yi})

			l1, l2, found := c.Locate(lon, lat)
			if !found {
				unmatched++
			}
			lookup[id] = RegionRef{Level1: l1, Level2: l2, Found: found}
		}
	}

	zap.L().Info("grid masked",
		zap.Int("points", len(points)),
		zap.Int("unmatched", unmatched),
	)
	return points, lookup, nil
}

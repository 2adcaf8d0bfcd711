// Package boundary loads administrative boundary polygons and answers
// point-in-region queries against them.
package boundary

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Sentinel errors for boundary loading.
var (
	// ErrDataNotFound indicates a country/level with no matching boundary source.
	ErrDataNotFound = eris.New("boundary: data not found")
	// ErrProjectionMismatch indicates coordinate reference systems that disagree
	// and cannot be reconciled.
	ErrProjectionMismatch = eris.New("boundary: projection mismatch")
)

// Region is one administrative polygon tagged with its two-level name.
// Level2 is empty for level-1 boundary sets.
type Region struct {
	Level1 string
	Level2 string
	Geom   *geom.MultiPolygon
}

// Name returns the most specific admin name the region carries.
func (r Region) Name() string {
	if r.Level2 != "" {
		return r.Level2
	}
	return r.Level1
}

// Collection is an ordered set of regions sharing one CRS.
type Collection struct {
	Regions []Region
	crs     string
}

// NewCollection builds a collection; an empty crs means WGS 84.
func NewCollection(regions []Region, crs string) *Collection {
	if crs == "" {
		crs = "WGS84"
	}
	return &Collection{Regions: regions, crs: crs}
}

// CRS returns the coordinate reference system identifier.
func (c *Collection) CRS() string { return c.crs }

// Bounds returns the bounding box of the whole collection.
func (c *Collection) Bounds() *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, r := range c.Regions {
		b = b.Extend(r.Geom)
	}
	return b
}

// Locate returns the region enclosing the point, or found=false when the
// point lies in no region. The first enclosing region in collection order wins.
func (c *Collection) Locate(lon, lat float64) (level1, level2 string, found bool) {
	p := geom.Coord{lon, lat}
	for _, r := range c.Regions {
		if multiPolygonContains(r.Geom, p) {
			return r.Level1, r.Level2, true
		}
	}
	return "", "", false
}

// Contains reports whether the point lies inside the union of all regions.
func (c *Collection) Contains(lon, lat float64) bool {
	_, _, found := c.Locate(lon, lat)
	return found
}

func multiPolygonContains(mp *geom.MultiPolygon, p geom.Coord) bool {
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonContains(mp.Polygon(i), p) {
			return true
		}
	}
	return false
}

// polygonContains tests the exterior ring and subtracts holes.
func polygonContains(poly *geom.Polygon, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

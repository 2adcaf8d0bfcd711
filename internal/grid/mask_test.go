package grid

import (
	"math"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/tommy-klein/heatdays/internal/boundary"
	"github.com/tommy-klein/heatdays/internal/raster"
)

func rectRegion(t *testing.T, level1, level2 string, minLon, minLat, maxLon, maxLat float64) boundary.Region {
	t.Helper()
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		minLon, minLat,
		minLon, maxLat,
		maxLon, maxLat,
		maxLon, minLat,
		minLon, minLat,
	})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return boundary.Region{Level1: level1, Level2: level2, Geom: mp}
}

// testRaster builds a one-day raster over the given coordinate vectors with
// every cell set to value.
func testRaster(t *testing.T, lon, lat []float64, value float64) *raster.Raster {
	t.Helper()
	data := sparse.ZerosDense(1, len(lat), len(lon))
	for yi := range lat {
		for xi := range lon {
			data.Set(value, 0, yi, xi)
		}
	}
	r, err := raster.New("tx", lon, lat, []time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}, "", data)
	require.NoError(t, err)
	return r
}

func TestMask_RetainsInsidePoints(t *testing.T) {
	// lon 5.0 and lat 9.0 are outside the collection's bounding box.
	lon := []float64{0.25, 0.75, 5.0}
	lat := []float64{0.25, 0.75, 9.0}
	r := testRaster(t, lon, lat, 20)

	c := boundary.NewCollection([]boundary.Region{
		rectRegion(t, "North", "A", 0, 0, 1, 1),
	}, "")

	points, lookup, err := Mask(r, c)
	require.NoError(t, err)
	require.Len(t, points, 4)
	require.Len(t, lookup, 4)

	// Row-major over the cropped extent: lat outer, lon inner.
	assert.Equal(t, Point{ID: 0, Lon: 0.25, Lat: 0.25, XIdx: 0, YIdx: 0}, points[0])
	assert.Equal(t, Point{ID: 1, Lon: 0.75, Lat: 0.25, XIdx: 1, YIdx: 0}, points[1])
	assert.Equal(t, Point{ID: 2, Lon: 0.25, Lat: 0.75, XIdx: 0, YIdx: 1}, points[2])
	assert.Equal(t, Point{ID: 3, Lon: 0.75, Lat: 0.75, XIdx: 1, YIdx: 1}, points[3])

	for id, p := range points {
		assert.Equal(t, id, p.ID, "ids must be dense 0..N-1")
		ref, ok := lookup[p.ID]
		require.True(t, ok, "lookup must have one entry per point")
		assert.True(t, ref.Found)
		assert.Equal(t, "North", ref.Level1)
		assert.Equal(t, "A", ref.Level2)
	}
}

func TestMask_SkipsMissingReferenceCells(t *testing.T) {
	lon := []float64{0.25, 0.75}
	lat := []float64{0.25, 0.75}
	data := sparse.ZerosDense(1, 2, 2)
	for yi := 0; yi < 2; yi++ {
		for xi := 0; xi < 2; xi++ {
			data.Set(20, 0, yi, xi)
		}
	}
	data.Set(math.NaN(), 0, 1, 0)
	r, err := raster.New("tx", lon, lat, []time.Time{time.Now()}, "", data)
	require.NoError(t, err)

	c := boundary.NewCollection([]boundary.Region{
		rectRegion(t, "North", "A", 0, 0, 1, 1),
	}, "")

	points, lookup, err := Mask(r, c)
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Len(t, lookup, 3)
	for _, p := range points {
		assert.False(t, p.XIdx == 0 && p.YIdx == 1, "missing cell must not be retained")
	}
}

func TestMask_AssignsRegionsAcrossPolygons(t *testing.T) {
	lon := []float64{0.5, 1.5}
	lat := []float64{0.5}
	r := testRaster(t, lon, lat, 20)

	c := boundary.NewCollection([]boundary.Region{
		rectRegion(t, "North", "A", 0, 0, 1, 1),
		rectRegion(t, "North", "B", 1, 0, 2, 1),
	}, "")

	points, lookup, err := Mask(r, c)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "A", lookup[0].Level2)
	assert.Equal(t, "B", lookup[1].Level2)
}

func TestMask_ProjectionMismatch(t *testing.T) {
	lon := []float64{0.5}
	lat := []float64{0.5}
	data := sparse.ZerosDense(1, 1, 1)
	r, err := raster.New("tx", lon, lat, []time.Time{time.Now()}, "EPSG:3857", data)
	require.NoError(t, err)

	c := boundary.NewCollection([]boundary.Region{
		rectRegion(t, "North", "A", 0, 0, 1, 1),
	}, "")

	_, _, err = Mask(r, c)
	require.Error(t, err)
	assert.True(t, eris.Is(err, boundary.ErrProjectionMismatch))
}

// Reversing the latitude axis renumbers point IDs but must not change which
// region any coordinate maps to.
func TestMask_IterationOrderOnlyChangesIDs(t *testing.T) {
	lonFwd := []float64{0.25, 0.75, 1.5}
	latFwd := []float64{0.25, 0.75}
	latRev := []float64{0.75, 0.25}

	c := boundary.NewCollection([]boundary.Region{
		rectRegion(t, "North", "A", 0, 0, 1, 1),
		rectRegion(t, "North", "B", 1, 0, 2, 1),
	}, "")

	type coordRegion struct {
		lon, lat float64
		level2   string
	}
	collect := func(r *raster.Raster) map[coordRegion]bool {
		points, lookup, err := Mask(r, c)
		require.NoError(t, err)
		set := make(map[coordRegion]bool)
		for _, p := range points {
			set[coordRegion{p.Lon, p.Lat, lookup[p.ID].Level2}] = true
		}
		return set
	}

	fwd := collect(testRaster(t, lonFwd, latFwd, 20))
	rev := collect(testRaster(t, lonFwd, latRev, 20))
	assert.Equal(t, fwd, rev)
}

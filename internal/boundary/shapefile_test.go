package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// cwRect returns a clockwise rectangle ring, the shapefile exterior convention.
func cwRect(minX, minY, maxX, maxY float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX, Y: maxY},
		{X: maxX, Y: maxY},
		{X: maxX, Y: minY},
		{X: minX, Y: minY},
	}
}

// ccwRect returns a counter-clockwise rectangle ring, the hole convention.
func ccwRect(minX, minY, maxX, maxY float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}
}

// writeShapefile writes polygon records with NAME_1/NAME_2 attributes.
func writeShapefile(t *testing.T, path string, rings [][][]shp.Point, names [][2]string) {
	t.Helper()

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("NAME_1", 64),
		shp.StringField("NAME_2", 64),
	})

	for i, recRings := range rings {
		pl := shp.NewPolyLine(recRings)
		w.Write((*shp.Polygon)(pl))
		w.WriteAttribute(i, 0, names[i][0])
		w.WriteAttribute(i, 1, names[i][1])
	}
	w.Close()
}

func TestLoadShapefile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gadm41_TST_2.shp")

	writeShapefile(t, path,
		[][][]shp.Point{
			{cwRect(0, 0, 1, 1)},
			{cwRect(1, 0, 2, 1)},
		},
		[][2]string{
			{"North", "A"},
			{"North", "B"},
		},
	)

	c, err := LoadShapefile(path)
	require.NoError(t, err)
	require.Len(t, c.Regions, 2)

	assert.Equal(t, "North", c.Regions[0].Level1)
	assert.Equal(t, "A", c.Regions[0].Level2)
	assert.Equal(t, "B", c.Regions[1].Level2)
	assert.Equal(t, "WGS84", c.CRS())

	_, l2, found := c.Locate(0.5, 0.5)
	require.True(t, found)
	assert.Equal(t, "A", l2)
	_, l2, found = c.Locate(1.5, 0.5)
	require.True(t, found)
	assert.Equal(t, "B", l2)
	assert.False(t, c.Contains(5, 5))
}

func TestLoadShapefile_HoleRingGrouping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "donut.shp")

	writeShapefile(t, path,
		[][][]shp.Point{
			{cwRect(0, 0, 4, 4), ccwRect(1, 1, 3, 3)},
		},
		[][2]string{{"Ring", "Donut"}},
	)

	c, err := LoadShapefile(path)
	require.NoError(t, err)
	require.Len(t, c.Regions, 1)

	assert.True(t, c.Contains(0.5, 0.5))
	assert.False(t, c.Contains(2, 2), "hole interior must be excluded")
}

func TestLoadShapefile_WGS84Sidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "named.shp")
	writeShapefile(t, path, [][][]shp.Point{{cwRect(0, 0, 1, 1)}}, [][2]string{{"N", "A"}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "named.prj"), []byte(wgs84PRJ), 0o644))

	c, err := LoadShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, "WGS84", c.CRS())
}

func TestLoadShapefile_ProjectedSidecarRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj.shp")
	writeShapefile(t, path, [][][]shp.Point{{cwRect(0, 0, 1, 1)}}, [][2]string{{"N", "A"}})

	lambert := `PROJCS["RGF93_Lambert_93",GEOGCS["GCS_RGF_1993",DATUM["D_RGF_1993",SPHEROID["GRS_1980",6378137.0,298.257222101]]]]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proj.prj"), []byte(lambert), 0o644))

	_, err := LoadShapefile(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrProjectionMismatch))
}

func TestLoadShapefile_MissingNameField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nameless.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("OTHER", 8)})
	pl := shp.NewPolyLine([][]shp.Point{cwRect(0, 0, 1, 1)})
	w.Write((*shp.Polygon)(pl))
	w.WriteAttribute(0, 0, "x")
	w.Close()

	_, err = LoadShapefile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NAME_1")
}

func TestLoadShapefile_MissingFile(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "absent.shp"))
	require.Error(t, err)
}

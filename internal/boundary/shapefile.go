package boundary

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefile reads an admin boundary shapefile into a Collection. The
// NAME_1/NAME_2 attributes become the two-level region names; NAME_2 is
// optional (level-1 files). A .prj sidecar describing anything other than a
// geographic WGS 84 CRS fails with ErrProjectionMismatch; an absent sidecar
// is assumed WGS 84.
func LoadShapefile(shpPath string) (*Collection, error) {
	crs, err := checkProjection(shpPath)
	if err != nil {
		return nil, err
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	name1Idx := fieldIndex(reader, "NAME_1")
	name2Idx := fieldIndex(reader, "NAME_2")
	if name1Idx < 0 {
		return nil, eris.Errorf("boundary: %s: required field NAME_1 not found", shpPath)
	}

	var regions []Region
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}

		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		r := Region{
			Level1: strings.TrimSpace(strings.TrimRight(reader.Attribute(name1Idx), "\x00")),
			Geom:   mp,
		}
		if name2Idx >= 0 {
			r.Level2 = strings.TrimSpace(strings.TrimRight(reader.Attribute(name2Idx), "\x00"))
		}
		regions = append(regions, r)
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	if len(regions) == 0 {
		return nil, eris.Wrapf(ErrDataNotFound, "boundary: %s has no polygon records", shpPath)
	}

	return NewCollection(regions, crs), nil
}

// checkProjection validates the .prj sidecar. There is no reprojection
// support; anything that is not geographic WGS 84 fails fast.
func checkProjection(shpPath string) (string, error) {
	prjPath := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	data, err := os.ReadFile(prjPath)
	if os.IsNotExist(err) {
		return "WGS84", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "boundary: read %s", prjPath)
	}

	wkt := string(data)
	upper := strings.ToUpper(wkt)
	if strings.HasPrefix(upper, "GEOGCS") &&
		(strings.Contains(upper, "WGS_1984") || strings.Contains(upper, "WGS 84") || strings.Contains(upper, "WGS84")) {
		return "WGS84", nil
	}
	return "", eris.Wrapf(ErrProjectionMismatch, "boundary: %s declares unsupported CRS %q", prjPath, firstLine(wkt))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return strings.TrimSpace(s)
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a go-geom
// MultiPolygon, grouping hole rings under their preceding exterior ring.
// Shapefile convention: exterior rings wind clockwise, holes counter-clockwise.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var cur *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		// A clockwise ring (negative signed area) opens a new polygon; a
		// counter-clockwise ring is a hole in the one before it. The first
		// ring is always exterior regardless of winding, for sloppy writers.
		if cur == nil || signedArea(flat) < 0 {
			if cur != nil {
				if err := mp.Push(cur); err != nil {
					zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
				}
			}
			cur = geom.NewPolygon(geom.XY)
		}
		if err := cur.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if cur != nil {
		if err := mp.Push(cur); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace sum over a flat XY ring; positive means
// counter-clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}

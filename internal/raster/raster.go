package raster

import (
	"math"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sentinel errors for raster loading.
var (
	// ErrDataNotFound indicates a missing dataset file or variable.
	ErrDataNotFound = eris.New("raster: data not found")
	// ErrFormat indicates a file that cannot be parsed as a gridded dataset.
	ErrFormat = eris.New("raster: unparseable gridded dataset")
	// ErrDateParse indicates an unrecognized layer date encoding.
	ErrDateParse = eris.New("raster: unparseable layer date encoding")
)

// DefaultCRS is assumed when a dataset carries no projection metadata.
// E-OBS style grids are regular lat/lon on WGS 84.
const DefaultCRS = "WGS84"

// Raster is a multi-layer gridded dataset, one layer per day, loaded fully
// into memory and read-only thereafter. Missing cells are NaN.
type Raster struct {
	Variable string

	// Cell-center coordinate vectors; Lon has NX entries, Lat has NY.
	Lon []float64
	Lat []float64

	days []time.Time
	crs  string

	// data has shape [days, NY, NX].
	data *sparse.DenseArray
}

// New builds an in-memory raster. data must have shape [len(days), len(lat), len(lon)].
func New(variable string, lon, lat []float64, days []time.Time, crs string, data *sparse.DenseArray) (*Raster, error) {
	if len(data.Shape) != 3 ||
		data.Shape[0] != len(days) || data.Shape[1] != len(lat) || data.Shape[2] != len(lon) {
		return nil, eris.Wrapf(ErrFormat, "raster: data shape %v does not match %d days x %d lat x %d lon",
			data.Shape, len(days), len(lat), len(lon))
	}
	if crs == "" {
		crs = DefaultCRS
	}
	return &Raster{Variable: variable, Lon: lon, Lat: lat, days: days, crs: crs, data: data}, nil
}

// Load opens the gridded dataset addressed by substituting variable into the
// {var} placeholder of pathTemplate and reads it fully into memory.
func Load(pathTemplate, variable string) (*Raster, error) {
	path := strings.ReplaceAll(pathTemplate, "{var}", variable)

	ff, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrDataNotFound, "raster: open %s", path)
		}
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = ff.Close() }()

	f, err := cdf.Open(ff)
	if err != nil {
		return nil, eris.Wrapf(ErrFormat, "raster: parse %s: %v", path, err)
	}

	if !hasVariable(f, variable) {
		return nil, eris.Wrapf(ErrDataNotFound, "raster: variable %s not in %s", variable, path)
	}

	dims := f.Header.Dimensions(variable)
	if len(dims) != 3 {
		return nil, eris.Wrapf(ErrFormat, "raster: variable %s has %d dimensions, want 3 (time, lat, lon)",
			variable, len(dims))
	}
	timeDim, latDim, lonDim := dims[0], dims[1], dims[2]

	lon, err := readCoord(f, lonDim, path)
	if err != nil {
		return nil, err
	}
	lat, err := readCoord(f, latDim, path)
	if err != nil {
		return nil, err
	}

	days, err := readDays(f, timeDim)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: %s", path)
	}

	values, err := readValues(f, variable)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: %s", path)
	}

	lengths := f.Header.Lengths(variable)
	want := lengths[0] * lengths[1] * lengths[2]
	if len(values) != want ||
		lengths[0] != len(days) || lengths[1] != len(lat) || lengths[2] != len(lon) {
		return nil, eris.Wrapf(ErrFormat, "raster: %s: variable %s dims %v disagree with coordinate lengths",
			path, variable, lengths)
	}

	data := sparse.ZerosDense(lengths...)
	copy(data.Elements, values)

	zap.L().Info("raster loaded",
		zap.String("path", path),
		zap.String("variable", variable),
		zap.Int("days", len(days)),
		zap.Int("ny", len(lat)),
		zap.Int("nx", len(lon)),
	)

	return &Raster{
		Variable: variable,
		Lon:      lon,
		Lat:      lat,
		days:     days,
		crs:      globalCRS(f),
		data:     data,
	}, nil
}

// NX returns the number of longitude cells.
func (r *Raster) NX() int { return len(r.Lon) }

// NY returns the number of latitude cells.
func (r *Raster) NY() int { return len(r.Lat) }

// NumDays returns the number of layers.
func (r *Raster) NumDays() int { return len(r.days) }

// Days returns the calendar date of every layer, in layer order.
func (r *Raster) Days() []time.Time { return r.days }

// CRS returns the coordinate reference system identifier.
func (r *Raster) CRS() string { return r.crs }

// Value returns the cell value at (day, lat index, lon index); NaN when missing.
func (r *Raster) Value(day, yi, xi int) float64 {
	return r.data.Get(day, yi, xi)
}

// SeriesAt returns the full per-day value vector at one cell.
func (r *Raster) SeriesAt(yi, xi int) []float64 {
	out := make([]float64, len(r.days))
	for d := range r.days {
		out[d] = r.data.Get(d, yi, xi)
	}
	return out
}

func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readCoord reads a coordinate variable named after its dimension.
func readCoord(f *cdf.File, dim, path string) ([]float64, error) {
	if !hasVariable(f, dim) {
		return nil, eris.Wrapf(ErrFormat, "raster: %s: no coordinate variable for dimension %s", path, dim)
	}
	vals, err := readValues(f, dim)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: %s: coordinate %s", path, dim)
	}
	return vals, nil
}

// readValues reads a variable as float64, applying scale_factor/add_offset
// packing and converting _FillValue cells to NaN.
func readValues(f *cdf.File, name string) ([]float64, error) {
	n := 1
	for _, l := range f.Header.Lengths(name) {
		n *= l
	}

	r := f.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, eris.Wrapf(ErrFormat, "read variable %s: %v", name, err)
	}

	raw := make([]float64, n)
	switch b := buf.(type) {
	case []float64:
		copy(raw, b)
	case []float32:
		for i, v := range b {
			raw[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			raw[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			raw[i] = float64(v)
		}
	case []int8:
		for i, v := range b {
			raw[i] = float64(v)
		}
	default:
		return nil, eris.Wrapf(ErrFormat, "variable %s has unsupported storage type %T", name, buf)
	}

	fill, hasFill := attrFloat(f, name, "_FillValue")
	scale, hasScale := attrFloat(f, name, "scale_factor")
	offset, hasOffset := attrFloat(f, name, "add_offset")
	if !hasScale {
		scale = 1
	}
	if !hasOffset {
		offset = 0
	}

	for i, v := range raw {
		if hasFill && v == fill {
			raw[i] = math.NaN()
			continue
		}
		raw[i] = v*scale + offset
	}
	return raw, nil
}

// attrFloat reads a numeric attribute regardless of its storage type.
func attrFloat(f *cdf.File, v, name string) (float64, bool) {
	a := f.Header.GetAttribute(v, name)
	if a == nil {
		return 0, false
	}
	switch t := a.(type) {
	case []float64:
		if len(t) > 0 {
			return t[0], true
		}
	case []float32:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	case []int32:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	case []int16:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	}
	return 0, false
}

func attrString(f *cdf.File, v, name string) string {
	a := f.Header.GetAttribute(v, name)
	if a == nil {
		return ""
	}
	if s, ok := a.(string); ok {
		return s
	}
	return ""
}

func globalCRS(f *cdf.File) string {
	if s := attrString(f, "", "crs"); s != "" {
		return s
	}
	if s := attrString(f, "", "projection"); s != "" {
		return s
	}
	return DefaultCRS
}

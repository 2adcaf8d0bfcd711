// Package series turns retained grid points into a long-form table of
// per-day observations and joins region names onto it.
package series

import (
	"context"
	"runtime"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tommy-klein/heatdays/internal/grid"
	"github.com/tommy-klein/heatdays/internal/raster"
)

// Observation is one (point, date, value) row. Missing values are NaN.
type Observation struct {
	PointID int
	Date    time.Time
	Value   float64
}

// Extract produces exactly |points| x |days| observations, point-major with
// days in layer order within each point. Per-point extraction runs on a
// bounded worker pool writing into preallocated slots, so the output is
// identical to sequential execution.
func Extract(ctx context.Context, r *raster.Raster, points []grid.Point, workers int) ([]Observation, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	days := r.Days()
	out := make([]Observation, len(points)*len(days))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range points {
		i := i
		p := points[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "series: extract canceled")
			}
			vals := r.SeriesAt(p.YIdx, p.XIdx)
			base := i * len(days)
			for d, v := range vals {
				out[base+d] = Observation{PointID: p.ID, Date: days[d], Value: v}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("time series extracted",
		zap.Int("points", len(points)),
		zap.Int("days", len(days)),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

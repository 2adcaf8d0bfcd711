package series

import (
	"time"

	"github.com/tommy-klein/heatdays/internal/grid"
)

// Row is an observation with its region names attached. HasRegion is false
// when the point's lookup entry was absent or matched no polygon; the region
// names are then empty.
type Row struct {
	PointID   int
	Date      time.Time
	Value     float64
	Level1    string
	Level2    string
	HasRegion bool
}

// Join attaches region names to every observation by point ID. Strict left
// join: every input row appears in the output exactly once, with a missing
// region propagated rather than dropped.
func Join(obs []Observation, lookup grid.Lookup) []Row {
	rows := make([]Row, len(obs))
	for i, o := range obs {
		rows[i] = Row{PointID: o.PointID, Date: o.Date, Value: o.Value}
		if ref, ok := lookup[o.PointID]; ok && ref.Found {
			rows[i].Level1 = ref.Level1
			rows[i].Level2 = ref.Level2
			rows[i].HasRegion = true
		}
	}
	return rows
}

package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tommy-klein/heatdays/internal/grid"
)

func TestJoin_AttachesRegions(t *testing.T) {
	day := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{PointID: 0, Date: day, Value: 35},
		{PointID: 1, Date: day, Value: 30},
	}
	lookup := grid.Lookup{
		0: {Level1: "North", Level2: "A", Found: true},
		1: {Level1: "South", Level2: "B", Found: true},
	}

	rows := Join(obs, lookup)
	require.Len(t, rows, len(obs), "left join must preserve row count")
	assert.Equal(t, "A", rows[0].Level2)
	assert.True(t, rows[0].HasRegion)
	assert.Equal(t, "B", rows[1].Level2)
}

func TestJoin_MissingLookupEntryPropagates(t *testing.T) {
	day := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{PointID: 0, Date: day, Value: 35},
		{PointID: 7, Date: day, Value: 36},
	}
	lookup := grid.Lookup{
		0: {Level1: "North", Level2: "A", Found: true},
	}

	rows := Join(obs, lookup)
	require.Len(t, rows, 2, "rows without a lookup entry must not be dropped")
	assert.True(t, rows[0].HasRegion)
	assert.False(t, rows[1].HasRegion)
	assert.Empty(t, rows[1].Level1)
	assert.Empty(t, rows[1].Level2)
	assert.InDelta(t, 36.0, rows[1].Value, 1e-9)
}

func TestJoin_UnmatchedRegionPropagates(t *testing.T) {
	day := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	obs := []Observation{{PointID: 0, Date: day, Value: 35}}
	lookup := grid.Lookup{0: {Found: false}}

	rows := Join(obs, lookup)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasRegion)
}

func TestJoin_Empty(t *testing.T) {
	assert.Empty(t, Join(nil, grid.Lookup{}))
}

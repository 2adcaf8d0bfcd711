package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/tommy-klein/heatdays/internal/stats"
)

// WriteCSV exports the aggregate table, one row per (year, region).
func WriteCSV(path string, aggs []stats.Aggregate) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"year", "region", "subregion", "mean_critical_days"}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, a := range aggs {
		rec := []string{
			strconv.Itoa(a.Year),
			a.Level1,
			a.Level2,
			strconv.FormatFloat(a.Mean, 'f', 4, 64),
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "report: write csv row for %d/%s", a.Year, a.Level2)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", path)
	}
	return nil
}

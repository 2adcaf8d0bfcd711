package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tommy-klein/heatdays/internal/boundary"
	"github.com/tommy-klein/heatdays/internal/grid"
	"github.com/tommy-klein/heatdays/internal/raster"
	"github.com/tommy-klein/heatdays/internal/report"
	"github.com/tommy-klein/heatdays/internal/series"
	"github.com/tommy-klein/heatdays/internal/stats"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full critical-day pipeline",
	Long: `Loads the gridded dataset, masks it to the configured country's admin
regions, extracts per-point time series, aggregates critical days by year and
region, and writes the choropleth, the stacked bar chart, and a CSV export.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		variable, _ := cmd.Flags().GetString("variable")
		country, _ := cmd.Flags().GetString("country")
		level, _ := cmd.Flags().GetInt("level")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		outDir, _ := cmd.Flags().GetString("out")
		if variable == "" {
			variable = cfg.Raster.Variable
		}
		if country == "" {
			country = cfg.Boundary.Country
		}
		if level == 0 {
			level = cfg.Boundary.Level
		}
		if !cmd.Flags().Changed("threshold") {
			threshold = cfg.Analysis.Threshold
		}
		if outDir == "" {
			outDir = cfg.Report.OutputDir
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrapf(err, "analyze: create output dir %s", outDir)
		}

		log := zap.L().With(zap.String("command", "analyze"))

		r, err := raster.Load(cfg.Raster.PathTemplate, variable)
		if err != nil {
			return eris.Wrapf(err, "analyze: load raster %s", variable)
		}

		provider := boundary.NewProvider(cfg.Boundary.BaseURL, cfg.Boundary.CacheDir, nil)
		shpPath, err := provider.Fetch(ctx, country, level)
		if err != nil {
			return eris.Wrapf(err, "analyze: fetch boundaries %s level %d", country, level)
		}
		regions, err := boundary.LoadShapefile(shpPath)
		if err != nil {
			return eris.Wrapf(err, "analyze: load boundaries %s", shpPath)
		}

		points, lookup, err := grid.Mask(r, regions)
		if err != nil {
			return eris.Wrap(err, "analyze: mask grid")
		}
		if len(points) == 0 {
			return eris.Errorf("analyze: no grid points inside %s boundaries", country)
		}

		obs, err := series.Extract(ctx, r, points, cfg.Analysis.Workers)
		if err != nil {
			return eris.Wrap(err, "analyze: extract time series")
		}
		rows := series.Join(obs, lookup)

		stage1 := stats.CriticalDays(rows, threshold)
		aggs := stats.MeanByRegion(stage1)

		log.Info("pipeline aggregated",
			zap.Float64("threshold", threshold),
			zap.Int("points", len(points)),
			zap.Int("aggregate_rows", len(aggs)),
		)

		mapPath := filepath.Join(outDir, "critical_days_map.png")
		if err := report.Choropleth(mapPath, regions, stats.MeanOverYears(aggs),
			cfg.Report.MapWidth, cfg.Report.MapHeight); err != nil {
			return eris.Wrap(err, "analyze: render choropleth")
		}

		barPath := filepath.Join(outDir, "critical_days_by_year.png")
		if err := report.StackedBars(barPath, aggs); err != nil {
			return eris.Wrap(err, "analyze: render bar chart")
		}

		csvPath := filepath.Join(outDir, "critical_days.csv")
		if err := report.WriteCSV(csvPath, aggs); err != nil {
			return eris.Wrap(err, "analyze: export csv")
		}

		fmt.Printf("Wrote %s, %s, %s\n", mapPath, barPath, csvPath)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("variable", "", "climate variable short code (default from config)")
	analyzeCmd.Flags().String("country", "", "ISO 3166-1 alpha-3 country code (default from config)")
	analyzeCmd.Flags().Int("level", 0, "admin boundary level (default from config)")
	analyzeCmd.Flags().Float64("threshold", 34.0, "critical-day threshold, strictly exceeded")
	analyzeCmd.Flags().String("out", "", "output directory (default from config)")
	rootCmd.AddCommand(analyzeCmd)
}

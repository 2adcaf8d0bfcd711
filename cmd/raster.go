package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tommy-klein/heatdays/internal/raster"
)

var rasterCmd = &cobra.Command{
	Use:   "raster",
	Short: "Gridded dataset operations",
}

var rasterInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print grid shape, date span, and CRS of a dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		variable, _ := cmd.Flags().GetString("variable")
		if variable == "" {
			variable = cfg.Raster.Variable
		}

		r, err := raster.Load(cfg.Raster.PathTemplate, variable)
		if err != nil {
			return eris.Wrapf(err, "raster info %s", variable)
		}

		days := r.Days()
		fmt.Printf("variable: %s\n", r.Variable)
		fmt.Printf("grid:     %d x %d cells\n", r.NX(), r.NY())
		if len(days) > 0 {
			fmt.Printf("layers:   %d days, %s to %s\n",
				len(days), days[0].Format("2006-01-02"), days[len(days)-1].Format("2006-01-02"))
		} else {
			fmt.Println("layers:   0 days")
		}
		fmt.Printf("crs:      %s\n", r.CRS())
		return nil
	},
}

func init() {
	rasterInfoCmd.Flags().String("variable", "", "climate variable short code (default from config)")
	rasterCmd.AddCommand(rasterInfoCmd)
	rootCmd.AddCommand(rasterCmd)
}

// Seismo Locate - event grouping and localization tool (C3-C8). This
// program reads the per-sample delay table the estimator produced,
// groups it into discrete events, ray-traces each event's delays
// against a layered velocity model over a 3D search grid, and reports
// the best-fit node for every event.
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"seismo-locator/internal/delay"
	"seismo-locator/internal/events"
	"seismo-locator/internal/filewriter"
	"seismo-locator/internal/locate"
	"seismo-locator/internal/report"
	"seismo-locator/internal/sentinel"
	"seismo-locator/internal/velocity"
	"seismo-locator/internal/version"

	"github.com/spf13/cobra"
)

var (
	delaysPath       string  // Path to the real-delays fixture
	stationsPath     string  // Path to the station-coords fixture
	velocityPath     string  // Path to the velocity-model fixture
	outputDir        string  // Output directory for report files
	outputFormat     string  // Output format: geojson, kml, csv
	baseStationIndex int     // Reference station for differential delays
	windowSize       int     // Estimator window size, for event-duration bookkeeping
	scannerSize      int     // Estimator scanner size, for event merging lookahead
	stationsAltitude float64 // Common altitude shared by all stations
	accuracy         float64 // Lateral-position tolerance for the ray-time solver
	frequency        float64 // Sample-rate multiplier converting seconds to samples
	gridDx, gridDy, gridDz float64
	gridNx, gridNy, gridNz int
	originX0, originY0, originZ0 float64
	autoOrigin       bool    // Center the search grid on the station centroid
	refLatitude      float64 // Reference latitude for geographic export
	refLongitude     float64 // Reference longitude for geographic export
	verbose          bool
	showVersion      bool
)

var rootCmd = &cobra.Command{
	Use:   "seismo-locate",
	Short: "Event grouping and localization tool",
	Long: `Seismo Locate reads a per-sample delay table produced by seismo-delays,
groups it into discrete detection events, and localizes each event by
ray-tracing candidate grid nodes against a layered velocity model and
scoring the mismatch against the measured delays.

Example usage:
  seismo-locate --delays delays.bin --stations coords.bin --velocity-model model.bin
  seismo-locate --delays delays.bin --stations coords.bin --velocity-model model.bin \
      --grid-nx 41 --grid-ny 41 --grid-nz 21 --output-format geojson`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("Seismo Locate"))
			return
		}
		if err := runLocate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().StringVar(&delaysPath, "delays", "", "path to the real-delays fixture")
	rootCmd.Flags().StringVar(&stationsPath, "stations", "", "path to the station-coords fixture")
	rootCmd.Flags().StringVar(&velocityPath, "velocity-model", "", "path to the velocity-model fixture")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "./locate-results", "output directory")
	rootCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "geojson", "output format (geojson, kml, csv)")

	rootCmd.Flags().IntVarP(&baseStationIndex, "base-station", "b", 0, "reference station index for differential delays")
	rootCmd.Flags().IntVarP(&windowSize, "window-size", "w", 64, "estimator window size, for event-duration bookkeeping")
	rootCmd.Flags().IntVarP(&scannerSize, "scanner-size", "s", 32, "estimator scanner size, for event merging lookahead")

	rootCmd.Flags().Float64Var(&stationsAltitude, "stations-altitude", 0, "common altitude shared by all stations, meters")
	rootCmd.Flags().Float64Var(&accuracy, "accuracy", 1, "lateral-position tolerance for the ray-time solver")
	rootCmd.Flags().Float64Var(&frequency, "frequency", 1000, "sample-rate multiplier converting seconds to samples")

	rootCmd.Flags().Float64Var(&gridDx, "grid-dx", 50, "grid spacing along x, meters")
	rootCmd.Flags().Float64Var(&gridDy, "grid-dy", 50, "grid spacing along y, meters")
	rootCmd.Flags().Float64Var(&gridDz, "grid-dz", 25, "grid spacing along z, meters")
	rootCmd.Flags().IntVar(&gridNx, "grid-nx", 21, "grid dimension along x")
	rootCmd.Flags().IntVar(&gridNy, "grid-ny", 21, "grid dimension along y")
	rootCmd.Flags().IntVar(&gridNz, "grid-nz", 21, "grid dimension along z")

	rootCmd.Flags().BoolVar(&autoOrigin, "auto-origin", true, "center the search grid on the station centroid")
	rootCmd.Flags().Float64Var(&originX0, "origin-x0", 0, "search grid origin x, meters (ignored if --auto-origin)")
	rootCmd.Flags().Float64Var(&originY0, "origin-y0", 0, "search grid origin y, meters (ignored if --auto-origin)")
	rootCmd.Flags().Float64Var(&originZ0, "origin-z0", 0, "search grid origin z, meters")

	rootCmd.Flags().Float64Var(&refLatitude, "ref-latitude", 0, "network reference latitude, for geographic export")
	rootCmd.Flags().Float64Var(&refLongitude, "ref-longitude", 0, "network reference longitude, for geographic export")

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.MarkFlagRequired("delays")
	rootCmd.MarkFlagRequired("stations")
	rootCmd.MarkFlagRequired("velocity-model")
}

func runLocate() error {
	fmt.Printf("╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║                    SEISMO LOCATE ANALYZER                    ║\n")
	fmt.Printf("║                Event Grouping and Localization               ║\n")
	fmt.Printf("╚══════════════════════════════════════════════════════════════╝\n\n")

	delaysHeader, delaysData, err := filewriter.ReadInt32Matrix(delaysPath)
	if err != nil {
		return fmt.Errorf("failed to read real-delays fixture: %w", err)
	}
	if delaysHeader.Kind != filewriter.KindRealDelays {
		return fmt.Errorf("delays fixture is %s, expected real-delays", filewriter.KindString(delaysHeader.Kind))
	}
	stations := int(delaysHeader.Cols) - 1
	result := delay.Result{Data: delaysData, Samples: int(delaysHeader.Rows), Stations: stations}

	stationsHeader, stationsData, err := filewriter.ReadFloat32Matrix(stationsPath)
	if err != nil {
		return fmt.Errorf("failed to read station-coords fixture: %w", err)
	}
	if stationsHeader.Kind != filewriter.KindStationCoords {
		return fmt.Errorf("stations fixture is %s, expected station-coords", filewriter.KindString(stationsHeader.Kind))
	}
	coords := locate.StationCoords{Data: stationsData, Stations: int(stationsHeader.Rows)}

	velocityHeader, velocityData, err := filewriter.ReadFloat32Matrix(velocityPath)
	if err != nil {
		return fmt.Errorf("failed to read velocity-model fixture: %w", err)
	}
	if velocityHeader.Kind != filewriter.KindVelocityModel {
		return fmt.Errorf("velocity-model fixture is %s, expected velocity-model", filewriter.KindString(velocityHeader.Kind))
	}
	model := velocity.NewModel(velocityData)

	fmt.Printf("📡 Loaded %d delay samples, %d stations, %d-layer velocity model\n\n",
		result.Samples, coords.Stations, model.Len())

	fmt.Printf("🔍 Detecting events...\n")
	detected := events.Detect(result, windowSize, scannerSize)
	fmt.Printf("   ✓ Detected %d events\n\n", len(detected))
	if len(detected) == 0 {
		fmt.Printf("No events to localize; exiting.\n")
		return nil
	}

	grid := locate.Grid{Dx: gridDx, Dy: gridDy, Dz: gridDz, Nx: gridNx, Ny: gridNy, Nz: gridNz}

	x0, y0 := originX0, originY0
	if autoOrigin {
		x0, y0 = centroidOrigin(coords, grid)
	}

	origins := make([]locate.Origin, len(detected))
	eventDelays := make([][]int32, len(detected))
	for i, ev := range detected {
		origins[i] = locate.Origin{X0: x0, Y0: y0, Z0: originZ0}
		eventDelays[i] = ev.Delays
	}

	fmt.Printf("📍 Localizing %d events over a %d x %d x %d grid...\n", len(detected), grid.Nx, grid.Ny, grid.Nz)
	start := time.Now()
	bestNode, residual, _ := locate.Run(model, coords, stationsAltitude, baseStationIndex, grid, origins, eventDelays, accuracy, frequency)
	elapsed := time.Since(start)

	rep := buildReport(detected, origins, grid, bestNode, residual, coords, stationsAltitude)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outFile := outputDir + "/events." + outputFormat

	switch outputFormat {
	case "geojson":
		err = rep.ExportGeoJSON(outFile)
	case "kml":
		err = rep.ExportKML(outFile)
	case "csv":
		err = rep.ExportCSV(outFile)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}

	displayResults(rep, elapsed, outFile)

	return nil
}

// displayResults prints the located events as a boxed table, one row
// per resolved event, followed by a results-summary box.
func displayResults(rep *report.Report, elapsed time.Duration, outFile string) {
	fmt.Printf("\n🎯 Located Events:\n")
	fmt.Printf("┌─────────┬─────────────┬─────────────┬─────────────┬─────────────┬───────────┐\n")
	fmt.Printf("│ Event   │ X (m)       │ Y (m)       │ Z (m)       │ Residual    │ Stations  │\n")
	fmt.Printf("├─────────┼─────────────┼─────────────┼─────────────┼─────────────┼───────────┤\n")
	resolved := 0
	for _, ev := range rep.Events {
		if !ev.Resolved() {
			fmt.Printf("│ %7d │ %-11s │ %-11s │ %-11s │ %-11s │ %9d │\n",
				ev.ID, "--", "--", "--", "unresolved", ev.StationCount)
			continue
		}
		resolved++
		fmt.Printf("│ %7d │ %11.1f │ %11.1f │ %11.1f │ %11.3f │ %9d │\n",
			ev.ID, ev.X, ev.Y, ev.Z, ev.Residual, ev.StationCount)
	}
	fmt.Printf("└─────────┴─────────────┴─────────────┴─────────────┴─────────────┴───────────┘\n\n")

	fmt.Printf("📊 Results Summary:\n")
	fmt.Printf("┌─────────────────────────┬─────────────────────────────────────────┐\n")
	fmt.Printf("│ Parameter               │ Value                                   │\n")
	fmt.Printf("├─────────────────────────┼─────────────────────────────────────────┤\n")
	fmt.Printf("│ Events Detected         │ %-39d │\n", len(rep.Events))
	fmt.Printf("│ Events Resolved         │ %-39d │\n", resolved)
	fmt.Printf("│ Processing Time         │ %-39s │\n", elapsed.Round(time.Millisecond))
	fmt.Printf("│ Output Format           │ %-39s │\n", outputFormat)
	fmt.Printf("└─────────────────────────┴─────────────────────────────────────────┘\n\n")

	fmt.Printf("📁 Output File: %s\n\n", outFile)
}

// decodeNode decodes a linear node index into (ix, iy, iz), matching
// the row-major ordering locate.ResidualCube encodes nodes with.
func decodeNode(grid locate.Grid, k int) (ix, iy, iz int) {
	ix = k % grid.Nx
	iy = (k / grid.Nx) % grid.Ny
	iz = k / (grid.Nx * grid.Ny)
	return
}

func centroidOrigin(coords locate.StationCoords, grid locate.Grid) (x0, y0 float64) {
	var sumX, sumY float64
	for i := 0; i < coords.Stations; i++ {
		sumX += float64(coords.Data[i*2+0])
		sumY += float64(coords.Data[i*2+1])
	}
	cx := sumX / float64(coords.Stations)
	cy := sumY / float64(coords.Stations)
	x0 = cx - float64(grid.Nx)*grid.Dx/2
	y0 = cy - float64(grid.Ny)*grid.Dy/2
	return x0, y0
}

func buildReport(detected []events.Event, origins []locate.Origin, grid locate.Grid, bestNode []int32, residual []float32, coords locate.StationCoords, stationsAltitude float64) *report.Report {
	stations := make([]report.Station, coords.Stations)
	for i := 0; i < coords.Stations; i++ {
		stations[i] = report.Station{
			ID:       fmt.Sprintf("STA%d", i),
			X:        float64(coords.Data[i*2+0]),
			Y:        float64(coords.Data[i*2+1]),
			Altitude: stationsAltitude,
		}
	}

	eventsOut := make([]report.LocatedEvent, len(detected))
	for i, ev := range detected {
		stationCount := 0
		for _, d := range ev.Delays {
			if d != sentinel.Value {
				stationCount++
			}
		}

		le := report.LocatedEvent{
			ID:           i,
			StartIndex:   ev.StartIndex,
			Residual:     residual[i],
			StationCount: stationCount,
		}

		if bestNode[i] != sentinel.Value {
			ix, iy, iz := decodeNode(grid, int(bestNode[i]))
			le.X = float64(ix)*grid.Dx + origins[i].X0
			le.Y = float64(iy)*grid.Dy + origins[i].Y0
			le.Z = float64(iz)*grid.Dz + origins[i].Z0
		} else {
			le.Residual = float32(math.Inf(1))
		}

		eventsOut[i] = le
	}

	return &report.Report{
		Reference:   report.Reference{Latitude: refLatitude, Longitude: refLongitude},
		Stations:    stations,
		Events:      eventsOut,
		GeneratedAt: time.Now(),
		FrequencyHz: frequency,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

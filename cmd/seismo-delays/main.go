// Seismo Delays - windowed cross-correlation delay estimator (C1+C2).
// This program reads a signals fixture captured by the station network
// and produces, for every sample position, the per-station lag
// relative to a base station together with each estimate's validity.
package main

import (
	"fmt"
	"os"
	"time"

	"seismo-locator/internal/delay"
	"seismo-locator/internal/filewriter"
	"seismo-locator/internal/version"

	"github.com/spf13/cobra"
)

var (
	inputPath        string  // Path to the signals fixture
	outputPath       string  // Path to write the resulting real-delays fixture
	windowSize       int     // Correlation window size, in samples
	scannerSize      int     // Maximum lag searched, in samples
	baseStationIndex int     // Reference station for differential delays
	minCorrelation   float64 // Minimum accepted Pearson r
	highPrecision    bool    // Accumulate correlations in real64
	workers          int     // Worker-pool size; 0 = GOMAXPROCS
	verbose          bool    // Enable verbose logging
	showVersion      bool    // Show version information
)

var rootCmd = &cobra.Command{
	Use:   "seismo-delays",
	Short: "Windowed cross-correlation delay estimator",
	Long: `Seismo Delays reads a multi-station signals fixture and, for every
sample position, cross-correlates a sliding window against every other
station against the base station's window, searching a bounded lag range
for the best-correlated offset.

The output is a per-sample, per-station lag table (plus a validity flag)
that the event-grouping and localization tools consume downstream.

Example usage:
  seismo-delays --input signals.bin --output delays.bin
  seismo-delays --input signals.bin --output delays.bin --window-size 128 --scanner-size 64`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("Seismo Delays"))
			return
		}
		if err := runDelays(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the signals fixture")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "delays.bin", "path to write the real-delays fixture")
	rootCmd.Flags().IntVarP(&windowSize, "window-size", "w", 64, "correlation window size, in samples")
	rootCmd.Flags().IntVarP(&scannerSize, "scanner-size", "s", 32, "maximum lag searched, in samples")
	rootCmd.Flags().IntVarP(&baseStationIndex, "base-station", "b", 0, "reference station index for differential delays")
	rootCmd.Flags().Float64VarP(&minCorrelation, "min-correlation", "c", 0.6, "minimum accepted Pearson r, in [0,1]")
	rootCmd.Flags().BoolVar(&highPrecision, "high-precision", false, "accumulate correlations in real64 instead of real32")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "worker-pool size for the launch grid (0 = GOMAXPROCS)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.MarkFlagRequired("input")
}

func runDelays() error {
	fmt.Printf("╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║               SEISMO DELAYS %s                ║\n", fmt.Sprintf("%-8s", version.GetFullVersion()))
	fmt.Printf("╚══════════════════════════════════════════════════════════════╝\n\n")

	if verbose {
		fmt.Printf("🔧 Configuration:\n")
		fmt.Printf("   Input:           %s\n", inputPath)
		fmt.Printf("   Output:          %s\n", outputPath)
		fmt.Printf("   Window size:     %d\n", windowSize)
		fmt.Printf("   Scanner size:    %d\n", scannerSize)
		fmt.Printf("   Base station:    %d\n", baseStationIndex)
		fmt.Printf("   Min correlation: %.2f\n", minCorrelation)
		fmt.Printf("   High precision:  %t\n\n", highPrecision)
	}

	header, data, err := filewriter.ReadFloat32Matrix(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read signals fixture: %w", err)
	}
	if header.Kind != filewriter.KindSignals {
		return fmt.Errorf("input fixture is %s, expected signals", filewriter.KindString(header.Kind))
	}

	signals := delay.Signals{
		Data:     data,
		Stations: int(header.Rows),
		Samples:  int(header.Cols),
	}
	fmt.Printf("📡 Loaded signals: %d stations, %d samples\n\n", signals.Stations, signals.Samples)

	cfg := delay.Config{
		BaseStationIndex: baseStationIndex,
		WindowSize:       windowSize,
		ScannerSize:      scannerSize,
		MinCorrelation:   minCorrelation,
		HighPrecision:    highPrecision,
		Workers:          workers,
	}

	fmt.Printf("⏱️  Estimating delays...\n")
	start := time.Now()
	result := delay.Estimate(signals, cfg)
	elapsed := time.Since(start)

	valid := 0
	for t := 0; t < result.Samples; t++ {
		if result.Valid(t) {
			valid++
		}
	}

	if err := filewriter.WriteInt32Matrix(outputPath, filewriter.KindRealDelays, result.Samples, result.Stations+1, result.Data); err != nil {
		return fmt.Errorf("failed to write real-delays fixture: %w", err)
	}

	displaySummary(result, elapsed, valid)
	return nil
}

func displaySummary(result delay.Result, elapsed time.Duration, valid int) {
	fmt.Printf("\n✅ Delay Estimation Complete!\n\n")

	fmt.Printf("📊 Results Summary:\n")
	fmt.Printf("┌─────────────────────────┬─────────────────────────────────────────┐\n")
	fmt.Printf("│ Parameter               │ Value                                   │\n")
	fmt.Printf("├─────────────────────────┼─────────────────────────────────────────┤\n")
	fmt.Printf("│ Sample Positions        │ %-39d │\n", result.Samples)
	fmt.Printf("│ Stations                │ %-39d │\n", result.Stations)
	fmt.Printf("│ Valid Sample Positions  │ %-39s │\n", fmt.Sprintf("%d / %d", valid, result.Samples))
	fmt.Printf("│ Processing Time         │ %-39s │\n", elapsed.Round(time.Millisecond))
	fmt.Printf("└─────────────────────────┴─────────────────────────────────────────┘\n\n")

	fmt.Printf("📁 Output File: %s\n\n", outputPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

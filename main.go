// Seismo Collector - station coordinate acquisition tool for the
// seismic event locator. It fixes one station's position over GPS
// (NMEA serial, gpsd, or a manual fallback) and folds it into the
// shared station coordinate fixture the localization engine reads.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seismo-locator/internal/config"
	"seismo-locator/internal/stationfix"
	"seismo-locator/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command line flag variables
var (
	cfgFile       string  // Configuration file path
	gpsMode       string  // GPS mode: nmea, gpsd, or manual
	gpsPort       string  // GPS device serial port (for NMEA mode)
	gpsdHost      string  // GPSD host address (for gpsd mode)
	gpsdPort      string  // GPSD port (for gpsd mode)
	latitude      float64 // Manual latitude in decimal degrees
	longitude     float64 // Manual longitude in decimal degrees
	altitude      float64 // Manual altitude in meters
	refLatitude   float64 // Network reference latitude in decimal degrees
	refLongitude  float64 // Network reference longitude in decimal degrees
	stationIndex  int     // This station's index in the network (0-based)
	totalStations int     // Total number of stations in the network
	output        string  // Path to the shared station coordinate fixture
	verbose       bool    // Enable verbose logging
	showVersion   bool    // Show version information
)

var rootCmd = &cobra.Command{
	Use:   "seismo-collector",
	Short: "Station coordinate acquisition tool for the seismic event locator",
	Long: `Seismo Collector fixes a station's geographic position using GPS
(NMEA serial, gpsd, or manual fallback coordinates) and projects it onto
the local (x, y) plane relative to a shared network reference point.

Every station in a network runs this tool once, pointed at the same
output fixture and reference point, to build up the station coordinate
table the localization engine's residual-cube kernel reads.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("Seismo Collector"))
			return
		}
		if err := runCollector(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")

	rootCmd.Flags().StringVar(&gpsMode, "gps-mode", "manual", "GPS mode: nmea, gpsd, or manual")
	rootCmd.Flags().StringVarP(&gpsPort, "gps-port", "p", "/dev/ttyUSB0", "GPS serial port (for NMEA mode)")
	rootCmd.Flags().StringVar(&gpsdHost, "gpsd-host", "localhost", "GPSD host address (for gpsd mode)")
	rootCmd.Flags().StringVar(&gpsdPort, "gpsd-port", "2947", "GPSD port (for gpsd mode)")

	rootCmd.Flags().Float64Var(&latitude, "latitude", 0.0, "manual latitude in decimal degrees (for manual mode)")
	rootCmd.Flags().Float64Var(&longitude, "longitude", 0.0, "manual longitude in decimal degrees (for manual mode)")
	rootCmd.Flags().Float64Var(&altitude, "altitude", 0.0, "manual altitude in meters (for manual mode)")

	rootCmd.Flags().Float64Var(&refLatitude, "ref-latitude", 0.0, "network reference latitude in decimal degrees")
	rootCmd.Flags().Float64Var(&refLongitude, "ref-longitude", 0.0, "network reference longitude in decimal degrees")
	rootCmd.Flags().IntVarP(&stationIndex, "station-index", "s", 0, "this station's index in the network (0-based)")
	rootCmd.Flags().IntVarP(&totalStations, "total-stations", "n", 1, "total number of stations in the network")
	rootCmd.Flags().StringVarP(&output, "output", "o", "./coords.bin", "path to the shared station coordinate fixture")

	viper.BindPFlag("gps.mode", rootCmd.Flags().Lookup("gps-mode"))
	viper.BindPFlag("gps.port", rootCmd.Flags().Lookup("gps-port"))
	viper.BindPFlag("gps.gpsd_host", rootCmd.Flags().Lookup("gpsd-host"))
	viper.BindPFlag("gps.gpsd_port", rootCmd.Flags().Lookup("gpsd-port"))
	viper.BindPFlag("gps.manual_latitude", rootCmd.Flags().Lookup("latitude"))
	viper.BindPFlag("gps.manual_longitude", rootCmd.Flags().Lookup("longitude"))
	viper.BindPFlag("gps.manual_altitude", rootCmd.Flags().Lookup("altitude"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func runCollector() error {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.GPS.Mode {
	case "manual":
		if cfg.GPS.ManualLatitude < -90 || cfg.GPS.ManualLatitude > 90 {
			return fmt.Errorf("invalid latitude: %.8f (must be between -90 and 90 degrees)", cfg.GPS.ManualLatitude)
		}
		if cfg.GPS.ManualLongitude < -180 || cfg.GPS.ManualLongitude > 180 {
			return fmt.Errorf("invalid longitude: %.8f (must be between -180 and 180 degrees)", cfg.GPS.ManualLongitude)
		}
	case "nmea":
		if cfg.GPS.Port == "" {
			return fmt.Errorf("GPS port not specified for NMEA mode")
		}
	case "gpsd":
		if cfg.GPS.GPSDHost == "" || cfg.GPS.GPSDPort == "" {
			return fmt.Errorf("GPSD host/port not specified for gpsd mode")
		}
	default:
		return fmt.Errorf("invalid GPS mode: %s (must be 'nmea', 'gpsd', or 'manual')", cfg.GPS.Mode)
	}

	if stationIndex < 0 || stationIndex >= totalStations {
		return fmt.Errorf("station-index %d out of range [0, %d)", stationIndex, totalStations)
	}

	fmt.Printf("Seismo Collector starting...\n")
	fmt.Printf("Station: %d of %d\n", stationIndex, totalStations)
	fmt.Printf("GPS mode: %s\n", cfg.GPS.Mode)

	sf := stationfix.New(cfg)
	if err := sf.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize GPS: %w", err)
	}
	defer sf.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GPS.Timeout)
	defer cancel()

	go func() {
		<-sigChan
		fmt.Printf("\nReceived interrupt signal, cancelling fix...\n")
		cancel()
	}()

	ref := stationfix.Reference{Latitude: refLatitude, Longitude: refLongitude}

	start := time.Now()
	fix, err := sf.Resolve(ctx, stationIndex, ref)
	if err != nil {
		return fmt.Errorf("station fix failed: %w", err)
	}

	fmt.Printf("Fix acquired in %v: %.8f°, %.8f° (%.1f m)\n",
		time.Since(start), fix.Position.Latitude, fix.Position.Longitude, fix.Position.Altitude)
	fmt.Printf("Local coordinate: x=%.2f m, y=%.2f m\n", fix.X, fix.Y)

	if err := stationfix.AppendFix(output, totalStations, fix); err != nil {
		return fmt.Errorf("failed to write station coordinate fixture: %w", err)
	}

	fmt.Printf("Station %d fixed into %s\n", stationIndex, output)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

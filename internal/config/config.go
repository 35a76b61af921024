// Package config provides configuration structures and defaults for the
// seismic delay estimator, localization engine, and station-fix tooling.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Estimator EstimatorConfig `yaml:"estimator"` // Delay-estimator (C1/C2) parameters
	Grid      GridConfig      `yaml:"grid"`       // Localization-engine (C3-C8) parameters
	GPS       GPSConfig       `yaml:"gps"`        // Station-fix GPS settings
	Logging   LoggingConfig   `yaml:"logging"`    // Logging configuration
}

// EstimatorConfig contains the delay-estimator's tunable parameters.
type EstimatorConfig struct {
	WindowSize       int     `yaml:"window_size"`       // Samples per correlation window (>=2)
	ScannerSize      int     `yaml:"scanner_size"`      // Maximum lag searched, in samples
	MinCorrelation   float64 `yaml:"min_correlation"`   // Lower bound for accepted Pearson r, in [0,1]
	BaseStationIndex int     `yaml:"base_station_index"` // Reference station for differential delays
	HighPrecision    bool    `yaml:"high_precision"`    // Accumulate correlations in real64 instead of real32
	Workers          int     `yaml:"workers"`           // Worker-pool size for the launch grid; 0 = GOMAXPROCS
}

// GridConfig contains the localization engine's search-grid and
// ray-tracing parameters.
type GridConfig struct {
	Dx               float64 `yaml:"dx"` // Grid spacing along x, meters
	Dy               float64 `yaml:"dy"` // Grid spacing along y, meters
	Dz               float64 `yaml:"dz"` // Grid spacing along z, meters
	Nx               int     `yaml:"nx"` // Grid dimension along x
	Ny               int     `yaml:"ny"` // Grid dimension along y
	Nz               int     `yaml:"nz"` // Grid dimension along z
	Accuracy         float64 `yaml:"accuracy"`               // Lateral-position tolerance for the ray-time solver
	Frequency        float64 `yaml:"frequency"`              // Sample-rate multiplier converting seconds to samples
	StationsAltitude float64 `yaml:"stations_altitude"`      // Common altitude shared by all stations
	BaseStationIndex int     `yaml:"base_station_index"`     // Reference station for the base differential time
}

// GPSConfig contains GPS receiver configuration parameters used by the
// station-fix tool.
type GPSConfig struct {
	Mode            string        `yaml:"mode"`             // GPS mode: "nmea", "gpsd", or "manual"
	Port            string        `yaml:"port"`             // Serial port device path (for NMEA mode)
	BaudRate        int           `yaml:"baud_rate" mapstructure:"baud_rate"`               // Serial communication baud rate (for NMEA mode)
	GPSDHost        string        `yaml:"gpsd_host" mapstructure:"gpsd_host"`               // GPSD host address (for gpsd mode)
	GPSDPort        string        `yaml:"gpsd_port" mapstructure:"gpsd_port"`               // GPSD port (for gpsd mode)
	Timeout         time.Duration `yaml:"timeout"`                                          // Timeout for GPS fix acquisition
	ManualLatitude  float64       `yaml:"manual_latitude" mapstructure:"manual_latitude"`   // Manual latitude in decimal degrees
	ManualLongitude float64       `yaml:"manual_longitude" mapstructure:"manual_longitude"` // Manual longitude in decimal degrees
	ManualAltitude  float64       `yaml:"manual_altitude" mapstructure:"manual_altitude"`   // Manual altitude in meters
}

// LoggingConfig contains logging configuration parameters.
type LoggingConfig struct {
	Level string `yaml:"level"` // Log level (debug, info, warn, error)
	File  string `yaml:"file"`  // Log file path
}

// DefaultConfig returns a configuration with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Estimator: EstimatorConfig{
			WindowSize:       64,   // 64 samples per correlation window
			ScannerSize:      32,   // search up to 32 samples of lag
			MinCorrelation:   0.6,  // require r >= 0.6 to accept a lag
			BaseStationIndex: 0,    // first station is the reference by default
			HighPrecision:    false, // real32 accumulation, matching the device
			Workers:          0,    // GOMAXPROCS
		},
		Grid: GridConfig{
			Dx: 50, Dy: 50, Dz: 25, // 50m horizontal, 25m vertical spacing
			Nx: 21, Ny: 21, Nz: 21, // 21^3 node search grid
			Accuracy:         1,    // 1 unit lateral tolerance for the ray solver
			Frequency:        1000, // 1000 samples/second
			StationsAltitude: 0,    // sea level by default
			BaseStationIndex: 0,
		},
		GPS: GPSConfig{
			Mode:            "manual",
			Port:            "/dev/ttyUSB0",
			BaudRate:        9600,
			GPSDHost:        "localhost",
			GPSDPort:        "2947",
			Timeout:         30 * time.Second,
			ManualLatitude:  0.0,
			ManualLongitude: 0.0,
			ManualAltitude:  0.0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "seismo-locator.log",
		},
	}
}

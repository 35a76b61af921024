// Package stationfix acquires a station's location — over NMEA serial,
// gpsd, or a manual fallback — and folds it into the shared station
// coordinate fixture the localization engine reads. It replaces the
// reference collector's RTL-SDR capture loop with a GPS-only fix loop:
// every station in a network runs this once, against the same output
// file and a shared geographic reference point, to build up the (x, y)
// table C6 needs.
package stationfix

import (
	"context"
	"fmt"
	"time"

	"seismo-locator/internal/config"
	"seismo-locator/internal/filewriter"
	"seismo-locator/internal/gps"
)

// Reference anchors every station's local (x, y) coordinate to a
// shared geographic point, usually the network's first station or its
// centroid.
type Reference struct {
	Latitude  float64
	Longitude float64
}

// Fix is one station's resolved local coordinate.
type Fix struct {
	StationIndex int
	X, Y         float64
	Altitude     float64
	Position     gps.Position
}

// StationFix drives a single station's GPS fix acquisition.
type StationFix struct {
	config *config.Config
	gps    *gps.GPS
}

// New creates a StationFix from the GPS section of cfg.
func New(cfg *config.Config) *StationFix {
	return &StationFix{config: cfg}
}

// Initialize starts the configured GPS backend. In "manual" mode there
// is nothing to start; WaitForFix returns the configured coordinates
// directly.
func (s *StationFix) Initialize() error {
	var err error

	switch s.config.GPS.Mode {
	case "nmea":
		s.gps, err = gps.NewGPS(s.config.GPS.Port, s.config.GPS.BaudRate)
		if err != nil {
			return fmt.Errorf("failed to initialize NMEA GPS: %w", err)
		}
		if s.config.Logging.Level == "debug" {
			s.gps.SetDebug(true)
		}
		if err := s.gps.Start(); err != nil {
			return fmt.Errorf("failed to start NMEA GPS: %w", err)
		}
	case "gpsd":
		s.gps, err = gps.NewGPSD(s.config.GPS.GPSDHost, s.config.GPS.GPSDPort)
		if err != nil {
			return fmt.Errorf("failed to initialize GPSD: %w", err)
		}
		if err := s.gps.Start(); err != nil {
			return fmt.Errorf("failed to start GPSD: %w", err)
		}
	case "manual":
		s.gps = nil
	default:
		return fmt.Errorf("invalid GPS mode: %s (must be 'nmea', 'gpsd', or 'manual')", s.config.GPS.Mode)
	}

	return nil
}

// WaitForFix blocks until a position is available, or ctx/the
// configured timeout expires. In manual mode it returns immediately.
func (s *StationFix) WaitForFix(ctx context.Context) (gps.Position, error) {
	if s.config.GPS.Mode == "manual" {
		return gps.Position{
			Latitude:   s.config.GPS.ManualLatitude,
			Longitude:  s.config.GPS.ManualLongitude,
			Altitude:   s.config.GPS.ManualAltitude,
			Timestamp:  time.Now(),
			FixQuality: 1,
			Satellites: 0,
		}, nil
	}

	type result struct {
		pos *gps.Position
		err error
	}
	resultChan := make(chan result, 1)
	go func() {
		pos, err := s.gps.WaitForFix(s.config.GPS.Timeout)
		resultChan <- result{pos, err}
	}()

	select {
	case r := <-resultChan:
		if r.err != nil {
			return gps.Position{}, fmt.Errorf("GPS fix failed: %w", r.err)
		}
		return *r.pos, nil
	case <-ctx.Done():
		return gps.Position{}, fmt.Errorf("GPS fix cancelled: %w", ctx.Err())
	}
}

// Close releases the underlying GPS backend, if any.
func (s *StationFix) Close() error {
	if s.gps != nil {
		return s.gps.Close()
	}
	return nil
}

// Resolve waits for a GPS fix and projects it onto the local (x, y)
// plane relative to ref.
func (s *StationFix) Resolve(ctx context.Context, stationIndex int, ref Reference) (Fix, error) {
	pos, err := s.WaitForFix(ctx)
	if err != nil {
		return Fix{}, err
	}

	x, y := pos.LocalXY(ref.Latitude, ref.Longitude)
	return Fix{
		StationIndex: stationIndex,
		X:            x,
		Y:            y,
		Altitude:     pos.Altitude,
		Position:     pos,
	}, nil
}

// AppendFix folds one station's fix into the shared coordinate fixture
// at path, growing the file if it does not yet exist or is smaller
// than stationIndex requires. Stations that have not yet fixed are
// left at (0, 0) — callers should not run the localization engine
// until every station in the network has fixed.
func AppendFix(path string, totalStations int, fix Fix) error {
	data := make([]float32, totalStations*2)

	if header, existing, err := filewriter.ReadFloat32Matrix(path); err == nil {
		n := int(header.Rows)
		if n > totalStations {
			n = totalStations
		}
		copy(data, existing[:n*2])
	}

	data[fix.StationIndex*2+0] = float32(fix.X)
	data[fix.StationIndex*2+1] = float32(fix.Y)

	return filewriter.WriteFloat32Matrix(path, filewriter.KindStationCoords, totalStations, 2, data)
}

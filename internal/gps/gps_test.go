package gps

import (
	"testing"
	"time"

	"github.com/stratoberry/go-gpsd"
)

func TestTpvToPositionAcceptsThreeDFix(t *testing.T) {
	now := time.Now()
	pos, ok := tpvToPosition(&gpsd.TPVReport{Mode: 3, Lat: 33.349, Lon: -111.758, Alt: 359.84, Time: now})
	if !ok {
		t.Fatalf("tpvToPosition() ok = false, want true for a 3D fix")
	}
	if pos.FixQuality != 1 {
		t.Errorf("FixQuality = %d, want 1", pos.FixQuality)
	}
	if pos.Latitude != 33.349 || pos.Longitude != -111.758 {
		t.Errorf("position = (%v,%v), want (33.349,-111.758)", pos.Latitude, pos.Longitude)
	}
}

func TestTpvToPositionRejectsNoFixMode(t *testing.T) {
	if _, ok := tpvToPosition(&gpsd.TPVReport{Mode: 1, Lat: 33.349, Lon: -111.758}); ok {
		t.Errorf("tpvToPosition() ok = true, want false for mode=1 (no fix)")
	}
}

func TestTpvToPositionRejectsZeroedCoordinates(t *testing.T) {
	if _, ok := tpvToPosition(&gpsd.TPVReport{Mode: 3, Lat: 0, Lon: 0}); ok {
		t.Errorf("tpvToPosition() ok = true, want false for a zeroed fix before acquisition")
	}
}

func TestLocalXYAtReferencePointIsOrigin(t *testing.T) {
	pos := Position{Latitude: 45.0, Longitude: -122.0}
	x, y := pos.LocalXY(45.0, -122.0)
	if x != 0 || y != 0 {
		t.Errorf("LocalXY() at the reference point = (%v,%v), want (0,0)", x, y)
	}
}

func TestLocalXYOneDegreeNorthIsPositiveY(t *testing.T) {
	pos := Position{Latitude: 46.0, Longitude: -122.0}
	_, y := pos.LocalXY(45.0, -122.0)
	if y <= 0 {
		t.Errorf("LocalXY() one degree north gave y=%v, want positive", y)
	}
}

package stationfix

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"seismo-locator/internal/config"
	"seismo-locator/internal/filewriter"
)

func manualConfig(lat, lon, alt float64) *config.Config {
	cfg := config.DefaultConfig()
	cfg.GPS.Mode = "manual"
	cfg.GPS.ManualLatitude = lat
	cfg.GPS.ManualLongitude = lon
	cfg.GPS.ManualAltitude = alt
	return cfg
}

func TestWaitForFixManualModeReturnsConfiguredPosition(t *testing.T) {
	cfg := manualConfig(45.5, -122.5, 30)
	sf := New(cfg)
	if err := sf.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer sf.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	pos, err := sf.WaitForFix(ctx)
	if err != nil {
		t.Fatalf("WaitForFix() error = %v", err)
	}
	if pos.Latitude != 45.5 || pos.Longitude != -122.5 || pos.Altitude != 30 {
		t.Errorf("WaitForFix() = %+v, want manual coordinates", pos)
	}
	if pos.FixQuality != 1 {
		t.Errorf("FixQuality = %d, want 1", pos.FixQuality)
	}
}

func TestResolveProjectsReferencePointToOrigin(t *testing.T) {
	ref := Reference{Latitude: 45.5, Longitude: -122.5}
	cfg := manualConfig(ref.Latitude, ref.Longitude, 0)
	sf := New(cfg)
	if err := sf.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer sf.Close()

	fix, err := sf.Resolve(context.Background(), 0, ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if fix.X != 0 || fix.Y != 0 {
		t.Errorf("Resolve() at the reference point = (%v,%v), want (0,0)", fix.X, fix.Y)
	}
}

func TestAppendFixAccumulatesAcrossStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coords.bin")

	fix0 := Fix{StationIndex: 0, X: 0, Y: 0}
	fix1 := Fix{StationIndex: 1, X: 100, Y: 50}
	fix2 := Fix{StationIndex: 2, X: -40, Y: 20}

	if err := AppendFix(path, 3, fix0); err != nil {
		t.Fatalf("AppendFix(0) error = %v", err)
	}
	if err := AppendFix(path, 3, fix1); err != nil {
		t.Fatalf("AppendFix(1) error = %v", err)
	}
	if err := AppendFix(path, 3, fix2); err != nil {
		t.Fatalf("AppendFix(2) error = %v", err)
	}

	header, data, err := filewriter.ReadFloat32Matrix(path)
	if err != nil {
		t.Fatalf("ReadFloat32Matrix() error = %v", err)
	}
	if header.Rows != 3 || header.Cols != 2 {
		t.Fatalf("Rows/Cols = %d/%d, want 3/2", header.Rows, header.Cols)
	}
	want := []float32{0, 0, 100, 50, -40, 20}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, data[i], want[i])
		}
	}
}

package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() *Report {
	return &Report{
		Reference: Reference{Latitude: 45.0, Longitude: -122.0},
		Stations: []Station{
			{ID: "STA0", X: 0, Y: 0, Altitude: 0},
			{ID: "STA1", X: 100, Y: 0, Altitude: 0},
		},
		Events: []LocatedEvent{
			{ID: 0, StartIndex: 10, X: 20, Y: 30, Z: -200, Residual: 0.5, StationCount: 3},
			{ID: 1, StartIndex: 50, Residual: float32(math.Inf(1)), StationCount: 0},
		},
		GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		FrequencyHz: 1000,
	}
}

func TestResolvedDistinguishesUnresolvedEvents(t *testing.T) {
	r := sampleReport()
	if !r.Events[0].Resolved() {
		t.Error("event 0 should be resolved")
	}
	if r.Events[1].Resolved() {
		t.Error("event 1 should be unresolved (+Inf residual)")
	}
}

func TestProjectRoundTripsNearOrigin(t *testing.T) {
	ref := Reference{Latitude: 45.0, Longitude: -122.0}
	lat, lon := ref.project(0, 0)
	if lat != ref.Latitude || lon != ref.Longitude {
		t.Errorf("project(0,0) = (%v,%v), want reference point unchanged", lat, lon)
	}
}

func TestExportCSVContainsEventsAndStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := sampleReport().ExportCSV(path); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "STA0") {
		t.Error("CSV missing station STA0")
	}
	if !strings.Contains(content, "# Events") {
		t.Error("CSV missing events section header")
	}
}

func TestExportGeoJSONSkipsUnresolvedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.geojson")
	if err := sampleReport().ExportGeoJSON(path); err != nil {
		t.Fatalf("ExportGeoJSON() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Event 0") {
		t.Error("GeoJSON missing resolved event 0")
	}
	if strings.Contains(content, "Event 1") {
		t.Error("GeoJSON should skip unresolved event 1")
	}
}

func TestExportKMLSkipsUnresolvedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.kml")
	if err := sampleReport().ExportKML(path); err != nil {
		t.Fatalf("ExportKML() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "<name>Event 0</name>") {
		t.Error("KML missing resolved event 0")
	}
	if strings.Contains(content, "<name>Event 1</name>") {
		t.Error("KML should skip unresolved event 1")
	}
	if !strings.Contains(content, "STA1") {
		t.Error("KML missing station STA1")
	}
}

// Package report exports located events to the formats downstream tools
// consume: GeoJSON for web mapping, KML for Google Earth, and CSV for
// spreadsheet analysis. The structure mirrors the reference processor's
// TDOA result export, adapted from a single transmitter fix to a batch
// of located seismic events.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// MetersPerDegreeLatitude approximates the length of one degree of
// latitude, used to project the locator's local x/y meters onto
// geographic coordinates for GeoJSON and KML output.
const MetersPerDegreeLatitude = 111000.0

// Reference anchors the localization engine's local (x, y) plane to a
// geographic coordinate, so event positions can be projected to
// latitude/longitude for mapping output. Stations and events are
// assumed to share this one reference point.
type Reference struct {
	Latitude  float64
	Longitude float64
}

// project converts local meters offsets into a geographic coordinate
// using an equirectangular approximation, matching the reference
// processor's circle-point projection.
func (ref Reference) project(x, y float64) (lat, lon float64) {
	lat = ref.Latitude + y/MetersPerDegreeLatitude
	lon = ref.Longitude + x/(MetersPerDegreeLatitude*math.Cos(ref.Latitude*math.Pi/180))
	return
}

// Station describes a contributing station for the report's metadata.
type Station struct {
	ID       string
	X, Y     float64
	Altitude float64
}

// LocatedEvent is one event's C7 reduction result together with the
// node coordinate it resolved to, ready for export.
type LocatedEvent struct {
	ID           int
	StartIndex   int
	X, Y, Z      float64 // meters, in the locator's local frame
	Residual     float32 // sqrt(sum sq diff)/count, or +Inf if unresolved
	StationCount int
}

// Resolved reports whether the event converged to a node at all.
func (e LocatedEvent) Resolved() bool {
	return !math.IsInf(float64(e.Residual), 1)
}

// Report bundles located events with the metadata needed to render
// them.
type Report struct {
	Reference      Reference
	Stations       []Station
	Events         []LocatedEvent
	GeneratedAt    time.Time
	GridSpacing    [3]float64 // dx, dy, dz; not written by any exporter
	FrequencyHz    float64
}

// ExportGeoJSON writes the located events as a GeoJSON FeatureCollection:
// one point feature per resolved event, plus a point feature per
// station.
func (r *Report) ExportGeoJSON(filename string) error {
	features := []map[string]interface{}{}

	for _, ev := range r.Events {
		if !ev.Resolved() {
			continue
		}
		lat, lon := r.Reference.project(ev.X, ev.Y)
		features = append(features, map[string]interface{}{
			"type": "Feature",
			"geometry": map[string]interface{}{
				"type":        "Point",
				"coordinates": []float64{lon, lat, ev.Z},
			},
			"properties": map[string]interface{}{
				"name":          fmt.Sprintf("Event %d", ev.ID),
				"type":          "event",
				"start_index":   ev.StartIndex,
				"residual":      ev.Residual,
				"station_count": ev.StationCount,
			},
		})
	}

	for _, st := range r.Stations {
		lat, lon := r.Reference.project(st.X, st.Y)
		features = append(features, map[string]interface{}{
			"type": "Feature",
			"geometry": map[string]interface{}{
				"type":        "Point",
				"coordinates": []float64{lon, lat, st.Altitude},
			},
			"properties": map[string]interface{}{
				"name": st.ID,
				"type": "station",
			},
		})
	}

	geojson := map[string]interface{}{
		"type":     "FeatureCollection",
		"features": features,
		"properties": map[string]interface{}{
			"title":         "Seismic Event Locations",
			"frequency_hz":  r.FrequencyHz,
			"event_count":   len(r.Events),
			"generated_at":  r.GeneratedAt.Format("2006-01-02T15:04:05Z"),
		},
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create GeoJSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(geojson); err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return nil
}

// ExportKML writes the located events and stations as a KML document
// for Google Earth.
func (r *Report) ExportKML(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create KML file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Seismic Event Locations</name>
    <description>Frequency: %.1f Hz, Events: %d</description>

    <Style id="eventStyle">
      <IconStyle>
        <Icon>
          <href>http://maps.google.com/mapfiles/kml/shapes/target.png</href>
        </Icon>
        <scale>1.3</scale>
        <color>ff0000ff</color>
      </IconStyle>
    </Style>

    <Style id="stationStyle">
      <IconStyle>
        <Icon>
          <href>http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png</href>
        </Icon>
        <color>ff00ff00</color>
      </IconStyle>
    </Style>
`, r.FrequencyHz, len(r.Events))

	for _, ev := range r.Events {
		if !ev.Resolved() {
			continue
		}
		lat, lon := r.Reference.project(ev.X, ev.Y)
		fmt.Fprintf(file, `
    <Placemark>
      <name>Event %d</name>
      <description>Residual: %.3f, Stations: %d</description>
      <styleUrl>#eventStyle</styleUrl>
      <Point>
        <coordinates>%.8f,%.8f,%.1f</coordinates>
      </Point>
    </Placemark>
`, ev.ID, ev.Residual, ev.StationCount, lon, lat, ev.Z)
	}

	for _, st := range r.Stations {
		lat, lon := r.Reference.project(st.X, st.Y)
		fmt.Fprintf(file, `
    <Placemark>
      <name>%s</name>
      <styleUrl>#stationStyle</styleUrl>
      <Point>
        <coordinates>%.8f,%.8f,%.1f</coordinates>
      </Point>
    </Placemark>
`, st.ID, lon, lat, st.Altitude)
	}

	fmt.Fprintf(file, `
  </Document>
</kml>
`)
	return nil
}

// ExportCSV writes the located events as CSV for spreadsheet analysis.
func (r *Report) ExportCSV(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"# Seismic Event Locations"})
	writer.Write([]string{"# Generated", r.GeneratedAt.Format("2006-01-02 15:04:05")})
	writer.Write([]string{"# Frequency Hz", fmt.Sprintf("%.1f", r.FrequencyHz)})
	writer.Write([]string{""})

	writer.Write([]string{"# Stations"})
	writer.Write([]string{"Station_ID", "X_m", "Y_m", "Altitude_m"})
	for _, st := range r.Stations {
		writer.Write([]string{
			st.ID,
			fmt.Sprintf("%.2f", st.X),
			fmt.Sprintf("%.2f", st.Y),
			fmt.Sprintf("%.1f", st.Altitude),
		})
	}
	writer.Write([]string{""})

	writer.Write([]string{"# Events"})
	writer.Write([]string{"Event_ID", "Start_Index", "X_m", "Y_m", "Z_m", "Residual", "Station_Count", "Resolved"})
	for _, ev := range r.Events {
		writer.Write([]string{
			fmt.Sprintf("%d", ev.ID),
			fmt.Sprintf("%d", ev.StartIndex),
			fmt.Sprintf("%.2f", ev.X),
			fmt.Sprintf("%.2f", ev.Y),
			fmt.Sprintf("%.2f", ev.Z),
			fmt.Sprintf("%.4f", ev.Residual),
			fmt.Sprintf("%d", ev.StationCount),
			fmt.Sprintf("%t", ev.Resolved()),
		})
	}

	return nil
}

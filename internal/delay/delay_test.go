package delay

import (
	"math"
	"testing"
)

func makeSignals(rows [][]float32) Signals {
	stations := len(rows)
	samples := len(rows[0])
	data := make([]float32, 0, stations*samples)
	for _, row := range rows {
		data = append(data, row...)
	}
	return Signals{Data: data, Stations: stations, Samples: samples}
}

func TestIsGoodSegmentRejectsFlatWindow(t *testing.T) {
	sig := makeSignals([][]float32{{1, 1, 1, 1, 2, 3}})
	if IsGoodSegment(sig, 0, 0, 4) {
		t.Fatal("expected a constant window to be rejected")
	}
	if !IsGoodSegment(sig, 0, 2, 3) {
		t.Fatal("expected a varying window to qualify")
	}
}

// S1: constant base window must never be marked valid.
func TestEstimateConstantBaseWindowNeverValid(t *testing.T) {
	const T = 16
	base := make([]float32, T)
	other := make([]float32, T)
	for i := range base {
		base[i] = 1.0
		other[i] = float32(math.Sin(float64(i)))
	}
	sig := makeSignals([][]float32{base, other})

	result := Estimate(sig, Config{
		BaseStationIndex: 0,
		WindowSize:       4,
		ScannerSize:      2,
		MinCorrelation:   0.5,
	})

	for t2 := 0; t2 < T; t2++ {
		if result.Valid(t2) {
			t.Errorf("t=%d: expected validity flag 0 for a constant base window", t2)
		}
	}
}

// S2: identical channels correlate at zero lag, but with only 2 stations
// the validity gate (> 3 corroborating stations) can never be satisfied.
func TestEstimateIdenticalChannelsZeroLag(t *testing.T) {
	const T = 64
	a := make([]float32, T)
	b := make([]float32, T)
	for i := range a {
		v := float32(i % 7)
		a[i] = v
		b[i] = v
	}
	sig := makeSignals([][]float32{a, b})

	result := Estimate(sig, Config{
		BaseStationIndex: 0,
		WindowSize:       4,
		ScannerSize:      3,
		MinCorrelation:   0.5,
	})

	sawCandidate := false
	for t2 := 0; t2 < T-4-3-1; t2++ {
		lag := result.Lag(t2, 1)
		if lag.Ok {
			sawCandidate = true
			if lag.V != 0 {
				t.Errorf("t=%d: lag = %d, want 0", t2, lag.V)
			}
		}
		if result.Valid(t2) {
			t.Errorf("t=%d: S=2 can never exceed MinStationsCount=3", t2)
		}
	}
	if !sawCandidate {
		t.Fatal("expected at least one qualifying candidate window")
	}
}

// S3: a synthetic shift should be recovered exactly for every station in
// the interior of the block, with validity set once enough stations agree.
func TestEstimateSyntheticShiftRecoversLag(t *testing.T) {
	const chirpLen = 32
	const pad = 40
	const total = pad + chirpLen + pad

	waveform := make([]float32, total)
	for i := pad; i < pad+chirpLen; i++ {
		phase := float64(i-pad) / float64(chirpLen)
		waveform[i] = float32(math.Sin(2 * math.Pi * phase * phase * 6))
	}

	stations := 5
	rows := make([][]float32, stations)
	for s := 0; s < stations; s++ {
		row := make([]float32, total)
		for i := 0; i < total; i++ {
			src := i - s
			if src >= 0 && src < total {
				row[i] = waveform[src]
			}
		}
		rows[s] = row
	}
	sig := makeSignals(rows)

	result := Estimate(sig, Config{
		BaseStationIndex: 0,
		WindowSize:       16,
		ScannerSize:      8,
		MinCorrelation:   0.5,
	})

	// pick an interior time index safely inside the shifted chirp for every station
	probe := pad + 2

	for s := 1; s < stations; s++ {
		lag := result.Lag(probe, s)
		if !lag.Ok {
			t.Fatalf("station %d: expected a recovered lag at t=%d, got NULL", s, probe)
		}
		if int(lag.V) != s {
			t.Errorf("station %d: lag = %d, want %d", s, lag.V, s)
		}
	}
	if !result.Valid(probe) {
		t.Errorf("t=%d: expected validity flag 1 with %d corroborating stations", probe, stations-1)
	}
}

func TestEstimatePreZeroesUnwrittenRows(t *testing.T) {
	sig := makeSignals([][]float32{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{8, 7, 6, 5, 4, 3, 2, 1},
	})
	result := Estimate(sig, Config{BaseStationIndex: 0, WindowSize: 4, ScannerSize: 2, MinCorrelation: 0.1})

	lastWritten := sig.Samples - 4 - 2 - 1
	for t2 := lastWritten + 1; t2 < sig.Samples; t2++ {
		if result.Data[t2*result.stride()] != 0 {
			t.Errorf("t=%d: expected pre-zeroed validity column", t2)
		}
		for s := 0; s < sig.Stations; s++ {
			if result.Data[t2*result.stride()+1+s] != 0 {
				t.Errorf("t=%d station=%d: expected pre-zeroed delay column", t2, s)
			}
		}
	}
}

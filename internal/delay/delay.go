// Package delay implements C1 (the signal-segment qualifier) and C2 (the
// delay estimator kernel): for every time index in a multi-channel signal
// block it finds the best-correlated integer lag of each station against
// a base station.
package delay

import (
	"math"

	"seismo-locator/internal/kernel"
	"seismo-locator/internal/sentinel"
)

// MinStationsCount is the minimum number of corroborating stations
// (strictly exceeded, not merely met) required to mark a time index
// valid. Preserved verbatim from the reference kernel even though the
// localization engine itself only requires 3 contributing stations
// (locate.MinContributingStations).
const MinStationsCount = 3

// Config holds the parameters C2 is launched with.
type Config struct {
	BaseStationIndex int
	WindowSize       int
	ScannerSize      int
	MinCorrelation   float64
	// HighPrecision switches the windowed-correlation accumulation from
	// real32 to real64. Off by default to match the device's native
	// real32 accumulation (spec design note on numerical precision).
	HighPrecision bool
	// Workers sizes the launch grid's worker pool; 0 defers to
	// kernel.Launch's GOMAXPROCS default.
	Workers int
}

// Signals is a flat, row-major (S, T) real32 waveform block, contiguous
// per station.
type Signals struct {
	Data     []float32
	Stations int
	Samples  int
}

func (s Signals) at(station, sample int) float32 {
	return s.Data[station*s.Samples+sample]
}

// Result is a flat, row-major (T, S+1) int32 table: column 0 is a
// validity flag, columns 1..S hold per-station best lags or the NULL
// sentinel. It is the S+1 layout the spec names as the safe choice for
// resolving the C2/C6 stride mismatch (spec design note, §9).
type Result struct {
	Data     []int32
	Samples  int
	Stations int
}

// NewResult allocates a pre-zeroed (T, S+1) result buffer.
func NewResult(samples, stations int) Result {
	return Result{
		Data:     make([]int32, samples*(stations+1)),
		Samples:  samples,
		Stations: stations,
	}
}

func (r Result) stride() int { return r.Stations + 1 }

// Valid reports whether time index t was marked valid by C2.
func (r Result) Valid(t int) bool { return r.Data[t*r.stride()] != 0 }

// Lag returns the best lag recorded for station s at time index t, or the
// absent Optional if it is NULL.
func (r Result) Lag(t, s int) sentinel.Int32 {
	return sentinel.FromRawInt32(r.Data[t*r.stride()+1+s])
}

func (r Result) setLag(t, s int, v sentinel.Int32) {
	r.Data[t*r.stride()+1+s] = v.ToRaw()
}

func (r Result) setValid(t int, valid bool) {
	if valid {
		r.Data[t*r.stride()] = 1
	} else {
		r.Data[t*r.stride()] = 0
	}
}

// IsGoodSegment (C1) reports whether no two adjacent samples in
// signals[station, start:start+window] are equal. Flat or clipped
// segments are rejected because they yield zero-variance correlations.
// The caller must ensure start+window <= signals.Samples.
func IsGoodSegment(signals Signals, station, start, window int) bool {
	base := station*signals.Samples + start
	for i := 1; i < window; i++ {
		if signals.Data[base+i] == signals.Data[base+i-1] {
			return false
		}
	}
	return true
}

// Estimate runs C2 over every admissible time index of signals and
// returns the (T, S+1) result. Time indices beyond
// T - window_size - scanner_size - 1 are never written, matching the
// spec's pre-zeroing invariant (callers get that for free since NewResult
// zero-fills).
func Estimate(signals Signals, cfg Config) Result {
	result := NewResult(signals.Samples, signals.Stations)

	lastT := signals.Samples - cfg.WindowSize - cfg.ScannerSize - 1
	if lastT < 0 {
		return result
	}

	kernel.Launch(kernel.Config{GlobalSize: lastT + 1, Workers: cfg.Workers}, func(t int) {
		estimateAt(signals, cfg, result, t)
	})

	return result
}

func estimateAt(signals Signals, cfg Config, result Result, t int) {
	base := cfg.BaseStationIndex
	w := cfg.WindowSize

	if !IsGoodSegment(signals, base, t, w) {
		return
	}

	sumA, sumA2, minV, maxV := baseStats(signals, base, t, w, cfg.HighPrecision)
	if minV == maxV {
		return
	}

	selected := 0
	for s := 0; s < signals.Stations; s++ {
		if s == base {
			continue
		}

		bestR := -1.0
		bestLag := sentinel.NoInt32()

		for d := 0; d < cfg.ScannerSize; d++ {
			if !IsGoodSegment(signals, s, t+d, w) {
				continue
			}

			sumB, sumB2, sumAB := crossStats(signals, base, s, t, d, w, cfg.HighPrecision)

			numerator := float64(w)*sumAB - sumA*sumB
			if numerator < 0 {
				continue
			}

			denomSq := (float64(w)*sumA2 - sumA*sumA) * (float64(w)*sumB2 - sumB*sumB)
			if denomSq <= 0 {
				continue
			}
			denominator := math.Sqrt(denomSq)
			if denominator == 0 {
				continue
			}

			r := numerator / denominator
			if r >= cfg.MinCorrelation && r > bestR {
				bestR = r
				bestLag = sentinel.SomeInt32(int32(d))
			}
		}

		result.setLag(t, s, bestLag)
		if bestLag.Ok {
			selected++
		}
	}

	result.setValid(t, selected > MinStationsCount)
}

// baseStats computes the base window's sum, sum-of-squares, min and max
// over [start, start+window). Per the reference kernel, min/max are
// seeded at 0 rather than the first sample — preserved verbatim since no
// testable property depends on the distinction and the reimplementation
// favors literal fidelity here.
func baseStats(signals Signals, station, start, window int, highPrecision bool) (sumA, sumA2 float64, minV, maxV float32) {
	if highPrecision {
		var sA, sA2 float64
		for i := 0; i < window; i++ {
			v := float64(signals.at(station, start+i))
			sA += v
			sA2 += v * v
			vf := float32(v)
			if vf < minV {
				minV = vf
			}
			if vf > maxV {
				maxV = vf
			}
		}
		return sA, sA2, minV, maxV
	}

	var sA, sA2 float32
	for i := 0; i < window; i++ {
		v := signals.at(station, start+i)
		sA += v
		sA2 += v * v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return float64(sA), float64(sA2), minV, maxV
}

// crossStats computes the candidate window's sum, sum-of-squares and the
// cross-product sum against the base window.
func crossStats(signals Signals, base, station, t, lag, window int, highPrecision bool) (sumB, sumB2, sumAB float64) {
	if highPrecision {
		var sB, sB2, sAB float64
		for i := 0; i < window; i++ {
			a := float64(signals.at(base, t+i))
			b := float64(signals.at(station, t+lag+i))
			sB += b
			sB2 += b * b
			sAB += a * b
		}
		return sB, sB2, sAB
	}

	var sB, sB2, sAB float32
	for i := 0; i < window; i++ {
		a := signals.at(base, t+i)
		b := signals.at(station, t+lag+i)
		sB += b
		sB2 += b * b
		sAB += a * b
	}
	return float64(sB), float64(sB2), float64(sAB)
}

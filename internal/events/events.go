// Package events groups the per-sample output of the delay estimator into
// discrete detection events. The distilled core specification starts the
// localization engine from one delay row per event without saying how
// those events are obtained from a (T, S+1) scan; this package is that
// missing bridge, ported from the reference worker's post-processing
// step rather than from either OpenCL kernel.
package events

import (
	"math"

	"seismo-locator/internal/delay"
	"seismo-locator/internal/sentinel"
)

// SimilarityCoefficient is the minimum fraction of per-station delays two
// adjacent valid rows must agree on (within TimeEpsilon, or far enough
// apart that at least one of the pair is NULL; see Similarity) to be
// folded into the same event.
const SimilarityCoefficient = 0.8

// TimeEpsilon is the per-station delay tolerance used by the similarity
// test.
const TimeEpsilon = 5

// Event is one detected event: the time index of its representative
// sample, how many samples it spans, and the representative per-station
// delay row (raw sentinel.Value for absent stations) later fed to the
// residual-cube kernel.
type Event struct {
	StartIndex int
	Duration   int
	Delays     []int32
}

// Similarity returns the fraction of columns in a, b that either agree
// within epsilon samples or differ by more than half the magnitude of the
// NULL sentinel. Two NULLs agree through the first test; a NULL paired
// with an ordinary lag counts as agreeing through the second.
func Similarity(a, b []int32, epsilon int32) float64 {
	if len(a) != len(b) {
		panic("events: rows of different length")
	}
	if len(a) == 0 {
		return 0
	}

	halfNull := float64(-sentinel.Value) / 2

	matches := 0
	for i := range a {
		diff := math.Abs(float64(a[i] - b[i]))
		if diff <= float64(epsilon) || diff > halfNull {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

// Detect scans a delay.Result for validity runs and merges adjacent rows
// whose delay columns are similar (per Similarity) into discrete events,
// extending an event's duration window_size samples past the last merged
// row. scannerSize bounds how many rows ahead of a representative row are
// considered for merging, mirroring the estimator's own lag search
// window.
func Detect(result delay.Result, windowSize, scannerSize int) []Event {
	type row struct {
		index  int
		delays []int32
	}

	var valid []row
	for t := 0; t < result.Samples; t++ {
		if !result.Valid(t) {
			continue
		}
		delays := make([]int32, result.Stations)
		for s := 0; s < result.Stations; s++ {
			delays[s] = result.Lag(t, s).ToRaw()
		}
		valid = append(valid, row{index: t, delays: delays})
	}

	skipped := make([]bool, len(valid))
	var out []Event

	for i := range valid {
		if skipped[i] {
			continue
		}

		durationIndex := valid[i].index
		maxJ := i + scannerSize + 1
		if maxJ > len(valid) {
			maxJ = len(valid)
		}

		for j := i + 1; j < maxJ; j++ {
			if skipped[j] {
				continue
			}
			if Similarity(valid[i].delays, valid[j].delays, TimeEpsilon) >= SimilarityCoefficient {
				skipped[j] = true
				durationIndex = valid[j].index
			}
		}

		out = append(out, Event{
			StartIndex: valid[i].index,
			Duration:   durationIndex - valid[i].index + windowSize,
			Delays:     valid[i].delays,
		})
	}

	return out
}

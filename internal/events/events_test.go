package events

import (
	"testing"

	"seismo-locator/internal/delay"
)

func buildResult(rows [][]int32, valid []bool) delay.Result {
	stations := len(rows[0])
	result := delay.NewResult(len(rows), stations)
	for t, row := range rows {
		for s, v := range row {
			result.Data[t*(stations+1)+1+s] = v
		}
		if valid[t] {
			result.Data[t*(stations+1)] = 1
		}
	}
	return result
}

func TestSimilarityExactMatch(t *testing.T) {
	a := []int32{1, 2, 3}
	b := []int32{1, 2, 3}
	if got := Similarity(a, b, TimeEpsilon); got != 1.0 {
		t.Errorf("Similarity() = %v, want 1.0", got)
	}
}

func TestSimilarityBothNullCountsAsMatch(t *testing.T) {
	a := []int32{-9999, 5}
	b := []int32{-9999, 7}
	got := Similarity(a, b, TimeEpsilon)
	if got != 1.0 {
		t.Errorf("Similarity() = %v, want 1.0 (NULL column + within-epsilon column)", got)
	}
}

func TestDetectMergesAdjacentSimilarRows(t *testing.T) {
	rows := [][]int32{
		{0, 10, 10}, // t=0 valid, representative
		{0, 11, 10}, // t=1 valid, similar to t=0 -> merged
		{0, 40, 41}, // t=2 valid, dissimilar -> new event
	}
	valid := []bool{true, true, true}
	result := buildResult(rows, valid)

	got := Detect(result, 4, 8)
	if len(got) != 2 {
		t.Fatalf("Detect() returned %d events, want 2", len(got))
	}

	if got[0].StartIndex != 0 {
		t.Errorf("event[0].StartIndex = %d, want 0", got[0].StartIndex)
	}
	// merged through t=1, so duration = (1-0) + windowSize(4) = 5
	if got[0].Duration != 5 {
		t.Errorf("event[0].Duration = %d, want 5", got[0].Duration)
	}

	if got[1].StartIndex != 2 {
		t.Errorf("event[1].StartIndex = %d, want 2", got[1].StartIndex)
	}
	if got[1].Duration != 4 {
		t.Errorf("event[1].Duration = %d, want 4 (no merge, just window_size)", got[1].Duration)
	}
}

func TestDetectIgnoresInvalidRows(t *testing.T) {
	rows := [][]int32{
		{0, 10}, // invalid
		{0, 20}, // valid
	}
	valid := []bool{false, true}
	result := buildResult(rows, valid)

	got := Detect(result, 4, 8)
	if len(got) != 1 {
		t.Fatalf("Detect() returned %d events, want 1", len(got))
	}
	if got[0].StartIndex != 1 {
		t.Errorf("StartIndex = %d, want 1", got[0].StartIndex)
	}
}

package velocity

import (
	"math"
	"testing"
)

func twoLayer() Model {
	// top-down: layer 0 is (0,1000,2000), layer 1 is (-1000,0,3000)
	return NewModel([]float32{
		0, 1000, 2000,
		-1000, 0, 3000,
	})
}

func TestLayerIndex(t *testing.T) {
	m := twoLayer()

	cases := []struct {
		z    float32
		want int
	}{
		{500, 0},
		{-500, 1},
		{0, 0},   // boundary belongs to the layer above per [z_bottom, z_top)
		{1000, -1}, // at the very top edge, no layer contains z==z_top
		{-1000, 1},
		{-2000, -1},
		{1500, -1},
	}

	for _, c := range cases {
		got := m.LayerIndex(c.z)
		if got != c.want {
			t.Errorf("LayerIndex(%v) = %d, want %d", c.z, got, c.want)
		}
	}
}

func TestMinMaxAltitude(t *testing.T) {
	m := twoLayer()
	if got := m.MinAltitude(); got != -1000 {
		t.Errorf("MinAltitude() = %v, want -1000", got)
	}
	if got := m.MaxAltitude(); got != 1000 {
		t.Errorf("MaxAltitude() = %v, want 1000", got)
	}
}

func TestRayConstant(t *testing.T) {
	got := RayConstant(math.Pi/2, 2000)
	want := 1.0 / 2000.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RayConstant(pi/2, 2000) = %v, want %v", got, want)
	}
}

func TestColumnsPerLayerIndexing(t *testing.T) {
	// regression for the original kernel's indexing defect: layer count
	// must never be substituted for column count when addressing rows.
	m := NewModel([]float32{
		0, 100, 1000,
		-100, 0, 1500,
		-200, -100, 2000,
	})
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	if got := m.Vp(2); got != 2000 {
		t.Errorf("Vp(2) = %v, want 2000", got)
	}
}

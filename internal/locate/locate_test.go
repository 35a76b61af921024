package locate

import (
	"math"
	"testing"

	"seismo-locator/internal/raytrace"
	"seismo-locator/internal/velocity"
)

func flatModel() velocity.Model {
	// single layer, vp=2000, spans z in [-1000, 1000)
	return velocity.NewModel([]float32{-1000, 1000, 2000})
}

func TestReduceEmptyCubeYieldsNullAndInf(t *testing.T) {
	cube := NewCube(1, 4)
	for n := 0; n < 4; n++ {
		cube.set(0, n, -9999)
	}

	bestNode, residual := Reduce(cube)
	if bestNode[0] != -9999 {
		t.Errorf("bestNode = %d, want -9999", bestNode[0])
	}
	if !math.IsInf(float64(residual[0]), 1) {
		t.Errorf("residual = %v, want +Inf", residual[0])
	}
}

func TestReducePicksStrictMinimumFirstSeen(t *testing.T) {
	cube := NewCube(1, 5)
	vals := []float32{5, 2, 2, 9, 1}
	for n, v := range vals {
		cube.set(0, n, v)
	}

	bestNode, residual := Reduce(cube)
	if bestNode[0] != 4 {
		t.Errorf("bestNode = %d, want 4 (global minimum)", bestNode[0])
	}
	if residual[0] != 1 {
		t.Errorf("residual = %v, want 1", residual[0])
	}
}

func TestReduceTieBreakKeepsFirstSeen(t *testing.T) {
	cube := NewCube(1, 4)
	vals := []float32{3, 1, 1, 5}
	for n, v := range vals {
		cube.set(0, n, v)
	}
	bestNode, _ := Reduce(cube)
	if bestNode[0] != 1 {
		t.Errorf("bestNode = %d, want 1 (first of the tied minimum)", bestNode[0])
	}
}

func TestResidualCubeAltitudeGate(t *testing.T) {
	model := flatModel()
	coords := StationCoords{Data: []float32{0, 0, 100, 0, 0, 100}, Stations: 3}
	grid := Grid{Dx: 10, Dy: 10, Dz: 10, Nx: 2, Ny: 2, Nz: 2}
	origin := Origin{X0: 0, Y0: 0, Z0: -5000} // entirely below z_min

	cube := ResidualCube(model, coords, 0, 0, grid, []Origin{origin}, [][]int32{{0, 1, 2}}, 1, 1000)

	for n := 0; n < grid.N(); n++ {
		if cube.at(0, n) != -9999 {
			t.Errorf("node %d: diff_cube = %v, want NULL (-9999) below z_min", n, cube.at(0, n))
		}
	}
	bestNode, residual := Reduce(cube)
	if bestNode[0] != -9999 {
		t.Errorf("bestNode = %d, want -9999", bestNode[0])
	}
	if !math.IsInf(float64(residual[0]), 1) {
		t.Errorf("residual = %v, want +Inf", residual[0])
	}
}

func TestResidualMinimumAtGroundTruth(t *testing.T) {
	// two layers of equal vp meeting at the station altitude z=0, so every
	// candidate source sits in the lower layer and the ray-time solver's
	// upper bracket angle (taken from the top of the source layer) spans
	// the receivers
	model := velocity.NewModel([]float32{
		0, 1000, 2000,
		-1000, 0, 2000,
	})

	coords := StationCoords{
		Data: []float32{
			0, 0,
			100, 0,
			0, 100,
			-100, 0,
		},
		Stations: 4,
	}
	stationsAltitude := 0.0
	accuracy := 1.0
	frequency := 1000.0
	base := 0

	truthX, truthY, truthZ := 20.0, 30.0, -200.0

	delays := make([]int32, coords.Stations)
	xBase, yBase := float64(coords.x(base)), float64(coords.y(base))
	rhoBase := math.Hypot(xBase-truthX, yBase-truthY)
	tauBase, ok := raytrace.Time(model, truthZ, rhoBase, stationsAltitude, accuracy, frequency)
	if !ok {
		t.Fatal("expected base ray to converge")
	}
	for i := 0; i < coords.Stations; i++ {
		rho := math.Hypot(float64(coords.x(i))-truthX, float64(coords.y(i))-truthY)
		tau, ok := raytrace.Time(model, truthZ, rho, stationsAltitude, accuracy, frequency)
		if !ok {
			t.Fatalf("station %d: expected ray to converge", i)
		}
		delays[i] = int32(math.Round(tau - tauBase))
	}

	grid := Grid{Dx: 10, Dy: 10, Dz: 10, Nx: 5, Ny: 5, Nz: 5}
	origin := Origin{X0: truthX - 2*grid.Dx, Y0: truthY - 2*grid.Dy, Z0: truthZ - 2*grid.Dz}

	bestNode, residual, _ := Run(model, coords, stationsAltitude, base, grid, []Origin{origin}, [][]int32{delays}, accuracy, frequency)

	wantNode := int32(2 + 2*grid.Nx + 2*grid.Nx*grid.Ny) // centroid node (2,2,2)
	if bestNode[0] != wantNode {
		t.Errorf("bestNode = %d, want %d (ground-truth centroid)", bestNode[0], wantNode)
	}
	if residual[0] > 1 {
		t.Errorf("residual = %v, want near 0 at ground truth", residual[0])
	}
}

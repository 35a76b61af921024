// Package locate implements C6 (the residual-cube kernel), C7 (the cube
// reducer) and C8 (the host driver that ties the localization engine's
// stages together).
package locate

import (
	"math"

	"seismo-locator/internal/kernel"
	"seismo-locator/internal/raytrace"
	"seismo-locator/internal/sentinel"
	"seismo-locator/internal/velocity"
)

// MinContributingStations is the minimum station count (met, not
// strictly exceeded) for a (event, node) residual to be considered valid — see
// spec design note on the two different thresholds used by the estimator
// and the localizer.
const MinContributingStations = 3

// StationCoords is a flat, row-major (S, 2) table of (x, y) coordinates.
// All stations share a single altitude.
type StationCoords struct {
	Data     []float32
	Stations int
}

func (c StationCoords) x(i int) float32 { return c.Data[i*2+0] }
func (c StationCoords) y(i int) float32 { return c.Data[i*2+1] }

// Grid describes the search-grid spacing and dimensions shared by every
// event (the spec allows it to vary per event; callers that need that
// can call ResidualCube per event with a different Grid).
type Grid struct {
	Dx, Dy, Dz float64
	Nx, Ny, Nz int
}

// N is the total node count nx*ny*nz.
func (g Grid) N() int { return g.Nx * g.Ny * g.Nz }

// node decodes a linear node index into (ix, iy, iz) per the spec's
// row-major node ordering.
func (g Grid) node(k int) (ix, iy, iz int) {
	ix = k % g.Nx
	iy = (k / g.Nx) % g.Ny
	iz = k / (g.Nx * g.Ny)
	return
}

// Origin is a per-event grid origin (x0, y0, z0).
type Origin struct {
	X0, Y0, Z0 float64
}

// Cube is a flat, row-major (E, N) real32 residual field.
type Cube struct {
	Data   []float32
	Events int
	Nodes  int
}

// NewCube allocates a zeroed (E, N) residual cube.
func NewCube(events, nodes int) Cube {
	return Cube{Data: make([]float32, events*nodes), Events: events, Nodes: nodes}
}

func (c Cube) at(e, n int) float32     { return c.Data[e*c.Nodes+n] }
func (c Cube) set(e, n int, v float32) { c.Data[e*c.Nodes+n] = v }

// ResidualCube runs C6: for every (event, node) pair it ray-traces from
// the node to every station and scores the mismatch between theoretical
// and measured differential travel time. eventDelays[e] holds the S
// per-station measured delays for event e (sentinel.Value for absent
// stations); eventOrigins[e] and the shared grid describe the candidate
// node positions.
func ResidualCube(model velocity.Model, coords StationCoords, stationsAltitude float64, baseStationIndex int, grid Grid, eventOrigins []Origin, eventDelays [][]int32, accuracy, frequency float64) Cube {
	events := len(eventOrigins)
	nodes := grid.N()
	cube := NewCube(events, nodes)

	zMin := float64(model.MinAltitude())
	zMax := float64(model.MaxAltitude())

	kernel.Launch(kernel.Config{GlobalSize: events * nodes}, func(g int) {
		eventID := g / nodes
		nodeID := g % nodes
		ix, iy, iz := grid.node(nodeID)

		origin := eventOrigins[eventID]
		x := float64(ix)*grid.Dx + origin.X0
		y := float64(iy)*grid.Dy + origin.Y0
		z := float64(iz)*grid.Dz + origin.Z0

		if z < zMin || z > zMax {
			cube.set(eventID, nodeID, sentinel.Value)
			return
		}

		v, ok := diffFunction(model, coords, stationsAltitude, baseStationIndex, x, y, z, eventDelays[eventID], accuracy, frequency)
		if !ok {
			cube.set(eventID, nodeID, sentinel.Value)
			return
		}
		cube.set(eventID, nodeID, float32(v))
	})

	return cube
}

func diffFunction(model velocity.Model, coords StationCoords, stationsAltitude float64, baseStationIndex int, x, y, z float64, delays []int32, accuracy, frequency float64) (float64, bool) {
	xBase := float64(coords.x(baseStationIndex))
	yBase := float64(coords.y(baseStationIndex))

	rhoBase := math.Hypot(xBase-x, yBase-y)
	tauBase, ok := raytrace.Time(model, z, rhoBase, stationsAltitude, accuracy, frequency)
	if !ok {
		return 0, false
	}

	sum := 0.0
	count := 0

	for i := 0; i < coords.Stations; i++ {
		rho := math.Hypot(float64(coords.x(i))-x, float64(coords.y(i))-y)
		tau, ok := raytrace.Time(model, z, rho, stationsAltitude, accuracy, frequency)
		if !ok {
			continue
		}

		theoretical := tau - tauBase
		if theoretical < 0 {
			continue
		}

		measured := sentinel.FromRawInt32(delays[i])
		if !measured.Ok {
			continue
		}

		d := theoretical - float64(measured.V)
		sum += d * d
		count++
	}

	if count < MinContributingStations {
		return 0, false
	}
	return math.Sqrt(sum) / float64(count), true
}

// Reduce runs C7: per event, the node with the smallest residual in the
// cube, ties broken by the first-seen (smallest index) node. Events with
// no valid node get the NULL/+Inf pair.
func Reduce(cube Cube) (bestNode []int32, residual []float32) {
	bestNode = make([]int32, cube.Events)
	residual = make([]float32, cube.Events)

	for e := 0; e < cube.Events; e++ {
		best := sentinel.NoInt32()
		bestResidual := float32(math.Inf(1))

		for n := 0; n < cube.Nodes; n++ {
			v := cube.at(e, n)
			if v == sentinel.Value {
				continue
			}
			if v < bestResidual {
				bestResidual = v
				best = sentinel.SomeInt32(int32(n))
			}
		}

		bestNode[e] = best.ToRaw()
		residual[e] = bestResidual
	}

	return bestNode, residual
}

// Run is the host driver (C8): it lays out the residual cube, launches
// the kernel, and reduces the result, mirroring the stage-blocking
// handoff C2 -> C6 -> C7 the spec describes (the host blocks between
// kernel stages; there is no cross-stage pipelining here).
func Run(model velocity.Model, coords StationCoords, stationsAltitude float64, baseStationIndex int, grid Grid, eventOrigins []Origin, eventDelays [][]int32, accuracy, frequency float64) (bestNode []int32, residual []float32, cube Cube) {
	cube = ResidualCube(model, coords, stationsAltitude, baseStationIndex, grid, eventOrigins, eventDelays, accuracy, frequency)
	bestNode, residual = Reduce(cube)
	return bestNode, residual, cube
}

// Package velocity implements C3: lookups over a horizontally layered
// velocity model. Layers are stored top-down, each row a flat
// (z_bottom, z_top, vp) triple.
package velocity

import "math"

// ColumnsPerLayer is the fixed row width of a velocity model. The original
// OpenCL kernel once indexed a reflection test with the layer count in
// place of this constant (spec design note, §9) — every accessor here
// multiplies by ColumnsPerLayer so that bug class can't reappear.
const ColumnsPerLayer = 3

// Model is a flat, row-major (z_bottom, z_top, vp) table, rows ordered
// top-down: row 0 has the highest top altitude, row Len()-1 the lowest
// bottom altitude.
type Model struct {
	rows []float32 // len == Len()*ColumnsPerLayer
}

// NewModel wraps a flat (L, 3) row-major buffer. It does not copy.
func NewModel(rows []float32) Model {
	return Model{rows: rows}
}

// Len returns the number of layers.
func (m Model) Len() int {
	return len(m.rows) / ColumnsPerLayer
}

// ZBottom returns the bottom altitude of layer i.
func (m Model) ZBottom(i int) float32 { return m.rows[i*ColumnsPerLayer+0] }

// ZTop returns the top altitude of layer i.
func (m Model) ZTop(i int) float32 { return m.rows[i*ColumnsPerLayer+1] }

// Vp returns the compressional velocity of layer i.
func (m Model) Vp(i int) float32 { return m.rows[i*ColumnsPerLayer+2] }

// MinAltitude is the lowest bottom altitude covered by the model, i.e. the
// bottom of the deepest (last) layer.
func (m Model) MinAltitude() float32 { return m.ZBottom(m.Len() - 1) }

// MaxAltitude is the highest top altitude covered by the model, i.e. the
// top of the shallowest (first) layer.
func (m Model) MaxAltitude() float32 { return m.ZTop(0) }

// LayerIndex returns the index i such that ZBottom(i) <= z < ZTop(i), or
// -1 (NULL) if z falls outside every layer.
func (m Model) LayerIndex(z float32) int {
	for i := 0; i < m.Len(); i++ {
		if z >= m.ZBottom(i) && z < m.ZTop(i) {
			return i
		}
	}
	return -1
}

// RayConstant is Snell's law invariant sin(theta)/v, constant along a ray
// through a layered medium.
func RayConstant(theta float64, vp float32) float64 {
	return math.Sin(theta) / float64(vp)
}

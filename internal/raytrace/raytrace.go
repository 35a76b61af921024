// Package raytrace implements C4 (single-incidence ray tracing through a
// layered velocity model, with its reflection test) and C5 (the bisection
// solver that finds the incidence angle, and hence travel time, for a ray
// that lands within tolerance of a given lateral offset).
package raytrace

import (
	"math"

	"seismo-locator/internal/velocity"
)

// Result is the end point of a traced ray: lateral offset, altitude, and
// travel time (already scaled by frequency into sample-count units). Ok is
// false when the ray reflects instead of reaching the target altitude.
type Result struct {
	R   float64
	Z   float64
	Tau float64
	Ok  bool
}

// IsReflected reports whether a ray with the given Snell ray constant
// breaks total-internal-reflection in any layer it must cross between
// sourceLayer and targetLayer (inclusive), walking in whichever direction
// connects them. An invalid (negative) layer index is reported as a
// reflection.
func IsReflected(model velocity.Model, sourceLayer, targetLayer int, rayConstant float64) bool {
	if sourceLayer < 0 || targetLayer < 0 {
		return true
	}

	step := 1
	if targetLayer < sourceLayer {
		step = -1
	}

	for i := sourceLayer; ; i += step {
		if rayConstant*float64(model.Vp(i)) > 1 {
			return true
		}
		if i == targetLayer {
			break
		}
	}
	return false
}

// Trace marches a ray of incidence angle theta (measured at the source)
// from (sourceR, sourceZ) to the target altitude targetZ, through model,
// accumulating lateral offset, altitude and travel time layer by layer.
// lateralDir is +1 or -1 and flips the sign of the lateral offset
// contributed by each layer. frequency scales the accumulated travel time
// into sample-count units.
//
// The original kernel this is ported from only ever walked layers in one
// direction (source deeper than target); Trace generalizes the walk to
// either direction with the same per-layer formulas, so a
// vertically-inverted source/target pair (as in a ray descending rather
// than ascending) is traced with the same arithmetic. When source and
// target share one layer, that layer's thickness is |targetZ - sourceZ|.
func Trace(model velocity.Model, sourceR, sourceZ, targetZ, theta, lateralDir, frequency float64) Result {
	sourceLayer := model.LayerIndex(float32(sourceZ))
	targetLayer := model.LayerIndex(float32(targetZ))
	if sourceLayer < 0 || targetLayer < 0 {
		return Result{}
	}

	rayConstant := velocity.RayConstant(theta, model.Vp(sourceLayer))
	if IsReflected(model, sourceLayer, targetLayer, rayConstant) {
		return Result{}
	}

	step := 1
	if targetLayer < sourceLayer {
		step = -1
	}

	ascend := 1.0
	if targetZ < sourceZ {
		ascend = -1.0
	}

	r, z, tau := sourceR, sourceZ, 0.0

	for i := sourceLayer; ; i += step {
		var thickness float64
		switch {
		case i == sourceLayer && i == targetLayer:
			thickness = math.Abs(targetZ - sourceZ)
		case i == sourceLayer:
			thickness = float64(model.ZTop(i)) - sourceZ
		case i == targetLayer:
			thickness = targetZ - float64(model.ZBottom(i))
		default:
			thickness = float64(model.ZTop(i)) - float64(model.ZBottom(i))
		}

		vi := float64(model.Vp(i))
		phi := math.Asin(rayConstant * vi)
		dr := thickness * math.Tan(phi) * lateralDir
		dl := math.Hypot(dr, thickness)

		r += dr
		z += ascend * thickness
		tau += (dl / vi) * frequency

		if i == targetLayer {
			break
		}
	}

	return Result{R: r, Z: z, Tau: tau, Ok: true}
}

// Time is the C5 bisection solver: given a source at lateral offset 0 and
// altitude sourceZ, and a receiver at lateral offset receiverR and
// altitude receiverZ, it searches incidence angle for a ray landing within
// accuracy of receiverR and returns its travel time. The search starts
// from the bracket [atan2(accuracy/2, |sourceZ-receiverZ|),
// atan2(|receiverR|, distance from sourceZ up to the top of its layer)].
// ok is false if receiverR falls outside the current bracket, if any of
// an iteration's three traces reflects without a hit, or if no hit is
// found within 10 bisection iterations.
func Time(model velocity.Model, sourceZ, receiverR, receiverZ, accuracy, frequency float64) (tau float64, ok bool) {
	sourceLayer := model.LayerIndex(float32(sourceZ))
	if sourceLayer < 0 {
		return 0, false
	}

	deltaZ := math.Abs(sourceZ - receiverZ)
	minAngle := math.Atan2(0.5*accuracy, deltaZ)

	layerDeltaZAtSource := float64(model.ZTop(sourceLayer)) - sourceZ
	rOffset := math.Abs(0 - receiverR)
	maxAngle := math.Atan2(rOffset, layerDeltaZAtSource)

	lateral := 1.0
	if receiverR < 0 {
		lateral = -1.0
	}

	hit := func(res Result) bool {
		return res.Ok && math.Abs(res.R-receiverR) < accuracy
	}

	for iter := 0; iter < 10; iter++ {
		minRay := Trace(model, 0, sourceZ, receiverZ, minAngle, lateral, frequency)
		if hit(minRay) {
			return minRay.Tau, true
		}

		midAngle := (minAngle + maxAngle) / 2
		midRay := Trace(model, 0, sourceZ, receiverZ, midAngle, lateral, frequency)
		if hit(midRay) {
			return midRay.Tau, true
		}

		maxRay := Trace(model, 0, sourceZ, receiverZ, maxAngle, lateral, frequency)
		if hit(maxRay) {
			return maxRay.Tau, true
		}

		if !minRay.Ok || !midRay.Ok || !maxRay.Ok {
			break
		}

		switch {
		case lateral > 0:
			switch {
			case minRay.R < receiverR && receiverR < midRay.R:
				maxAngle = midAngle
			case midRay.R < receiverR && receiverR < maxRay.R:
				minAngle = midAngle
			default:
				return 0, false
			}
		default:
			// Mirrors the positive-direction bracket: for negative lateral
			// offsets the ray's r grows more negative as angle increases,
			// so maxRay.R plays the role minRay.R plays above.
			switch {
			case maxRay.R < receiverR && receiverR < midRay.R:
				minAngle = midAngle
			case midRay.R < receiverR && receiverR < minRay.R:
				maxAngle = midAngle
			default:
				return 0, false
			}
		}
	}

	return 0, false
}

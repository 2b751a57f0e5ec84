package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector helpers

// finite reports whether both components are finite.
func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// unitOr returns the unit vector of v, or fallback when v has no usable direction.
func unitOr(v r2.Vec, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return r2.Scale(1/n, v)
}

// limitMagnitude scales v down so that |v| <= maxMag.
// Non-finite vectors are replaced by maxMag along +X.
func limitMagnitude(v r2.Vec, maxMag float64) r2.Vec {
	if !finite(v) {
		return r2.Vec{X: maxMag}
	}
	n := r2.Norm(v)
	if n > maxMag {
		return r2.Scale(maxMag/n, v)
	}
	return v
}

// finiteOr returns x, or limit when x is NaN or infinite.
func finiteOr(x, limit float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return limit
	}
	return math.Min(x, limit)
}

// distance returns the Euclidean distance between two points.
func distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

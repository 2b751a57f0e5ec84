package game

import "math"

// Street layout of the ground decoration, on a 20 x 20 reference grid:
// one main street across the middle and two narrow alleys crossing it.
// Buildings are drawn only; they do not block movement.
const layoutGrid = 20

// roadCell reports whether cell (ix, iy) of an n x n grid is street.
func roadCell(ix, iy, n int) bool {
	if n <= 0 {
		return false
	}
	x := ix * layoutGrid / n
	y := iy * layoutGrid / n
	mainStreet := y >= 9 && y <= 11
	alley := (x >= 4 && x <= 5) || (x >= 14 && x <= 15)
	return mainStreet || alley
}

// cellOf returns the grid cell containing a world coordinate. The grid has
// its origin at the world's minimum corner.
func cellOf(v, halfSize, cellSize float64) int {
	return int(math.Floor((v + halfSize) / cellSize))
}

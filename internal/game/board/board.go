// Package board provides the hex-grid substrate for unit positions.
//
// The engine tracks positions and ranges only; terrain and line of sight are
// owned by external collaborators.
package board

// Coord is an axial hex coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b Coord) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	ds := -dq - dr
	return (abs(dq) + abs(dr) + abs(ds)) / 2
}

// directions are the six axial neighbor offsets, indexed by facing.
var directions = [6]Coord{
	{Q: 1, R: 0}, {Q: 1, R: -1}, {Q: 0, R: -1},
	{Q: -1, R: 0}, {Q: -1, R: 1}, {Q: 0, R: 1},
}

// Neighbor returns the adjacent coordinate in the given facing.
func Neighbor(c Coord, facing int) Coord {
	d := directions[facing%6]
	return Coord{Q: c.Q + d.Q, R: c.R + d.R}
}

// StepToward returns the neighbor of from that is closest to to. When from
// equals to it returns from unchanged.
func StepToward(from, to Coord) Coord {
	if from == to {
		return from
	}
	best := from
	bestDist := Distance(from, to)
	for f := 0; f < 6; f++ {
		n := Neighbor(from, f)
		if d := Distance(n, to); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// ValidFacing reports whether f is one of the six hex facings.
func ValidFacing(f int) bool {
	return f >= 0 && f <= 5
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

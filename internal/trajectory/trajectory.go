// Package trajectory shapes the vertical arc of a relation in the 3D scene.
// Arcs are quadratic Bézier heights chosen by heuristics, not simulated.
package trajectory

import (
	"math"

	"github.com/courtlab/drillboard/pkg/core"
)

// Constants are the scene heights and shaping factors, in meters.
type Constants struct {
	NetHeight          float64
	NetClearance       float64
	PlayerHeight       float64
	HandsHeight        float64
	JumpOffset         float64
	GroundOffset       float64
	OffensiveArcFactor float64
	LobArcFactor       float64
	SameSideMargin     float64
	CurvatureLift      float64
}

// DefaultConstants returns the indoor women's net setup.
func DefaultConstants() Constants {
	player := 1.4
	return Constants{
		NetHeight:          2.10,
		NetClearance:       0.2,
		PlayerHeight:       player,
		HandsHeight:        player * 1.1,
		JumpOffset:         0.7,
		GroundOffset:       0.15,
		OffensiveArcFactor: 0.12,
		LobArcFactor:       0.25,
		SameSideMargin:     0.5,
		CurvatureLift:      4,
	}
}

// JumpHandsHeight is the contact height of a jumping player.
func (c Constants) JumpHandsHeight() float64 {
	return c.HandsHeight + c.JumpOffset
}

// MinNetHeight is the lowest height an arc may have over the net.
func (c Constants) MinNetHeight() float64 {
	return c.NetHeight + c.NetClearance
}

// Input describes one relation in ground plane coordinates.
type Input struct {
	Start      core.Position3D
	End        core.Position3D
	Curvature  float64
	GroundMove bool
	HitType    core.HitType
	StartColor string
	EndColor   string
}

// Arc holds the three control heights and the resolved hit type.
type Arc struct {
	StartY float64      `json:"startY"`
	EndY   float64      `json:"endY"`
	MidY   float64      `json:"midY"`
	Hit    core.HitType `json:"hit"`
}

// Resolve turns auto into defensive for same-colour endpoints and offensive
// otherwise.
func Resolve(hit core.HitType, startColor, endColor string) core.HitType {
	if hit == core.HitAuto || hit == "" {
		if startColor == endColor {
			return core.HitDefensive
		}
		return core.HitOffensive
	}
	return hit
}

// Solve computes the arc heights. Ground moves are flat at GroundOffset.
// Airborne arcs that cross x = 0 always clear MinNetHeight at the crossing.
func Solve(in Input, c Constants) Arc {
	if in.GroundMove {
		return Arc{StartY: c.GroundOffset, EndY: c.GroundOffset, MidY: c.GroundOffset, Hit: in.HitType}
	}

	hit := Resolve(in.HitType, in.StartColor, in.EndColor)

	startY := c.HandsHeight
	if hit == core.HitOffensive {
		startY = c.JumpHandsHeight()
	}
	endY := c.GroundOffset
	if hit == core.HitDefensive {
		endY = c.HandsHeight
	}

	d := math.Hypot(in.End.X-in.Start.X, in.End.Z-in.Start.Z)
	factor := c.LobArcFactor
	if hit == core.HitOffensive {
		factor = c.OffensiveArcFactor
	}
	natural := d * factor

	var midY float64
	if t, ok := CrossingParam(in.Start, in.End); ok {
		u := 1 - t
		needed := (c.MinNetHeight() - u*u*startY - t*t*endY) / (2 * u * t)
		midY = math.Max(needed, math.Max(startY+natural, endY+natural))
	} else {
		midY = math.Max(startY, endY) + natural + c.SameSideMargin
	}

	curv := in.Curvature
	if math.IsNaN(curv) || math.IsInf(curv, 0) {
		curv = 0
	}
	midY += math.Abs(curv) * c.CurvatureLift

	return Arc{StartY: startY, EndY: endY, MidY: midY, Hit: hit}
}

// CrossingParam returns the fraction of the segment at which it crosses the
// net plane x = 0. Points on the plane do not count as crossing, so t is
// always strictly inside (0, 1) when ok.
func CrossingParam(start, end core.Position3D) (t float64, ok bool) {
	if !((start.X > 0 && end.X < 0) || (start.X < 0 && end.X > 0)) {
		return 0, false
	}
	return math.Abs(start.X) / (math.Abs(start.X) + math.Abs(end.X)), true
}

// Height evaluates the arc at parameter t in [0, 1].
func Height(a Arc, t float64) float64 {
	u := 1 - t
	return u*u*a.StartY + 2*u*t*a.MidY + t*t*a.EndY
}

// Point returns the 3D position of the arc at t, interpolating linearly on
// the ground plane.
func Point(a Arc, start, end core.Position3D, t float64) core.Position3D {
	return core.Position3D{
		X: start.X + (end.X-start.X)*t,
		Y: Height(a, t),
		Z: start.Z + (end.Z-start.Z)*t,
	}
}

// OffensiveFeasible reports whether an offensive ball from startX to endX
// (meters across the court) is realistic. A back-zone contact more than 6m
// from the net cannot attack into the 3m opponent perimeter. Advisory only.
func OffensiveFeasible(motion core.Motion, startX, endX float64) bool {
	if motion != core.MotionBall {
		return true
	}
	fromBackZone := math.Abs(startX) > 6
	toOpponentPerimeter := math.Abs(endX) < 3 && sign(startX) != sign(endX)
	return !(fromBackZone && toOpponentPerimeter)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

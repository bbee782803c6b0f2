// Package path synthesizes the 2D geometry of a relation: a quadratic Bézier
// through a curvature-controlled apex, optionally resampled into a wavy or
// zig-zag polyline, plus an open arrowhead at the target end.
package path

import (
	"math"

	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/pkg/core"
)

// Params holds the fixed drawing constants, in pixels.
type Params struct {
	ObjOffset       float64 // endpoint retraction, half the retraction threshold
	WavySteps       int
	WaveFrequency   float64 // full periods across the path
	WaveAmplitude   float64
	LightningSteps  int
	LightningOffset float64
	HeadLength      float64
	HeadSpread      float64 // radians either side of the reversed tangent
	FlattenSteps    int     // samples used to flatten a normal curve
}

// DefaultParams returns the editor constants.
func DefaultParams() Params {
	return Params{
		ObjOffset:       25,
		WavySteps:       30,
		WaveFrequency:   8,
		WaveAmplitude:   4,
		LightningSteps:  6,
		LightningOffset: 8,
		HeadLength:      16,
		HeadSpread:      math.Pi / 6,
		FlattenSteps:    24,
	}
}

// Path is the synthesized geometry of one relation.
type Path struct {
	Style core.PathStyle

	Start   core.Position2D // retracted start
	End     core.Position2D // retracted end, the arrow tip
	Control core.Position2D // Bézier apex control point, also the label anchor

	// Body holds the sampled points after Start for wavy and lightning
	// paths. Normal paths are a single quadratic segment and leave it empty.
	Body core.Polyline

	Head      [2]core.Position2D
	HeadAngle float64

	// Degenerate is set when both endpoints coincide. Only Start is
	// meaningful and no arrowhead is drawn.
	Degenerate bool

	flattenSteps int
}

// Synthesize builds the path between two entity centers.
// It never fails: coincident endpoints give a degenerate single point path
// and non-finite curvature is treated as straight.
func Synthesize(from, to core.Position2D, curvature float64, style core.PathStyle, p Params) Path {
	if math.IsNaN(curvature) || math.IsInf(curvature, 0) {
		curvature = 0
	}
	if style == "" {
		style = core.PathNormal
	}

	if from == to {
		return Path{Style: style, Start: from, End: to, Control: from, Degenerate: true}
	}

	p1, p2 := retract(from, to, p.ObjOffset)

	d := p2.Sub(p1)
	mid := p1.Add(p2).Scale(0.5)
	cp := core.Position2D{X: mid.X - d.Y*curvature, Y: mid.Y + d.X*curvature}

	out := Path{Style: style, Start: p1, End: p2, Control: cp, flattenSteps: p.FlattenSteps}

	switch style {
	case core.PathWavy:
		out.Body = wavy(p1, cp, p2, p)
	case core.PathLightning:
		out.Body = lightning(p1, cp, p2, p)
	}

	out.HeadAngle = math.Atan2(p2.Y-cp.Y, p2.X-cp.X)
	out.Head = head(p2, out.HeadAngle, p)
	return out
}

// retract pulls both endpoints toward each other by offset once they are
// more than 2*offset apart.
func retract(p1, p2 core.Position2D, offset float64) (core.Position2D, core.Position2D) {
	dist := p1.Dist(p2)
	if offset <= 0 || dist <= offset*2 {
		return p1, p2
	}
	r := offset / dist
	d := p2.Sub(p1)
	return p1.Add(d.Scale(r)), p2.Sub(d.Scale(r))
}

// Quad evaluates the quadratic Bézier p0, c, p2 at t.
func Quad(p0, c, p2 core.Position2D, t float64) core.Position2D {
	u := 1 - t
	return core.Position2D{
		X: u*u*p0.X + 2*u*t*c.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p2.Y,
	}
}

// tangent returns the direction of the curve at t, falling back to the end
// tangent where the derivative vanishes.
func tangent(p0, c, p2 core.Position2D, t float64) float64 {
	dx := 2*(1-t)*(c.X-p0.X) + 2*t*(p2.X-c.X)
	dy := 2*(1-t)*(c.Y-p0.Y) + 2*t*(p2.Y-c.Y)
	if dx == 0 && dy == 0 {
		return math.Atan2(p2.Y-c.Y, p2.X-c.X)
	}
	return math.Atan2(dy, dx)
}

func displace(pt core.Position2D, angle, by float64) core.Position2D {
	return core.Position2D{
		X: pt.X + math.Cos(angle+math.Pi/2)*by,
		Y: pt.Y + math.Sin(angle+math.Pi/2)*by,
	}
}

func wavy(p1, cp, p2 core.Position2D, p Params) core.Polyline {
	steps := p.WavySteps
	if steps < 1 {
		steps = 1
	}
	pts := make(core.Polyline, 0, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		wave := math.Sin(t*math.Pi*p.WaveFrequency) * p.WaveAmplitude
		pts = append(pts, displace(Quad(p1, cp, p2, t), tangent(p1, cp, p2, t), wave))
	}
	return pts
}

func lightning(p1, cp, p2 core.Position2D, p Params) core.Polyline {
	steps := p.LightningSteps
	if steps < 1 {
		steps = 1
	}
	// zig-zag offsets are taken across the end tangent so the teeth stay
	// parallel
	angle := math.Atan2(p2.Y-cp.Y, p2.X-cp.X)
	pts := make(core.Polyline, 0, steps+1)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		offset := -p.LightningOffset
		if i%2 == 0 {
			offset = p.LightningOffset
		}
		pts = append(pts, displace(Quad(p1, cp, p2, t), angle, offset))
	}
	return append(pts, p2)
}

func head(tip core.Position2D, angle float64, p Params) [2]core.Position2D {
	return [2]core.Position2D{
		{X: tip.X - p.HeadLength*math.Cos(angle-p.HeadSpread), Y: tip.Y - p.HeadLength*math.Sin(angle-p.HeadSpread)},
		{X: tip.X - p.HeadLength*math.Cos(angle+p.HeadSpread), Y: tip.Y - p.HeadLength*math.Sin(angle+p.HeadSpread)},
	}
}

// Flatten returns the body as a polyline starting at Start. Normal curves
// are sampled FlattenSteps times. A degenerate path flattens to one point.
func (pa Path) Flatten() core.Polyline {
	if pa.Degenerate {
		return core.Polyline{pa.Start}
	}
	if pa.Style == core.PathWavy || pa.Style == core.PathLightning {
		out := make(core.Polyline, 0, len(pa.Body)+1)
		out = append(out, pa.Start)
		return append(out, pa.Body...)
	}
	steps := pa.flattenSteps
	if steps < 1 {
		steps = DefaultParams().FlattenSteps
	}
	out := make(core.Polyline, 0, steps+1)
	for i := 0; i <= steps; i++ {
		out = append(out, Quad(pa.Start, pa.Control, pa.End, float64(i)/float64(steps)))
	}
	return out
}

// Bounds returns the box enclosing the flattened body and the arrowhead.
func (pa Path) Bounds() core.Bounds {
	pts := pa.Flatten()
	if !pa.Degenerate {
		pts = append(pts, pa.Head[0], pa.Head[1])
	}
	return geo.Bounds(pts)
}

// BodyLength returns the length of the flattened body, arrowhead excluded.
func (pa Path) BodyLength() float64 {
	return geo.Length(pa.Flatten())
}

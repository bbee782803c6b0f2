// Package scene derives the 3D reconstruction handed to the external renderer
// from a semantic object graph. Coordinates are meters on the ground plane:
// X across the court, Y up, Z = -y.
package scene

import (
	"math"

	v1 "github.com/courtlab/drillboard/internal/export/v1"
	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/internal/trajectory"
	"github.com/courtlab/drillboard/pkg/core"
)

// Rendering constants, meters.
const (
	BallHeight      = 0.25
	GroundLineWidth = 2
	BallLineWidth   = 4
	GroundHeadPitch = math.Pi / 2
	LowHeadPitch    = -0.6
)

// Dash is a dash pattern along a 3D line.
type Dash struct {
	Size float64 `json:"size"`
	Gap  float64 `json:"gap"`
}

var (
	dashedPattern = Dash{Size: 0.5, Gap: 0.3}
	dottedPattern = Dash{Size: 0.15, Gap: 0.15}
)

// Scene is the renderer input.
type Scene struct {
	Title   string   `json:"title"`
	Players []Player `json:"players"`
	Balls   []Ball   `json:"balls"`
	Arcs    []Arc    `json:"arcs"`
}

// Player is a standing figure.
type Player struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Pose     core.Pose       `json:"pose"`
	Color    string          `json:"color,omitempty"`
	Position core.Position3D `json:"position"`
	Facing   float64         `json:"facing"` // yaw, radians
}

// Ball is a resting ball.
type Ball struct {
	ID       string          `json:"id"`
	Position core.Position3D `json:"position"`
}

// Label is the badge of an arc. Ground labels lie flat, airborne ones face
// the camera.
type Label struct {
	Text       string          `json:"text"`
	Background string          `json:"background"`
	Position   core.Position3D `json:"position"`
	Billboard  bool            `json:"billboard"`
}

// Head places the arrowhead cone at the end of an arc.
type Head struct {
	Position core.Position3D `json:"position"`
	Yaw      float64         `json:"yaw"`
	Pitch    float64         `json:"pitch"`
}

// Arc is a relation drawn as a quadratic Bézier in 3D.
type Arc struct {
	ID         string          `json:"id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Start      core.Position3D `json:"start"`
	Control    core.Position3D `json:"control"`
	End        core.Position3D `json:"end"`
	Hit        core.HitType    `json:"hit"`
	GroundMove bool            `json:"groundMove"`
	Color      string          `json:"color"`
	LineWidth  float64         `json:"lineWidth"`
	Dash       *Dash           `json:"dash,omitempty"`
	Label      *Label          `json:"label,omitempty"`
	Head       Head            `json:"head"`
	// Feasible is false for offensive balls that no real attack could play.
	Feasible bool `json:"feasible"`
}

// node is an object indexed by id while building.
type node struct {
	obj    v1.Object
	ground core.Position3D
}

// Build derives the scene. Arrows with a missing endpoint are left out, like
// inert relations in the editor.
func Build(exp v1.Export, c trajectory.Constants) Scene {
	nodes := make(map[string]node, len(exp.Objects))
	for _, o := range exp.Objects {
		if !o.IsArrow() {
			nodes[o.ID] = node{obj: o, ground: geo.ToGround(core.Position2D{X: o.X, Y: o.Y})}
		}
	}

	s := Scene{
		Title:   exp.Title,
		Players: make([]Player, 0),
		Balls:   make([]Ball, 0),
		Arcs:    make([]Arc, 0),
	}
	for _, o := range exp.Objects {
		switch o.Type {
		case string(core.KindPlayer):
			s.Players = append(s.Players, buildPlayer(o, nodes[o.ID].ground, exp.Objects, nodes))
		case string(core.KindBall):
			p := nodes[o.ID].ground
			p.Y = BallHeight
			s.Balls = append(s.Balls, Ball{ID: o.ID, Position: p})
		case v1.ObjectArrow:
			from, okFrom := nodes[o.From]
			to, okTo := nodes[o.To]
			if !okFrom || !okTo {
				continue
			}
			s.Arcs = append(s.Arcs, buildArc(o, from, to, c))
		}
	}
	return s
}

// buildPlayer faces the player along the sum of unit vectors towards every
// connected entity. Unconnected players face the net.
func buildPlayer(o v1.Object, at core.Position3D, objects []v1.Object, nodes map[string]node) Player {
	var dx, dz float64
	for _, a := range objects {
		if !a.IsArrow() || (a.From != o.ID && a.To != o.ID) {
			continue
		}
		otherID := a.From
		if a.From == o.ID {
			otherID = a.To
		}
		other, ok := nodes[otherID]
		if !ok {
			continue
		}
		ox, oz := other.ground.X-at.X, other.ground.Z-at.Z
		dist := math.Hypot(ox, oz)
		if dist == 0 {
			continue
		}
		dx += ox / dist
		dz += oz / dist
	}

	facing := math.Atan2(dx, dz)
	if dx == 0 && dz == 0 {
		facing = math.Pi / 2
		if at.X > 0 {
			facing = -math.Pi / 2
		}
	}

	pose := core.Pose(o.Pose)
	if pose == "" {
		pose = core.PoseAuto
	}
	return Player{
		ID:       o.ID,
		Name:     o.Name,
		Pose:     pose,
		Color:    o.Color,
		Position: at,
		Facing:   facing,
	}
}

// IsGroundMove reports whether a relation stays on the floor: player moves
// and solid strokes.
func IsGroundMove(motion core.Motion, stroke core.StrokeStyle) bool {
	return motion == core.MotionPlayer || stroke == core.StrokeSolid
}

func buildArc(o v1.Object, from, to node, c trajectory.Constants) Arc {
	motion, _ := core.ParseMotion(o.ArrowType)
	stroke := core.StrokeFromToken(o.Style)
	ground := IsGroundMove(motion, stroke)
	hit, _ := core.ParseHitType(o.HitType)
	h := trajectory.Solve(trajectory.Input{
		Start:      from.ground,
		End:        to.ground,
		Curvature:  o.Rad,
		GroundMove: ground,
		HitType:    hit,
		StartColor: from.obj.Color,
		EndColor:   to.obj.Color,
	}, c)

	start := core.Position3D{X: from.ground.X, Y: h.StartY, Z: from.ground.Z}
	end := core.Position3D{X: to.ground.X, Y: h.EndY, Z: to.ground.Z}
	mid := core.Position3D{X: (start.X + end.X) / 2, Y: h.MidY, Z: (start.Z + end.Z) / 2}

	color := o.LineColor
	if color == "" {
		color = core.DefaultLineColor
	}
	a := Arc{
		ID:         o.ID,
		From:       o.From,
		To:         o.To,
		Start:      start,
		Control:    mid,
		End:        end,
		Hit:        h.Hit,
		GroundMove: ground,
		Color:      color,
		LineWidth:  BallLineWidth,
		Dash:       dashFor(stroke, ground),
		Head:       headFor(start, end, ground),
		Feasible:   true,
	}
	if ground {
		a.LineWidth = GroundLineWidth
	}
	if h.Hit == core.HitOffensive {
		a.Feasible = trajectory.OffensiveFeasible(motion, start.X, end.X)
	}

	if o.No != nil && *o.No != "" {
		bg := o.Color
		if bg == "" {
			bg = core.DefaultLabelColor
		}
		pos := core.Position3D{X: mid.X, Y: c.GroundOffset, Z: mid.Z}
		if !ground {
			pos.Y = Peak(h)
		}
		a.Label = &Label{Text: *o.No, Background: bg, Position: pos, Billboard: !ground}
	}
	return a
}

// Peak is the height of the curve at t = 0.5.
func Peak(h trajectory.Arc) float64 {
	return (h.StartY + 2*h.MidY + h.EndY) / 4
}

// dashFor returns nil for a continuous line. Airborne lines are always
// dotted unless dashed.
func dashFor(stroke core.StrokeStyle, ground bool) *Dash {
	switch {
	case stroke == core.StrokeDashed:
		d := dashedPattern
		return &d
	case stroke == core.StrokeDotted || !ground:
		d := dottedPattern
		return &d
	}
	return nil
}

func headFor(start, end core.Position3D, ground bool) Head {
	h := Head{
		Position: end,
		Yaw:      math.Atan2(start.X-end.X, start.Z-end.Z),
	}
	switch {
	case ground:
		h.Pitch = GroundHeadPitch
	case end.Y < 1:
		h.Pitch = LowHeadPitch
	}
	return h
}

// pkg/core/relation.go
package core

import (
	"fmt"
	"math"
)

// PathStyle selects the path synthesis algorithm.
type PathStyle string

const (
	PathNormal    PathStyle = "normal"
	PathWavy      PathStyle = "wavy"
	PathLightning PathStyle = "lightning"
)

// ParsePathStyle maps a lineType token to a PathStyle. Empty means normal.
func ParsePathStyle(s string) (PathStyle, error) {
	switch PathStyle(s) {
	case "", PathNormal:
		return PathNormal, nil
	case PathWavy, PathLightning:
		return PathStyle(s), nil
	}
	return "", fmt.Errorf("unknown path style %q", s)
}

// StrokeStyle is the dash pattern of a relation line.
type StrokeStyle string

const (
	StrokeSolid  StrokeStyle = "solid"
	StrokeDashed StrokeStyle = "dashed"
	StrokeDotted StrokeStyle = "dotted"
)

// Token returns the interchange token: "-", "--" or ":".
func (s StrokeStyle) Token() string {
	switch s {
	case StrokeDashed:
		return "--"
	case StrokeDotted:
		return ":"
	}
	return "-"
}

// DashArray returns the dash pattern in pixels, nil for solid lines.
func (s StrokeStyle) DashArray() []float64 {
	switch s {
	case StrokeDashed:
		return []float64{10, 5}
	case StrokeDotted:
		return []float64{2, 4}
	}
	return nil
}

// StrokeFromToken parses an interchange style token. Unknown tokens are solid.
func StrokeFromToken(tok string) StrokeStyle {
	switch tok {
	case "--":
		return StrokeDashed
	case ":":
		return StrokeDotted
	}
	return StrokeSolid
}

// ParseStrokeStyle accepts either a style name or an interchange token.
func ParseStrokeStyle(s string) (StrokeStyle, error) {
	switch StrokeStyle(s) {
	case StrokeSolid, StrokeDashed, StrokeDotted:
		return StrokeStyle(s), nil
	}
	switch s {
	case "", "-", "--", ":":
		return StrokeFromToken(s), nil
	}
	return "", fmt.Errorf("unknown stroke style %q", s)
}

// HitType classifies an airborne relation for 3D arc shaping.
type HitType string

const (
	HitAuto      HitType = "auto"
	HitOffensive HitType = "offensive"
	HitDefensive HitType = "defensive"
	HitTactical  HitType = "tactical"
)

// ParseHitType validates a hit type. Empty means auto.
func ParseHitType(s string) (HitType, error) {
	switch HitType(s) {
	case "", HitAuto:
		return HitAuto, nil
	case HitOffensive, HitDefensive, HitTactical:
		return HitType(s), nil
	}
	return "", fmt.Errorf("unknown hit type %q", s)
}

// Motion says what travels along a relation.
type Motion string

const (
	MotionBall   Motion = "ball"
	MotionPlayer Motion = "player"
)

// ParseMotion validates a motion. Empty means ball.
func ParseMotion(s string) (Motion, error) {
	switch Motion(s) {
	case "", MotionBall:
		return MotionBall, nil
	case MotionPlayer:
		return MotionPlayer, nil
	}
	return "", fmt.Errorf("unknown motion %q", s)
}

// Curvature limits enforced by the UI boundary.
const (
	MinCurvature = -2.5
	MaxCurvature = 2.5
)

// ClampCurvature bounds rad to [MinCurvature, MaxCurvature]. NaN becomes 0.
func ClampCurvature(rad float64) float64 {
	if math.IsNaN(rad) {
		return 0
	}
	return math.Max(MinCurvature, math.Min(MaxCurvature, rad))
}

// Default relation colours.
const (
	DefaultLineColor  = "#000000"
	DefaultLabelColor = "#ffffff"
)

// Relation is a directed, styled connection between two entities.
type Relation struct {
	ID          string
	FromID      string
	ToID        string
	Curvature   float64
	PathStyle   PathStyle
	StrokeStyle StrokeStyle
	HitType     HitType
	Motion      Motion
	Label       string
	LabelColor  string
	LineColor   string
}

// NewRelation returns a relation with the editor defaults.
func NewRelation(id, fromID, toID string) Relation {
	return Relation{
		ID:          id,
		FromID:      fromID,
		ToID:        toID,
		PathStyle:   PathNormal,
		StrokeStyle: StrokeSolid,
		HitType:     HitAuto,
		Motion:      MotionBall,
		LabelColor:  DefaultLabelColor,
		LineColor:   DefaultLineColor,
	}
}

// Touches reports whether the relation references the entity id.
func (r *Relation) Touches(id string) bool {
	return r.FromID == id || r.ToID == id
}

// SelfLoop reports whether both endpoints are the same entity.
func (r *Relation) SelfLoop() bool {
	return r.FromID == r.ToID
}

// Label is the badge drawn at a relation's path apex. It is owned by exactly
// one relation (ParentID) and never edited directly.
type Label struct {
	ID         string
	ParentID   string
	Position   Position2D
	Text       string
	Background string
}

package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/courtlab/drillboard/pkg/core"
)

// COURT FRAME
// Entities are stored in pixel space. Meters are relative to the court center
// with the vertical axis inverted (pixels grow downward, the court grows
// "forward"). The 3D ground plane re-expresses forward as depth: z = -y.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Default frame values for the 800x500 editor surface.
const (
	DefaultScale   = 40.0
	DefaultCenterX = 400.0
	DefaultCenterY = 250.0
)

// Frame fixes the pixel/meter relationship of one document.
type Frame struct {
	Scale   float64 `json:"scale"`   // pixels per meter
	CenterX float64 `json:"centerX"` // pixel x of the court center
	CenterY float64 `json:"centerY"` // pixel y of the court center
}

// DefaultFrame returns the frame used by the editor.
func DefaultFrame() Frame {
	return Frame{Scale: DefaultScale, CenterX: DefaultCenterX, CenterY: DefaultCenterY}
}

func (f Frame) scale() float64 {
	if f.Scale == 0 {
		return DefaultScale
	}
	return f.Scale
}

// ToMeters maps a pixel position to court meters.
func (f Frame) ToMeters(p core.Position2D) core.Position2D {
	s := f.scale()
	return core.Position2D{
		X: (p.X - f.CenterX) / s,
		Y: -(p.Y - f.CenterY) / s,
	}
}

// ToPixels maps court meters back to a pixel position.
func (f Frame) ToPixels(m core.Position2D) core.Position2D {
	s := f.scale()
	return core.Position2D{
		X: m.X*s + f.CenterX,
		Y: f.CenterY - m.Y*s,
	}
}

// ToGround places a meter position on the 3D ground plane (y = 0).
func ToGround(m core.Position2D) core.Position3D {
	return core.Position3D{X: m.X, Y: 0, Z: -m.Y}
}

// FromGround drops the height of a 3D position and returns court meters.
func FromGround(p core.Position3D) core.Position2D {
	return core.Position2D{X: p.X, Y: -p.Z}
}

// Round2 rounds v to two decimals, the precision of every exported meter value.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// avoid "-0" in exports
		return 0
	}
	return r
}

// Snap rounds p to the nearest multiple of step on both axes.
// A non-positive step leaves p untouched.
func Snap(p core.Position2D, step float64) core.Position2D {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return p
	}
	return core.Position2D{
		X: math.Round(p.X/step) * step,
		Y: math.Round(p.Y/step) * step,
	}
}

// GridStep returns the snap step for a grid drawn at frequency points per
// half meter.
func (f Frame) GridStep(frequency int) float64 {
	if frequency <= 0 {
		return 0
	}
	return f.scale() / 2 / float64(frequency)
}

// ParseCoordinate parses a pair of numeric strings into a position.
func ParseCoordinate(x, y string) (core.Position2D, error) {
	px, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	py, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	if math.IsNaN(px) || math.IsNaN(py) || math.IsInf(px, 0) || math.IsInf(py, 0) {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return core.Position2D{X: px, Y: py}, nil
}

// PositionFromString parses "x,y" into a position.
func PositionFromString(coords string) (core.Position2D, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return ParseCoordinate(parts[0], parts[1])
}

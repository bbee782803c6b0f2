package geo

import (
	"github.com/courtlab/drillboard/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// LineString builds a geom.LineString from a polyline.
func LineString(points core.Polyline) geom.LineString {
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.X, p.Y)
	}
	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq)
}

// Bounds returns the axis aligned box of the points. An empty polyline has
// zero bounds; a single point has zero width and height at that point.
func Bounds(points core.Polyline) core.Bounds {
	switch len(points) {
	case 0:
		return core.Bounds{}
	case 1:
		return core.Bounds{Left: points[0].X, Top: points[0].Y}
	}
	minXY, maxXY, ok := LineString(points).Envelope().MinMaxXYs()
	if !ok {
		return core.Bounds{}
	}
	return core.Bounds{
		Left:   minXY.X,
		Top:    minXY.Y,
		Width:  maxXY.X - minXY.X,
		Height: maxXY.Y - minXY.Y,
	}
}

// Length returns the total length of the polyline.
func Length(points core.Polyline) float64 {
	if len(points) < 2 {
		return 0
	}
	return LineString(points).Length()
}

package v1

import (
	"encoding/json"
	"fmt"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/export"
	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/pkg/core"
)

// Build creates an Export from the document, iterating the draw order.
// Metadata entities and labels are not part of the graph.
func Build(doc *document.Document, frame geo.Frame) Export {
	out := Export{
		Title:       doc.Title,
		Description: doc.Description,
		Objects:     make([]Object, 0),
	}
	for _, id := range doc.Order() {
		switch doc.Lookup(id) {
		case document.ObjectEntity:
			e, _ := doc.Entity(id)
			if !e.Kind.Exported() {
				continue
			}
			out.Objects = append(out.Objects, entityObject(e, frame))
		case document.ObjectRelation:
			r, _ := doc.Relation(id)
			out.Objects = append(out.Objects, arrowObject(r))
		}
	}
	return out
}

func entityObject(e core.Entity, frame geo.Frame) Object {
	m := frame.ToMeters(e.Position)
	return Object{
		Type:  string(e.Kind),
		ID:    e.ID,
		Name:  e.Name,
		X:     geo.Round2(m.X),
		Y:     geo.Round2(m.Y),
		Color: e.Color,
		Pose:  string(e.Pose),
	}
}

func arrowObject(r core.Relation) Object {
	o := Object{
		Type:      ObjectArrow,
		ID:        r.ID,
		From:      r.FromID,
		To:        r.ToID,
		Curved:    r.Curvature != 0,
		Rad:       r.Curvature,
		LineType:  string(r.PathStyle),
		LineColor: r.LineColor,
		Color:     r.LabelColor,
		Style:     r.StrokeStyle.Token(),
		HitType:   string(r.HitType),
		ArrowType: string(r.Motion),
	}
	if r.Label != "" {
		label := r.Label
		o.No = &label
	}
	return o
}

// Marshal encodes the export as indented JSON.
func Marshal(e Export) ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// Parse decodes a semantic graph.
func Parse(data []byte) (Export, error) {
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return Export{}, fmt.Errorf("%w: %v", export.ErrMalformed, err)
	}
	return e, nil
}

// Apply builds a fresh document from the graph. Entities are placed first,
// then arrows; the file order becomes the draw order. Arrows whose endpoints
// are missing are kept and stay inert. Objects of unknown type are skipped.
// On failure the returned document is empty, never nil.
func Apply(e Export, frame geo.Frame) (*document.Document, error) {
	doc := document.New()
	doc.Title = e.Title
	doc.Description = e.Description

	ids := make([]string, len(e.Objects))
	for i, o := range e.Objects {
		if o.IsArrow() {
			continue
		}
		kind, err := core.ParseKind(o.Type)
		if err != nil || !kind.Exported() {
			continue
		}
		ent := core.Entity{
			ID:       o.ID,
			Kind:     kind,
			Position: frame.ToPixels(core.Position2D{X: o.X, Y: o.Y}),
			Name:     o.Name,
			Pose:     core.Pose(o.Pose),
			Color:    o.Color,
		}
		stored, err := doc.AddEntity(ent)
		if err != nil {
			return document.New(), fmt.Errorf("%w: object %d: %v", export.ErrMalformed, i, err)
		}
		ids[i] = stored.ID
	}

	for i, o := range e.Objects {
		if !o.IsArrow() {
			continue
		}
		r := core.NewRelation(o.ID, o.From, o.To)
		r.Curvature = o.Rad
		if ps, err := core.ParsePathStyle(o.LineType); err == nil {
			r.PathStyle = ps
		}
		r.StrokeStyle = core.StrokeFromToken(o.Style)
		if ht, err := core.ParseHitType(o.HitType); err == nil {
			r.HitType = ht
		}
		if mo, err := core.ParseMotion(o.ArrowType); err == nil {
			r.Motion = mo
		}
		if o.No != nil {
			r.Label = *o.No
		}
		if o.LineColor != "" {
			r.LineColor = o.LineColor
		}
		if o.Color != "" {
			r.LabelColor = o.Color
		}
		stored, err := doc.AddRelation(r)
		if err != nil {
			return document.New(), fmt.Errorf("%w: object %d: %v", export.ErrMalformed, i, err)
		}
		ids[i] = stored.ID
	}

	// restore the file order, entities and arrows interleaved as written
	doc.Arrange(ids)
	return doc, nil
}

// ParseAndApply decodes data and builds a document from it.
func ParseAndApply(data []byte, frame geo.Frame) (*document.Document, error) {
	e, err := Parse(data)
	if err != nil {
		return document.New(), err
	}
	return Apply(e, frame)
}

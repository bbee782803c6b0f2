// Package snapshot encodes the full document state in pixel space. Unlike the
// semantic graph it keeps every kind, including metadata, and the exact draw
// order. Labels and geometry are derived and rebuilt after Decode.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/export"
	"github.com/courtlab/drillboard/pkg/core"
)

// Version is the snapshot layout written by Encode.
const Version = 1

// Snapshot is the root JSON structure
type Snapshot struct {
	Version     int        `json:"version"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Entities    []Entity   `json:"entities"`
	Relations   []Relation `json:"relations"`
	Order       []string   `json:"order"`
}

// Entity is one placed object, position in pixels.
type Entity struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Name  string  `json:"name,omitempty"`
	Pose  string  `json:"pose,omitempty"`
	Color string  `json:"color,omitempty"`
}

// Relation carries every relation attribute.
type Relation struct {
	ID          string  `json:"id"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Curvature   float64 `json:"rad"`
	PathStyle   string  `json:"lineType"`
	StrokeStyle string  `json:"strokeStyle"`
	HitType     string  `json:"hitType"`
	Motion      string  `json:"arrowType"`
	Label       string  `json:"label,omitempty"`
	LabelColor  string  `json:"labelColor"`
	LineColor   string  `json:"lineColor"`
}

// FromDocument captures the document state.
func FromDocument(doc *document.Document) Snapshot {
	s := Snapshot{
		Version:     Version,
		Title:       doc.Title,
		Description: doc.Description,
		Entities:    make([]Entity, 0),
		Relations:   make([]Relation, 0),
		Order:       make([]string, 0),
	}
	for _, e := range doc.Entities() {
		s.Entities = append(s.Entities, Entity{
			ID:    e.ID,
			Kind:  string(e.Kind),
			X:     e.Position.X,
			Y:     e.Position.Y,
			Name:  e.Name,
			Pose:  string(e.Pose),
			Color: e.Color,
		})
	}
	for _, r := range doc.Relations() {
		s.Relations = append(s.Relations, Relation{
			ID:          r.ID,
			From:        r.FromID,
			To:          r.ToID,
			Curvature:   r.Curvature,
			PathStyle:   string(r.PathStyle),
			StrokeStyle: string(r.StrokeStyle),
			HitType:     string(r.HitType),
			Motion:      string(r.Motion),
			Label:       r.Label,
			LabelColor:  r.LabelColor,
			LineColor:   r.LineColor,
		})
	}
	for _, id := range doc.Order() {
		// labels are rebuilt on load
		if doc.Lookup(id) != document.ObjectLabel {
			s.Order = append(s.Order, id)
		}
	}
	return s
}

// ToDocument rebuilds a document. On failure an empty document is returned
// alongside an error wrapping export.ErrMalformed.
func (s Snapshot) ToDocument() (*document.Document, error) {
	if s.Version < 1 || s.Version > Version {
		return document.New(), fmt.Errorf("%w: unsupported snapshot version %d", export.ErrMalformed, s.Version)
	}
	doc := document.New()
	doc.Title = s.Title
	doc.Description = s.Description

	for _, e := range s.Entities {
		kind, err := core.ParseKind(e.Kind)
		if err != nil {
			return document.New(), fmt.Errorf("%w: entity %s: %v", export.ErrMalformed, e.ID, err)
		}
		_, err = doc.AddEntity(core.Entity{
			ID:       e.ID,
			Kind:     kind,
			Position: core.Position2D{X: e.X, Y: e.Y},
			Name:     e.Name,
			Pose:     core.Pose(e.Pose),
			Color:    e.Color,
		})
		if err != nil {
			return document.New(), fmt.Errorf("%w: %v", export.ErrMalformed, err)
		}
	}
	for _, r := range s.Relations {
		rel, err := relationFromSnapshot(r)
		if err != nil {
			return document.New(), fmt.Errorf("%w: relation %s: %v", export.ErrMalformed, r.ID, err)
		}
		if _, err := doc.AddRelation(rel); err != nil {
			return document.New(), fmt.Errorf("%w: %v", export.ErrMalformed, err)
		}
	}
	doc.Arrange(s.Order)
	return doc, nil
}

func relationFromSnapshot(r Relation) (core.Relation, error) {
	rel := core.NewRelation(r.ID, r.From, r.To)
	rel.Curvature = r.Curvature
	rel.Label = r.Label
	var err error
	if rel.PathStyle, err = core.ParsePathStyle(r.PathStyle); err != nil {
		return rel, err
	}
	if rel.StrokeStyle, err = core.ParseStrokeStyle(r.StrokeStyle); err != nil {
		return rel, err
	}
	if rel.HitType, err = core.ParseHitType(r.HitType); err != nil {
		return rel, err
	}
	if rel.Motion, err = core.ParseMotion(r.Motion); err != nil {
		return rel, err
	}
	if r.LabelColor != "" {
		rel.LabelColor = r.LabelColor
	}
	if r.LineColor != "" {
		rel.LineColor = r.LineColor
	}
	return rel, nil
}

// Encode serializes the document.
func Encode(doc *document.Document) ([]byte, error) {
	return json.Marshal(FromDocument(doc))
}

// Decode parses a snapshot and rebuilds the document.
func Decode(data []byte) (*document.Document, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return document.New(), fmt.Errorf("%w: %v", export.ErrMalformed, err)
	}
	return s.ToDocument()
}

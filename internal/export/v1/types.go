// Package v1 contains the semantic object graph: the drill expressed in court
// meters, the primary round-trip format of the editor.
package v1

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ObjectArrow is the type tag of relation objects.
const ObjectArrow = "arrow"

// Export is the root JSON structure
type Export struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Objects     []Object `json:"objects"`
}

// Object is either an entity (Type is its kind) or an arrow. Fields that do
// not apply to the variant are left zero and are not encoded.
type Object struct {
	Type string
	ID   string

	// entity
	Name string
	X    float64 // meters
	Y    float64 // meters, forward is positive
	Pose string

	// Color is the player fill for entities and the label background for
	// arrows.
	Color string

	// arrow
	From      string
	To        string
	Curved    bool
	Rad       float64
	LineType  string
	No        *string // label, null when absent
	LineColor string
	Style     string // "-", "--" or ":"
	HitType   string
	ArrowType string
}

// IsArrow reports whether the object is a relation.
func (o Object) IsArrow() bool {
	return o.Type == ObjectArrow
}

type entityJSON struct {
	Type  string  `json:"type"`
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
	Pose  string  `json:"pose,omitempty"`
}

type arrowJSON struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Curved    bool    `json:"curved"`
	Rad       float64 `json:"rad"`
	LineType  string  `json:"lineType"`
	No        *string `json:"no"`
	LineColor string  `json:"line_color"`
	Color     string  `json:"color"`
	Style     string  `json:"style"`
	HitType   string  `json:"hitType,omitempty"`
	ArrowType string  `json:"arrowType,omitempty"`
}

// MarshalJSON encodes the variant selected by Type.
func (o Object) MarshalJSON() ([]byte, error) {
	if o.IsArrow() {
		return json.Marshal(arrowJSON{
			Type: o.Type, ID: o.ID, From: o.From, To: o.To,
			Curved: o.Curved, Rad: o.Rad, LineType: o.LineType, No: o.No,
			LineColor: o.LineColor, Color: o.Color, Style: o.Style,
			HitType: o.HitType, ArrowType: o.ArrowType,
		})
	}
	return json.Marshal(entityJSON{
		Type: o.Type, ID: o.ID, Name: o.Name, X: o.X, Y: o.Y,
		Color: o.Color, Pose: o.Pose,
	})
}

// wireObject accepts both variants. Loose fields are decoded by hand since
// hand-edited files carry numbers where strings are expected.
type wireObject struct {
	Type      string          `json:"type"`
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Color     string          `json:"color"`
	Pose      string          `json:"pose"`
	From      json.RawMessage `json:"from"`
	To        json.RawMessage `json:"to"`
	Curved    bool            `json:"curved"`
	Rad       float64         `json:"rad"`
	LineType  string          `json:"lineType"`
	No        json.RawMessage `json:"no"`
	LineColor string          `json:"line_color"`
	Style     string          `json:"style"`
	HitType   string          `json:"hitType"`
	ArrowType string          `json:"arrowType"`
}

// UnmarshalJSON decodes either variant.
func (o *Object) UnmarshalJSON(data []byte) error {
	var w wireObject
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Object{
		Type:      w.Type,
		ID:        derefOr(looseString(w.ID), ""),
		Name:      derefOr(looseString(w.Name), ""),
		X:         w.X,
		Y:         w.Y,
		Pose:      w.Pose,
		Color:     w.Color,
		From:      derefOr(looseString(w.From), ""),
		To:        derefOr(looseString(w.To), ""),
		Curved:    w.Curved,
		Rad:       w.Rad,
		LineType:  w.LineType,
		No:        looseString(w.No),
		LineColor: w.LineColor,
		Style:     w.Style,
		HitType:   w.HitType,
		ArrowType: w.ArrowType,
	}
	return nil
}

// looseString reads a JSON string or number. null, absent and other shapes
// give nil.
func looseString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		s = strconv.FormatFloat(f, 'f', -1, 64)
		return &s
	}
	return nil
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

package v1

import (
	"encoding/json"
	"testing"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/export"
	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument(t *testing.T) *document.Document {
	t.Helper()
	doc := document.New()
	doc.Title = "Serve receive"
	doc.Description = "two passers"

	_, err := doc.AddEntity(core.Entity{ID: "p1", Kind: core.KindPlayer, Position: core.Position2D{X: 100, Y: 370}, Name: "S", Color: "#dbeafe"})
	require.NoError(t, err)
	_, err = doc.AddEntity(core.Entity{ID: "p2", Kind: core.KindPlayer, Position: core.Position2D{X: 500.4, Y: 130}, Name: "OH", Pose: core.PoseAttack})
	require.NoError(t, err)
	_, err = doc.AddEntity(core.Entity{ID: "t1", Kind: core.KindTarget, Position: core.Position2D{X: 700, Y: 250}})
	require.NoError(t, err)
	_, err = doc.AddEntity(core.Entity{ID: "m1", Kind: core.KindMetadata, Name: "notes"})
	require.NoError(t, err)

	r := core.NewRelation("a1", "p1", "p2")
	r.Curvature = 0.4
	r.PathStyle = core.PathWavy
	r.StrokeStyle = core.StrokeDashed
	r.Label = "1"
	r.HitType = core.HitOffensive
	_, err = doc.AddRelation(r)
	require.NoError(t, err)

	r = core.NewRelation("a2", "p2", "t1")
	r.StrokeStyle = core.StrokeDotted
	r.Motion = core.MotionPlayer
	_, err = doc.AddRelation(r)
	require.NoError(t, err)
	return doc
}

func TestBuild(t *testing.T) {
	doc := sampleDocument(t)

	exp := Build(doc, geo.DefaultFrame())

	assert.Equal(t, "Serve receive", exp.Title)
	assert.Equal(t, "two passers", exp.Description)
	require.Len(t, exp.Objects, 5, "metadata is not exported")

	// relations sit at the bottom of the draw order
	assert.Equal(t, "a2", exp.Objects[0].ID)
	assert.Equal(t, "a1", exp.Objects[1].ID)

	a1 := exp.Objects[1]
	assert.True(t, a1.Curved)
	assert.Equal(t, 0.4, a1.Rad)
	assert.Equal(t, "wavy", a1.LineType)
	assert.Equal(t, "--", a1.Style)
	require.NotNil(t, a1.No)
	assert.Equal(t, "1", *a1.No)
	assert.Equal(t, "#000000", a1.LineColor)
	assert.Equal(t, "#ffffff", a1.Color)

	a2 := exp.Objects[0]
	assert.False(t, a2.Curved)
	assert.Nil(t, a2.No)
	assert.Equal(t, ":", a2.Style)
	assert.Equal(t, "player", a2.ArrowType)

	p2 := exp.Objects[3]
	assert.Equal(t, "player", p2.Type)
	assert.Equal(t, 2.51, p2.X)
	assert.Equal(t, 3.0, p2.Y)
	assert.Equal(t, "attack", p2.Pose)
}

func TestMarshal_WireShape(t *testing.T) {
	data, err := Marshal(Build(sampleDocument(t), geo.DefaultFrame()))
	require.NoError(t, err)

	var raw struct {
		Objects []map[string]any `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Objects, 5)

	arrow := raw.Objects[0]
	assert.Contains(t, arrow, "no")
	assert.Nil(t, arrow["no"])
	assert.Equal(t, "#000000", arrow["line_color"])
	assert.NotContains(t, arrow, "x")

	target := raw.Objects[4]
	assert.Equal(t, "target", target["type"])
	assert.NotContains(t, target, "from")
	assert.NotContains(t, target, "pose")
}

func TestRoundTrip(t *testing.T) {
	frame := geo.DefaultFrame()
	doc := sampleDocument(t)

	data, err := Marshal(Build(doc, frame))
	require.NoError(t, err)

	back, err := ParseAndApply(data, frame)
	require.NoError(t, err)

	for _, want := range doc.Entities() {
		if !want.Kind.Exported() {
			_, ok := back.Entity(want.ID)
			assert.False(t, ok)
			continue
		}
		got, ok := back.Entity(want.ID)
		require.True(t, ok, want.ID)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Pose, got.Pose)
		assert.Equal(t, want.Color, got.Color)
		// two decimals in meters at 40 px/m
		assert.InDelta(t, want.Position.X, got.Position.X, 0.2)
		assert.InDelta(t, want.Position.Y, got.Position.Y, 0.2)
	}
	for _, want := range doc.Relations() {
		got, ok := back.Relation(want.ID)
		require.True(t, ok, want.ID)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, doc.Title, back.Title)

	again, err := Marshal(Build(back, frame))
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestApply_Defaults(t *testing.T) {
	data := []byte(`{"title":"t","objects":[
		{"type":"player","name":"A","x":0,"y":0},
		{"type":"cone","id":"c","x":-2.5,"y":1},
		{"type":"arrow","id":"r","from":"c","to":"missing"}
	]}`)

	doc, err := ParseAndApply(data, geo.DefaultFrame())
	require.NoError(t, err)

	ents := doc.Entities()
	require.Len(t, ents, 2)
	assert.NotEmpty(t, ents[0].ID)
	assert.Equal(t, core.Position2D{X: 400, Y: 250}, ents[0].Position)
	assert.Equal(t, core.Position2D{X: 300, Y: 210}, ents[1].Position)

	r, ok := doc.Relation("r")
	require.True(t, ok, "dangling arrows are kept")
	assert.Equal(t, core.NewRelation("r", "c", "missing"), r)
}

func TestApply_UnknownTypeSkipped(t *testing.T) {
	data := []byte(`{"objects":[{"type":"hoop","id":"h","x":1,"y":1},{"type":"ball","id":"b","x":1,"y":1}]}`)

	doc, err := ParseAndApply(data, geo.DefaultFrame())
	require.NoError(t, err)

	assert.Equal(t, document.ObjectNone, doc.Lookup("h"))
	assert.Equal(t, document.ObjectEntity, doc.Lookup("b"))
}

func TestApply_LooseLabel(t *testing.T) {
	data := []byte(`{"objects":[
		{"type":"arrow","id":"a","from":"x","to":"y","no":3},
		{"type":"arrow","id":"b","from":"x","to":"y","no":null},
		{"type":"arrow","id":7,"from":"x","to":"y","no":"go"}
	]}`)

	doc, err := ParseAndApply(data, geo.DefaultFrame())
	require.NoError(t, err)

	a, _ := doc.Relation("a")
	assert.Equal(t, "3", a.Label)
	b, _ := doc.Relation("b")
	assert.Equal(t, "", b.Label)
	c, ok := doc.Relation("7")
	require.True(t, ok)
	assert.Equal(t, "go", c.Label)
}

func TestApply_FileOrderIsDrawOrder(t *testing.T) {
	data := []byte(`{"objects":[
		{"type":"arrow","id":"r","from":"a","to":"b"},
		{"type":"player","id":"a","x":0,"y":0},
		{"type":"player","id":"b","x":1,"y":0}
	]}`)

	doc, err := ParseAndApply(data, geo.DefaultFrame())
	require.NoError(t, err)

	assert.Equal(t, []string{"r", "a", "b"}, doc.Order())
}

func TestApply_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"objects":`},
		{"objects not an array", `{"objects":{"type":"player"}}`},
		{"coordinate is a string", `{"objects":[{"type":"player","x":"1","y":0}]}`},
		{"duplicate id", `{"objects":[{"type":"player","id":"a"},{"type":"arrow","id":"a","from":"a","to":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseAndApply([]byte(tt.data), geo.DefaultFrame())

			require.ErrorIs(t, err, export.ErrMalformed)
			require.NotNil(t, doc)
			assert.Empty(t, doc.Order())
		})
	}
}

func TestDetect(t *testing.T) {
	data, err := Marshal(Build(sampleDocument(t), geo.DefaultFrame()))
	require.NoError(t, err)

	assert.Equal(t, export.FormatSemantic, export.Detect(data))
	assert.Equal(t, export.FormatUnknown, export.Detect([]byte(`[1,2]`)))
}

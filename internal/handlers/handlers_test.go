package handlers

import (
	"testing"

	"github.com/courtlab/drillboard/internal/dispatcher"
	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/logging"
	"github.com/courtlab/drillboard/internal/presets"
	"github.com/courtlab/drillboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *dispatcher.Dispatcher) {
	t.Helper()
	logManager := logging.NewSlogManager()
	logManager.Setup(logging.Options{Level: "error"})

	svc := NewService(Dependencies{
		Presets:    presets.Default(),
		LogManager: logManager,
	})
	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	svc.Register(d)
	return svc, d
}

func dispatch(t *testing.T, d *dispatcher.Dispatcher, cmd string, args ...string) Result {
	t.Helper()
	res, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args})
	require.NoError(t, err)
	return res.(Result)
}

func entity(t *testing.T, svc *Service, id string) core.Entity {
	t.Helper()
	var ent core.Entity
	require.NoError(t, svc.Session().View(func(e *engine.Engine) error {
		var ok bool
		ent, ok = e.Document().Entity(id)
		require.True(t, ok, "entity %s not found", id)
		return nil
	}))
	return ent
}

func relation(t *testing.T, svc *Service, id string) core.Relation {
	t.Helper()
	var rel core.Relation
	require.NoError(t, svc.Session().View(func(e *engine.Engine) error {
		var ok bool
		rel, ok = e.Document().Relation(id)
		require.True(t, ok, "relation %s not found", id)
		return nil
	}))
	return rel
}

func TestRegister_AllCommands(t *testing.T) {
	_, d := newTestService(t)

	for _, cmd := range []string{
		CmdEntityAdd, CmdEntityQuick, CmdEntityMove, CmdEntityRename,
		CmdEntityPose, CmdEntityRetype, CmdEntityDelete,
		CmdRelationConnect, CmdRelationSet, CmdRelationReverse,
		CmdDocumentClear, CmdDocumentMeta, CmdGridSnap,
	} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
	assert.Equal(t, 13, d.Commands())
}

func TestAddEntity(t *testing.T) {
	svc, d := newTestService(t)

	res := dispatch(t, d, CmdEntityAdd, `"player"`, `"S"`, "100", "200")

	require.Len(t, res.IDs, 1)
	ent := entity(t, svc, res.IDs[0])
	assert.Equal(t, core.KindPlayer, ent.Kind)
	assert.Equal(t, "S", ent.Name)
	assert.Equal(t, core.Position2D{X: 100, Y: 200}, ent.Position)
	assert.Equal(t, core.DefaultPlayerColor, ent.Color)
}

func TestAddEntity_InvalidArgs(t *testing.T) {
	_, d := newTestService(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"net", "", "0", "0"}},
		{"bad x", []string{"ball", "", "x", "0"}},
		{"infinite y", []string{"ball", "", "0", "Inf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(dispatcher.Event{Command: CmdEntityAdd, Args: tt.args})
			assert.ErrorIs(t, err, ErrInvalidArgs)
		})
	}

	_, err := d.Dispatch(dispatcher.Event{Command: CmdEntityAdd, Args: []string{"ball"}})
	assert.Error(t, err)
}

func TestQuickPlace(t *testing.T) {
	svc, d := newTestService(t)
	tbl := presets.Default()

	res := dispatch(t, d, CmdEntityQuick, presets.SideLeft, "S")

	ent := entity(t, svc, res.IDs[0])
	want := tbl.Player(presets.SideLeft, "S")
	assert.Equal(t, "S", ent.Name)
	assert.Equal(t, want.Position, ent.Position)
	assert.Equal(t, want.Color, ent.Color)

	res = dispatch(t, d, CmdEntityQuick, presets.SideRight, "nowhere")
	assert.Equal(t, presets.Fallback, entity(t, svc, res.IDs[0]).Position)
}

func TestMoveEntities_GroupPropagates(t *testing.T) {
	svc, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "player", "A", "100", "100").IDs[0]
	b := dispatch(t, d, CmdEntityAdd, "target", "", "300", "100").IDs[0]
	r := dispatch(t, d, CmdRelationConnect, "ball", a, b).IDs[0]

	res := dispatch(t, d, CmdEntityMove, a, "120", "110", b, "320", "130")

	assert.Equal(t, []string{r}, res.Changes.Geometry)
	assert.Equal(t, core.Position2D{X: 120, Y: 110}, entity(t, svc, a).Position)
	assert.Equal(t, core.Position2D{X: 320, Y: 130}, entity(t, svc, b).Position)
}

func TestMoveEntities_BadTriples(t *testing.T) {
	_, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "ball", "", "0", "0").IDs[0]

	_, err := d.Dispatch(dispatcher.Event{Command: CmdEntityMove, Args: []string{a, "1", "2", "extra"}})
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = d.Dispatch(dispatcher.Event{Command: CmdEntityMove, Args: []string{"ghost", "1", "2"}})
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestRenameAndPose(t *testing.T) {
	svc, d := newTestService(t)
	p := dispatch(t, d, CmdEntityAdd, "player", "", "0", "0").IDs[0]
	c := dispatch(t, d, CmdEntityAdd, "cone", "", "0", "0").IDs[0]

	dispatch(t, d, CmdEntityRename, p, "OH")
	dispatch(t, d, CmdEntityPose, p, "attack")

	ent := entity(t, svc, p)
	assert.Equal(t, "OH", ent.Name)
	assert.Equal(t, core.PoseAttack, ent.Pose)

	_, err := d.Dispatch(dispatcher.Event{Command: CmdEntityRename, Args: []string{c, "x"}})
	assert.Error(t, err)
	_, err = d.Dispatch(dispatcher.Event{Command: CmdEntityPose, Args: []string{p, "dance"}})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestRetypeEntities_KeepsRelations(t *testing.T) {
	svc, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "player", "A", "100", "100").IDs[0]
	b := dispatch(t, d, CmdEntityAdd, "player", "B", "300", "100").IDs[0]
	r := dispatch(t, d, CmdRelationConnect, "ball", a, b).IDs[0]

	res := dispatch(t, d, CmdEntityRetype, "target", b)

	assert.Equal(t, []string{b}, res.IDs)
	assert.Equal(t, core.KindTarget, entity(t, svc, b).Kind)
	assert.Equal(t, b, relation(t, svc, r).ToID)
}

func TestDeleteObjects_Cascades(t *testing.T) {
	svc, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "player", "A", "100", "100").IDs[0]
	b := dispatch(t, d, CmdEntityAdd, "player", "B", "300", "100").IDs[0]
	r := dispatch(t, d, CmdRelationConnect, "player", a, b).IDs[0]

	res := dispatch(t, d, CmdEntityDelete, a)

	assert.ElementsMatch(t, []string{a, r}, res.Changes.Removed)
	require.NoError(t, svc.Session().View(func(e *engine.Engine) error {
		ents, rels := e.Document().Len()
		assert.Equal(t, 1, ents)
		assert.Equal(t, 0, rels)
		return nil
	}))
}

func TestSetRelationField(t *testing.T) {
	svc, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "player", "A", "100", "100").IDs[0]
	b := dispatch(t, d, CmdEntityAdd, "player", "B", "300", "100").IDs[0]
	r := dispatch(t, d, CmdRelationConnect, "ball", a, b).IDs[0]

	dispatch(t, d, CmdRelationSet, r, "rad", "7")
	dispatch(t, d, CmdRelationSet, r, "lineType", "wavy")
	dispatch(t, d, CmdRelationSet, r, "style", "--")
	dispatch(t, d, CmdRelationSet, r, "hitType", "offensive")
	dispatch(t, d, CmdRelationSet, r, "arrowType", "player")
	dispatch(t, d, CmdRelationSet, r, "label", "2")
	dispatch(t, d, CmdRelationSet, r, "lineColor", "")

	rel := relation(t, svc, r)
	assert.Equal(t, core.MaxCurvature, rel.Curvature)
	assert.Equal(t, core.PathWavy, rel.PathStyle)
	assert.Equal(t, core.StrokeDashed, rel.StrokeStyle)
	assert.Equal(t, core.HitOffensive, rel.HitType)
	assert.Equal(t, core.MotionPlayer, rel.Motion)
	assert.Equal(t, "2", rel.Label)
	assert.Equal(t, core.DefaultLineColor, rel.LineColor)

	_, err := d.Dispatch(dispatcher.Event{Command: CmdRelationSet, Args: []string{r, "weight", "1"}})
	assert.ErrorIs(t, err, ErrInvalidArgs)
	_, err = d.Dispatch(dispatcher.Event{Command: CmdRelationSet, Args: []string{"ghost", "label", "1"}})
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestReverseRelation(t *testing.T) {
	svc, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "player", "A", "100", "100").IDs[0]
	b := dispatch(t, d, CmdEntityAdd, "cone", "", "300", "100").IDs[0]
	r := dispatch(t, d, CmdRelationConnect, "ball", a, b).IDs[0]

	res := dispatch(t, d, CmdRelationReverse, r)

	assert.Equal(t, []string{r}, res.Changes.Geometry)
	rel := relation(t, svc, r)
	assert.Equal(t, b, rel.FromID)
	assert.Equal(t, a, rel.ToID)
}

func TestDocumentMetaAndClear(t *testing.T) {
	svc, d := newTestService(t)
	dispatch(t, d, CmdEntityAdd, "ball", "", "0", "0")

	dispatch(t, d, CmdDocumentMeta, "Serve receive", "three passers")
	require.NoError(t, svc.Session().View(func(e *engine.Engine) error {
		assert.Equal(t, "Serve receive", e.Document().Title)
		assert.Equal(t, "three passers", e.Document().Description)
		return nil
	}))

	dispatch(t, d, CmdDocumentClear)
	require.NoError(t, svc.Session().View(func(e *engine.Engine) error {
		ents, _ := e.Document().Len()
		assert.Zero(t, ents)
		return nil
	}))
}

func TestSetSnap(t *testing.T) {
	svc, d := newTestService(t)
	a := dispatch(t, d, CmdEntityAdd, "ball", "", "0", "0").IDs[0]

	dispatch(t, d, CmdGridSnap, "true", "1")
	dispatch(t, d, CmdEntityMove, a, "412", "262")

	assert.Equal(t, core.Position2D{X: 420, Y: 260}, entity(t, svc, a).Position)

	_, err := d.Dispatch(dispatcher.Event{Command: CmdGridSnap, Args: []string{"maybe"}})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestRevisionAdvancesPerCommand(t *testing.T) {
	svc, d := newTestService(t)
	before := svc.Session().Revision()

	dispatch(t, d, CmdEntityAdd, "ball", "", "0", "0")

	assert.Greater(t, svc.Session().Revision(), before)
	stats := d.Stats()
	assert.Equal(t, int64(1), stats[CmdEntityAdd].Processed)
}

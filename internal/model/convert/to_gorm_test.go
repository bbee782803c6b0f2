package convert

import (
	"testing"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/export"
	"github.com/courtlab/drillboard/internal/export/snapshot"
	"github.com/courtlab/drillboard/internal/model"
	"github.com/courtlab/drillboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotToDrill(t *testing.T) {
	doc := document.New()
	doc.SetMeta("Serve receive", "W formation")
	for _, id := range []string{"a", "b"} {
		_, err := doc.AddEntity(core.Entity{ID: id, Kind: core.KindPlayer})
		require.NoError(t, err)
	}
	_, err := doc.AddRelation(core.NewRelation("r", "a", "b"))
	require.NoError(t, err)
	data, err := snapshot.Encode(doc)
	require.NoError(t, err)

	d, err := SnapshotToDrill("warmup", data)

	require.NoError(t, err)
	assert.Equal(t, "warmup", d.Name)
	assert.Equal(t, "Serve receive", d.Title)
	assert.Equal(t, "W formation", d.Description)
	assert.Equal(t, 2, d.Entities)
	assert.Equal(t, 1, d.Relations)
	assert.Equal(t, len(data), d.Size)
	assert.JSONEq(t, string(data), string(d.Snapshot))
}

func TestSnapshotToDrill_Malformed(t *testing.T) {
	_, err := SnapshotToDrill("x", []byte("{"))
	assert.ErrorIs(t, err, export.ErrMalformed)
}

func TestDrillToSnapshot(t *testing.T) {
	assert.Nil(t, DrillToSnapshot(model.Drill{}))

	d := model.Drill{Snapshot: []byte(`{"version":1}`)}
	out := DrillToSnapshot(d)
	out[0] = 'x'
	assert.Equal(t, `{"version":1}`, string(d.Snapshot))
}

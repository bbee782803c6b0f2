// Package convert provides functions to convert between GORM models and drill snapshots
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/courtlab/drillboard/internal/export"
	"github.com/courtlab/drillboard/internal/export/snapshot"
	"github.com/courtlab/drillboard/internal/model"
	"gorm.io/datatypes"
)

// SnapshotToDrill builds the row for an encoded snapshot saved under name.
func SnapshotToDrill(name string, data []byte) (model.Drill, error) {
	var s snapshot.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Drill{}, fmt.Errorf("%w: %v", export.ErrMalformed, err)
	}
	return model.Drill{
		Name:        name,
		Title:       s.Title,
		Description: s.Description,
		Entities:    len(s.Entities),
		Relations:   len(s.Relations),
		Size:        len(data),
		Snapshot:    datatypes.JSON(data),
	}, nil
}

// DrillToSnapshot returns the encoded snapshot stored in the row.
func DrillToSnapshot(d model.Drill) []byte {
	if len(d.Snapshot) == 0 {
		return nil
	}
	out := make([]byte, len(d.Snapshot))
	copy(out, d.Snapshot)
	return out
}

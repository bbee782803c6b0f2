package engine

import (
	"reflect"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/path"
	"github.com/courtlab/drillboard/pkg/core"
)

// Changes tells the render collaborator what to redraw.
type Changes struct {
	Geometry      []string `json:"geometry,omitempty"`      // relations with new geometry
	Inert         []string `json:"inert,omitempty"`         // relations skipped for a missing endpoint
	LabelsCreated []string `json:"labelsCreated,omitempty"` // label ids
	LabelsUpdated []string `json:"labelsUpdated,omitempty"`
	LabelsRemoved []string `json:"labelsRemoved,omitempty"`
	Removed       []string `json:"removed,omitempty"` // deleted entities and relations
}

// Empty reports whether nothing needs redrawing.
func (c Changes) Empty() bool {
	return len(c.Geometry) == 0 && len(c.Inert) == 0 &&
		len(c.LabelsCreated) == 0 && len(c.LabelsUpdated) == 0 &&
		len(c.LabelsRemoved) == 0 && len(c.Removed) == 0
}

// Merge appends o to c.
func (c *Changes) Merge(o Changes) {
	c.Geometry = append(c.Geometry, o.Geometry...)
	c.Inert = append(c.Inert, o.Inert...)
	c.LabelsCreated = append(c.LabelsCreated, o.LabelsCreated...)
	c.LabelsUpdated = append(c.LabelsUpdated, o.LabelsUpdated...)
	c.LabelsRemoved = append(c.LabelsRemoved, o.LabelsRemoved...)
	c.Removed = append(c.Removed, o.Removed...)
}

// Propagate regenerates every relation touching one of the entity ids.
// Calling it again without intervening changes yields identical geometry.
func (e *Engine) Propagate(entityIDs ...string) Changes {
	var ch Changes
	for _, r := range e.doc.RelationsTouching(entityIDs...) {
		e.update(r, &ch)
	}
	return ch
}

// PropagateRelations regenerates the named relations.
func (e *Engine) PropagateRelations(relationIDs ...string) Changes {
	var ch Changes
	for _, id := range relationIDs {
		if r, ok := e.doc.Relation(id); ok {
			e.update(r, &ch)
		}
	}
	return ch
}

func (e *Engine) update(r core.Relation, ch *Changes) {
	from, to, ok := e.doc.Endpoints(r)
	if !ok {
		e.logger.Debug("skipping inert relation", "relation", r.ID, "from", r.FromID, "to", r.ToID)
		e.doc.ClearGeometry(r.ID)
		ch.Inert = append(ch.Inert, r.ID)
		return
	}

	p := path.Synthesize(from.Position, to.Position, r.Curvature, r.PathStyle, e.opts.Path)
	g := document.Geometry{Path: p, Bounds: p.Bounds()}
	if prev, had := e.doc.Geometry(r.ID); !had || !reflect.DeepEqual(prev, g) {
		ch.Geometry = append(ch.Geometry, r.ID)
	}
	e.doc.SetGeometry(r.ID, g)

	e.syncLabel(r, p.Control, ch)
}

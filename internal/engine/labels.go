package engine

import (
	"github.com/courtlab/drillboard/pkg/core"
)

// syncLabel reconciles the label owned by r with its text. An existing label
// is always updated in place.
func (e *Engine) syncLabel(r core.Relation, anchor core.Position2D, ch *Changes) {
	if r.Label == "" {
		if id := e.doc.DetachLabel(r.ID); id != "" {
			ch.LabelsRemoved = append(ch.LabelsRemoved, id)
		}
		return
	}

	l, ok := e.doc.Label(r.ID)
	if !ok {
		l = &core.Label{ParentID: r.ID, Position: anchor, Text: r.Label, Background: r.LabelColor}
		if err := e.doc.AttachLabel(l); err != nil {
			e.logger.Error("failed to attach label", "relation", r.ID, "error", err)
			return
		}
		ch.LabelsCreated = append(ch.LabelsCreated, l.ID)
	} else if l.Position != anchor || l.Text != r.Label || l.Background != r.LabelColor {
		l.Position = anchor
		l.Text = r.Label
		l.Background = r.LabelColor
		ch.LabelsUpdated = append(ch.LabelsUpdated, l.ID)
	}

	e.doc.RaiseToTop(l.ID)
}

// Package engine keeps relation geometry and labels consistent with the
// entities they reference. Every mutating call propagates before it returns.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/internal/path"
	"github.com/courtlab/drillboard/pkg/core"
)

// Options configures an Engine.
type Options struct {
	Frame         geo.Frame
	Path          path.Params
	Snap          bool
	GridFrequency int
	Logger        *slog.Logger
}

// DefaultOptions returns the editor defaults with snapping off.
func DefaultOptions() Options {
	return Options{
		Frame:         geo.DefaultFrame(),
		Path:          path.DefaultParams(),
		GridFrequency: 1,
	}
}

// Engine mutates a Document and keeps its derived state current.
// Not safe for concurrent use.
type Engine struct {
	doc    *document.Document
	opts   Options
	logger *slog.Logger
}

// New creates an engine over doc. A nil doc starts a fresh one.
func New(doc *document.Document, opts Options) *Engine {
	if doc == nil {
		doc = document.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{doc: doc, opts: opts, logger: logger}
}

// Document returns the engine's document.
func (e *Engine) Document() *document.Document {
	return e.doc
}

// Frame returns the pixel/meter frame.
func (e *Engine) Frame() geo.Frame {
	return e.opts.Frame
}

// SetSnap toggles grid snapping for later moves.
func (e *Engine) SetSnap(enabled bool, frequency int) {
	e.opts.Snap = enabled
	if frequency > 0 {
		e.opts.GridFrequency = frequency
	}
}

// Add places an entity and returns the stored copy.
func (e *Engine) Add(ent core.Entity) (core.Entity, error) {
	stored, err := e.doc.AddEntity(ent)
	if err != nil {
		return core.Entity{}, err
	}
	// relations imported before their endpoint come alive now
	e.Propagate(stored.ID)
	return stored, nil
}

// Move is one entity displacement of a group move.
type Move struct {
	ID string
	To core.Position2D
}

// Move relocates one or more entities and propagates once for the group.
// Unknown ids fail the whole call before anything moves.
func (e *Engine) Move(moves ...Move) (Changes, error) {
	for _, m := range moves {
		if _, ok := e.doc.Entity(m.ID); !ok {
			return Changes{}, fmt.Errorf("move %s: %w", m.ID, document.ErrNotFound)
		}
	}
	ids := make([]string, 0, len(moves))
	step := e.opts.Frame.GridStep(e.opts.GridFrequency)
	for _, m := range moves {
		to := m.To
		if e.opts.Snap {
			to = geo.Snap(to, step)
		}
		_ = e.doc.UpdateEntity(m.ID, func(ent *core.Entity) { ent.Position = to })
		ids = append(ids, m.ID)
	}
	return e.Propagate(ids...), nil
}

// Rename changes the display name of a player or text entity.
func (e *Engine) Rename(id, name string) error {
	ent, ok := e.doc.Entity(id)
	if !ok {
		return fmt.Errorf("rename %s: %w", id, document.ErrNotFound)
	}
	if !ent.Kind.HasName() {
		return fmt.Errorf("rename %s: %s entities carry no name", id, ent.Kind)
	}
	return e.doc.UpdateEntity(id, func(ent *core.Entity) { ent.Name = name })
}

// SetPose sets the 3D pose hint of a player.
func (e *Engine) SetPose(id string, pose core.Pose) error {
	ent, ok := e.doc.Entity(id)
	if !ok {
		return fmt.Errorf("pose %s: %w", id, document.ErrNotFound)
	}
	if !ent.Kind.HasPose() {
		return fmt.Errorf("pose %s: %s entities carry no pose", id, ent.Kind)
	}
	return e.doc.UpdateEntity(id, func(ent *core.Entity) { ent.Pose = pose })
}

// Retype recreates each entity with a new kind, keeping its id, name,
// position and draw position. Relations stay attached.
func (e *Engine) Retype(kind core.Kind, ids ...string) (Changes, error) {
	if _, err := core.ParseKind(string(kind)); err != nil {
		return Changes{}, fmt.Errorf("%w: %q", document.ErrInvalidKind, kind)
	}
	for _, id := range ids {
		if _, ok := e.doc.Entity(id); !ok {
			return Changes{}, fmt.Errorf("retype %s: %w", id, document.ErrNotFound)
		}
	}
	for _, id := range ids {
		old, _ := e.doc.Entity(id)
		if old.Kind == kind {
			continue
		}
		_ = e.doc.ReplaceEntity(core.Entity{
			ID:       old.ID,
			Kind:     kind,
			Position: old.Position,
			Name:     old.Name,
		})
	}
	return e.Propagate(ids...), nil
}

// Delete removes entities or relations by id. Entity deletion cascades to
// the relations referencing it and their labels.
func (e *Engine) Delete(ids ...string) (Changes, error) {
	var ch Changes
	for _, id := range ids {
		switch e.doc.Lookup(id) {
		case document.ObjectEntity:
			labels := e.labelIDsOf(e.doc.RelationsTouching(id))
			removed, err := e.doc.RemoveEntity(id)
			if err != nil {
				return ch, err
			}
			ch.Removed = append(ch.Removed, id)
			ch.Removed = append(ch.Removed, removed...)
			ch.LabelsRemoved = append(ch.LabelsRemoved, labels...)
		case document.ObjectRelation:
			if l, ok := e.doc.Label(id); ok {
				ch.LabelsRemoved = append(ch.LabelsRemoved, l.ID)
			}
			if err := e.doc.RemoveRelation(id); err != nil {
				return ch, err
			}
			ch.Removed = append(ch.Removed, id)
		case document.ObjectLabel:
			return ch, fmt.Errorf("delete %s: labels are owned by their relation", id)
		default:
			return ch, fmt.Errorf("delete %s: %w", id, document.ErrNotFound)
		}
	}
	return ch, nil
}

func (e *Engine) labelIDsOf(rels []core.Relation) []string {
	var out []string
	for _, r := range rels {
		if l, ok := e.doc.Label(r.ID); ok {
			out = append(out, l.ID)
		}
	}
	return out
}

// Connect creates a relation between two existing entities. The relation is
// drawn beneath every entity.
func (e *Engine) Connect(fromID, toID string, motion core.Motion) (core.Relation, Changes, error) {
	for _, id := range []string{fromID, toID} {
		if _, ok := e.doc.Entity(id); !ok {
			return core.Relation{}, Changes{}, fmt.Errorf("connect %s: %w", id, document.ErrNotFound)
		}
	}
	r := core.NewRelation("", fromID, toID)
	if motion != "" {
		r.Motion = motion
	}
	stored, err := e.doc.AddRelation(r)
	if err != nil {
		return core.Relation{}, Changes{}, err
	}
	return stored, e.PropagateRelations(stored.ID), nil
}

// UpdateRelation edits a relation's attributes and regenerates its geometry.
// Endpoints and id are fixed; use Reverse to swap direction.
func (e *Engine) UpdateRelation(id string, fn func(r *core.Relation)) (Changes, error) {
	before, ok := e.doc.Relation(id)
	if !ok {
		return Changes{}, fmt.Errorf("relation %s: %w", id, document.ErrNotFound)
	}
	err := e.doc.UpdateRelation(id, func(r *core.Relation) {
		fn(r)
		r.FromID = before.FromID
		r.ToID = before.ToID
	})
	if err != nil {
		return Changes{}, err
	}
	return e.PropagateRelations(id), nil
}

// Reverse swaps the source and target of a relation.
func (e *Engine) Reverse(id string) (Changes, error) {
	if _, ok := e.doc.Relation(id); !ok {
		return Changes{}, fmt.Errorf("reverse %s: %w", id, document.ErrNotFound)
	}
	_ = e.doc.UpdateRelation(id, func(r *core.Relation) {
		r.FromID, r.ToID = r.ToID, r.FromID
	})
	return e.PropagateRelations(id), nil
}

// Clear empties the document.
func (e *Engine) Clear() {
	e.doc.Clear()
}

// Load swaps in another document, e.g. an imported one, and regenerates its
// geometry.
func (e *Engine) Load(doc *document.Document) Changes {
	if doc == nil {
		doc = document.New()
	}
	e.doc = doc
	return e.Refresh()
}

// Refresh regenerates the geometry of every relation, used after loading.
func (e *Engine) Refresh() Changes {
	rels := e.doc.Relations()
	ids := make([]string, len(rels))
	for i, r := range rels {
		ids[i] = r.ID
	}
	return e.PropagateRelations(ids...)
}

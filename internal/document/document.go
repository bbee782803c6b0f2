// internal/document/document.go
package document

import (
	"errors"
	"fmt"

	"github.com/courtlab/drillboard/internal/path"
	"github.com/courtlab/drillboard/pkg/core"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no object has the requested id
	ErrNotFound = errors.New("object not found")
	// ErrDuplicateID is returned when an id is already used by another object
	ErrDuplicateID = errors.New("duplicate object id")
	// ErrInvalidKind is returned for entities with an unknown kind
	ErrInvalidKind = errors.New("invalid entity kind")
)

// ObjectType tells which arena an id of the draw order lives in.
type ObjectType int

const (
	ObjectNone ObjectType = iota
	ObjectEntity
	ObjectRelation
	ObjectLabel
)

// Geometry is the derived drawing state of a relation.
type Geometry struct {
	Path   path.Path
	Bounds core.Bounds
}

// Document is the aggregate owning every entity, relation and label of one
// drill. It is not safe for concurrent use; callers serialize access.
type Document struct {
	Title       string
	Description string

	entities  map[string]*core.Entity
	relations map[string]*core.Relation
	labels    map[string]*core.Label // keyed by parent relation id
	geometry  map[string]Geometry    // keyed by relation id

	order []string // draw order, bottom first

	revision  uint64
	observers []func(rev uint64)
}

// New creates an empty document
func New() *Document {
	return &Document{
		entities:  make(map[string]*core.Entity),
		relations: make(map[string]*core.Relation),
		labels:    make(map[string]*core.Label),
		geometry:  make(map[string]Geometry),
	}
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.New().String()
}

// Revision returns the mutation counter. It only grows.
func (d *Document) Revision() uint64 {
	return d.revision
}

// OnChange registers an observer called synchronously after every mutation.
func (d *Document) OnChange(fn func(rev uint64)) {
	if fn != nil {
		d.observers = append(d.observers, fn)
	}
}

func (d *Document) touch() {
	d.revision++
	for _, fn := range d.observers {
		fn(d.revision)
	}
}

// Lookup reports which arena holds id.
func (d *Document) Lookup(id string) ObjectType {
	if _, ok := d.entities[id]; ok {
		return ObjectEntity
	}
	if _, ok := d.relations[id]; ok {
		return ObjectRelation
	}
	for _, l := range d.labels {
		if l.ID == id {
			return ObjectLabel
		}
	}
	return ObjectNone
}

func (d *Document) used(id string) bool {
	return d.Lookup(id) != ObjectNone
}

// SetMeta updates the title and description.
func (d *Document) SetMeta(title, description string) {
	if d.Title == title && d.Description == description {
		return
	}
	d.Title = title
	d.Description = description
	d.touch()
}

// Clear removes every object and resets the metadata.
func (d *Document) Clear() {
	d.Title = ""
	d.Description = ""
	d.entities = make(map[string]*core.Entity)
	d.relations = make(map[string]*core.Relation)
	d.labels = make(map[string]*core.Label)
	d.geometry = make(map[string]Geometry)
	d.order = nil
	d.touch()
}

// Order returns a copy of the draw order, bottom first.
func (d *Document) Order() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Arrange reorders the draw order: the listed ids first, bottom to top,
// then every unlisted object in its current relative order. Unknown and
// repeated ids are ignored.
func (d *Document) Arrange(ids []string) {
	seen := make(map[string]struct{}, len(d.order))
	next := make([]string, 0, len(d.order))
	for _, id := range ids {
		if _, dup := seen[id]; dup || !d.used(id) {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}
	for _, id := range d.order {
		if _, ok := seen[id]; !ok {
			next = append(next, id)
		}
	}
	d.order = next
}

// Len returns the number of entities and relations.
func (d *Document) Len() (entities, relations int) {
	return len(d.entities), len(d.relations)
}

// ENTITIES

// AddEntity places a new entity on top of the draw order. An empty ID is
// replaced by a fresh one.
func (d *Document) AddEntity(e core.Entity) (core.Entity, error) {
	if _, err := core.ParseKind(string(e.Kind)); err != nil {
		return core.Entity{}, fmt.Errorf("%w: %q", ErrInvalidKind, e.Kind)
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if d.used(e.ID) {
		return core.Entity{}, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	e.Normalize()
	stored := e
	d.entities[e.ID] = &stored
	d.order = append(d.order, e.ID)
	d.touch()
	return stored, nil
}

// Entity returns a copy of the entity with the given id.
func (d *Document) Entity(id string) (core.Entity, bool) {
	e, ok := d.entities[id]
	if !ok {
		return core.Entity{}, false
	}
	return *e, true
}

// Entities returns every entity in draw order.
func (d *Document) Entities() []core.Entity {
	out := make([]core.Entity, 0, len(d.entities))
	for _, id := range d.order {
		if e, ok := d.entities[id]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// UpdateEntity applies fn to the stored entity. ID and Kind are restored
// after fn returns.
func (d *Document) UpdateEntity(id string, fn func(e *core.Entity)) error {
	e, ok := d.entities[id]
	if !ok {
		return fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	before := *e
	fn(e)
	e.ID = before.ID
	e.Kind = before.Kind
	e.Normalize()
	if *e != before {
		d.touch()
	}
	return nil
}

// ReplaceEntity swaps the entity stored under e.ID for e, keeping its place
// in the draw order. This is the only way an entity changes kind.
// Relations referencing the id are left alone.
func (d *Document) ReplaceEntity(e core.Entity) error {
	if _, err := core.ParseKind(string(e.Kind)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKind, e.Kind)
	}
	if _, ok := d.entities[e.ID]; !ok {
		return fmt.Errorf("entity %s: %w", e.ID, ErrNotFound)
	}
	e.Normalize()
	stored := e
	d.entities[e.ID] = &stored
	d.touch()
	return nil
}

// RemoveEntity deletes the entity together with every relation referencing
// it and their labels. It returns the ids of the removed relations.
func (d *Document) RemoveEntity(id string) ([]string, error) {
	if _, ok := d.entities[id]; !ok {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	var removed []string
	for _, rid := range d.order {
		if r, ok := d.relations[rid]; ok && r.Touches(id) {
			removed = append(removed, rid)
		}
	}
	for _, rid := range removed {
		d.dropRelation(rid)
	}
	delete(d.entities, id)
	d.removeFromOrder(id)
	d.touch()
	return removed, nil
}

// RELATIONS

// AddRelation inserts a relation at the bottom of the draw order, beneath
// every entity glyph. Endpoints are not required to exist.
func (d *Document) AddRelation(r core.Relation) (core.Relation, error) {
	if r.ID == "" {
		r.ID = NewID()
	}
	if d.used(r.ID) {
		return core.Relation{}, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	fillRelationDefaults(&r)
	stored := r
	d.relations[r.ID] = &stored
	d.order = append([]string{r.ID}, d.order...)
	d.touch()
	return stored, nil
}

func fillRelationDefaults(r *core.Relation) {
	if r.PathStyle == "" {
		r.PathStyle = core.PathNormal
	}
	if r.StrokeStyle == "" {
		r.StrokeStyle = core.StrokeSolid
	}
	if r.HitType == "" {
		r.HitType = core.HitAuto
	}
	if r.Motion == "" {
		r.Motion = core.MotionBall
	}
	if r.LineColor == "" {
		r.LineColor = core.DefaultLineColor
	}
	if r.LabelColor == "" {
		r.LabelColor = core.DefaultLabelColor
	}
}

// Relation returns a copy of the relation with the given id.
func (d *Document) Relation(id string) (core.Relation, bool) {
	r, ok := d.relations[id]
	if !ok {
		return core.Relation{}, false
	}
	return *r, true
}

// Relations returns every relation in draw order.
func (d *Document) Relations() []core.Relation {
	out := make([]core.Relation, 0, len(d.relations))
	for _, id := range d.order {
		if r, ok := d.relations[id]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// RelationsTouching returns, in draw order, the relations whose source or
// target is one of ids.
func (d *Document) RelationsTouching(ids ...string) []core.Relation {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []core.Relation
	for _, rid := range d.order {
		r, ok := d.relations[rid]
		if !ok {
			continue
		}
		_, from := want[r.FromID]
		_, to := want[r.ToID]
		if from || to {
			out = append(out, *r)
		}
	}
	return out
}

// UpdateRelation applies fn to the stored relation. ID is restored after fn
// returns.
func (d *Document) UpdateRelation(id string, fn func(r *core.Relation)) error {
	r, ok := d.relations[id]
	if !ok {
		return fmt.Errorf("relation %s: %w", id, ErrNotFound)
	}
	before := *r
	fn(r)
	r.ID = before.ID
	fillRelationDefaults(r)
	if *r != before {
		d.touch()
	}
	return nil
}

// RemoveRelation deletes a relation and its label.
func (d *Document) RemoveRelation(id string) error {
	if _, ok := d.relations[id]; !ok {
		return fmt.Errorf("relation %s: %w", id, ErrNotFound)
	}
	d.dropRelation(id)
	d.touch()
	return nil
}

func (d *Document) dropRelation(id string) {
	if l, ok := d.labels[id]; ok {
		d.removeFromOrder(l.ID)
		delete(d.labels, id)
	}
	delete(d.geometry, id)
	delete(d.relations, id)
	d.removeFromOrder(id)
}

// Endpoints resolves both ends of a relation. ok is false when either end is
// missing, which makes the relation inert.
func (d *Document) Endpoints(r core.Relation) (from, to core.Entity, ok bool) {
	f, okFrom := d.entities[r.FromID]
	t, okTo := d.entities[r.ToID]
	if !okFrom || !okTo {
		return core.Entity{}, core.Entity{}, false
	}
	return *f, *t, true
}

// DERIVED STATE
// Geometry and labels are derived from entities and relations. Writing them
// does not count as a mutation.

// Geometry returns the last synthesized geometry of a relation.
func (d *Document) Geometry(relationID string) (Geometry, bool) {
	g, ok := d.geometry[relationID]
	return g, ok
}

// SetGeometry stores the synthesized geometry of an existing relation.
func (d *Document) SetGeometry(relationID string, g Geometry) {
	if _, ok := d.relations[relationID]; ok {
		d.geometry[relationID] = g
	}
}

// ClearGeometry forgets the geometry of a relation that went inert.
func (d *Document) ClearGeometry(relationID string) {
	delete(d.geometry, relationID)
}

// Label returns the live label owned by a relation. The pointer stays valid
// and identical for as long as the label exists.
func (d *Document) Label(relationID string) (*core.Label, bool) {
	l, ok := d.labels[relationID]
	return l, ok
}

// Labels returns the live labels in draw order.
func (d *Document) Labels() []*core.Label {
	byID := make(map[string]*core.Label, len(d.labels))
	for _, l := range d.labels {
		byID[l.ID] = l
	}
	out := make([]*core.Label, 0, len(d.labels))
	for _, id := range d.order {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// AttachLabel registers a new label for its parent relation and places it
// on top of the draw order.
func (d *Document) AttachLabel(l *core.Label) error {
	if _, ok := d.relations[l.ParentID]; !ok {
		return fmt.Errorf("relation %s: %w", l.ParentID, ErrNotFound)
	}
	if _, ok := d.labels[l.ParentID]; ok {
		return fmt.Errorf("%w: label for %s", ErrDuplicateID, l.ParentID)
	}
	if l.ID == "" {
		l.ID = NewID()
	}
	if d.used(l.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, l.ID)
	}
	d.labels[l.ParentID] = l
	d.order = append(d.order, l.ID)
	return nil
}

// DetachLabel removes the label owned by a relation. It returns the label id
// or "" when there was none.
func (d *Document) DetachLabel(relationID string) string {
	l, ok := d.labels[relationID]
	if !ok {
		return ""
	}
	delete(d.labels, relationID)
	d.removeFromOrder(l.ID)
	return l.ID
}

// RaiseToTop moves id to the top of the draw order.
func (d *Document) RaiseToTop(id string) {
	if d.removeFromOrder(id) {
		d.order = append(d.order, id)
	}
}

func (d *Document) removeFromOrder(id string) bool {
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return true
		}
	}
	return false
}

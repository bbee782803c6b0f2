package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/courtlab/drillboard/internal/dispatcher"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/logging"
	"github.com/courtlab/drillboard/internal/presets"
	"github.com/courtlab/drillboard/internal/session"
	"github.com/courtlab/drillboard/internal/util"
	"github.com/courtlab/drillboard/pkg/core"
)

// Commands understood by the service.
const (
	CmdEntityAdd       = ":ENTITY:ADD:"
	CmdEntityQuick     = ":ENTITY:QUICK:"
	CmdEntityMove      = ":ENTITY:MOVE:"
	CmdEntityRename    = ":ENTITY:RENAME:"
	CmdEntityPose      = ":ENTITY:POSE:"
	CmdEntityRetype    = ":ENTITY:RETYPE:"
	CmdEntityDelete    = ":ENTITY:DELETE:"
	CmdRelationConnect = ":RELATION:CONNECT:"
	CmdRelationSet     = ":RELATION:SET:"
	CmdRelationReverse = ":RELATION:REVERSE:"
	CmdDocumentClear   = ":DOCUMENT:CLEAR:"
	CmdDocumentMeta    = ":DOCUMENT:META:"
	CmdGridSnap        = ":GRID:SNAP:"
)

// ErrInvalidArgs marks a command whose arguments could not be parsed.
var ErrInvalidArgs = errors.New("invalid arguments")

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session    *session.Context
	Presets    *presets.Table
	LogManager *logging.SlogManager
}

// Result is what a command reports back to the caller.
type Result struct {
	IDs     []string       `json:"ids,omitempty"`
	Changes engine.Changes `json:"changes"`
}

// Service applies editor commands to the open drill
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Session == nil {
		deps.Session = session.NewContext(nil)
	}
	if deps.Presets == nil {
		deps.Presets = presets.Default()
	}
	s := &Service{deps: deps}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

// Session returns the drill session the service mutates.
func (s *Service) Session() *session.Context {
	return s.deps.Session
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// Register wires every command into d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	handle := func(cmd string, fn func(args []string) (Result, error), opts ...dispatcher.Option) {
		d.Register(cmd, func(e dispatcher.Event) (any, error) {
			res, err := fn(util.CleanArgs(e.Args))
			if err != nil {
				s.writeLog(cmd, err.Error(), "ERROR")
				return nil, err
			}
			return res, nil
		}, append(opts, dispatcher.Logged())...)
	}

	handle(CmdEntityAdd, s.AddEntity, dispatcher.MinArgs(4))
	handle(CmdEntityQuick, s.QuickPlace, dispatcher.MinArgs(2))
	handle(CmdEntityMove, s.MoveEntities, dispatcher.MinArgs(3))
	handle(CmdEntityRename, s.RenameEntity, dispatcher.MinArgs(2))
	handle(CmdEntityPose, s.SetPose, dispatcher.MinArgs(2))
	handle(CmdEntityRetype, s.RetypeEntities, dispatcher.MinArgs(2))
	handle(CmdEntityDelete, s.DeleteObjects, dispatcher.MinArgs(1))
	handle(CmdRelationConnect, s.Connect, dispatcher.MinArgs(3))
	handle(CmdRelationSet, s.SetRelationField, dispatcher.MinArgs(3))
	handle(CmdRelationReverse, s.ReverseRelation, dispatcher.MinArgs(1))
	handle(CmdDocumentClear, s.ClearDocument)
	handle(CmdDocumentMeta, s.SetMeta, dispatcher.MinArgs(1))
	handle(CmdGridSnap, s.SetSnap, dispatcher.MinArgs(1))
}

func invalid(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgs, fmt.Sprintf(format, a...))
}

func parsePosition(x, y string) (core.Position2D, error) {
	fx, err := util.ParseFloat(x)
	if err != nil {
		return core.Position2D{}, invalid("x: %v", err)
	}
	fy, err := util.ParseFloat(y)
	if err != nil {
		return core.Position2D{}, invalid("y: %v", err)
	}
	return core.Position2D{X: fx, Y: fy}, nil
}

// AddEntity places a new entity.
// Args: kind, name, x, y (pixels)
func (s *Service) AddEntity(data []string) (Result, error) {
	kind, err := core.ParseKind(data[0])
	if err != nil {
		return Result{}, invalid("%v", err)
	}
	pos, err := parsePosition(data[2], data[3])
	if err != nil {
		return Result{}, err
	}

	var stored core.Entity
	err = s.deps.Session.Update(func(e *engine.Engine) error {
		stored, err = e.Add(core.Entity{Kind: kind, Name: data[1], Position: pos})
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return Result{IDs: []string{stored.ID}}, nil
}

// QuickPlace drops a player on a preset court slot.
// Args: side, slot (zone, extra slot or role)
func (s *Service) QuickPlace(data []string) (Result, error) {
	ent := s.deps.Presets.Player(data[0], data[1])

	var stored core.Entity
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		var err error
		stored, err = e.Add(ent)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return Result{IDs: []string{stored.ID}}, nil
}

// MoveEntities relocates a group of entities in one step.
// Args: (id, x, y) repeated
func (s *Service) MoveEntities(data []string) (Result, error) {
	if len(data)%3 != 0 {
		return Result{}, invalid("move takes id x y triples, got %d args", len(data))
	}
	moves := make([]engine.Move, 0, len(data)/3)
	for i := 0; i < len(data); i += 3 {
		pos, err := parsePosition(data[i+1], data[i+2])
		if err != nil {
			return Result{}, err
		}
		moves = append(moves, engine.Move{ID: data[i], To: pos})
	}

	var res Result
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		ch, err := e.Move(moves...)
		res.Changes = ch
		return err
	})
	return res, err
}

// RenameEntity sets the name of a player or text entity.
// Args: id, name
func (s *Service) RenameEntity(data []string) (Result, error) {
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		return e.Rename(data[0], data[1])
	})
	if err != nil {
		return Result{}, err
	}
	return Result{IDs: []string{data[0]}}, nil
}

// SetPose sets the 3D pose hint of a player.
// Args: id, pose
func (s *Service) SetPose(data []string) (Result, error) {
	pose, err := core.ParsePose(data[1])
	if err != nil {
		return Result{}, invalid("%v", err)
	}
	err = s.deps.Session.Update(func(e *engine.Engine) error {
		return e.SetPose(data[0], pose)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{IDs: []string{data[0]}}, nil
}

// RetypeEntities converts entities to another kind.
// Args: kind, id...
func (s *Service) RetypeEntities(data []string) (Result, error) {
	kind, err := core.ParseKind(data[0])
	if err != nil {
		return Result{}, invalid("%v", err)
	}
	ids := data[1:]

	var res Result
	err = s.deps.Session.Update(func(e *engine.Engine) error {
		ch, err := e.Retype(kind, ids...)
		res.Changes = ch
		return err
	})
	if err != nil {
		return Result{}, err
	}
	res.IDs = ids
	return res, nil
}

// DeleteObjects removes entities or relations.
// Args: id...
func (s *Service) DeleteObjects(data []string) (Result, error) {
	var res Result
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		ch, err := e.Delete(data...)
		res.Changes = ch
		return err
	})
	return res, err
}

// Connect creates a relation.
// Args: motion (ball|player), from id, to id
func (s *Service) Connect(data []string) (Result, error) {
	motion, err := core.ParseMotion(data[0])
	if err != nil {
		return Result{}, invalid("%v", err)
	}

	var res Result
	err = s.deps.Session.Update(func(e *engine.Engine) error {
		r, ch, err := e.Connect(data[1], data[2], motion)
		if err != nil {
			return err
		}
		res = Result{IDs: []string{r.ID}, Changes: ch}
		return nil
	})
	return res, err
}

// relationSetter parses value and applies it to the relation.
func relationSetter(field, value string) (func(r *core.Relation), error) {
	switch field {
	case "rad":
		rad, err := util.ParseFloat(value)
		if err != nil {
			return nil, invalid("rad: %v", err)
		}
		rad = core.ClampCurvature(rad)
		return func(r *core.Relation) { r.Curvature = rad }, nil
	case "lineType":
		ps, err := core.ParsePathStyle(value)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return func(r *core.Relation) { r.PathStyle = ps }, nil
	case "style", "strokeStyle":
		ss, err := core.ParseStrokeStyle(value)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return func(r *core.Relation) { r.StrokeStyle = ss }, nil
	case "hitType":
		ht, err := core.ParseHitType(value)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return func(r *core.Relation) { r.HitType = ht }, nil
	case "arrowType":
		m, err := core.ParseMotion(value)
		if err != nil {
			return nil, invalid("%v", err)
		}
		return func(r *core.Relation) { r.Motion = m }, nil
	case "label":
		return func(r *core.Relation) { r.Label = value }, nil
	case "labelColor":
		if value == "" {
			value = core.DefaultLabelColor
		}
		return func(r *core.Relation) { r.LabelColor = value }, nil
	case "lineColor":
		if value == "" {
			value = core.DefaultLineColor
		}
		return func(r *core.Relation) { r.LineColor = value }, nil
	}
	return nil, invalid("unknown relation field %q", field)
}

// SetRelationField edits one attribute of a relation. Curvature is clamped
// to the editor range.
// Args: id, field, value
func (s *Service) SetRelationField(data []string) (Result, error) {
	set, err := relationSetter(data[1], data[2])
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = s.deps.Session.Update(func(e *engine.Engine) error {
		ch, err := e.UpdateRelation(data[0], set)
		res.Changes = ch
		return err
	})
	if err != nil {
		return Result{}, err
	}
	res.IDs = []string{data[0]}
	return res, nil
}

// ReverseRelation swaps the endpoints of a relation.
// Args: id
func (s *Service) ReverseRelation(data []string) (Result, error) {
	var res Result
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		ch, err := e.Reverse(data[0])
		res.Changes = ch
		return err
	})
	if err != nil {
		return Result{}, err
	}
	res.IDs = []string{data[0]}
	return res, nil
}

// ClearDocument removes every object from the drill.
func (s *Service) ClearDocument(_ []string) (Result, error) {
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		e.Clear()
		return nil
	})
	return Result{}, err
}

// SetMeta sets the drill title and description.
// Args: title, [description]
func (s *Service) SetMeta(data []string) (Result, error) {
	desc := ""
	if len(data) > 1 {
		desc = data[1]
	}
	err := s.deps.Session.Update(func(e *engine.Engine) error {
		e.Document().SetMeta(data[0], desc)
		return nil
	})
	return Result{}, err
}

// SetSnap toggles grid snapping for later moves.
// Args: enabled, [frequency]
func (s *Service) SetSnap(data []string) (Result, error) {
	enabled, err := strconv.ParseBool(data[0])
	if err != nil {
		return Result{}, invalid("snap: %v", err)
	}
	freq := 0
	if len(data) > 1 {
		freq, err = strconv.Atoi(data[1])
		if err != nil || freq < 1 {
			return Result{}, invalid("grid frequency %q", data[1])
		}
	}
	err = s.deps.Session.Update(func(e *engine.Engine) error {
		e.SetSnap(enabled, freq)
		return nil
	})
	return Result{}, err
}

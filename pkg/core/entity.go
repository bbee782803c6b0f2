// pkg/core/entity.go
package core

import "fmt"

// Kind tags the variant of a placeable entity.
type Kind string

const (
	KindPlayer   Kind = "player"
	KindBall     Kind = "ball"
	KindTarget   Kind = "target"
	KindCone     Kind = "cone"
	KindPoint    Kind = "point"
	KindText     Kind = "text"
	KindMetadata Kind = "metadata"
)

// Kinds lists every entity kind in a stable order.
var Kinds = []Kind{KindPlayer, KindBall, KindTarget, KindCone, KindPoint, KindText, KindMetadata}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// HasName reports whether the kind carries a display name.
func (k Kind) HasName() bool {
	return k == KindPlayer || k == KindText || k == KindMetadata
}

// HasPose reports whether the kind carries a 3D pose hint.
func (k Kind) HasPose() bool {
	return k == KindPlayer
}

// Exported reports whether the kind appears in the semantic object graph.
// Metadata entities only live in raw snapshots.
func (k Kind) Exported() bool {
	return k != KindMetadata && k != ""
}

// DefaultName is the name given to a freshly placed entity of this kind.
func (k Kind) DefaultName() string {
	switch k {
	case KindPlayer:
		return "P"
	case KindText:
		return "Text"
	}
	return ""
}

// Pose is an opaque hint for the 3D renderer.
type Pose string

const (
	PoseAuto    Pose = "auto"
	PosePassing Pose = "passing"
	PoseServe   Pose = "serve"
	PoseBlock   Pose = "block"
	PoseAttack  Pose = "attack"
)

// Poses lists every pose hint.
var Poses = []Pose{PoseAuto, PosePassing, PoseServe, PoseBlock, PoseAttack}

// ParsePose validates a pose hint. Empty means auto.
func ParsePose(s string) (Pose, error) {
	if s == "" {
		return PoseAuto, nil
	}
	for _, p := range Poses {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown pose %q", s)
}

// Entity is a placeable object on the court.
// ID and Kind never change after creation; a role change is a delete and
// recreate that keeps ID and Name.
type Entity struct {
	ID       string
	Kind     Kind
	Position Position2D // pixels
	Name     string     // player, text, metadata
	Pose     Pose       // player
	Color    string     // player badge fill, the group colour in 3D
}

// Normalize drops attributes that do not apply to the entity's kind and fills
// in defaults.
func (e *Entity) Normalize() {
	if !e.Kind.HasName() {
		e.Name = ""
	} else if e.Name == "" && e.Kind != KindMetadata {
		e.Name = e.Kind.DefaultName()
	}
	if !e.Kind.HasPose() {
		e.Pose = ""
	}
	if e.Kind != KindPlayer {
		e.Color = ""
	} else if e.Color == "" {
		e.Color = DefaultPlayerColor
	}
}

// DefaultPlayerColor is the badge fill of a player placed without a side.
const DefaultPlayerColor = "white"

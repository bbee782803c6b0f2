// Package presets holds the quick placement table: court zones per side and
// the default zone of each role.
package presets

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/courtlab/drillboard/pkg/core"
	"gopkg.in/yaml.v3"
)

// Sides of the court.
const (
	SideLeft       = "left"
	SideRight      = "right"
	SideLeftExtra  = "left_extra"
	SideRightExtra = "right_extra"
)

// Fallback is where players land when the slot is unknown.
var Fallback = core.Position2D{X: 400, Y: 250}

//go:embed presets.yaml
var defaultTable []byte

// Side is the placement table of one court side.
type Side struct {
	Color string                     `yaml:"color"`
	Slots map[string]core.Position2D `yaml:"slots"`
}

// Table maps sides to slots and roles to zones.
type Table struct {
	Sides map[string]Side   `yaml:"sides"`
	Roles map[string]string `yaml:"roles"`
}

// Parse reads a placement table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	if len(t.Sides) == 0 {
		return nil, fmt.Errorf("presets define no sides")
	}
	return &t, nil
}

var (
	defaultOnce sync.Once
	defaultTbl  *Table
)

// Default returns the built-in table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(defaultTable)
		if err != nil {
			panic(err)
		}
		defaultTbl = t
	})
	return defaultTbl
}

// Player builds the entity for a quick placement. key is a zone ("1"-"6"),
// an extra slot ("A"-"G") or a role ("OH", "S", ...); it becomes the
// player's name. Unknown sides and slots fall back to the court center.
func (t *Table) Player(side, key string) core.Entity {
	s := t.Sides[side]
	slot := key
	if zone, ok := t.Roles[key]; ok {
		slot = zone
	}
	pos, ok := s.Slots[slot]
	if !ok {
		pos = Fallback
	}
	color := s.Color
	if color == "" {
		color = core.DefaultPlayerColor
	}
	return core.Entity{
		Kind:     core.KindPlayer,
		Position: pos,
		Name:     key,
		Color:    color,
	}
}

// RoleNames returns the role names in a stable order.
func (t *Table) RoleNames() []string {
	names := make([]string, 0, len(t.Roles))
	for r := range t.Roles {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}

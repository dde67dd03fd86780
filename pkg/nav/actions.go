package nav

import (
	"github.com/taigrr/pivot/pkg/math3d"
)

// Bindings maps each enabled mode to the modifier that selects it. A mode
// missing from the map is disabled.
type Bindings map[Mode]Modifier

// DefaultBindings are used outside plan views: orbit with no key held.
func DefaultBindings() Bindings {
	return Bindings{
		ModeRotate:  ModNone,
		ModePan:     ModShift,
		ModeZoom:    ModCtrl,
		ModePresets: ModAlt,
	}
}

// DefaultPlanBindings are used in plan views, where orbiting would leave
// the plan: pan with no key held.
func DefaultPlanBindings() Bindings {
	return Bindings{
		ModePan:  ModNone,
		ModeZoom: ModCtrl,
	}
}

// Action is what the controller does with a motion offset in one mode.
type Action struct {
	Mode   Mode
	Handle func(offset math3d.Vec2)
}

// ActionTable maps a primary modifier to its action.
type ActionTable struct {
	actions map[Modifier]Action
	// Conflicts lists modes dropped because an earlier mode already
	// claimed their modifier.
	Conflicts []Mode
}

// NewActionTable binds each mode in b to its handler. Modes are visited in
// the order of Modes; when two modes share a modifier the first one wins.
// Modes without a handler are skipped.
func NewActionTable(b Bindings, handlers map[Mode]func(math3d.Vec2)) ActionTable {
	t := ActionTable{actions: make(map[Modifier]Action, len(b))}
	for _, mode := range Modes {
		mod, ok := b[mode]
		if !ok {
			continue
		}
		h := handlers[mode]
		if h == nil {
			continue
		}
		mod = mod.Primary()
		if _, taken := t.actions[mod]; taken {
			t.Conflicts = append(t.Conflicts, mode)
			continue
		}
		t.actions[mod] = Action{Mode: mode, Handle: h}
	}
	return t
}

// Lookup returns the action selected by the primary key of m.
func (t ActionTable) Lookup(m Modifier) (Action, bool) {
	a, ok := t.actions[m.Primary()]
	return a, ok
}

// Len returns the number of bound modifiers.
func (t ActionTable) Len() int { return len(t.actions) }

package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/pivot/pkg/math3d"
)

func TestModifierPrimary(t *testing.T) {
	tests := []struct {
		in   Modifier
		want Modifier
	}{
		{ModNone, ModNone},
		{ModAlt, ModAlt},
		{ModShift | ModAlt, ModShift},
		{ModCtrl | ModShift | ModAlt, ModCtrl},
		{ModCapsLock | ModAlt, ModAlt},
		{ModCapsLock, ModCapsLock},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.in.Primary(), "%v", tc.in)
	}
}

func TestModifierString(t *testing.T) {
	assert.Equal(t, "none", ModNone.String())
	assert.Equal(t, "ctrl", ModCtrl.String())
	assert.Equal(t, "ctrl+shift", (ModShift | ModCtrl).String())
}

func TestParseModifier(t *testing.T) {
	for in, want := range map[string]Modifier{
		"none":      ModNone,
		"Shift":     ModShift,
		" ctrl ":    ModCtrl,
		"control":   ModCtrl,
		"alt":       ModAlt,
		"caps-lock": ModCapsLock,
		"capslock":  ModCapsLock,
	} {
		got, err := ParseModifier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseModifier("hyper")
	assert.Error(t, err)
}

func TestParseButton(t *testing.T) {
	b, err := ParseButton("Middle")
	require.NoError(t, err)
	assert.Equal(t, ButtonMiddle, b)

	_, err = ParseButton("none")
	assert.Error(t, err)
	_, err = ParseButton("fourth")
	assert.Error(t, err)
}

func TestActionTable(t *testing.T) {
	var got []Mode
	handler := func(m Mode) func(math3d.Vec2) {
		return func(math3d.Vec2) { got = append(got, m) }
	}
	handlers := map[Mode]func(math3d.Vec2){
		ModePan:     handler(ModePan),
		ModeRotate:  handler(ModeRotate),
		ModeZoom:    handler(ModeZoom),
		ModePresets: handler(ModePresets),
	}

	table := NewActionTable(Bindings{
		ModeRotate:  ModNone,
		ModePan:     ModShift,
		ModeZoom:    ModShift,
		ModePresets: ModShift | ModCapsLock,
	}, handlers)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []Mode{ModeZoom, ModePresets}, table.Conflicts, "pan claims shift first")

	a, ok := table.Lookup(ModShift | ModAlt)
	require.True(t, ok)
	assert.Equal(t, ModePan, a.Mode)
	a.Handle(math3d.V2(1, 0))

	a, ok = table.Lookup(ModNone)
	require.True(t, ok)
	a.Handle(math3d.V2(1, 0))
	assert.Equal(t, []Mode{ModePan, ModeRotate}, got)

	_, ok = table.Lookup(ModCtrl)
	assert.False(t, ok)
}

func TestDefaultBindingsAreDistinct(t *testing.T) {
	for _, b := range []Bindings{DefaultBindings(), DefaultPlanBindings()} {
		seen := map[Modifier]Mode{}
		for mode, mod := range b {
			_, dup := seen[mod]
			assert.False(t, dup, "%v shares %v", mode, mod)
			seen[mod] = mode
		}
	}
}

func TestIconFor(t *testing.T) {
	assert.Equal(t, IconPan, IconFor(ModePan))
	assert.Equal(t, IconRotate, IconFor(ModeRotate))
	assert.Equal(t, IconZoom, IconFor(ModeZoom))
	assert.Equal(t, IconPresets, IconFor(ModePresets))
	assert.Equal(t, IconNone, IconFor(ModeNone))
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/pivot/pkg/nav"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	n, err := s.Nav()
	require.NoError(t, err)
	assert.Equal(t, nav.DefaultSettings(), n)
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.True(t, s.Equal(Default()))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pivot.toml")
	s := Default()
	s.Keys.Presets = Off
	s.PresetSteps = 12
	s.ZoomSmoothing = true
	s.TransientCommands = []string{"Unlock"}

	require.NoError(t, Save(path, s))
	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, got.Equal(s), "got %+v", got)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pivot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
zoom_force = 2.5

[keys]
pan = "ctrl"
zoom = "shift"
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.ZoomForce)
	assert.Equal(t, "ctrl", s.Keys.Pan)
	assert.Equal(t, "shift", s.Keys.Zoom)
	assert.Equal(t, Default().Keys.Rotate, s.Keys.Rotate)
	assert.Equal(t, Default().PresetSteps, s.PresetSteps)

	n, err := s.Nav()
	require.NoError(t, err)
	assert.Equal(t, nav.ModCtrl, n.Bindings[nav.ModePan])
	assert.Equal(t, 2.5, n.ZoomForce)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown modifier", "[keys]\npan = \"hyper\"\n", ErrUnknownModifier},
		{"duplicate binding", "[keys]\npan = \"alt\"\n", ErrDuplicateBinding},
		{"negative debounce", "debounce_ms = -5\n", ErrInvalidValue},
		{"zero steps", "preset_steps = 0\n", ErrInvalidValue},
		{"unknown key", "zoom_speed = 3\n", nil},
		{"syntax", "zoom_force = \n", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pivot.toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			s, err := Load(path)
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
			assert.True(t, s.Equal(Default()), "a bad file yields defaults")
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := Default()
	s.Button = "thumb"
	s.ZoomForce = 0
	s.PlanKeys.Zoom = "meta"

	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorIs(t, err, ErrUnknownModifier)
	assert.Contains(t, err.Error(), "button")
	assert.Contains(t, err.Error(), "plan_keys.zoom")

	_, err = s.Nav()
	assert.Error(t, err)
}

func TestNavDisablesOffModes(t *testing.T) {
	s := Default()
	s.Keys.Presets = "OFF"
	s.Keys.Zoom = ""
	s.DebounceMillis = 40

	n, err := s.Nav()
	require.NoError(t, err)
	assert.NotContains(t, n.Bindings, nav.ModePresets)
	assert.NotContains(t, n.Bindings, nav.ModeZoom)
	assert.Equal(t, 40*time.Millisecond, n.Debounce)
}

func TestFields(t *testing.T) {
	fields := Default().Fields()
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	assert.Len(t, byName, len(fields), "field names are unique")
	assert.Equal(t, "middle", byName["button"])
	assert.Equal(t, "none", byName["keys.rotate"])
	assert.Equal(t, "off", byName["plan_keys.rotate"])
	assert.Equal(t, "0.01", byName["rotate_sensitivity"])
	assert.Equal(t, "120", byName["debounce_ms"])
	assert.Equal(t, "ShowAll,UnlockAll,Isolate", byName["transient_commands"])
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, filepath.Join(".config", "pivot", "pivot.toml")), p)
	assert.True(t, filepath.IsAbs(p))
}

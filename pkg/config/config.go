// Package config loads and saves the navigation settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/nav"
)

var (
	// ErrUnknownModifier is returned for a key binding that names no
	// modifier.
	ErrUnknownModifier = errors.New("unknown modifier")
	// ErrDuplicateBinding is returned when two modes share a modifier.
	ErrDuplicateBinding = errors.New("modifier bound to more than one mode")
	// ErrInvalidValue is returned for out-of-range numbers.
	ErrInvalidValue = errors.New("invalid value")
)

// Off disables a mode binding.
const Off = "off"

// Keys names the modifier selecting each mode: none, shift, ctrl, alt,
// capslock, or off.
type Keys struct {
	Pan     string `toml:"pan"`
	Rotate  string `toml:"rotate"`
	Zoom    string `toml:"zoom"`
	Presets string `toml:"presets"`
}

func (k Keys) byMode() map[nav.Mode]string {
	return map[nav.Mode]string{
		nav.ModePan:     k.Pan,
		nav.ModeRotate:  k.Rotate,
		nav.ModeZoom:    k.Zoom,
		nav.ModePresets: k.Presets,
	}
}

// Settings is the on-disk settings file.
type Settings struct {
	Enabled bool   `toml:"enabled"`
	Button  string `toml:"button"`
	Keys    Keys   `toml:"keys"`
	// PlanKeys apply in parallel top views.
	PlanKeys Keys `toml:"plan_keys"`

	RotateSensitivity float64 `toml:"rotate_sensitivity"`
	ZoomForce         float64 `toml:"zoom_force"`
	ZoomInvert        bool    `toml:"zoom_invert"`
	ZoomSmoothing     bool    `toml:"zoom_smoothing"`

	PresetSteps       int     `toml:"preset_steps"`
	PresetThreshold   float64 `toml:"preset_threshold"`
	PresetAlignCPlane bool    `toml:"preset_align_cplane"`

	DebounceMillis int `toml:"debounce_ms"`

	// ParallelMeshThreshold is the hit candidate count at which mesh tests
	// run concurrently. Zero disables concurrency.
	ParallelMeshThreshold int `toml:"parallel_mesh_threshold"`
	// TransientCommands are commands whose visibility toggles the scene
	// cache applies only as a net change when they end.
	TransientCommands []string `toml:"transient_commands"`
}

// Default returns the built-in settings.
func Default() Settings {
	n := nav.DefaultSettings()
	return Settings{
		Enabled:               true,
		Button:                n.Button.String(),
		Keys:                  keysFrom(n.Bindings),
		PlanKeys:              keysFrom(n.PlanBindings),
		RotateSensitivity:     n.RotateSensitivity,
		ZoomForce:             n.ZoomForce,
		ZoomInvert:            n.ZoomInvert,
		ZoomSmoothing:         n.ZoomSmoothing,
		PresetSteps:           n.PresetSteps,
		PresetThreshold:       n.PresetThreshold,
		PresetAlignCPlane:     n.PresetAlignCPlane,
		DebounceMillis:        int(n.Debounce / time.Millisecond),
		ParallelMeshThreshold: intersect.DefaultParallelThreshold,
		TransientCommands:     []string{"ShowAll", "UnlockAll", "Isolate"},
	}
}

func keysFrom(b nav.Bindings) Keys {
	name := func(m nav.Mode) string {
		if mod, ok := b[m]; ok {
			return mod.String()
		}
		return Off
	}
	return Keys{
		Pan:     name(nav.ModePan),
		Rotate:  name(nav.ModeRotate),
		Zoom:    name(nav.ModeZoom),
		Presets: name(nav.ModePresets),
	}
}

// DefaultPath returns ~/.config/pivot/pivot.toml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pivot", "pivot.toml"), nil
}

// Expand resolves a leading ~ in path.
func Expand(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return p, nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// Unknown keys are rejected.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := Decode(data, &s); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses TOML into s, keeping the values of absent keys, and
// validates the result.
func Decode(data []byte, s *Settings) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("decode settings: %s", strict.String())
		}
		return fmt.Errorf("decode settings: %w", err)
	}
	return s.Validate()
}

// Save writes s to path, creating the parent directory.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Validate reports every problem in s.
func (s Settings) Validate() error {
	var errs []error
	if _, err := nav.ParseButton(s.Button); err != nil {
		errs = append(errs, fmt.Errorf("button: %w", err))
	}
	if _, err := bindings("keys", s.Keys); err != nil {
		errs = append(errs, err)
	}
	if _, err := bindings("plan_keys", s.PlanKeys); err != nil {
		errs = append(errs, err)
	}

	positive := []struct {
		name string
		v    float64
	}{
		{"rotate_sensitivity", s.RotateSensitivity},
		{"zoom_force", s.ZoomForce},
		{"preset_threshold", s.PresetThreshold},
		{"preset_steps", float64(s.PresetSteps)},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v: %w", p.name, p.v, ErrInvalidValue))
		}
	}
	if s.DebounceMillis < 0 {
		errs = append(errs, fmt.Errorf("debounce_ms must not be negative: %w", ErrInvalidValue))
	}
	if s.ParallelMeshThreshold < 0 {
		errs = append(errs, fmt.Errorf("parallel_mesh_threshold must not be negative: %w", ErrInvalidValue))
	}
	return errors.Join(errs...)
}

// bindings converts k to nav bindings, skipping modes set to off.
func bindings(section string, k Keys) (nav.Bindings, error) {
	b := nav.Bindings{}
	owner := map[nav.Modifier]nav.Mode{}
	var errs []error
	for _, mode := range nav.Modes {
		name := strings.TrimSpace(k.byMode()[mode])
		if name == "" || strings.EqualFold(name, Off) {
			continue
		}
		mod, err := nav.ParseModifier(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %q: %w", section, mode, name, ErrUnknownModifier))
			continue
		}
		if other, taken := owner[mod]; taken {
			errs = append(errs, fmt.Errorf("%s.%s: %s already selects %s: %w", section, mode, mod, other, ErrDuplicateBinding))
			continue
		}
		owner[mod] = mode
		b[mode] = mod
	}
	return b, errors.Join(errs...)
}

// Nav converts s to controller settings.
func (s Settings) Nav() (nav.Settings, error) {
	if err := s.Validate(); err != nil {
		return nav.Settings{}, err
	}
	button, _ := nav.ParseButton(s.Button)
	keys, _ := bindings("keys", s.Keys)
	plan, _ := bindings("plan_keys", s.PlanKeys)
	return nav.Settings{
		Button:            button,
		Bindings:          keys,
		PlanBindings:      plan,
		RotateSensitivity: s.RotateSensitivity,
		ZoomForce:         s.ZoomForce,
		ZoomInvert:        s.ZoomInvert,
		ZoomSmoothing:     s.ZoomSmoothing,
		PresetSteps:       s.PresetSteps,
		PresetThreshold:   s.PresetThreshold,
		PresetAlignCPlane: s.PresetAlignCPlane,
		Debounce:          time.Duration(s.DebounceMillis) * time.Millisecond,
	}, nil
}

// Field is one named setting rendered as text.
type Field struct {
	Name  string
	Value string
}

// Fields lists every setting in file order.
func (s Settings) Fields() []Field {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	b := strconv.FormatBool
	return []Field{
		{"enabled", b(s.Enabled)},
		{"button", s.Button},
		{"keys.pan", s.Keys.Pan},
		{"keys.rotate", s.Keys.Rotate},
		{"keys.zoom", s.Keys.Zoom},
		{"keys.presets", s.Keys.Presets},
		{"plan_keys.pan", s.PlanKeys.Pan},
		{"plan_keys.rotate", s.PlanKeys.Rotate},
		{"plan_keys.zoom", s.PlanKeys.Zoom},
		{"plan_keys.presets", s.PlanKeys.Presets},
		{"rotate_sensitivity", f(s.RotateSensitivity)},
		{"zoom_force", f(s.ZoomForce)},
		{"zoom_invert", b(s.ZoomInvert)},
		{"zoom_smoothing", b(s.ZoomSmoothing)},
		{"preset_steps", strconv.Itoa(s.PresetSteps)},
		{"preset_threshold", f(s.PresetThreshold)},
		{"preset_align_cplane", b(s.PresetAlignCPlane)},
		{"debounce_ms", strconv.Itoa(s.DebounceMillis)},
		{"parallel_mesh_threshold", strconv.Itoa(s.ParallelMeshThreshold)},
		{"transient_commands", strings.Join(s.TransientCommands, ",")},
	}
}

// Equal reports whether two settings are identical.
func (s Settings) Equal(o Settings) bool {
	return slices.Equal(s.Fields(), o.Fields())
}

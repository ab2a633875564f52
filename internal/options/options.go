// Package options exposes the named settings of the configuration document as
// typed values with defaults.
package options

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/example/quickcliq/internal/command"
	"github.com/example/quickcliq/internal/hotkey"
)

// Option names. Settings shared with earlier QuickCliq releases keep their
// stored keys.
const (
	MainHotkey    = "main_hotkey"
	MaxConcurrent = "max_concurrent"
	CommandDelay  = "gen_cmddelay"
	Divider       = "divider"
	CtrlCopy      = "ctrl_copy"
	IconSize      = "aprns_iconssize"
	TextColor     = "text_color"
	BgColor       = "bg_color"
	FontName      = "aprns_mainfont"
	FontSize      = "aprns_fontsize"
	Margin        = "margin"
	Debug         = "debug"
	Autostart     = "gen_runonstartup"
	Backups       = "backups"
	TrayIcon      = "tray_icon"
	EditorItem    = "gen_editoritem"
	SuspendItem   = "gen_suspendsub"
)

var defaults = map[string]any{
	MainHotkey:    hotkey.DefaultMain,
	MaxConcurrent: 8,
	CommandDelay:  200,
	Divider:       command.DefaultDivider,
	CtrlCopy:      true,
	IconSize:      16,
	TextColor:     -1,
	BgColor:       -1,
	FontName:      "Segoe UI",
	FontSize:      9,
	Margin:        4,
	Debug:         false,
	Autostart:     false,
	Backups:       3,
	TrayIcon:      "",
	EditorItem:    true,
	SuspendItem:   true,
}

const cacheSize = 64

// ErrInvalidValue is returned by Set when a value cannot be coerced to the
// type of the option's default.
var ErrInvalidValue = errors.New("options: invalid value")

// Backend is the raw settings map of the configuration document.
type Backend interface {
	GetOpt(name string) (any, bool)
	SetOpt(name string, value any)
	DelOpt(name string)
}

// Options is a typed snapshot of every known setting.
type Options struct {
	MainHotkey     string `mapstructure:"main_hotkey"`
	MaxConcurrent  int    `mapstructure:"max_concurrent"`
	CommandDelayMS int    `mapstructure:"gen_cmddelay"`
	Divider        string `mapstructure:"divider"`
	CtrlCopy       bool   `mapstructure:"ctrl_copy"`
	IconSize       int    `mapstructure:"aprns_iconssize"`
	TextColor      int    `mapstructure:"text_color"`
	BgColor        int    `mapstructure:"bg_color"`
	FontName       string `mapstructure:"aprns_mainfont"`
	FontSize       int    `mapstructure:"aprns_fontsize"`
	Margin         int    `mapstructure:"margin"`
	Debug          bool   `mapstructure:"debug"`
	Autostart      bool   `mapstructure:"gen_runonstartup"`
	Backups        int    `mapstructure:"backups"`
	TrayIcon       string `mapstructure:"tray_icon"`
	EditorItem     bool   `mapstructure:"gen_editoritem"`
	SuspendItem    bool   `mapstructure:"gen_suspendsub"`
}

// Delay returns the inter-command delay.
func (o Options) Delay() time.Duration {
	return time.Duration(o.CommandDelayMS) * time.Millisecond
}

// Store reads settings through a Backend, falling back to defaults.
// Coerced values are cached until the option changes.
type Store struct {
	mu      sync.Mutex
	backend Backend
	cache   *lru.Cache[string, any]
	subs    []func(name string)
}

// New returns a Store over backend.
func New(backend Backend) *Store {
	cache, err := lru.New[string, any](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("options: create cache: %v", err))
	}
	return &Store{backend: backend, cache: cache}
}

// Names returns every option with a default, sorted.
func Names() []string {
	out := make([]string, 0, len(defaults))
	for name := range defaults {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default returns the default of name.
func Default(name string) (any, bool) {
	v, ok := defaults[key(name)]
	return v, ok
}

// Get returns the effective value of name coerced to the type of its
// default. Options without a default are returned as stored.
func (s *Store) Get(name string) any {
	name = key(name)
	if v, ok := s.cache.Get(name); ok {
		return v
	}

	raw, stored := s.backend.GetOpt(name)
	def, hasDefault := defaults[name]
	switch {
	case !stored && !hasDefault:
		return nil
	case !stored:
		raw = def
	case hasDefault:
		coerced, err := coerce(raw, def)
		if err != nil {
			log.Printf("options: %s=%v: %v, using default", name, raw, err)
			coerced = def
		}
		raw = coerced
	}
	s.cache.Add(name, raw)
	return raw
}

// String returns name as a string.
func (s *Store) String(name string) string {
	var out string
	s.decode(name, &out)
	return out
}

// Int returns name as an int.
func (s *Store) Int(name string) int {
	var out int
	s.decode(name, &out)
	return out
}

// Float returns name as a float64.
func (s *Store) Float(name string) float64 {
	var out float64
	s.decode(name, &out)
	return out
}

// Bool returns name as a bool. Numbers are true when non-zero.
func (s *Store) Bool(name string) bool {
	var out bool
	s.decode(name, &out)
	return out
}

// Strings returns name as a string list. A single string becomes a one
// element list.
func (s *Store) Strings(name string) []string {
	var out []string
	s.decode(name, &out)
	return out
}

func (s *Store) decode(name string, out any) {
	v := s.Get(name)
	if v == nil {
		return
	}
	if err := decodeInto(v, out); err != nil {
		log.Printf("options: %s as %T: %v", key(name), out, err)
	}
}

// Set stores value under name and notifies subscribers.
func (s *Store) Set(name string, value any) error {
	name = key(name)
	if def, ok := defaults[name]; ok {
		if _, err := coerce(value, def); err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, name, err)
		}
	}
	s.backend.SetOpt(name, value)
	s.cache.Remove(name)
	s.notify(name)
	return nil
}

// Exists reports whether name is stored in the document rather than
// defaulted.
func (s *Store) Exists(name string) bool {
	_, ok := s.backend.GetOpt(key(name))
	return ok
}

// Reset removes the stored value of name so its default applies.
func (s *Store) Reset(name string) {
	name = key(name)
	s.backend.DelOpt(name)
	s.cache.Remove(name)
	s.notify(name)
}

// ResetAll removes the stored value of every option with a default.
func (s *Store) ResetAll() {
	for name := range defaults {
		s.backend.DelOpt(name)
	}
	s.cache.Purge()
	s.notify("")
}

// Invalidate drops cached values after the backing document was replaced.
func (s *Store) Invalidate() {
	s.cache.Purge()
	s.notify("")
}

// Subscribe registers fn to be called after an option changes. The name is
// empty when every option may have changed.
func (s *Store) Subscribe(fn func(name string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(name string) {
	s.mu.Lock()
	subs := append([]func(string){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(name)
	}
}

// Snapshot returns every known option as typed fields.
func (s *Store) Snapshot() Options {
	values := make(map[string]any, len(defaults))
	for name := range defaults {
		values[name] = s.Get(name)
	}
	var out Options
	if err := decodeInto(values, &out); err != nil {
		log.Printf("options: snapshot: %v", err)
	}
	return out
}

func coerce(raw, like any) (any, error) {
	target := reflect.New(reflect.TypeOf(like))
	if err := decodeInto(raw, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}

func decodeInto(raw, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

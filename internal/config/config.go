package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/example/quickcliq/internal/command"
	"github.com/example/quickcliq/internal/hotkey"
)

const (
	configDirName  = "QuickCliq"
	configFileName = "qc_conf.json"

	// Version is stamped into newly created documents.
	Version = "3.0.0"

	// Inherit marks a color taken from the enclosing menu or the defaults.
	Inherit = -1

	// DefaultMenuName names the root menu of a fresh document.
	DefaultMenuName = "main"
)

// MenuItem is one node of the menu tree.
type MenuItem struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Icon        string      `json:"icon,omitempty"`
	Hotkey      string      `json:"hotkey,omitempty"`
	Bold        bool        `json:"bold,omitempty"`
	IsSeparator bool        `json:"isSeparator,omitempty"`
	IsMenu      bool        `json:"isMenu,omitempty"`
	Autorun     bool        `json:"autorun,omitempty"`
	TextColor   int         `json:"textColor"`
	BgColor     int         `json:"bgColor"`
	Commands    []string    `json:"commands,omitempty"`
	Children    []*MenuItem `json:"children,omitempty"`
}

// UnmarshalJSON decodes an item, leaving absent colors as Inherit.
func (m *MenuItem) UnmarshalJSON(data []byte) error {
	type plain MenuItem
	item := plain{TextColor: Inherit, BgColor: Inherit}
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*m = MenuItem(item)
	return nil
}

// CommandString packs the commands into one string using divider.
func (m *MenuItem) CommandString(divider string) string {
	return command.Join(m.Commands, divider)
}

// SetCommandString replaces the commands with the pieces of s.
func (m *MenuItem) SetCommandString(s, divider string) {
	m.Commands = command.Split(s, divider)
}

// MenuConfig is the root of the menu tree.
type MenuConfig struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	TextColor int         `json:"textColor"`
	BgColor   int         `json:"bgColor"`
	Items     []*MenuItem `json:"items"`
}

// UnmarshalJSON decodes a menu, leaving absent colors as Inherit.
func (m *MenuConfig) UnmarshalJSON(data []byte) error {
	type plain MenuConfig
	menu := plain{Name: DefaultMenuName, TextColor: Inherit, BgColor: Inherit}
	if err := json.Unmarshal(data, &menu); err != nil {
		return err
	}
	*m = MenuConfig(menu)
	return nil
}

// Walk visits every item depth first until fn returns false.
func (m *MenuConfig) Walk(fn func(item *MenuItem) bool) {
	walk(m.Items, fn)
}

func walk(items []*MenuItem, fn func(item *MenuItem) bool) bool {
	for _, item := range items {
		if item == nil {
			continue
		}
		if !fn(item) {
			return false
		}
		if !walk(item.Children, fn) {
			return false
		}
	}
	return true
}

// HiddenWindow records a window hidden by the user.
type HiddenWindow struct {
	Hwnd      int  `json:"hwnd"`
	IsTopmost bool `json:"isTopmost"`
}

// Config represents the persisted configuration file.
type Config struct {
	Version       string         `json:"version"`
	LastID        int            `json:"lastId"`
	Menu          MenuConfig     `json:"menu"`
	Settings      map[string]any `json:"settings"`
	HiddenWindows []HiddenWindow `json:"hiddenWindows"`
}

// New returns an empty document.
func New() *Config {
	return &Config{
		Version: Version,
		Menu: MenuConfig{
			Name:      DefaultMenuName,
			TextColor: Inherit,
			BgColor:   Inherit,
			Items:     []*MenuItem{},
		},
		Settings:      map[string]any{},
		HiddenWindows: []HiddenWindow{},
	}
}

// Decode parses a document, filling nil collections.
func Decode(data []byte) (*Config, error) {
	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Menu.Items == nil {
		cfg.Menu.Items = []*MenuItem{}
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]any{}
	}
	if cfg.HiddenWindows == nil {
		cfg.HiddenWindows = []HiddenWindow{}
	}
	return cfg, nil
}

// Validate reports structural problems of the menu tree and an id counter
// that lags behind the items.
func (c *Config) Validate() error {
	errs := c.Menu.Validate()
	if maxID := c.Menu.MaxID(); maxID > c.LastID {
		errs = multierr.Append(errs, fmt.Errorf("lastId %d is below item id %d", c.LastID, maxID))
	}
	return errs
}

// Validate reports structural problems of the menu tree.
func (m *MenuConfig) Validate() error {
	var errs error
	seen := make(map[int]bool)
	m.Walk(func(item *MenuItem) bool {
		label := fmt.Sprintf("item %d (%q)", item.ID, item.Name)
		if seen[item.ID] {
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate id", label))
		}
		seen[item.ID] = true
		switch {
		case item.IsSeparator && (len(item.Commands) > 0 || len(item.Children) > 0):
			errs = multierr.Append(errs, fmt.Errorf("%s: separator with content", label))
		case !item.IsMenu && len(item.Children) > 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: children on a non-menu item", label))
		case item.IsMenu && len(item.Commands) > 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: submenu with commands", label))
		}
		if item.Hotkey != "" {
			if _, err := hotkey.Parse(item.Hotkey); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", label, err))
			}
		}
		return true
	})
	return errs
}

// MaxID returns the largest item id in the tree.
func (m *MenuConfig) MaxID() int {
	maxID := 0
	m.Walk(func(item *MenuItem) bool {
		if item.ID > maxID {
			maxID = item.ID
		}
		return true
	})
	return maxID
}

// Path returns the resolved configuration file path.
func Path() (string, error) {
	if custom := os.Getenv("QUICKCLIQ_CONFIG_PATH"); custom != "" {
		if err := os.MkdirAll(filepath.Dir(custom), 0o700); err != nil {
			return "", fmt.Errorf("ensure custom config directory: %w", err)
		}
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}

	dir := filepath.Join(base, configDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure config directory: %w", err)
	}

	return filepath.Join(dir, configFileName), nil
}

package menu

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/example/quickcliq/internal/config"
)

// LoadFile reads a standalone menu. The format follows the extension
// (.toml, .yaml/.yml, anything else JSON). The file may hold either a bare
// menu or a whole configuration document, in which case its menu is used.
func LoadFile(path string) (*config.MenuConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse menu file %s: %w", path, err)
	}

	if inner, ok := doc["menu"].(map[string]any); ok {
		doc = inner
	}

	// Round trip through JSON so every format shares the field names and
	// the inherit defaults of the configuration document.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize menu file %s: %w", path, err)
	}
	var menu config.MenuConfig
	if err := json.Unmarshal(normalized, &menu); err != nil {
		return nil, fmt.Errorf("decode menu file %s: %w", path, err)
	}
	if menu.Name == "" || menu.Name == config.DefaultMenuName {
		menu.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &menu, nil
}

// StandaloneKey is the cache key of a standalone menu file.
func StandaloneKey(path string) string {
	return "file:" + filepath.Clean(path)
}

package menu

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/example/quickcliq/internal/config"
)

// Match is one search hit.
type Match struct {
	Item  *Item
	Path  string
	Score int
}

type matches []Match

func (m matches) String(i int) string { return m[i].Path }
func (m matches) Len() int            { return len(m) }

// Search fuzzy-matches query against the path of every selectable entry.
// An empty query returns every entry in menu order.
func Search(tree *Tree, query string) []Match {
	var all matches
	tree.Walk(func(item *Item, path []string) {
		if item.Separator || item.Submenu != nil {
			return
		}
		parts := append(append(make([]string, 0, len(path)+1), path...), item.Name)
		all = append(all, Match{Item: item, Path: strings.Join(parts, " > ")})
	})

	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}

	found := fuzzy.FindFrom(query, all)
	out := make([]Match, 0, len(found))
	for _, f := range found {
		m := all[f.Index]
		m.Score = f.Score
		out = append(out, m)
	}
	return out
}

// Autorun returns the runnable items flagged to start with the application,
// in menu order.
func Autorun(cfg *config.MenuConfig) []*config.MenuItem {
	return collect(cfg, func(item *config.MenuItem) bool {
		return item.Autorun && runnable(item)
	})
}

// Hotkeyed returns the runnable items carrying their own hotkey.
func Hotkeyed(cfg *config.MenuConfig) []*config.MenuItem {
	return collect(cfg, func(item *config.MenuItem) bool {
		return strings.TrimSpace(item.Hotkey) != "" && runnable(item)
	})
}

func runnable(item *config.MenuItem) bool {
	return !item.IsSeparator && !item.IsMenu && len(item.Commands) > 0
}

func collect(cfg *config.MenuConfig, keep func(*config.MenuItem) bool) []*config.MenuItem {
	if cfg == nil {
		return nil
	}
	var out []*config.MenuItem
	cfg.Walk(func(item *config.MenuItem) bool {
		if keep(item) {
			out = append(out, item)
		}
		return true
	})
	return out
}

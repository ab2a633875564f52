// Package menu turns the configured menu tree into renderer-independent
// popup menus and correlates selections back to their source items.
package menu

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/quickcliq/internal/config"
	"github.com/example/quickcliq/internal/logging"
)

// Fixed colors used when neither the menu nor the options set one.
const (
	DefaultTextColor = 0x000000
	DefaultBgColor   = 0xF0F0F0
)

// Uids of the items the builder appends to the main menu.
const (
	EditorUID  = "QCEditor"
	SuspendUID = "HK_Susp"

	folderUIDPrefix = "FolderMenu_"
)

// MainKey is the cache key of the main menu.
const MainKey = "main"

const cacheSize = 32

// Appearance holds the resolved rendering knobs of one (sub)menu.
type Appearance struct {
	TextColor int
	BgColor   int
	IconSize  int
	FontName  string
	FontSize  int
	Margin    int
}

// DefaultAppearance returns the knobs used before options are applied.
func DefaultAppearance() Appearance {
	return Appearance{
		TextColor: config.Inherit,
		BgColor:   config.Inherit,
		IconSize:  16,
		FontName:  "Segoe UI",
		FontSize:  9,
		Margin:    4,
	}
}

// Params configures a Builder. Base colors may be config.Inherit, in which
// case the fixed defaults apply.
type Params struct {
	Base        Appearance
	EditorItem  bool
	SuspendItem bool
	Suspended   bool
}

// Item is one built menu entry.
type Item struct {
	Name      string
	Uid       string
	Icon      string
	Hotkey    string
	Bold      bool
	Separator bool
	Disabled  bool
	TextColor int
	BgColor   int
	Submenu   *Submenu
	// Tag is the originating *config.MenuItem for configured entries.
	Tag any
}

// Source returns the configured item behind a built entry, if any.
func (i *Item) Source() *config.MenuItem {
	src, _ := i.Tag.(*config.MenuItem)
	return src
}

// IsFolderMenu reports whether the entry was declared with a trailing "*".
func (i *Item) IsFolderMenu() bool {
	return strings.HasPrefix(i.Uid, folderUIDPrefix)
}

// Submenu is a built (sub)menu.
type Submenu struct {
	Name       string
	Appearance *Appearance
	Items      []*Item
}

// Tree is the result of one build. Its Session resolves selections.
type Tree struct {
	Root    *Submenu
	Session *Session
	Built   time.Time
	// Suspended mirrors Params.Suspended at build time.
	Suspended bool
}

// Walk visits every entry depth first with its submenu path.
func (t *Tree) Walk(fn func(item *Item, path []string)) {
	walkSubmenu(t.Root, nil, fn)
}

func walkSubmenu(menu *Submenu, path []string, fn func(*Item, []string)) {
	if menu == nil {
		return
	}
	for _, item := range menu.Items {
		fn(item, path)
		if item.Submenu != nil {
			walkSubmenu(item.Submenu, append(append([]string{}, path...), item.Name), fn)
		}
	}
}

// Builder builds menu trees and caches them until RebuildAll.
type Builder struct {
	mu     sync.Mutex
	params Params
	cache  *lru.Cache[string, *Tree]
}

// NewBuilder returns a Builder using p.
func NewBuilder(p Params) *Builder {
	cache, err := lru.New[string, *Tree](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("menu: create cache: %v", err))
	}
	return &Builder{params: p, cache: cache}
}

// Params returns the current parameters.
func (b *Builder) Params() Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

// SetParams replaces the parameters and drops every cached tree.
func (b *Builder) SetParams(p Params) {
	b.mu.Lock()
	b.params = p
	b.mu.Unlock()
	b.RebuildAll()
}

// RebuildAll drops every cached tree so the next Get builds afresh.
func (b *Builder) RebuildAll() {
	b.cache.Purge()
	logging.Debugf("menu: cache purged")
}

// Invalidate drops the cached tree stored under key.
func (b *Builder) Invalidate(key string) {
	b.cache.Remove(key)
}

// Get returns the tree cached under key, building it from cfg on a miss.
// The main menu (MainKey) also carries the editor and suspend entries.
func (b *Builder) Get(key string, cfg *config.MenuConfig) *Tree {
	if tree, ok := b.cache.Get(key); ok {
		return tree
	}
	tree := b.Build(cfg, nil)
	if key == MainKey {
		b.appendSystemItems(tree)
	}
	b.cache.Add(key, tree)
	return tree
}

// Build converts cfg into a tree. parent is the resolved appearance of the
// enclosing menu, nil at the top level.
func (b *Builder) Build(cfg *config.MenuConfig, parent *Appearance) *Tree {
	p := b.Params()
	session := NewSession()
	if cfg == nil {
		cfg = &config.MenuConfig{TextColor: config.Inherit, BgColor: config.Inherit}
	}

	root := &Submenu{
		Name:       cfg.Name,
		Appearance: resolve(cfg.TextColor, cfg.BgColor, parent, p.Base),
	}
	b.fill(session, root, cfg.Items, p.Base)
	logging.Debugf("menu: built %q with %d entries (session %s)", cfg.Name, session.Len(), session.ID())
	return &Tree{Root: root, Session: session, Built: time.Now(), Suspended: p.Suspended}
}

func (b *Builder) fill(session *Session, menu *Submenu, items []*config.MenuItem, base Appearance) {
	for _, src := range items {
		if src == nil {
			continue
		}
		if src.IsSeparator {
			menu.Items = append(menu.Items, &Item{Separator: true})
			continue
		}

		item := &Item{
			Name:      src.Name,
			Uid:       strconv.Itoa(src.ID),
			Icon:      src.Icon,
			Hotkey:    src.Hotkey,
			Bold:      src.Bold,
			TextColor: inherit(src.TextColor, menu.Appearance.TextColor),
			BgColor:   inherit(src.BgColor, menu.Appearance.BgColor),
			Tag:       src,
		}

		switch {
		case src.IsMenu:
			sub := &Submenu{
				Name:       src.Name,
				Appearance: resolve(src.TextColor, src.BgColor, menu.Appearance, base),
			}
			b.fill(session, sub, src.Children, base)
			item.Submenu = sub
		case strings.HasSuffix(src.Name, "*"):
			item.Name = strings.TrimSpace(strings.TrimSuffix(src.Name, "*"))
			item.Uid = folderUIDPrefix + strconv.Itoa(src.ID)
			item.Disabled = len(src.Commands) == 0
		default:
			item.Disabled = len(src.Commands) == 0
		}

		session.add(item)
		menu.Items = append(menu.Items, item)
	}
}

func (b *Builder) appendSystemItems(tree *Tree) {
	p := b.Params()
	if !p.EditorItem && !p.SuspendItem {
		return
	}
	root := tree.Root
	text, bg := root.Appearance.TextColor, root.Appearance.BgColor
	root.Items = append(root.Items, &Item{Separator: true})

	if p.EditorItem {
		item := &Item{
			Name:      "Open Editor",
			Uid:       EditorUID,
			Bold:      true,
			TextColor: text,
			BgColor:   bg,
			Tag: &config.MenuItem{
				ID:        -1,
				Name:      "Open Editor",
				TextColor: config.Inherit,
				BgColor:   config.Inherit,
				Commands:  []string{"EDITOR"},
			},
		}
		tree.Session.add(item)
		root.Items = append(root.Items, item)
	}
	if p.SuspendItem {
		name := "Hotkeys: Turn OFF"
		if p.Suspended {
			name = "Hotkeys: Turn ON"
		}
		item := &Item{Name: name, Uid: SuspendUID, TextColor: text, BgColor: bg}
		tree.Session.add(item)
		root.Items = append(root.Items, item)
	}
}

// resolve applies the inheritance rule of a menu boundary. Both colors
// inherited reuses parent itself; one inherited copies only that color;
// none inherited builds a fresh appearance from the node's values. Without a
// parent, inherited colors fall back to the base and then the fixed defaults.
func resolve(text, bg int, parent *Appearance, base Appearance) *Appearance {
	if parent == nil {
		a := base
		a.TextColor = inherit(text, inherit(base.TextColor, DefaultTextColor))
		a.BgColor = inherit(bg, inherit(base.BgColor, DefaultBgColor))
		return &a
	}

	textInherited, bgInherited := text < 0, bg < 0
	switch {
	case textInherited && bgInherited:
		return parent
	case textInherited || bgInherited:
		a := *parent
		a.TextColor = inherit(text, parent.TextColor)
		a.BgColor = inherit(bg, parent.BgColor)
		return &a
	default:
		a := base
		a.TextColor = text
		a.BgColor = bg
		return &a
	}
}

func inherit(own, fallback int) int {
	if own < 0 {
		return fallback
	}
	return own
}

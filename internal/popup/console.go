// Package popup renders built menus in the terminal.
package popup

import (
	"context"
	"errors"
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/example/quickcliq/internal/menu"
)

const upLabel = ".."

// Finder picks one of labels. It returns fuzzyfinder.ErrAbort when the
// user cancels.
type Finder func(ctx context.Context, labels []string, prompt string) (int, error)

// Console is a menu.Popup backed by a fuzzy finder.
type Console struct {
	// Flat lists every runnable entry by its full path instead of
	// descending one submenu at a time.
	Flat   bool
	Finder Finder
	// Attach makes a terminal available for one Show and returns the
	// function that gives it back.
	Attach func() (release func(), err error)
}

// NewConsole returns a Console using go-fuzzyfinder. When the process has
// no console, one is allocated for the duration of each Show.
func NewConsole(flat bool) *Console {
	return &Console{Flat: flat, Finder: fuzzyFind, Attach: attachTerminal}
}

func fuzzyFind(ctx context.Context, labels []string, prompt string) (int, error) {
	return fuzzyfinder.Find(labels, func(i int) string { return labels[i] },
		fuzzyfinder.WithPromptString(prompt),
		fuzzyfinder.WithContext(ctx),
	)
}

// Show implements menu.Popup. Cancelling at the top level dismisses the
// menu; inside a submenu it returns to the parent.
func (c *Console) Show(ctx context.Context, tree *menu.Tree, _ menu.Point) (*menu.Result, error) {
	if tree == nil || tree.Root == nil {
		return nil, nil
	}
	if c.Attach != nil {
		release, err := c.Attach()
		if err != nil {
			return nil, fmt.Errorf("popup: attach console: %w", err)
		}
		defer release()
	}
	if c.Flat {
		return c.showFlat(ctx, tree)
	}

	stack := []*menu.Submenu{tree.Root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := stack[len(stack)-1]
		labels, items := level(current, len(stack) > 1)
		if len(labels) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		idx, err := c.Finder(ctx, labels, current.Name+"> ")
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			stack = stack[:len(stack)-1]
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("popup: %w", err)
		}

		item := items[idx]
		switch {
		case item == nil:
			stack = stack[:len(stack)-1]
		case item.Submenu != nil:
			stack = append(stack, item.Submenu)
		case item.Disabled:
		default:
			return &menu.Result{Uid: item.Uid, Tag: item.Tag}, nil
		}
	}
	return nil, nil
}

func (c *Console) showFlat(ctx context.Context, tree *menu.Tree) (*menu.Result, error) {
	var labels []string
	var items []*menu.Item
	for _, m := range menu.Search(tree, "") {
		if m.Item.Disabled {
			continue
		}
		labels = append(labels, m.Path)
		items = append(items, m.Item)
	}
	if len(labels) == 0 {
		return nil, nil
	}
	idx, err := c.Finder(ctx, labels, tree.Root.Name+"> ")
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("popup: %w", err)
	}
	return &menu.Result{Uid: items[idx].Uid, Tag: items[idx].Tag}, nil
}

// level lists the selectable entries of sub. A nil item stands for the
// entry leading back to the parent.
func level(sub *menu.Submenu, nested bool) ([]string, []*menu.Item) {
	var labels []string
	var items []*menu.Item
	if nested {
		labels = append(labels, upLabel)
		items = append(items, nil)
	}
	for _, item := range sub.Items {
		if item.Separator {
			continue
		}
		label := item.Name
		switch {
		case item.Submenu != nil:
			label += " >"
		case item.Disabled:
			label += " (disabled)"
		case item.Hotkey != "":
			label += "  [" + item.Hotkey + "]"
		}
		labels = append(labels, label)
		items = append(items, item)
	}
	if nested && len(items) == 1 {
		return nil, nil
	}
	return labels, items
}

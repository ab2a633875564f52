//go:build cgo || windows
// +build cgo windows

package tray

import (
	"context"
	"log"
	"sync"

	"github.com/getlantern/systray"
)

type systrayController struct {
	tray *Tray

	mu      sync.Mutex
	mirror  *systray.MenuItem
	entries []trayEntry
	suspend *systray.MenuItem
}

type trayEntry struct {
	item   *systray.MenuItem
	cancel context.CancelFunc
}

func newController(t *Tray) controller {
	return &systrayController{tray: t}
}

func (c *systrayController) Run(ctx context.Context, updates <-chan state) error {
	done := make(chan struct{})

	go systray.Run(func() {
		systray.SetIcon(c.tray.icon)
		setTemplateIcon(c.tray.icon)
		systray.SetTooltip(c.tray.tooltip)

		show := systray.AddMenuItem("Show menu", "Pop up the main menu")
		c.mirror = systray.AddMenuItem("Menu", "Items of the main menu")
		systray.AddSeparator()
		c.suspend = systray.AddMenuItemCheckbox("Suspend hotkeys", "Release every hotkey", false)
		editor := systray.AddMenuItem("Edit configuration", "Open the configuration file")
		reload := systray.AddMenuItem("Reload configuration", "Read the configuration file again")
		systray.AddSeparator()
		quit := systray.AddMenuItem("Exit", "Exit QuickCliq")

		go func() {
			for {
				select {
				case <-ctx.Done():
					systray.Quit()
					return
				case <-show.ClickedCh:
					c.tray.host.ShowMainMenu()
				case <-c.suspend.ClickedCh:
					c.tray.host.ToggleSuspend()
				case <-editor.ClickedCh:
					c.tray.host.OpenEditor()
				case <-reload.ClickedCh:
					c.tray.host.Reload()
				case <-quit.ClickedCh:
					log.Println("tray: exit requested")
					c.tray.onExit()
					systray.Quit()
					return
				}
			}
		}()

		c.render(ctx, c.tray.latest())
		go c.listen(ctx, updates)
	}, func() {
		c.shutdown()
		close(done)
	})

	select {
	case <-ctx.Done():
		systray.Quit()
		<-done
		return nil
	case <-done:
		return nil
	}
}

func (c *systrayController) listen(ctx context.Context, updates <-chan state) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			c.render(ctx, st)
		}
	}
}

func (c *systrayController) render(ctx context.Context, st state) {
	c.mu.Lock()
	old := c.entries
	c.entries = nil
	c.mu.Unlock()

	for _, e := range old {
		e.cancel()
		if e.item != nil {
			e.item.Hide()
		}
	}

	if st.Suspended {
		c.suspend.Check()
	} else {
		c.suspend.Uncheck()
	}

	if len(st.Entries) == 0 {
		c.mirror.Disable()
	} else {
		c.mirror.Enable()
	}
	entries := c.renderGroup(ctx, st.Entries, c.mirror)

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

func (c *systrayController) renderGroup(ctx context.Context, group []entry, parent *systray.MenuItem) []trayEntry {
	entries := make([]trayEntry, 0, len(group))
	for _, e := range group {
		entries = append(entries, c.addMenuItem(ctx, e, parent)...)
	}
	return entries
}

func (c *systrayController) addMenuItem(ctx context.Context, e entry, parent *systray.MenuItem) []trayEntry {
	switch {
	case e.Sep:
		mi := parent.AddSubMenuItem("----", "")
		mi.Disable()
		return []trayEntry{{item: mi, cancel: func() {}}}
	case e.isSubmenu():
		mi := parent.AddSubMenuItem(e.Label, e.Tooltip)
		ctxItem, cancel := context.WithCancel(ctx)
		go drainClicks(ctxItem, mi.ClickedCh)
		entries := []trayEntry{{item: mi, cancel: cancel}}
		return append(entries, c.renderGroup(ctx, e.Children, mi)...)
	default:
		mi := parent.AddSubMenuItem(e.Label, e.Tooltip)
		if e.Disabled || e.ItemID <= 0 {
			mi.Disable()
		}
		ctxItem, cancel := context.WithCancel(ctx)
		go func(ch <-chan struct{}, e entry) {
			for {
				select {
				case <-ctxItem.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					c.tray.click(e)
				}
			}
		}(mi.ClickedCh, e)
		return []trayEntry{{item: mi, cancel: cancel}}
	}
}

func drainClicks(ctx context.Context, ch <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
		}
	}
}

func (c *systrayController) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.cancel()
	}
	c.entries = nil
}

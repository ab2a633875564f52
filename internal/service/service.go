// Package service owns the single dispatch loop of the running instance.
// Hotkey notifications, forwarded command lines and tray clicks are posted
// to it as closures so menu state and the id counter are only touched from
// one goroutine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/example/quickcliq/internal/config"
	"github.com/example/quickcliq/internal/executor"
	"github.com/example/quickcliq/internal/hotkey"
	"github.com/example/quickcliq/internal/ipc"
	"github.com/example/quickcliq/internal/logging"
	"github.com/example/quickcliq/internal/menu"
	"github.com/example/quickcliq/internal/options"
	"github.com/example/quickcliq/internal/pathutil"
)

const (
	appName    = "QuickCliq"
	actionsCap = 64
)

// ErrStopped is returned when work is posted to a loop that has exited.
var ErrStopped = errors.New("service: dispatch loop stopped")

// Runner executes invocations in the background.
type Runner interface {
	Go(ctx context.Context, inv executor.Invocation)
	Reconfigure(cfg executor.Config)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(title, message string)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store    *config.Store
	Options  *options.Store
	Builder  *menu.Builder
	Runner   Runner
	Hotkeys  *hotkey.Manager
	Popup    menu.Popup
	Launcher executor.Launcher
	Notifier Notifier
	// HotkeyEvents delivers backend notifications for Hotkeys.
	HotkeyEvents <-chan int
	// Modifiers reads the keyboard state when a popup does not report it.
	Modifiers func() executor.Modifiers
}

// Service is the application's dispatch loop.
type Service struct {
	deps   Deps
	router *ipc.Router

	actions chan func()
	done    chan struct{}
	runOnce sync.Once
	ctx     context.Context

	// Owned by the loop goroutine.
	suspended  bool
	standalone map[string]*config.MenuConfig

	mu        sync.RWMutex
	listeners []func(*menu.Tree)
}

// New wires a Service. Run must be called to start dispatching.
func New(d Deps) (*Service, error) {
	if d.Store == nil || d.Options == nil || d.Builder == nil || d.Runner == nil || d.Hotkeys == nil {
		return nil, errors.New("service: store, options, builder, runner and hotkeys are required")
	}
	if d.Modifiers == nil {
		d.Modifiers = func() executor.Modifiers { return executor.Modifiers{} }
	}
	if d.Notifier == nil {
		d.Notifier = logNotifier{}
	}

	s := &Service{
		deps:       d,
		router:     ipc.NewRouter(),
		actions:    make(chan func(), actionsCap),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		standalone: make(map[string]*config.MenuConfig),
	}
	s.router.OnAddShortcut(func(path string) {
		if err := s.addShortcut(path); err != nil {
			s.fail("Add shortcut", err)
		}
	})
	s.router.OnStandaloneMenu(s.showStandalone)
	s.router.OnUnknown(func(raw string) {
		log.Printf("service: ignoring unknown command line %s", logging.Summarize(raw, 120))
	})
	d.Options.Subscribe(func(name string) {
		s.post(func() { s.optionChanged(name) })
	})
	return s, nil
}

// Run dispatches posted work and hotkey notifications until ctx is done.
// Hotkeys are registered and autorun items started before the first event.
func (s *Service) Run(ctx context.Context) error {
	started := false
	s.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("service: already running")
	}
	s.ctx = ctx
	defer close(s.done)
	defer func() {
		if err := s.deps.Hotkeys.Close(); err != nil {
			log.Printf("service: release hotkeys: %v", err)
		}
	}()

	s.applyParams()
	s.reloadHotkeys()
	s.autorun()
	s.publish()
	log.Printf("service: dispatch loop running")

	events := s.deps.HotkeyEvents
	for {
		select {
		case <-ctx.Done():
			log.Println("service: shutting down")
			return nil
		case fn := <-s.actions:
			fn()
		case id, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.deps.Hotkeys.Dispatch(id)
		}
	}
}

// post queues fn on the loop without waiting for it.
func (s *Service) post(fn func()) bool {
	select {
	case s.actions <- fn:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Service) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !s.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleMessage routes one forwarded command line on the loop and returns
// once its handlers have completed.
func (s *Service) HandleMessage(msg string) {
	if err := s.do(context.Background(), func() { s.router.Route(msg) }); err != nil {
		logging.Debugf("service: drop message: %v", err)
	}
}

// OnMenuChanged registers fn to receive the main tree after every rebuild.
// fn runs on the loop goroutine.
func (s *Service) OnMenuChanged(fn func(*menu.Tree)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// ShowMainMenu pops up the main menu.
func (s *Service) ShowMainMenu() {
	s.post(s.showMainMenu)
}

// ShowStandalone pops up the menu stored in path. With update set the file
// is read again instead of using the cached tree.
func (s *Service) ShowStandalone(path string, update bool) {
	s.post(func() { s.showStandalone(path, update) })
}

// AddShortcut appends an item launching path to the main menu and saves.
func (s *Service) AddShortcut(ctx context.Context, path string) error {
	var err error
	if derr := s.do(ctx, func() { err = s.addShortcut(path) }); derr != nil {
		return derr
	}
	return err
}

// RunItem executes the item with the given id.
func (s *Service) RunItem(id int, mods executor.Modifiers) {
	s.post(func() { s.runItem(id, mods) })
}

// SuspendHotkeys releases or restores every hotkey.
func (s *Service) SuspendHotkeys(suspend bool) {
	s.post(func() { s.setSuspended(suspend) })
}

// ToggleSuspend flips the suspended state.
func (s *Service) ToggleSuspend() {
	s.post(func() { s.setSuspended(!s.suspended) })
}

// Suspended reports whether hotkeys are suspended.
func (s *Service) Suspended(ctx context.Context) (bool, error) {
	var out bool
	err := s.do(ctx, func() { out = s.suspended })
	return out, err
}

// ReloadHotkeys registers the main hotkey and every per-item hotkey again.
func (s *Service) ReloadHotkeys() {
	s.post(s.reloadHotkeys)
}

// Reload re-reads the configuration file and rebuilds everything derived
// from it.
func (s *Service) Reload() {
	s.post(s.reload)
}

// OpenEditor opens the configuration document in the associated editor.
func (s *Service) OpenEditor() {
	s.post(s.openEditor)
}

// CustomHotkeys shows the hotkey table.
func (s *Service) CustomHotkeys() {
	s.post(s.showHotkeys)
}

func (s *Service) showMainMenu() {
	tree := s.deps.Builder.Get(menu.MainKey, s.deps.Store.Menu())
	s.show(tree)
}

func (s *Service) showStandalone(path string, update bool) {
	path = filepath.Clean(strings.Trim(path, `"`))
	key := menu.StandaloneKey(path)

	cfg, ok := s.standalone[key]
	if update || !ok {
		loaded, err := menu.LoadFile(path)
		if err != nil {
			s.fail("Standalone menu", err)
			return
		}
		if err := loaded.Validate(); err != nil {
			log.Printf("service: standalone menu %s: %v", path, err)
		}
		cfg = loaded
		s.standalone[key] = cfg
		s.deps.Builder.Invalidate(key)
	}
	s.show(s.deps.Builder.Get(key, cfg))
}

func (s *Service) show(tree *menu.Tree) {
	if s.deps.Popup == nil {
		log.Printf("service: no popup renderer for %q", tree.Root.Name)
		return
	}
	res, err := s.deps.Popup.Show(s.ctx, tree, menu.Point{})
	if err != nil {
		s.fail("Show menu", err)
		return
	}
	if res == nil || res.Submenu {
		return
	}
	s.handleResult(tree, res)
}

func (s *Service) handleResult(tree *menu.Tree, res *menu.Result) {
	item, ok := tree.Session.Resolve(res.Uid)
	if !ok {
		log.Printf("service: selection %q is not part of session %s", res.Uid, tree.Session.ID())
		return
	}
	switch item.Uid {
	case menu.EditorUID:
		s.openEditor()
		return
	case menu.SuspendUID:
		s.setSuspended(!s.suspended)
		return
	}

	src := item.Source()
	if src == nil {
		return
	}
	mods := res.Modifiers
	if mods == (executor.Modifiers{}) {
		mods = s.deps.Modifiers()
	}
	s.execute(src, mods)
}

func (s *Service) runItem(id int, mods executor.Modifiers) {
	item := s.deps.Store.Item(id)
	if item == nil {
		log.Printf("service: no item with id %d", id)
		return
	}
	s.execute(item, mods)
}

func (s *Service) execute(item *config.MenuItem, mods executor.Modifiers) {
	if item.IsSeparator || item.IsMenu || len(item.Commands) == 0 {
		return
	}
	logging.Debugf("service: running %q (%d command(s))", item.Name, len(item.Commands))
	s.deps.Runner.Go(s.ctx, executor.Invocation{
		Name:      item.Name,
		Commands:  append([]string(nil), item.Commands...),
		Modifiers: mods,
	})
}

func (s *Service) addShortcut(path string) error {
	path = strings.TrimSpace(strings.Trim(strings.TrimSpace(path), `"`))
	if path == "" {
		return errors.New("empty shortcut path")
	}

	item := s.deps.Store.CreateItem(nil, nil)
	item.Name = shortcutName(path)
	item.Commands = []string{pathutil.Quote(path)}
	if err := s.deps.Store.Save(); err != nil {
		return fmt.Errorf("save shortcut %q: %w", item.Name, err)
	}
	log.Printf("service: added shortcut %q (id %d)", item.Name, item.ID)
	s.deps.Builder.Invalidate(menu.MainKey)
	s.publish()
	return nil
}

// shortcutName is the file name without extension, or the last path
// element for folders and URLs.
func shortcutName(path string) string {
	trimmed := strings.TrimRight(path, `\/`)
	base := trimmed
	if i := strings.LastIndexAny(trimmed, `\/`); i >= 0 {
		base = trimmed[i+1:]
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return path
	}
	return base
}

func (s *Service) setSuspended(suspend bool) {
	if err := s.deps.Hotkeys.SetAllEnabled(!suspend); err != nil {
		s.fail("Hotkeys", err)
	}
	s.suspended = suspend
	log.Printf("service: hotkeys suspended=%t", suspend)
	s.applyParams()
	s.publish()
}

func (s *Service) reloadHotkeys() {
	for _, reg := range s.deps.Hotkeys.Registrations() {
		if err := s.deps.Hotkeys.Unregister(reg.Hotkey); err != nil {
			logging.Debugf("service: unregister %s: %v", reg.Hotkey, err)
		}
	}

	var errs error
	main := s.deps.Options.String(options.MainHotkey)
	if strings.TrimSpace(main) == "" {
		main = hotkey.DefaultMain
	}
	if _, err := s.deps.Hotkeys.Register(main, s.showMainMenu); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("main menu: %w", err))
	}

	for _, item := range menu.Hotkeyed(s.deps.Store.Menu()) {
		id := item.ID
		if _, err := s.deps.Hotkeys.Register(item.Hotkey, func() { s.runItem(id, s.deps.Modifiers()) }); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", item.Name, err))
		}
	}

	if s.suspended {
		errs = multierr.Append(errs, s.deps.Hotkeys.SetAllEnabled(false))
	}
	if errs != nil {
		s.fail("Hotkeys", errs)
	}
}

func (s *Service) autorun() {
	for _, item := range menu.Autorun(s.deps.Store.Menu()) {
		log.Printf("service: autorun %q", item.Name)
		s.execute(item, executor.Modifiers{NoCtrlCopy: true})
	}
}

func (s *Service) reload() {
	if err := s.deps.Store.Reload(); err != nil {
		s.fail("Reload configuration", err)
		return
	}
	s.deps.Builder.RebuildAll()
	// Subscribers are notified and re-apply every option on the loop.
	s.deps.Options.Invalidate()
}

func (s *Service) optionChanged(name string) {
	logging.Debugf("service: option %q changed", name)
	opts := s.deps.Options.Snapshot()
	if opts.Debug {
		logging.EnableDebug()
	} else {
		logging.DisableDebug()
	}
	s.deps.Runner.Reconfigure(executor.Config{
		MaxConcurrent: opts.MaxConcurrent,
		Delay:         opts.Delay(),
		Divider:       opts.Divider,
		CtrlCopy:      opts.CtrlCopy,
	})
	s.applyParams()
	if name == "" || name == options.MainHotkey {
		s.reloadHotkeys()
	}
	if name != "" {
		if err := s.deps.Store.Save(); err != nil {
			s.fail("Save options", err)
		}
	}
	s.publish()
}

// applyParams pushes appearance options and the suspended flag into the
// builder, which drops every cached tree.
func (s *Service) applyParams() {
	opts := s.deps.Options.Snapshot()
	s.deps.Builder.SetParams(menu.Params{
		Base: menu.Appearance{
			TextColor: opts.TextColor,
			BgColor:   opts.BgColor,
			IconSize:  opts.IconSize,
			FontName:  opts.FontName,
			FontSize:  opts.FontSize,
			Margin:    opts.Margin,
		},
		EditorItem:  opts.EditorItem,
		SuspendItem: opts.SuspendItem,
		Suspended:   s.suspended,
	})
}

func (s *Service) openEditor() {
	if s.deps.Launcher == nil {
		log.Printf("service: configuration is at %s", s.deps.Store.Path())
		return
	}
	if err := s.deps.Store.Save(); err != nil {
		s.fail("Open editor", err)
		return
	}
	if err := s.deps.Launcher.Launch(s.ctx, executor.LaunchRequest{
		Path:    s.deps.Store.Path(),
		WorkDir: s.deps.Store.DataDir(),
	}); err != nil {
		s.fail("Open editor", err)
	}
}

func (s *Service) showHotkeys() {
	regs := s.deps.Hotkeys.Registrations()
	var b strings.Builder
	for _, r := range regs {
		state := "on"
		if !r.Enabled || !r.Active {
			state = "off"
		}
		fmt.Fprintf(&b, "%s\t%s\n", r.Binding.Display(), state)
	}
	if b.Len() == 0 {
		b.WriteString("No hotkeys registered.")
	}
	s.deps.Notifier.Notify(appName+" hotkeys", strings.TrimRight(b.String(), "\n"))
}

func (s *Service) publish() {
	s.mu.RLock()
	listeners := append([]func(*menu.Tree){}, s.listeners...)
	s.mu.RUnlock()
	if len(listeners) == 0 {
		return
	}
	tree := s.deps.Builder.Get(menu.MainKey, s.deps.Store.Menu())
	for _, fn := range listeners {
		fn(tree)
	}
}

func (s *Service) fail(what string, err error) {
	log.Printf("service: %s: %v", strings.ToLower(what), err)
	lines := []string{what + " failed:"}
	for _, e := range multierr.Errors(err) {
		lines = append(lines, e.Error())
	}
	s.deps.Notifier.Notify(appName, strings.Join(lines, "\n"))
}

type logNotifier struct{}

func (logNotifier) Notify(title, message string) {
	log.Printf("%s: %s", title, message)
}

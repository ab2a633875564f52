// Package executor runs menu invocations: it splits stored commands, parses
// each elementary command and dispatches it to the process launcher or to the
// collaborator handling its special directive.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/example/quickcliq/internal/command"
	"github.com/example/quickcliq/internal/logging"
	"github.com/example/quickcliq/internal/pathutil"
)

const (
	DefaultMaxConcurrent = 8
	DefaultDelay         = 200 * time.Millisecond
	// MaxConcurrentLimit caps MaxConcurrent. The semaphore is sized to it and
	// the units above the configured limit are held in reserve.
	MaxConcurrentLimit = 1024
)

var (
	// ErrUnsupported is returned by collaborators with no implementation on
	// the current OS.
	ErrUnsupported = errors.New("executor: not supported on this platform")
	// ErrNothingToCopy is returned by copyto when the clipboard holds no paths.
	ErrNothingToCopy = errors.New("executor: clipboard holds no file paths")
)

// Modifiers carries the keyboard state captured when an item was selected.
type Modifiers struct {
	Ctrl  bool
	Shift bool
	// NoCtrlCopy disables the Ctrl copy-to-clipboard escape hatch.
	NoCtrlCopy bool
}

// Invocation is one end-to-end execution request.
type Invocation struct {
	Name      string
	Commands  []string
	Modifiers Modifiers
}

// Config tunes an Executor.
type Config struct {
	MaxConcurrent int
	Delay         time.Duration
	Divider       string
	CtrlCopy      bool
}

// DefaultConfig returns the stock executor settings.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: DefaultMaxConcurrent,
		Delay:         DefaultDelay,
		Divider:       command.DefaultDivider,
		CtrlCopy:      true,
	}
}

func (c Config) normalized() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.MaxConcurrent > MaxConcurrentLimit {
		c.MaxConcurrent = MaxConcurrentLimit
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.Divider == "" {
		c.Divider = command.DefaultDivider
	}
	return c
}

// Executor runs invocations under a counting semaphore.
type Executor struct {
	mu  sync.RWMutex
	cfg Config
	sem *semaphore.Weighted
	// reserved units of sem are held back from invocations; pending is a
	// reservation still queued behind running invocations. Guarded by mu.
	reserved int64
	pending  *reservation

	launcher  Launcher
	clipboard Clipboard
	clips     command.ClipSource
	windows   WindowManager
	files     FileOps
	folders   FolderChanger
	killer    ProcessKiller
	host      Host
	reporter  Reporter

	running atomic.Int32
	wg      sync.WaitGroup
}

// Option customises an Executor's collaborators.
type Option func(*Executor)

func WithLauncher(l Launcher) Option           { return func(e *Executor) { e.launcher = l } }
func WithClipboard(c Clipboard) Option         { return func(e *Executor) { e.clipboard = c } }
func WithClips(c command.ClipSource) Option    { return func(e *Executor) { e.clips = c } }
func WithWindowManager(w WindowManager) Option { return func(e *Executor) { e.windows = w } }
func WithFileOps(f FileOps) Option             { return func(e *Executor) { e.files = f } }
func WithFolderChanger(f FolderChanger) Option { return func(e *Executor) { e.folders = f } }
func WithProcessKiller(k ProcessKiller) Option { return func(e *Executor) { e.killer = k } }
func WithHost(h Host) Option                   { return func(e *Executor) { e.host = h } }
func WithReporter(r Reporter) Option           { return func(e *Executor) { e.reporter = r } }

// New constructs an Executor. Collaborators not supplied through options fall
// back to the platform implementations.
func New(cfg Config, opts ...Option) *Executor {
	cfg = cfg.normalized()
	e := &Executor{
		cfg: cfg,
		sem: semaphore.NewWeighted(MaxConcurrentLimit),
	}
	e.setLimit(cfg.MaxConcurrent)
	for _, opt := range opts {
		opt(e)
	}
	if e.launcher == nil {
		e.launcher = NewLauncher()
	}
	if e.clipboard == nil {
		e.clipboard = SystemClipboard{}
	}
	if e.clips == nil {
		e.clips = ClipSlots{Clipboard: e.clipboard}
	}
	if e.windows == nil {
		e.windows = NewWindowManager()
	}
	if e.files == nil {
		e.files = DiskFileOps{}
	}
	if e.folders == nil {
		e.folders = NewFolderChanger(e.launcher)
	}
	if e.killer == nil {
		e.killer = NewProcessKiller()
	}
	if e.host == nil {
		e.host = nopHost{}
	}
	if e.reporter == nil {
		e.reporter = logReporter{}
	}
	return e
}

// Reconfigure swaps the executor settings. A lower limit queues its
// reservation behind the running invocations, so new invocations wait until
// the running count is below the new limit.
func (e *Executor) Reconfigure(cfg Config) {
	cfg = cfg.normalized()
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.MaxConcurrent != e.cfg.MaxConcurrent {
		e.setLimit(cfg.MaxConcurrent)
	}
	e.cfg = cfg
	logging.Debugf("executor: reconfigured max=%d delay=%s divider=%q ctrlCopy=%t", cfg.MaxConcurrent, cfg.Delay, cfg.Divider, cfg.CtrlCopy)
}

type reservation struct {
	n        int64
	cancel   context.CancelFunc
	done     chan struct{}
	acquired bool
}

// setLimit moves the reserved units to MaxConcurrentLimit-limit. Called with
// mu held or before the executor is shared.
func (e *Executor) setLimit(limit int) {
	if p := e.pending; p != nil {
		p.cancel()
		<-p.done
		if p.acquired {
			e.reserved += p.n
		}
		e.pending = nil
	}

	want := int64(MaxConcurrentLimit - limit)
	switch {
	case want < e.reserved:
		e.sem.Release(e.reserved - want)
		e.reserved = want
	case want > e.reserved:
		n := want - e.reserved
		if e.sem.TryAcquire(n) {
			e.reserved = want
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		p := &reservation{n: n, cancel: cancel, done: make(chan struct{})}
		e.pending = p
		go func() {
			defer close(p.done)
			p.acquired = e.sem.Acquire(ctx, n) == nil
		}()
	}
}

// Config returns the active settings.
func (e *Executor) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Running reports how many invocations currently hold a slot.
func (e *Executor) Running() int {
	return int(e.running.Load())
}

// Go runs inv in the background and reports any aggregate failure through
// the Reporter once the invocation completes.
func (e *Executor) Go(ctx context.Context, inv Invocation) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.Execute(ctx, inv); err != nil {
			e.reporter.Report(inv.Name, err)
		}
	}()
}

// Wait blocks until every invocation started with Go has returned.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// Execute runs inv synchronously. Failures of individual commands do not stop
// the remaining ones; they are combined into the returned error.
func (e *Executor) Execute(ctx context.Context, inv Invocation) error {
	e.mu.RLock()
	cfg, sem := e.cfg, e.sem
	e.mu.RUnlock()

	cmds := command.SplitAll(inv.Commands, cfg.Divider)
	if len(cmds) == 0 {
		return nil
	}

	if inv.Modifiers.Ctrl && cfg.CtrlCopy && !inv.Modifiers.NoCtrlCopy {
		logging.Debugf("executor: copying %d command(s) of %q to clipboard", len(cmds), inv.Name)
		if err := e.clipboard.WriteAll(strings.Join(cmds, "\r\n")); err != nil {
			return fmt.Errorf("copy commands to clipboard: %w", err)
		}
		return nil
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for execution slot: %w", err)
	}
	defer sem.Release(1)
	e.running.Add(1)
	defer e.running.Add(-1)

	parser := command.Parser{Clips: e.clips}
	var errs error
	for i, raw := range cmds {
		if i > 0 {
			if err := sleep(ctx, cfg.Delay); err != nil {
				return multierr.Append(errs, err)
			}
		}
		parsed := parser.Parse(raw, inv.Modifiers.Shift)
		logging.Debugf("executor: %q command %d kind=%s repeat=%d verb=%q", inv.Name, i+1, parsed.Special, parsed.RepeatCount, parsed.Verb)
		if err := e.dispatch(ctx, parsed); err != nil {
			if ctx.Err() != nil {
				return multierr.Append(errs, ctx.Err())
			}
			errs = multierr.Append(errs, fmt.Errorf("command %d (%s): %w", i+1, raw, err))
		}
	}
	return errs
}

func (e *Executor) dispatch(ctx context.Context, p command.Parsed) error {
	switch p.Special {
	case command.KindNone:
		return e.launch(ctx, p)
	case command.KindWait:
		return sleep(ctx, p.Wait())
	case command.KindOpenEditor:
		e.host.OpenEditor()
		return nil
	case command.KindCustomHotkeys:
		e.host.CustomHotkeys()
		return nil
	case command.KindWindowCommand:
		return e.windows.Apply(p.Target)
	case command.KindCopyTo:
		text, err := e.clipboard.ReadAll()
		if err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
		sources := clipboardPaths(text)
		if len(sources) == 0 {
			return ErrNothingToCopy
		}
		return e.files.CopyTo(ctx, sources, pathutil.ExpandEnv(p.Target), p.Move, p.Overwrite)
	case command.KindChangeFolder:
		return e.folders.ChangeFolder(pathutil.ExpandEnv(p.Target))
	case command.KindKillProcess:
		return e.killer.Kill(p.Target)
	default:
		return fmt.Errorf("unhandled command kind %s", p.Special)
	}
}

func (e *Executor) launch(ctx context.Context, p command.Parsed) error {
	path, args, dir := pathutil.Split(pathutil.ExpandEnv(p.Command))
	if path == "" {
		return nil
	}
	req := LaunchRequest{
		Path:    path,
		Args:    args,
		WorkDir: dir,
		Verb:    p.Verb,
		Style:   p.WindowStyle,
	}
	var errs error
	for i := 0; i < p.RepeatCount; i++ {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := e.launcher.Launch(ctx, req); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func clipboardPaths(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Trim(strings.TrimSpace(line), `"`); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Summary renders an aggregate invocation error as one line per failure.
func Summary(name string, err error) string {
	errs := multierr.Errors(err)
	lines := make([]string, 0, len(errs)+1)
	if name != "" {
		lines = append(lines, fmt.Sprintf("%s: %d command(s) failed", name, len(errs)))
	}
	for _, e := range errs {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

type logReporter struct{}

func (logReporter) Report(name string, err error) {
	log.Printf("executor: %s", Summary(name, err))
}

type nopHost struct{}

func (nopHost) OpenEditor()    {}
func (nopHost) CustomHotkeys() {}

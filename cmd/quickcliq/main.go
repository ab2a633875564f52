package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/quickcliq/internal/autostart"
	"github.com/example/quickcliq/internal/config"
	"github.com/example/quickcliq/internal/executor"
	"github.com/example/quickcliq/internal/hotkey"
	"github.com/example/quickcliq/internal/ipc"
	"github.com/example/quickcliq/internal/logging"
	"github.com/example/quickcliq/internal/menu"
	"github.com/example/quickcliq/internal/notify"
	"github.com/example/quickcliq/internal/options"
	"github.com/example/quickcliq/internal/popup"
	"github.com/example/quickcliq/internal/protocol"
	"github.com/example/quickcliq/internal/service"
	"github.com/example/quickcliq/internal/tray"
)

const logFileName = "quickcliq.log"

var version = "dev"

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quickcliq [-a path | -sm file | -smupd file]",
		Short: "Hotkey driven launcher menu",
		Long: "QuickCliq shows a launcher menu on a global hotkey. Started while another\n" +
			"instance runs, it forwards its arguments to that instance and exits.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rest, flags, err := parseGlobalFlags(args)
			if err != nil {
				return err
			}
			if flags.help {
				return cmd.Help()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, rest, flags)
		},
	}
	root.PersistentFlags().Bool("debug", false, "enable verbose logging")
	root.AddCommand(newListCmd(), newValidateCmd(), newVersionCmd())
	return root
}

type globalFlags struct {
	debug   bool
	console bool
	help    bool
}

// parseGlobalFlags pulls the launcher's own switches out of the raw
// argument list. Everything else is forwarded untouched.
func parseGlobalFlags(args []string) ([]string, globalFlags, error) {
	var flags globalFlags
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			rest = append(rest, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		var target *bool
		switch strings.ToLower(name) {
		case "debug":
			target = &flags.debug
		case "console":
			target = &flags.console
		case "help":
			target = &flags.help
		default:
			rest = append(rest, arg)
			continue
		}
		*target = true
		if hasValue {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return nil, flags, fmt.Errorf("invalid value %q for --%s", value, name)
			}
			*target = parsed
		}
	}
	return rest, flags, nil
}

func run(ctx context.Context, args []string, flags globalFlags) error {
	if flags.debug {
		logging.EnableDebug()
	}
	path, err := config.Path()
	if err != nil {
		return err
	}
	if closer, err := logging.Setup(filepath.Join(filepath.Dir(path), logFileName)); err != nil {
		log.Printf("logging to stderr: %v", err)
	} else {
		defer closer.Close()
	}

	msg := protocol.JoinArgs(args)
	endpoint := ipc.DefaultEndpoint()

	var app *application
	server := ipc.NewServer(endpoint, func(m string) { app.svc.HandleMessage(m) })
	primary, err := becomePrimary(ctx, server, msg)
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}
	defer server.Stop()

	app, err = newApplication(path)
	if err != nil {
		return err
	}
	return app.run(ctx, server, msg)
}

// becomePrimary claims the endpoint. When another instance owns it, msg is
// forwarded there; a forward that fails on the transport gets one more
// attempt at ownership in case the owner just exited.
func becomePrimary(ctx context.Context, server *ipc.Server, msg string) (bool, error) {
	var sendErr error
	for attempt := 0; attempt < 2; attempt++ {
		primary, err := server.TryStart()
		if err != nil {
			return false, err
		}
		if primary {
			return true, nil
		}
		if msg == "" {
			logging.Debugf("main: already running at %s", server.Endpoint())
			return false, nil
		}
		if sendErr = ipc.Send(ctx, server.Endpoint(), msg); sendErr == nil {
			logging.Debugf("main: forwarded %s", logging.Summarize(msg, 120))
			return false, nil
		}
		log.Printf("main: forward to running instance: %v", sendErr)
	}
	return false, fmt.Errorf("forward to running instance: %w", sendErr)
}

type application struct {
	store    *config.Store
	opts     *options.Store
	exec     *executor.Executor
	notifier *notify.Notifier
	svc      *service.Service
	tray     *tray.Tray
	startup  *autostart.Manager
	quit     context.CancelFunc
}

// editorHost lets the executor reach the service, which is built after it.
type editorHost struct {
	svc *service.Service
}

func (h *editorHost) OpenEditor() {
	if h.svc != nil {
		h.svc.OpenEditor()
	}
}

func (h *editorHost) CustomHotkeys() {
	if h.svc != nil {
		h.svc.CustomHotkeys()
	}
}

func newApplication(path string) (*application, error) {
	store, err := config.Open(path, config.DefaultBackups)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	opts := options.New(store)
	snap := opts.Snapshot()
	store.SetBackups(snap.Backups)
	if snap.Debug {
		logging.EnableDebug()
	}

	notifier := notify.New()
	host := &editorHost{}
	exec := executor.New(executorConfig(snap),
		executor.WithReporter(notifier),
		executor.WithHost(host),
	)

	backend := hotkey.NewOSBackend()
	svc, err := service.New(service.Deps{
		Store:        store,
		Options:      opts,
		Builder:      menu.NewBuilder(menu.Params{Base: menu.DefaultAppearance()}),
		Runner:       exec,
		Hotkeys:      hotkey.NewManager(backend),
		Popup:        popup.NewConsole(false),
		Launcher:     executor.NewLauncher(),
		Notifier:     notifier,
		HotkeyEvents: backend.Events(),
		Modifiers:    executor.CurrentModifiers,
	})
	if err != nil {
		return nil, err
	}
	host.svc = svc

	icon, err := tray.LoadIcon(snap.TrayIcon)
	if err != nil {
		log.Printf("main: %v", err)
	}
	app := &application{
		store:    store,
		opts:     opts,
		exec:     exec,
		notifier: notifier,
		svc:      svc,
	}
	app.tray = tray.New(svc, icon,
		tray.WithModifiers(executor.CurrentModifiers),
		tray.WithTooltip("QuickCliq"),
		tray.WithExit(app.exit),
	)
	svc.OnMenuChanged(app.tray.Publish)

	if startup, err := autostart.New(); err != nil {
		log.Printf("main: autostart unavailable: %v", err)
	} else {
		app.startup = startup
	}
	opts.Subscribe(app.optionChanged)
	app.syncAutostart(snap.Autostart)
	return app, nil
}

func executorConfig(o options.Options) executor.Config {
	return executor.Config{
		MaxConcurrent: o.MaxConcurrent,
		Delay:         o.Delay(),
		Divider:       o.Divider,
		CtrlCopy:      o.CtrlCopy,
	}
}

// optionChanged handles the settings that live outside the service loop.
func (a *application) optionChanged(name string) {
	switch name {
	case options.Debug:
		if a.opts.Bool(options.Debug) {
			logging.EnableDebug()
		} else {
			logging.DisableDebug()
		}
	case options.Backups:
		a.store.SetBackups(a.opts.Int(options.Backups))
	case options.Autostart:
		a.syncAutostart(a.opts.Bool(options.Autostart))
	case "":
		a.store.SetBackups(a.opts.Int(options.Backups))
		a.syncAutostart(a.opts.Bool(options.Autostart))
	}
}

func (a *application) syncAutostart(want bool) {
	if a.startup == nil {
		return
	}
	if err := a.startup.Sync(want); err != nil && !errors.Is(err, autostart.ErrUnsupported) {
		log.Printf("main: %v", err)
	}
}

func (a *application) exit() {
	if a.quit != nil {
		a.quit()
	}
}

func (a *application) run(ctx context.Context, server *ipc.Server, msg string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.quit = cancel

	defer a.notifier.Wait()
	defer a.exec.Wait()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.svc.Run(gctx) })
	g.Go(func() error { return server.Serve(gctx) })
	g.Go(func() error {
		err := a.tray.Run(gctx)
		if errors.Is(err, tray.ErrUnavailable) {
			log.Printf("main: %v; running without a tray icon", err)
			return nil
		}
		cancel()
		return err
	})
	if msg != "" {
		g.Go(func() error {
			a.svc.HandleMessage(msg)
			return nil
		})
	}

	log.Printf("main: QuickCliq %s listening on %s", version, server.Endpoint())
	return g.Wait()
}

func newListCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the menu entries, optionally fuzzy filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyDebugFlag(cmd)
			store, err := openStore()
			if err != nil {
				return err
			}
			return listMenu(cmd.OutOrStdout(), store, query)
		},
	}
	cmd.Flags().StringVar(&query, "find", "", "fuzzy filter applied to the entry paths")
	return cmd
}

func listMenu(w io.Writer, store *config.Store, query string) error {
	snap := options.New(store).Snapshot()
	builder := menu.NewBuilder(menu.Params{Base: menu.DefaultAppearance()})
	tree := builder.Build(store.Menu(), nil)
	matches := menu.Search(tree, query)
	if len(matches) == 0 {
		fmt.Fprintln(w, "No menu items configured")
		return nil
	}
	fmt.Fprintf(w, "%-6s %-40s %-12s %s\n", "ID", "Path", "Hotkey", "Commands")
	for _, m := range matches {
		commands := ""
		if src := m.Item.Source(); src != nil {
			commands = src.CommandString(snap.Divider)
		}
		fmt.Fprintf(w, "%-6s %-40s %-12s %s\n", m.Item.Uid, truncate(m.Path, 40), m.Item.Hotkey, commands)
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [menu-file]",
		Short: "Check the configuration or a standalone menu file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyDebugFlag(cmd)
			target, err := validateTarget(args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", target)
			return nil
		},
	}
}

// validateTarget checks the named standalone menu or, without arguments,
// the main configuration. The main file is read directly so a broken
// document is reported rather than moved aside.
func validateTarget(args []string) (string, error) {
	if len(args) == 1 {
		m, err := menu.LoadFile(args[0])
		if err != nil {
			return args[0], err
		}
		return args[0], m.Validate()
	}
	path, err := config.Path()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return path, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Decode(raw)
	if err != nil {
		return path, err
	}
	return path, cfg.Validate()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quickcliq %s\n", version)
		},
	}
}

func applyDebugFlag(cmd *cobra.Command) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.EnableDebug()
	}
}

func openStore() (*config.Store, error) {
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	return config.Open(path, config.DefaultBackups)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/daemon"
	"github.com/deskprof/deskprof/internal/engine"
	"github.com/deskprof/deskprof/internal/ipc"
	"github.com/deskprof/deskprof/internal/mcp"
	"github.com/deskprof/deskprof/internal/monitor"
	"github.com/deskprof/deskprof/internal/platform"
	"github.com/deskprof/deskprof/internal/positioner"
	"github.com/deskprof/deskprof/internal/profile"
	"github.com/deskprof/deskprof/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: deskprof daemon")
			os.Exit(0)
		}
		runDaemon()
	case "detect":
		os.Exit(runDetect(os.Args[2:]))
	case "apply":
		os.Exit(runApply(os.Args[2:]))
	case "plan":
		os.Exit(runPlan(os.Args[2:]))
	case "profile":
		os.Exit(runProfile(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskprof <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the deskprof daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Tell the daemon to reload its config")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  detect              Detect which profile matches the connected displays")
	fmt.Fprintln(w, "  apply [profile]     Apply a profile (default: detected)")
	fmt.Fprintln(w, "  plan [profile]      Show what apply would do, without moving windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  profile list        List configured profiles")
	fmt.Fprintln(w, "  profile update      Save the current monitor arrangement")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  monitors            List connected displays and role tags")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the config file path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive TUI (requires daemon)")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskprof <command> --help' for command-specific options.")
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newEngine wires the direct (daemon-less) execution path against a live
// X11 connection. The returned close function releases the connection.
func newEngine(configPath string, level slog.Level) (*engine.Engine, *config.Store, func(), error) {
	backend, err := platform.NewLinuxBackend()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to display: %w", err)
	}

	logger := newLogger(level)
	store := config.NewStore(configPath)
	registry := monitor.NewRegistry(backend)
	matcher := profile.NewMatcher(registry)
	pos := positioner.New(backend, logger)
	eng := engine.New(store, registry, matcher, pos, logger)
	return eng, store, backend.Close, nil
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/deskprof/config.json)")
	asJSON := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskprof detect [--config PATH] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the profile whose resolution set matches the connected displays.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	eng, _, closeFn, err := newEngine(*configPath, slog.LevelWarn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	name, ok, err := eng.Detect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		out, _ := json.Marshal(map[string]interface{}{"profile": name, "matched": ok})
		fmt.Println(string(out))
		return 0
	}
	if !ok {
		fmt.Println("no matching profile")
		return 1
	}
	fmt.Println(name)
	return 0
}

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/deskprof/config.json)")
	verbose := fs.Bool("verbose", false, "Log each step")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskprof apply [--config PATH] [--verbose] [profile]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Position configured application windows for a profile.")
		fmt.Fprintln(os.Stderr, "Without a profile argument, the matching profile is detected first.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "apply takes at most one profile argument")
		fs.Usage()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	eng, _, closeFn, err := newEngine(*configPath, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	result, err := eng.Apply(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	printResult(result)
	if result.Failed() > 0 {
		return 1
	}
	return 0
}

func runPlan(args []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/deskprof/config.json)")
	asJSON := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskprof plan [--config PATH] [--json] [profile]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Compute the moves apply would perform without touching any window.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "plan takes at most one profile argument")
		fs.Usage()
		return 2
	}

	eng, _, closeFn, err := newEngine(*configPath, slog.LevelWarn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	result, err := eng.Plan(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(string(out))
		return 0
	}

	printResult(result)
	return 0
}

func printResult(result *engine.Result) {
	fmt.Printf("profile: %s\n", result.Profile)
	for _, step := range result.Steps {
		line := fmt.Sprintf("  %-30s %-12s %-11s", step.App, step.Placement, step.Outcome)
		if step.Target != nil {
			line += fmt.Sprintf(" %.0f,%.0f %.0fx%.0f on %s",
				step.Target.X, step.Target.Y, step.Target.Width, step.Target.Height, step.Display)
		}
		fmt.Println(line)
	}
}

func printProfileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskprof profile list [--json]")
	fmt.Fprintln(w, "  deskprof profile update <name>")
}

func runProfile(args []string) int {
	if len(args) == 0 {
		printProfileUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("profile list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		configPath := fs.String("config", "", "Config file path")
		asJSON := fs.Bool("json", false, "Output JSON")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		store := config.NewStore(*configPath)
		cfg, err := store.Config()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		if *asJSON {
			out, _ := json.MarshalIndent(cfg.Profiles, "", "  ")
			fmt.Println(string(out))
			return 0
		}
		for name, p := range cfg.Profiles {
			fmt.Printf("%s:\n", name)
			for _, spec := range p.Monitors {
				fmt.Printf("  %-12s %s\n", spec.Position, spec.Resolution)
			}
		}
		return 0

	case "update":
		fs := flag.NewFlagSet("profile update", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		configPath := fs.String("config", "", "Config file path")
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: deskprof profile update <name>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Save the currently connected monitor arrangement under <name>.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "profile update requires exactly one name argument")
			fs.Usage()
			return 2
		}

		eng, _, closeFn, err := newEngine(*configPath, slog.LevelWarn)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer closeFn()

		specs, err := eng.Update(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("saved %s:\n", fs.Arg(0))
		for _, spec := range specs {
			fmt.Printf("  %-12s %s\n", spec.Position, spec.Resolution)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown profile command: %s\n\n", args[0])
		printProfileUsage(os.Stderr)
		return 2
	}
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path")
	profileName := fs.String("profile", "", "Resolve workspace tags against this profile (default: detected)")
	asJSON := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskprof monitors [--profile NAME] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List connected displays with internal-coordinate frames and role tags.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	eng, _, closeFn, err := newEngine(*configPath, slog.LevelWarn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	name := *profileName
	if name == "" {
		if detected, ok, err := eng.Detect(); err == nil && ok {
			name = detected
		}
	}

	monitors, err := eng.Monitors(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		out, _ := json.MarshalIndent(monitors, "", "  ")
		fmt.Println(string(out))
		return 0
	}
	for _, m := range monitors {
		roles := ""
		if m.BuiltIn {
			roles += " [built-in]"
		}
		if m.Workspace {
			roles += " [workspace]"
		}
		fmt.Printf("%-12s %-10s %.0f,%.0f %.0fx%.0f%s\n",
			m.Name, m.Resolution, m.Frame.X, m.Frame.Y, m.Frame.Width, m.Frame.Height, roles)
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: deskprof config <validate|print|path> [--config PATH]")
		return 2
	}

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path")
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	store := config.NewStore(*configPath)

	switch args[0] {
	case "validate":
		if _, err := store.Config(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		path, _ := store.Path()
		fmt.Printf("%s: OK\n", path)
		return 0

	case "print":
		cfg, err := store.Config()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(string(out))
		return 0

	case "path":
		path, err := store.Path()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskprof status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("active_profile: %s\n", status.ActiveProfile)
	fmt.Printf("monitor_count:  %d\n", status.MonitorCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	if status.LastApplyError != "" {
		fmt.Printf("last_error:     %s\n", status.LastApplyError)
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: deskprof tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive profile browser. Requires a running daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate profiles")
		fmt.Fprintln(os.Stderr, "  Enter, a  Apply selected profile")
		fmt.Fprintln(os.Stderr, "  p         Refresh the plan preview")
		fmt.Fprintln(os.Stderr, "  d         Re-detect the matching profile")
		fmt.Fprintln(os.Stderr, "  u         Save current arrangement as a profile")
		fmt.Fprintln(os.Stderr, "  r         Reload config")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "tui requires an interactive terminal (stdin/stdout must be TTYs)")
		return 1
	}

	if err := tui.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMCP(args []string) int {
	if len(args) == 0 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: deskprof mcp serve [--config PATH]")
		return 2
	}

	fs := flag.NewFlagSet("mcp serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path")
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	eng, store, closeFn, err := newEngine(*configPath, slog.LevelWarn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	server := mcp.NewServer(store, eng)
	if err := server.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDaemon() {
	logger := newLogger(slog.LevelInfo)

	store := config.NewStore("")
	if _, err := store.Config(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	backend, err := platform.NewLinuxBackend()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Close()

	registry := monitor.NewRegistry(backend)
	matcher := profile.NewMatcher(registry)
	pos := positioner.New(backend, logger)
	eng := engine.New(store, registry, matcher, pos, logger)

	log.Println("deskprof daemon started")

	reloadChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(store, eng, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Apply once on startup when a profile matches the current hardware.
	if name, ok, err := eng.Detect(); err != nil {
		logger.Warn("startup detection failed", "error", err)
	} else if ok {
		if result, err := eng.Apply(name); err != nil {
			logger.Warn("startup apply failed", "profile", name, "error", err)
		} else {
			ipcServer.SetActiveProfile(name)
			logger.Info("startup apply complete",
				"profile", name, "moved", result.Moved(), "failed", result.Failed())
		}
	} else {
		logger.Info("no profile matches at startup")
	}

	watcher := daemon.NewWatcher(daemon.WatcherConfig{
		Interval:  5 * time.Second,
		AutoApply: true,
		Logger:    logger,
	}, registry, eng, ipcServer.SetActiveProfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx, reloadChan)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)
}

// Parley is a small command-line conversational assistant.
//
// By default it answers from a local rule table. When an OpenAI API key
// is configured (OPENAI_API_KEY or the config file) it proxies
// questions to an OpenAI-compatible chat-completions endpoint instead,
// keeping the whole conversation in memory for the session.
// Configuration is a single optional YAML file discovered automatically
// (see [config.DefaultSearchPaths]); the binary runs fine without one.
//
// Usage:
//
//	parley                   Start the interactive shell
//	parley chat              Same, explicitly
//	parley ask <question>    Ask a single question and exit
//	parley init [dir]        Install an example config file
//	parley version           Print version and build information
//	parley -o json version   Output version information as JSON
//	parley -local chat       Answer locally even with a key configured
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/parley-cli/parley/internal/assistant"
	"github.com/parley-cli/parley/internal/buildinfo"
	"github.com/parley-cli/parley/internal/config"
	"github.com/parley-cli/parley/internal/shell"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdin, and os.Args out of the application logic so that
// the full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the parley command. All OS-level
// dependencies are injected as parameters:
//
//   - ctx controls the lifetime of the process. Cancelling it ends the
//     interactive shell.
//   - stdin feeds the interactive shell.
//   - stdout receives conversation output; structured logs go to
//     stderr so replies stay pipeable.
//   - args is os.Args[1:] — the command-line arguments after the
//     program name. We parse these manually rather than using the flag
//     package to avoid global state that interferes with parallel
//     tests.
//
// run returns nil on clean shutdown and a non-nil error for any
// failure. The caller (main) is responsible for printing the error and
// exiting.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	// Parse arguments by hand. The flag package relies on package-level
	// globals (flag.CommandLine), which makes it impossible to call
	// run() concurrently from tests. The argument surface here is small
	// enough that manual parsing is clearer than a CLI framework.
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var localOnly bool
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-local" || args[i] == "--local":
			localOnly = true
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				// Collect remaining args as subcommand arguments.
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	// Default to human-readable text output.
	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "", "chat":
		return runChat(ctx, stdin, stdout, stderr, configPath, localOnly)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: parley ask <question>")
		}
		return runAsk(ctx, stdout, stderr, configPath, localOnly, cmdArgs)
	case "init":
		var dir string
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runChat starts the interactive shell and blocks until the user quits
// or the process is signalled.
func runChat(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath string, localOnly bool) error {
	cfg, cfgPath, logger, err := bootstrap(stderr, configPath)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	} else {
		logger.Debug("no config file; using defaults and environment")
	}

	a := assistant.New(cfg, !localOnly, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return shell.New(a, stdin, stdout, logger).Run(ctx)
}

// runAsk answers a single question and exits. The question is all
// remaining arguments joined with spaces.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath string, localOnly bool, args []string) error {
	question := strings.Join(args, " ")

	cfg, cfgPath, logger, err := bootstrap(stderr, configPath)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	a := assistant.New(cfg, !localOnly, logger)
	fmt.Fprintln(stdout, a.Answer(ctx, question))
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// bootstrap resolves configuration and builds the logger every
// subcommand shares. Logs go to stderr so stdout stays clean for
// conversation output.
func bootstrap(stderr io.Writer, configPath string) (*config.Config, string, *slog.Logger, error) {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return nil, "", nil, err
	}

	level, err := config.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, "", nil, err
	}

	return cfg, cfgPath, newLogger(stderr, level, cfg.Logging.Format), nil
}

// loadConfig resolves configuration from file and environment. A
// missing implicit config file is fine (environment-only operation);
// an explicit -config path that does not exist is an error.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	cfg.ApplyEnv()
	return cfg, cfgPath, nil
}

// newLogger builds an slog.Logger writing to w in the given format.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// printUsage writes the top-level help text to w. It is called when
// parley is invoked with -h / --help.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Parley - Small CLI AI assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: parley [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat         Start the interactive shell (default)")
	fmt.Fprintln(w, "  ask          Ask a single question and exit")
	fmt.Fprintln(w, "  init         Install an example config (default: ~/.config/parley)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -local            Answer locally even if an OpenAI key is configured")
	fmt.Fprintln(w, "  -o, --output fmt  Version output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./parley.yaml, ~/.config/parley/config.yaml, /etc/parley/config.yaml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  OPENAI_API_KEY    Enables OpenAI mode")
	fmt.Fprintln(w, "  OPENAI_MODEL      Overrides the model (default: gpt-3.5-turbo)")
	return nil
}

// Package main provides the c4 binary entry point.
// c4 loads, validates, exports and serves C4 architecture models written as
// YAML workspaces.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/c4/config"
	"github.com/c360studio/c4/model"
	"github.com/c360studio/c4/parser"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "c4"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	dir        string
	configPath string
	logLevel   string
	verbose    bool
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "C4 architecture models as code",
		Long: `c4 works with C4 architecture models written as a workspace of YAML files.

A workspace is a directory with a c4.mod.yaml manifest whose include patterns
name the fragment files. c4 merges the fragments into one model, checks every
reference, and exports or serves the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.dir, "dir", "C", ".", "Workspace directory")
	flags.StringVar(&opts.configPath, "config", "", "Config file path (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (same as --log-level debug)")

	cmd.AddCommand(
		initCmd(opts),
		validateCmd(opts),
		buildCmd(opts),
		serveCmd(opts),
		queryCmd(opts),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// env is the per-invocation state every subcommand starts from.
type env struct {
	dir    string
	cfg    *config.Config
	logger *slog.Logger
}

// setup resolves the workspace directory, loads configuration and builds
// the logger. Flags win over configured values.
func (o *globalOptions) setup(cmd *cobra.Command) (*env, error) {
	dir, err := filepath.Abs(o.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}

	// Config loading logs through a quiet logger until the level is known.
	bootstrap := newLogger(cmd, "warn")
	loader := config.NewLoader(bootstrap)

	var cfg *config.Config
	if o.configPath != "" {
		cfg, err = loader.LoadFile(o.configPath)
	} else {
		cfg, err = loader.Load(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.verbose {
		level = "debug"
	}

	logger := newLogger(cmd, level)
	slog.SetDefault(logger)

	return &env{dir: dir, cfg: cfg, logger: logger}, nil
}

func newLogger(cmd *cobra.Command, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// errNoWorkspace is returned when the directory has no manifest.
var errNoWorkspace = fmt.Errorf("%s not found. Run 'c4 init' to initialize a workspace.", parser.ManifestFile)

// loadWorkspace loads and indexes the workspace at e.dir.
func (e *env) loadWorkspace() (*model.Model, *parser.Manifest, error) {
	if _, err := os.Stat(filepath.Join(e.dir, parser.ManifestFile)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, errNoWorkspace
	}

	loader := parser.NewLoader(e.dir, e.logger)
	m, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load workspace: %w", err)
	}
	return m, loader.Manifest(), nil
}

// resolvePath joins p onto the workspace directory unless it is absolute.
func (e *env) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.dir, p)
}

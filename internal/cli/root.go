package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the gatectl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gatectl",
		Short: "gatectl - bar dashboard session gate",
		Long: `Sign in to the bar-management API, keep the session across runs and
check which dashboard locations the current session may open.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return wrapExit(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default "+DefaultConfigPath()+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging to stderr")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newBarsCommand(opts))
	cmd.AddCommand(newMockServerCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// app is an engine opened for one command invocation.
type app struct {
	engine  *goGate.Engine
	logger  *slog.Logger
	out     printer
	cleanup []func()
}

func (s *app) Close() {
	s.engine.Close()
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

// openApp loads configuration, opens the backend, builds the engine and
// waits for hydration.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = DefaultConfigPath(), false
	}
	fileCfg, err := LoadConfig(path, required)
	if err != nil {
		return nil, wrapExit(ExitCommandError, "load config", err)
	}
	cfg, err := fileCfg.EngineConfig()
	if err != nil {
		return nil, wrapExit(ExitCommandError, "invalid config", err)
	}

	s := &app{
		logger: newLogger(cmd.ErrOrStderr(), fileCfg.LogLevel, opts.Verbose),
		out:    printer{format: opts.Format, w: cmd.OutOrStdout()},
	}

	backend, closeBackend, err := openBackend(ctx, fileCfg.Persistence, cfg.Persistence.Key)
	if err != nil {
		return nil, wrapExit(ExitCommandError, "open session backend", err)
	}
	s.cleanup = append(s.cleanup, closeBackend)

	logger := s.logger
	nav := goGate.NavigatorFunc(func(location string, o goGate.NavigateOptions) {
		logger.Debug("navigate", "location", location, "replace", o.Replace)
	})

	b := goGate.New().
		WithConfig(cfg).
		WithBackend(backend).
		WithNavigator(nav).
		WithLogger(s.logger)
	if fileCfg.Audit.File != "" {
		f, err := os.OpenFile(fileCfg.Audit.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			closeBackend()
			return nil, wrapExit(ExitCommandError, "open audit file", err)
		}
		s.cleanup = append(s.cleanup, func() { _ = f.Close() })
		b = b.WithAuditSink(goGate.NewJSONWriterSink(f))
	}

	engine, err := b.Build()
	if err != nil {
		for _, fn := range s.cleanup {
			fn()
		}
		return nil, wrapExit(ExitCommandError, "build engine", err)
	}
	s.engine = engine

	engine.Start(ctx)
	select {
	case <-engine.Store().Ready():
	case <-time.After(cfg.HTTP.Timeout):
		s.Close()
		return nil, wrapExit(ExitFailure, "session hydration timed out", nil)
	}
	return s, nil
}

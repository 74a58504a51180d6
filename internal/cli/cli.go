// Package cli implements the sortly command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JonMunkholm/sortly/internal/config"
	"github.com/JonMunkholm/sortly/internal/core"
	"github.com/JonMunkholm/sortly/internal/history"
	"github.com/JonMunkholm/sortly/internal/logging"
	"github.com/JonMunkholm/sortly/internal/share"
)

type outputFormat int

const (
	outputFormatTable outputFormat = iota
	outputFormatJSON
	outputFormatTSV
)

// parseOutputFormat takes "table", "json" or "tsv".
func parseOutputFormat(s string) (outputFormat, error) {
	switch strings.ToLower(s) {
	case "table":
		return outputFormatTable, nil
	case "json":
		return outputFormatJSON, nil
	case "tsv":
		return outputFormatTSV, nil
	}
	return 0, fmt.Errorf(`invalid format %q (must be "table", "json" or "tsv")`, s)
}

// version is set at build time.
var version = "development version"

// errNoInput is returned when no file is named and stdin is a terminal.
var errNoInput = errors.New("no input: pass a file or pipe data on stdin")

// app carries what every command needs.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	format outputFormat
	codec  *share.Codec

	// openHistory is replaced in tests.
	openHistory func(ctx context.Context, cfg *config.Config) (*history.Store, func(), error)
}

// DoCLI runs the command line and exits non-zero on failure.
func DoCLI() {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		msg := core.MapError(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if msg.Action != "" {
			fmt.Fprintf(os.Stderr, "%s (%s)\n", msg.Action, msg.Code)
		}
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree reading from in and writing to out
// and errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, openHistory: openCLIHistory}

	var formatStr string
	var configPath string
	var logLevel string

	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "sortly",
		Short:         "Paste tabular text, sort it by several columns and share the result",
		Version:       "sortly " + version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(formatStr)
			if err != nil {
				return err
			}
			a.format = format

			if configPath == "" {
				configPath = os.Getenv(config.FileEnv)
			}
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") || os.Getenv("LOG_LEVEL") == "" {
				cfg.Logging.Level = logLevel
			}
			a.cfg = cfg

			// Logs go to stderr so piped output stays clean.
			logging.SetupWriter(a.errOut, cfg.Logging.Level, cfg.Logging.Format)

			a.codec = share.NewCodec(
				share.NewZlibCompressor(cfg.Share.MaxDecodedBytes),
				share.WithMaxPayload(cfg.Share.MaxPayloadBytes),
			)
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}}` + "\n")
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVar(&formatStr, "format", "table", `output format ("table", "json" or "tsv")`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default $"+config.FileEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.parseCommand(),
		a.sortCommand(),
		a.shareCommand(),
		a.openCommand(),
		a.historyCommand(),
	)
	return rootCmd
}

// readInput returns the text of the named file, or stdin when no file is given
// or the name is "-".
func (a *app) readInput(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		return core.ReadInput(f, a.cfg.Input.MaxBytes)
	}
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errNoInput
	}
	return core.ReadInput(a.in, a.cfg.Input.MaxBytes)
}

// loadDataset reads and parses input, then applies --by rules or the defaults.
func (a *app) loadDataset(args []string, by []string, label string) (*core.Workspace, error) {
	text, err := a.readInput(args)
	if err != nil {
		return nil, err
	}
	ws := core.NewWorkspace()
	if _, err := ws.Paste(text); err != nil {
		return nil, err
	}
	if len(by) > 0 {
		ds := ws.Dataset()
		rules, err := parseRuleSpecs(by, ds.Columns, ds.Rows)
		if err != nil {
			return nil, err
		}
		if err := ws.SetRules(rules); err != nil {
			return nil, err
		}
	}
	if label != "" {
		if err := ws.SetLabel(label); err != nil {
			return nil, err
		}
	}
	slog.Debug("dataset loaded", "columns", len(ws.Dataset().Columns), "rows", len(ws.Dataset().Rows))
	return ws, nil
}

// printDataset writes ds in the selected format.
func (a *app) printDataset(ds core.Dataset) error {
	switch a.format {
	case outputFormatJSON:
		return a.writeJSON(core.NewSharePayload(ds))
	case outputFormatTSV:
		return writeTSV(a.out, ds.Columns, ds.Rows)
	}
	if ds.Label != "" {
		fmt.Fprintln(a.out, ds.Label)
	}
	if err := datasetTable(ds.Columns, ds.Rows).print(a.out, cellLimit(a.out)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "\n%d %s × %d %s, sorted by %s\n",
		len(ds.Columns), plural(len(ds.Columns), "column"),
		len(ds.Rows), plural(len(ds.Rows), "row"),
		formatRules(ds.SortRules))
	return err
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) history(ctx context.Context) (*history.Store, func(), error) {
	return a.openHistory(ctx, a.cfg)
}

// openCLIHistory opens the configured history backend. The in-memory backend
// would forget everything on exit, so the CLI falls back to files under the
// user config directory.
func openCLIHistory(ctx context.Context, cfg *config.Config) (*history.Store, func(), error) {
	if strings.EqualFold(cfg.History.Backend, config.BackendMemory) || cfg.History.Backend == "" {
		c := *cfg
		c.History.Backend = config.BackendFile
		if dir, err := os.UserConfigDir(); err == nil {
			c.History.Path = filepath.Join(dir, "sortly", "history")
		}
		cfg = &c
	}
	return history.Open(ctx, cfg)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

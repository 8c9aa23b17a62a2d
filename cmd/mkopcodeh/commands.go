package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/opcodeh/config"
	"github.com/colorfulnotion/opcodeh/generator"
	"github.com/colorfulnotion/opcodeh/header"
	log "github.com/colorfulnotion/opcodeh/log"
	"github.com/colorfulnotion/opcodeh/opcerrors"
	"github.com/colorfulnotion/opcodeh/report"
)

type options struct {
	configPath    string
	output        string
	format        string
	ceiling       int
	logLevel      string
	debugModules  string
	logJSON       bool
	traceEndpoint string
	htmlPath      string

	shutdown func(context.Context) error
}

func (o *options) flush(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	return o.shutdown(ctx)
}

// loadConfig reads the config file, if any, and applies the flags the user set.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("ceiling") {
		cfg.Ceiling = o.ceiling
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug(log.CLIMonitoring, "config", "settings", cfg.String())
	return cfg, nil
}

// run generates from the listing named by files, or stdin when empty.
func (o *options) run(cmd *cobra.Command, files []string, cfg *config.Config) (*generator.Result, error) {
	g, err := generator.New(cfg)
	if err != nil {
		return nil, err
	}
	r, closeAll, err := generator.OpenInputs(cmd.InOrStdin(), files)
	if err != nil {
		return nil, err
	}
	defer closeAll()
	return g.Generate(cmd.Context(), r)
}

// failureAttrs describes err for the final log line. Errors from the
// generator carry a "CODE|Name: desc" sentinel; other errors only get "err".
func failureAttrs(err error) []interface{} {
	attrs := []interface{}{"err", err}
	if opcerrors.Sentinel(err) != nil {
		attrs = append(attrs,
			"code", opcerrors.GetErrorCodeWithName(err),
			"desc", opcerrors.GetErrorDesc(err))
	}
	return attrs
}

func newRootCmd(o *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mkopcodeh [files...]",
		Short: "Assign VDBE opcode numbers and pack opcode properties",
		Long: `mkopcodeh reads parse.h followed by vdbe.c (as files or on stdin), numbers
every opcode declared by a "case OP_xxx:" line and writes the opcodes.h header
with the packed property table and the largest jump opcode.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if o.logJSON {
				err = log.InitJSONLogger(o.logLevel)
			} else {
				err = log.InitLogger(o.logLevel)
			}
			if err != nil {
				return fmt.Errorf("%w: %v", opcerrors.ErrInvalidConfig, err)
			}
			log.EnableModules(o.debugModules)
			shutdown, err := generator.SetupTracing(cmd.Context(), o.traceEndpoint, Version)
			if err != nil {
				return err
			}
			o.shutdown = shutdown
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := o.run(cmd, args, cfg)
			if err != nil {
				return err
			}
			log.Debug(log.CLIMonitoring, "writing output", "path", o.output, "bytes", len(res.Output))
			return generator.WriteOutput(cmd.OutOrStdout(), o.output, res.Output)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "YAML settings file")
	pf.StringVar(&o.format, "format", config.FormatC, "Output format: c, json, yaml or go")
	pf.IntVar(&o.ceiling, "ceiling", config.Default().Ceiling, "Largest opcode value allowed")
	pf.StringVar(&o.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error, crit")
	pf.StringVar(&o.debugModules, "debug", "", "Debug modules to enable (comma separated, or all)")
	pf.BoolVar(&o.logJSON, "log-json", false, "Log as JSON")
	pf.StringVar(&o.traceEndpoint, "trace-endpoint", "", "OTLP/HTTP collector host:port for stage traces")
	rootCmd.Flags().StringVarP(&o.output, "output", "o", "", "Output file (default stdout)")

	rootCmd.AddCommand(newCheckCmd(o), newExplainCmd(o), newReportCmd(o), newVersionCmd())
	return rootCmd
}

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <header> [files...]",
		Short: "Regenerate the header and compare it with an existing one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Format = config.FormatC

			existing, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			old, err := header.ParseDefines(bytes.NewReader(existing), cfg.OpcodePrefix)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			res, err := o.run(cmd, args[1:], cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			oldDigest, newDigest := report.Digest(existing), report.Digest(res.Output)
			fmt.Fprintf(out, "existing    %s\n", oldDigest)
			fmt.Fprintf(out, "regenerated %s\n", newDigest)
			if oldDigest == newDigest {
				fmt.Fprintf(out, "%s is up to date\n", args[0])
				return nil
			}

			diff, changed, err := report.Drift(old, header.Assignments(res.Table))
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintln(out, diff)
				return fmt.Errorf("%w: %s assigns different values", opcerrors.ErrHeaderDrift, args[0])
			}
			return fmt.Errorf("%w: %s has the same values but different text", opcerrors.ErrHeaderDrift, args[0])
		},
	}
}

func newExplainCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [files...]",
		Short: "Show which tier numbered each opcode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := o.run(cmd, args, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.AllocationTree(res.Table))
			if len(res.Listing.Dropped) > 0 {
				fmt.Fprintf(out, "undeclared documentation: %v\n", res.Listing.Dropped)
			}
			return nil
		},
	}
}

func newReportCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [files...]",
		Short: "Write an HTML page charting tier occupancy and property flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := o.run(cmd, args, cfg)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := report.WriteHTML(&buf, res.Table); err != nil {
				return err
			}
			log.Info(log.CLIMonitoring, "report written", "path", o.htmlPath, "rows", len(res.Table.Entries))
			return generator.WriteOutput(cmd.OutOrStdout(), o.htmlPath, buf.Bytes())
		},
	}
	cmd.Flags().StringVar(&o.htmlPath, "html", "opcodes.html", "HTML output file (- for stdout)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mkopcodeh %s (%s)\n", Version, Commit)
		},
	}
}

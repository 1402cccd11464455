package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stagec/internal/cache"
	"stagec/internal/diagfmt"
	"stagec/internal/driver"
	"stagec/internal/ir"
	"stagec/internal/observ"
)

var liftCmd = &cobra.Command{
	Use:   "lift FILE...",
	Short: "Assemble the IR of one or more tree files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLift,
}

func init() {
	liftCmd.Flags().String("format", "text", "output format (text|msgpack)")
	liftCmd.Flags().StringP("out", "o", "-", "write the IR to this file (- for stdout)")
	liftCmd.Flags().Int("jobs", 0, "units to lift in parallel (0 = GOMAXPROCS)")
	liftCmd.Flags().Bool("cache", false, "reuse IR from the on-disk cache")
	liftCmd.Flags().Bool("no-validate", false, "skip IR consistency checks")
}

func runLift(cmd *cobra.Command, args []string) error {
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "text" && format != "msgpack" {
		return fmt.Errorf("unsupported format %q (must be text or msgpack)", format)
	}
	outPath, err := flags.GetString("out")
	if err != nil {
		return err
	}
	configPath, err := root.GetString("config")
	if err != nil {
		return err
	}
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return err
	}
	timingsFormat, err := root.GetString("timings-format")
	if err != nil {
		return err
	}
	timingsFormat = strings.ToLower(timingsFormat)
	if timingsFormat != "text" && timingsFormat != "json" {
		return fmt.Errorf("unsupported timings format %q (must be text or json)", timingsFormat)
	}
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(configPath, ".")
	if err != nil {
		return err
	}
	opts := driver.Options{
		Intrinsics:     cfg.intrinsics(),
		Validate:       cfg.Lift.Validate,
		Jobs:           cfg.Lift.Jobs,
		MaxDiagnostics: maxDiagnostics,
		EnableTimings:  showTimings,
	}
	if flags.Changed("jobs") {
		if opts.Jobs, err = flags.GetInt("jobs"); err != nil {
			return err
		}
	}
	if flags.Changed("no-validate") {
		noValidate, err := flags.GetBool("no-validate")
		if err != nil {
			return err
		}
		opts.Validate = !noValidate
	}
	useCache := cfg.Lift.Cache
	if flags.Changed("cache") {
		if useCache, err = flags.GetBool("cache"); err != nil {
			return err
		}
	}
	if useCache {
		if opts.Cache, err = cache.Open("stagec"); err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
	}

	results, err := driver.LiftFiles(cmd.Context(), args, opts)
	if err != nil {
		return err
	}

	color, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()
	failed := 0
	for _, res := range results {
		res.Bag.Sort()
		if !quiet || res.Bag.HasErrors() {
			if err := diagfmt.Pretty(errOut, res.Bag, res.FileSet, diagfmt.PrettyOpts{
				Color:     color,
				Context:   true,
				ShowNotes: true,
			}); err != nil {
				return err
			}
		}
		if showTimings && res.Timing != nil {
			if err := writeTimings(errOut, res, timingsFormat); err != nil {
				return err
			}
		}
		if !res.OK() {
			failed++
		}
	}

	out, closeOut, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	defer closeOut()
	if err := writeIR(out, results, format); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d unit(s) failed", failed, len(results))
	}
	return nil
}

type unitTimings struct {
	Path    string        `json:"path"`
	Cached  bool          `json:"cached,omitempty"`
	Timings observ.Report `json:"timings"`
}

func writeTimings(w io.Writer, res *driver.Result, format string) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(unitTimings{Path: res.Path, Cached: res.Cached, Timings: res.Timing.Report()})
	}
	_, err := fmt.Fprintf(w, "%s:\n%s", res.Path, res.Timing.Summary())
	return err
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path) // #nosec G304 -- path is provided by the user
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close %s: %v\n", path, err)
		}
	}, nil
}

// writeIR prints every successful unit. Text output separates units with
// a header when there is more than one; msgpack output is a stream of IRs
// in input order.
func writeIR(w io.Writer, results []*driver.Result, format string) error {
	multi := len(results) > 1
	for _, res := range results {
		if !res.OK() {
			continue
		}
		switch format {
		case "msgpack":
			if err := ir.Encode(w, res.IR); err != nil {
				return fmt.Errorf("%s: %w", res.Path, err)
			}
		default:
			if multi {
				suffix := ""
				if res.Cached {
					suffix = " (cached)"
				}
				if _, err := fmt.Fprintf(w, "== %s%s ==\n", res.Path, suffix); err != nil {
					return err
				}
			}
			if err := ir.Dump(w, res.IR); err != nil {
				return fmt.Errorf("%s: %w", res.Path, err)
			}
		}
	}
	return nil
}

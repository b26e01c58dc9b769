// ethbind resolves how a board's Ethernet MAC controllers (GMAC, EMAC) bind
// to the ETH0/ETH1 interface slots and which PHY chip each one drives, then
// reports, diagnoses, generates build constants for, or brings up that
// binding.
//
// Usage:
//
//	ethbind resolve --config board.yaml
//	ethbind doctor --config board.yaml --probe-links
//	ethbind generate --config .config --format header
//	ethbind init --config board.yaml
//	ethbind cleanup --board sama5d4-ek
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Nativu5/ethbind/pkg/bringup"
	"github.com/Nativu5/ethbind/pkg/config"
	"github.com/Nativu5/ethbind/pkg/doctor"
	"github.com/Nativu5/ethbind/pkg/generate"
	"github.com/Nativu5/ethbind/pkg/netdev"
	"github.com/Nativu5/ethbind/pkg/report"
	"github.com/Nativu5/ethbind/pkg/resolve"
	"github.com/Nativu5/ethbind/pkg/types"
)

// Exit codes following CLI conventions.
const (
	exitOK           = 0
	exitRuntimeError = 1
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeError)
	}
}

// rootCmd builds the top-level cobra command tree.
func rootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "ethbind",
		Short: "Ethernet MAC/PHY binding resolver",
		Long:  "A board tool that resolves which Ethernet MAC controller owns each interface slot and which PHY it drives.",
		// Silence default usage on runtime errors; we handle exit codes ourselves.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			log.SetLevel(lvl)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	root.AddCommand(
		newResolveCmd(),
		newDoctorCmd(),
		newGenerateCmd(),
		newInitCmd(),
		newCleanupCmd(),
		newVersionCmd(),
	)

	return root
}

// ──────────────────────────────────────────────
//  resolve
// ──────────────────────────────────────────────

func newResolveCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve controller slots and PHY models for a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, res, err := loadAndResolve(configPath)
			if err != nil {
				return err
			}

			switch output {
			case "json":
				return report.PrintJSON(cmd.OutOrStdout(), f.Board, res)
			default:
				report.PrintTable(cmd.OutOrStdout(), f.Board, res)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Board file (.yaml/.json) or Kconfig .config")
	cmd.Flags().StringVar(&output, "output", "table", "Output format (table|json)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// ──────────────────────────────────────────────
//  doctor
// ──────────────────────────────────────────────

func newDoctorCmd() *cobra.Command {
	var (
		configPaths []string
		probeLinks  bool
		strict      bool
		showPass    bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics on one or more board configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Run diagnostics on each board and merge
			var reports []*doctor.Report
			for _, p := range configPaths {
				f, err := config.Load(p)
				if err != nil {
					return err
				}
				reports = append(reports, doctor.DiagnoseBoard(f, doctor.Options{ProbeLinks: probeLinks}))
			}
			merged := doctor.MergeReports(reports...)

			// Output
			switch output {
			case "json":
				if err := doctor.PrintJSON(cmd.OutOrStdout(), merged, showPass); err != nil {
					return err
				}
			default:
				doctor.PrintTable(cmd.OutOrStdout(), merged, showPass)
			}

			if merged.ExitNonZero(strict) {
				os.Exit(exitRuntimeError)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&configPaths, "config", nil, "Board configuration to check (repeatable)")
	cmd.Flags().BoolVar(&probeLinks, "probe-links", false, "Query the host links named in the board file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero on warnings")
	cmd.Flags().BoolVar(&showPass, "show-pass", false, "Show passed checks in output")
	cmd.Flags().StringVar(&output, "output", "table", "Output format (table|json)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// ──────────────────────────────────────────────
//  generate
// ──────────────────────────────────────────────

func newGenerateCmd() *cobra.Command {
	var (
		configPath string
		format     string
		outputDir  string
		prefix     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the resolved binding as a C header, YAML or JSON artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, res, err := loadAndResolve(configPath)
			if err != nil {
				return err
			}
			path, err := generate.Write(res, f.Board, outputDir, format, prefix)
			if err != nil {
				return fmt.Errorf("artifact generation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Binding written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Board file (.yaml/.json) or Kconfig .config")
	cmd.Flags().StringVar(&format, "format", "header", "Output format (header|yaml|json)")
	cmd.Flags().StringVar(&outputDir, "output-dir", generate.DefaultOutputDir, "Output directory for the artifact")
	cmd.Flags().StringVar(&prefix, "prefix", generate.DefaultMacroPrefix, "Macro prefix for header output")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// ──────────────────────────────────────────────
//  init
// ──────────────────────────────────────────────

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Bring up the present controllers on the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, res, err := loadAndResolve(configPath)
			if err != nil {
				return err
			}

			drivers := make(bringup.Drivers)
			for _, b := range res.Bindings {
				c := f.Controller(b.Controller)
				drivers[b.Controller] = netdev.NewDriver(c.Link, c.MTU, nil)
			}
			var hook bringup.PhyHook
			if res.PhyInit {
				hook = netdev.CommandHook(f.PhyInit.Command)
			}

			seq, err := bringup.New(res, drivers, hook)
			if err != nil {
				return err
			}
			if err := seq.InitializeAll(); err != nil {
				return fmt.Errorf("bring-up failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s: %s\n", f.Board, report.Summary(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Board file (.yaml/.json) or Kconfig .config")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// ──────────────────────────────────────────────
//  cleanup
// ──────────────────────────────────────────────

func newCleanupCmd() *cobra.Command {
	var (
		board     string
		outputDir string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove binding artifacts created by this tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := generate.Cleanup(outputDir, board, dryRun)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching artifacts found.")
			} else {
				action := "Removed"
				if dryRun {
					action = "Would remove"
				}
				for _, f := range removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", action, f)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&board, "board", "", "Board name to match (all if omitted)")
	cmd.Flags().StringVar(&outputDir, "output-dir", generate.DefaultOutputDir, "Artifact directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview files that would be removed")

	return cmd
}

// ──────────────────────────────────────────────
//  version
// ──────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ethbind %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}

// ──────────────────────────────────────────────
//  helpers
// ──────────────────────────────────────────────

// loadAndResolve reads a board configuration and resolves it. On failure
// every violation is reported, not only the first one Resolve hit.
func loadAndResolve(path string) (*config.File, *types.Resolution, error) {
	f, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	cfg := f.Facts()
	res, err := resolve.Resolve(cfg)
	if err != nil {
		if all := resolve.Check(cfg); all != nil {
			err = all
		}
		return nil, nil, fmt.Errorf("board %s: %w", f.Board, err)
	}
	log.Debugf("resolved %s: %s", f.Board, report.Summary(res))
	return f, res, nil
}

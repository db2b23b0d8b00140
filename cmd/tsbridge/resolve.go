package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsbridge/internal/driver"
	"tsbridge/internal/observ"
	"tsbridge/internal/project"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] specifier",
	Short: "Resolve a module specifier through tsconfig path aliases",
	Long:  `Resolve runs the fallback resolution protocol for one specifier and prints the resolved file`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().String("parent", "", "directory of the importing module (default: cwd)")
	resolveCmd.Flags().StringSlice("condition", nil, "export conditions, in priority order")
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	specifier := args[0]

	parent, err := cmd.Flags().GetString("parent")
	if err != nil {
		return fmt.Errorf("failed to get parent flag: %w", err)
	}
	if parent == "" {
		if parent, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
	}
	conditions, err := cmd.Flags().GetStringSlice("condition")
	if err != nil {
		return fmt.Errorf("failed to get condition flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	cfg, _, err := project.Discover(parent)
	if err != nil {
		return err
	}
	if len(conditions) == 0 {
		conditions = cfg.Resolver.Conditions
	}

	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	timer := observ.NewTimer()
	end := timer.Begin("resolve")

	d, err := driver.New(driver.Options{
		Conditions:  conditions,
		CacheSize:   cfg.Resolver.CacheSize,
		Tracer:      tracer,
		ProjectRoot: parent,
	})
	if err != nil {
		return err
	}
	res, err := d.Resolve(cmd.Context(), specifier, parent)
	end(specifier)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	switch format {
	case "pretty":
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.URL)
		if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "format: %s\n", res.Format)
		}
		return nil
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"url":          res.URL,
			"format":       res.Format,
			"shortCircuit": res.ShortCircuit,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tsbridge/internal/tsconfig"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases [flags] [dir]",
	Short: "Show the path aliases active in a directory",
	Long:  `Aliases finds the nearest tsconfig.json and prints its alias table in match order`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAliases,
}

func init() {
	aliasesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runAliases(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	path, ok, err := tsconfig.Find(dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no tsconfig.json found above %s", dir)
	}
	table, err := tsconfig.Load(path)
	if err != nil {
		return err
	}

	switch format {
	case "pretty":
		fmt.Fprintf(cmd.OutOrStdout(), "config: %s\nbaseUrl: %s\n", table.ConfigPath, table.BaseDir)
		if len(table.Patterns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no paths configured")
			return nil
		}
		width := 0
		for _, p := range table.Patterns {
			if len(p.Raw) > width {
				width = len(p.Raw)
			}
		}
		for _, p := range table.Patterns {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-*s -> %s\n", width, p.Raw, strings.Join(p.Replacements, ", "))
		}
		return nil
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

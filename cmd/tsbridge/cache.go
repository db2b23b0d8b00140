package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"tsbridge/internal/dcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persisted export cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [dir]",
	Short: "Show cached export records for a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheShow,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [dir]",
	Short: "Drop the cached export records for a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func projectRootArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return wd, nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	root, err := projectRootArg(args)
	if err != nil {
		return err
	}
	disk, err := dcache.Open("tsbridge")
	if err != nil {
		return fmt.Errorf("failed to open export cache: %w", err)
	}
	snap, ok, err := disk.Get(root)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "no cache for %s\n", root)
		return nil
	}

	specifiers := make([]string, 0, len(snap.Exports))
	for specifier := range snap.Exports {
		specifiers = append(specifiers, specifier)
	}
	sort.Strings(specifiers)
	for _, specifier := range specifiers {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d exports\n", specifier, len(snap.Exports[specifier]))
	}
	failed := append([]string(nil), snap.Failed...)
	sort.Strings(failed)
	for _, specifier := range failed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: probe failed\n", specifier)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	root, err := projectRootArg(args)
	if err != nil {
		return err
	}
	disk, err := dcache.Open("tsbridge")
	if err != nil {
		return fmt.Errorf("failed to open export cache: %w", err)
	}
	if err := disk.Drop(root); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "cache cleared for %s\n", root)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tsbridge/internal/dcache"
	"tsbridge/internal/driver"
	"tsbridge/internal/introspect"
	"tsbridge/internal/observ"
	"tsbridge/internal/project"
)

var elideCmd = &cobra.Command{
	Use:   "elide [flags] path...",
	Short: "Strip type-only imports from source files",
	Long: `Elide rewrites TypeScript sources, removing imported names that the
target package does not export at runtime. Each path may be a file or a
directory tree. Export sets come from the persisted probe cache and the
--exports file. A single file without --write prints to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runElide,
}

func init() {
	elideCmd.Flags().Bool("write", false, "write rewritten files back (default: dry run)")
	elideCmd.Flags().String("exports", "", "JSON file mapping package names to their runtime exports")
	elideCmd.Flags().Int("jobs", 0, "rewrite parallelism (default: GOMAXPROCS)")
}

// loadExportsFile reads a user-supplied {"pkg": ["name", ...]} map.
func loadExportsFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exports file: %w", err)
	}
	var exports map[string][]string
	if err := json.Unmarshal(data, &exports); err != nil {
		return nil, fmt.Errorf("%s: failed to parse exports file: %w", path, err)
	}
	return exports, nil
}

func runElide(cmd *cobra.Command, args []string) error {
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	exportsPath, err := cmd.Flags().GetString("exports")
	if err != nil {
		return fmt.Errorf("failed to get exports flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	root := args[0]
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	cfg, _, err := project.Discover(root)
	if err != nil {
		return err
	}
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Без запущенного рантайма экспорт берётся из файла и кеша.
	var loader introspect.Loader
	if exportsPath != "" {
		exports, err := loadExportsFile(exportsPath)
		if err != nil {
			return err
		}
		loader = introspect.LoaderFunc(func(_ context.Context, specifier string) ([]string, error) {
			names, ok := exports[specifier]
			if !ok {
				return nil, fmt.Errorf("no export record for %q", specifier)
			}
			return names, nil
		})
	}

	disk, err := dcache.Open("tsbridge")
	if err != nil {
		return fmt.Errorf("failed to open export cache: %w", err)
	}

	timer := observ.NewTimer()
	end := timer.Begin("rewrite")

	d, err := driver.New(driver.Options{
		Conditions:  cfg.Resolver.Conditions,
		CacheSize:   cfg.Resolver.CacheSize,
		Loader:      loader,
		Tracer:      tracer,
		Disk:        disk,
		ProjectRoot: root,
		Jobs:        jobs,
	})
	if err != nil {
		return err
	}

	var results []driver.FileResult
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			results = append(results, d.RewriteFile(cmd.Context(), arg))
			continue
		}
		dirResults, err := d.RewriteDir(cmd.Context(), arg)
		if err != nil {
			return fmt.Errorf("rewrite failed: %w", err)
		}
		for _, res := range dirResults {
			res.Path = filepath.Join(arg, res.Path)
			results = append(results, res)
		}
	}
	end(fmt.Sprintf("%d files", len(results)))

	if err := d.PersistExports(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	// Один файл без --write печатается целиком.
	if len(results) == 1 && !write {
		if results[0].Err != nil {
			return results[0].Err
		}
		if _, err := cmd.OutOrStdout().Write(results[0].Output); err != nil {
			return err
		}
		if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
		return nil
	}

	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	changedColor := color.New(color.FgGreen)
	failedColor := color.New(color.FgRed)
	if !useColor {
		changedColor.DisableColor()
		failedColor.DisableColor()
	}

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	var changes, failures, written int
	for _, res := range results {
		if res.Err != nil {
			failures++
			failedColor.Fprintf(cmd.ErrOrStderr(), "error %s: %v\n", res.Path, res.Err)
			continue
		}
		if !res.Changed {
			continue
		}
		changes++
		if !quiet {
			changedColor.Fprintf(cmd.OutOrStdout(), "rewrite %s\n", res.Path)
		}
		if write {
			if err := os.WriteFile(res.Path, res.Output, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", res.Path, err)
			}
			written++
		}
	}

	if !quiet {
		if write {
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d files rewritten\n", written, len(results))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d files would change (use --write)\n", changes, len(results))
		}
	}
	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if failures > 0 {
		return fmt.Errorf("%d files failed", failures)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsbridge/internal/project"
	"tsbridge/internal/trace"
)

// setupTracing builds the tracer from flags, falling back to the
// nearest tsbridge.toml. Returns the tracer and a cleanup function.
func setupTracing(cmd *cobra.Command, cfg *project.Config) (trace.Tracer, func(), error) {
	root := cmd.Root()

	output, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	// Флаги имеют приоритет над конфигом.
	if levelStr == "off" && cfg != nil && cfg.Trace.Level != "" {
		levelStr = cfg.Trace.Level
	}
	if output == "" && cfg != nil {
		output = cfg.Trace.Output
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		return trace.Nop, func() {}, nil
	}

	var tracer *trace.StreamTracer
	switch output {
	case "", "-":
		tracer = trace.NewStreamTracer(os.Stderr, level)
	default:
		f, err := os.Create(output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		tracer = trace.NewStreamTracer(f, level)
	}

	cleanup := func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

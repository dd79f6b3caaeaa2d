package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quarry/internal/trace"
)

// setupTracing reads the trace flag and builds a tracer writing to
// stderr, or the no-op tracer when tracing is off.
func setupTracing(cmd *cobra.Command) (trace.Tracer, error) {
	levelStr, err := cmd.Root().PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff {
		return trace.Nop, nil
	}
	return trace.NewWriter(os.Stderr, level), nil
}

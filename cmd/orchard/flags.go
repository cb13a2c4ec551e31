package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/internal/scope"
)

// resolveColor maps a palette name to its hex value and passes anything else
// through.
func resolveColor(s string) string {
	if c, ok := engine.ColorByName(s); ok {
		return c.Hex
	}
	return s
}

// changed returns &value when the flag was set on the command line.
func changed(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func parsePartition(s string) (scope.Key, error) {
	key, err := scope.Parse(s)
	if err != nil {
		return scope.Key{}, fmt.Errorf("invalid partition: %w", err)
	}
	return key, nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsarchive/fsa-core/pkg/archive"
	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/option"
)

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <base-path>",
		Short: "Read an archive and stream its blocks to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(args[0])
		},
	}
}

func runRead(basePath string) error {
	logger := newLogger()

	r, err := archive.NewReader(basePath, option.WithReadLogger(logger))
	if err != nil {
		return fmt.Errorf("opening archive for read: %w", err)
	}
	defer r.Close()

	for {
		payload, bytesUsed, err := r.ReadBlock()
		if err != nil {
			if archerr.Is(err, archerr.EndOfArchive) {
				return nil
			}
			return fmt.Errorf("reading block: %w", err)
		}
		if _, err := os.Stdout.Write(payload[:bytesUsed]); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
	}
}

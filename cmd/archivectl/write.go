package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fsarchive/fsa-core/pkg/archive"
	"github.com/fsarchive/fsa-core/pkg/consts"
	"github.com/fsarchive/fsa-core/pkg/option"
)

func newWriteCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "write <base-path>",
		Short: "Write stdin into a new archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(args[0], overwrite)
		},
	}
	cmd.Flags().BoolVarP(&overwrite, "force", "f", false, "overwrite an existing volume 0")
	return cmd
}

func runWrite(basePath string, overwrite bool) error {
	logger := newLogger()

	w, err := archive.NewWriter(basePath,
		option.WithSplitSize(viper.GetInt64("split_size")),
		option.WithECCLevel(viper.GetInt("ecc_level")),
		option.WithOverwriteExisting(overwrite || viper.GetBool("overwrite_existing")),
		option.WithWriteLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("opening archive for write: %w", err)
	}

	blockSize := consts.DefaultK * consts.PacketSize
	buf := make([]byte, blockSize)
	for {
		n, readErr := io.ReadFull(os.Stdin, buf)
		if n > 0 {
			// WriteBlock hands this slice to the Writer Pipeline goroutine,
			// which FEC-encodes it asynchronously; buf is reused on the next
			// read, so the pipeline needs its own copy of the bytes.
			block := make([]byte, len(buf))
			copy(block, buf[:n])
			if err := w.WriteBlock(block, uint32(n)); err != nil {
				return fmt.Errorf("writing block: %w", err)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("reading stdin: %w", readErr)
		}
	}

	return w.Close()
}

// Command fsarchive is a thin CLI over pkg/archive: it streams raw bytes
// from stdin into a split, FEC-protected archive, or streams a written
// archive's blocks back out to stdout. It implements none of the
// functionality the core's Non-goals exclude (traversal, metadata,
// compression, encryption) — those are a real archiver's job, not this
// core's.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bgrewell/usage"
	"github.com/theckman/yacspin"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/consts"
	"github.com/fsarchive/fsa-core/pkg/logging"
	"github.com/fsarchive/fsa-core/pkg/option"
	"github.com/fsarchive/fsa-core/pkg/version"

	"github.com/fsarchive/fsa-core/pkg/archive"
)

func main() {
	u := usage.NewUsage(
		usage.WithApplicationVersion(version.Version()),
		usage.WithApplicationBranch(version.Branch()),
		usage.WithApplicationBuildDate(version.Date()),
		usage.WithApplicationCommitHash(version.Revision()),
		usage.WithApplicationName("fsarchive"),
		usage.WithApplicationDescription("fsarchive streams opaque data from stdin into a split, FEC-protected archive, or streams one back out to stdout."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	read := u.AddBooleanOption("r", "read", false, "Read an existing archive instead of writing one", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print verbose (debug) logging to stderr", "optional", nil)
	overwrite := u.AddBooleanOption("f", "force", false, "Overwrite an existing volume 0", "optional", nil)
	basePath := u.AddArgument(1, "base-path", "Base path of the archive (volume 0), e.g. archive.fsa", "")
	splitMB := u.AddArgument(2, "split-mb", "Split the archive every N megabytes, 0 for no split (write only)", "0")
	ecc := u.AddArgument(3, "ecc", "FEC redundancy level: parity packets per block (write only)", "0")

	if !u.Parse() {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if basePath == nil || *basePath == "" {
		u.PrintError(fmt.Errorf("base-path is required"))
		os.Exit(1)
	}

	splitMBValue, err := strconv.Atoi(*splitMB)
	if err != nil {
		u.PrintError(fmt.Errorf("split-mb must be an integer: %w", err))
		os.Exit(1)
	}
	eccValue, err := strconv.Atoi(*ecc)
	if err != nil {
		u.PrintError(fmt.Errorf("ecc must be an integer: %w", err))
		os.Exit(1)
	}

	verbosity := logging.LEVEL_INFO
	if *verbose {
		verbosity = logging.LEVEL_DEBUG
	}
	logger := logging.NewLogger(logging.NewSimpleLogger(os.Stderr, verbosity, true))

	spinner, err := newSpinner()
	if err != nil {
		u.PrintError(fmt.Errorf("starting progress spinner: %w", err))
		os.Exit(1)
	}

	if *read {
		err = runRead(*basePath, logger, spinner)
	} else {
		err = runWrite(*basePath, int64(splitMBValue)*1024*1024, eccValue, *overwrite, logger, spinner)
	}

	_ = spinner.Stop()
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
}

func newSpinner() (*yacspin.Spinner, error) {
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " ",
		SuffixAutoColon: true,
		Message:         "starting",
		StopCharacter:   "done",
		StopColors:      []string{"fgGreen"},
	}
	s, err := yacspin.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// blockSize is the fixed logical block size pkg/archive requires of every
// WriteBlock call: K*PacketSize bytes.
func blockSize() int {
	return consts.DefaultK * consts.PacketSize
}

// isEndOfArchive reports whether err is the archive core's clean
// end-of-archive terminator rather than a real failure.
func isEndOfArchive(err error) bool {
	return archerr.Is(err, archerr.EndOfArchive)
}

func runWrite(basePath string, splitSize int64, eccLevel int, overwrite bool, logger *logging.Logger, spinner *yacspin.Spinner) error {
	progress := func(blocksWritten int, bytesWritten int64, _ int64) {
		_ = spinner.Message(fmt.Sprintf("wrote %d blocks (%d bytes)", blocksWritten, bytesWritten))
	}

	w, err := archive.NewWriter(basePath,
		option.WithSplitSize(splitSize),
		option.WithECCLevel(eccLevel),
		option.WithOverwriteExisting(overwrite),
		option.WithWriteLogger(logger),
		option.WithWriteProgress(progress),
	)
	if err != nil {
		return fmt.Errorf("opening archive for write: %w", err)
	}

	buf := make([]byte, blockSize())
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

func runRead(basePath string, logger *logging.Logger, spinner *yacspin.Spinner) error {
	progress := func(blocksRead int, bytesRead int64, _ int64) {
		_ = spinner.Message(fmt.Sprintf("read %d blocks (%d bytes)", blocksRead, bytesRead))
	}

	r, err := archive.NewReader(basePath,
		option.WithReadLogger(logger),
		option.WithReadProgress(progress),
	)
	if err != nil {
		return fmt.Errorf("opening archive for read: %w", err)
	}
	defer r.Close()

	for {
		payload, bytesUsed, err := r.ReadBlock()
		if err != nil {
			if isEndOfArchive(err) {
				return nil
			}
			return fmt.Errorf("reading block: %w", err)
		}
		if _, err := os.Stdout.Write(payload[:bytesUsed]); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
	}
}

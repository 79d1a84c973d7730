package archive

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/fsarchive/fsa-core/pkg/archive/pipeline"
	"github.com/fsarchive/fsa-core/pkg/logging"
	"github.com/fsarchive/fsa-core/pkg/option"
)

// drainPollInterval is how often the default missing-volume resolver polls
// the output queue while waiting for it to empty, matching the ~5ms poll in
// the original archiver's interactive prompt.
const drainPollInterval = 5 * time.Millisecond

// defaultMissingVolumeResolver drains out to zero (so terminal output from
// a slower consumer doesn't interleave with the prompt), then asks for a
// replacement path on stdin. It fails fast instead of prompting when stdin
// isn't a terminal, since Scanln would otherwise hang a non-interactive
// process forever.
func defaultMissingVolumeResolver(out *pipeline.Queue, logger *logging.Logger) option.MissingVolumeResolver {
	return func(basePath string, volumeNumber int) (string, error) {
		for out.Len() > 0 {
			time.Sleep(drainPollInterval)
		}

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return "", fmt.Errorf("volume %d of archive %q is missing and stdin is not a terminal", volumeNumber, basePath)
		}

		logger.Info("archive volume missing, waiting for operator", "base_path", basePath, "volume_number", volumeNumber)
		fmt.Printf("Volume %d of archive %q not found. Enter a path to continue: ", volumeNumber, basePath)

		var path string
		if _, err := fmt.Scanln(&path); err != nil {
			return "", fmt.Errorf("reading replacement path: %w", err)
		}
		return path, nil
	}
}

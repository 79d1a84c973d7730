package pipeline

import (
	"fmt"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/fec"
	"github.com/fsarchive/fsa-core/pkg/archive/volume"
	"github.com/fsarchive/fsa-core/pkg/consts"
	"github.com/fsarchive/fsa-core/pkg/logging"
	"github.com/fsarchive/fsa-core/pkg/option"
)

// RunWriter drives the producer thread's contract end to end: it writes
// the FEC main header (twice, for redundancy — consts.FECMainHeadCopies),
// then drains in until end-of-stream, FEC-encoding and writing each block.
//
// The two main-header copies are written as two independent write_block
// calls with no split-check suppression between them; if a split lands
// between the two writes, the second copy ends up in volume 1. This
// reproduces the archive format's original behavior verbatim rather than
// special-casing the first write — see the open-question note this
// repeats: callers using a very small split_size on a freshly truncated
// archive should budget at least 2*FECMainHeaderSize into volume 0.
//
// On any failure after bytes have already reached disk, RunWriter stops
// feeding in, closes the current volume as non-final, and deletes every
// volume file the session created, leaving no partial archive behind.
func RunWriter(in *Queue, vs *volume.WriteSession, codec *fec.Codec, logger *logging.Logger, progress option.ProgressCallback) error {
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	mainHeader := fec.MainHeader{Version: 1, FecN: uint32(codec.N())}
	payload := fec.MarshalMainHeader(mainHeader)

	for i := 0; i < consts.FECMainHeadCopies; i++ {
		if err := vs.WriteBlock(payload, uint32(len(payload))); err != nil {
			return abortWrite(in, vs, logger, fmt.Errorf("writing FEC main header copy %d: %w", i, err))
		}
	}

	var blocksWritten int
	var bytesWritten int64

	for {
		b, ok := in.Pop()
		if !ok {
			break
		}

		coded, err := codec.Encode(b.Payload)
		if err != nil {
			return abortWrite(in, vs, logger, fmt.Errorf("FEC-encoding block %d: %w", blocksWritten, err))
		}
		if err := vs.WriteBlock(coded, b.BytesUsed); err != nil {
			return abortWrite(in, vs, logger, fmt.Errorf("writing block %d: %w", blocksWritten, err))
		}

		blocksWritten++
		bytesWritten += int64(b.BytesUsed)
		if progress != nil {
			progress(blocksWritten, bytesWritten, 0)
		}
	}

	if err := vs.CloseWrite(true); err != nil {
		return abortWrite(in, vs, logger, fmt.Errorf("closing last volume: %w", err))
	}
	logger.Debug("writer pipeline finished", "blocks_written", blocksWritten, "bytes_written", bytesWritten)
	return nil
}

func abortWrite(in *Queue, vs *volume.WriteSession, logger *logging.Logger, cause error) error {
	logger.Error(cause, "writer pipeline aborting, deleting partial archive")
	in.StopFeeding()
	_ = vs.CloseWrite(false)
	if err := vs.DeleteAll(); err != nil {
		logger.Error(err, "failed to delete partial archive volumes")
	}
	return archerr.New(archerr.IoError, "pipeline.writer", cause)
}

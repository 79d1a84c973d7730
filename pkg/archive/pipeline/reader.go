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

// RunReader drives the consumer thread's contract end to end: it reads all
// FEC main header copies, uses the first one that validates, builds a
// matching fec.Codec,
// then loops reading and FEC-decoding blocks until end of archive, pushing
// reconstructed blocks onto out.
//
// A block with bad packets that still met the K-good threshold is
// delivered and logged at DEBUG ("recovered"), not ERROR: the original
// archiver logged this path at error level, but a successfully repaired
// block is not an operator-actionable failure, only something worth
// recording for diagnostics. ERROR is reserved for Unrecoverable blocks,
// which are dropped (not delivered) while the read continues.
func RunReader(out *Queue, rs *volume.ReadSession, logger *logging.Logger, progress option.ProgressCallback) error {
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	var mainHeader fec.MainHeader
	found := false
	for i := 0; i < consts.FECMainHeadCopies; i++ {
		raw, _, err := rs.ReadBlock(consts.FECMainHeaderSize)
		if err != nil {
			out.CloseStream()
			return archerr.New(archerr.FormatError, "pipeline.reader", fmt.Errorf("reading FEC main header copy %d: %w", i, err))
		}
		mh, ok, err := fec.UnmarshalMainHeader(raw)
		if err != nil {
			out.CloseStream()
			return archerr.New(archerr.FormatError, "pipeline.reader", err)
		}
		if ok {
			if !found {
				mainHeader = mh
				found = true
			}
			continue
		}
		logger.Debug("FEC main header copy failed MD5 validation, trying next copy", "copy", i)
	}
	if !found {
		out.CloseStream()
		return archerr.New(archerr.FormatError, "pipeline.reader", fmt.Errorf("no valid FEC main header among %d copies", consts.FECMainHeadCopies))
	}

	codec, err := fec.NewCodec(consts.DefaultK, int(mainHeader.FecN)-consts.DefaultK, consts.PacketSize)
	if err != nil {
		out.CloseStream()
		return archerr.New(archerr.FormatError, "pipeline.reader", fmt.Errorf("building FEC codec for n=%d: %w", mainHeader.FecN, err))
	}

	var blocksRead int
	var bytesRead int64

	for {
		coded, bytesUsed, err := rs.ReadBlock(codec.CodedSize())
		if archerr.Is(err, archerr.EndOfArchive) {
			break
		}
		if err != nil {
			out.CloseStream()
			return archerr.New(archerr.IoError, "pipeline.reader", fmt.Errorf("reading block %d: %w", blocksRead, err))
		}

		block, badCount, err := codec.Decode(coded)
		if err != nil {
			logger.Error(err, "cannot fix corruption, dropping block", "block_index", blocksRead, "bad_packets", badCount)
			continue
		}
		if badCount > 0 {
			logger.Debug("recovered bad packets via FEC", "block_index", blocksRead, "bad_packets", badCount)
		}

		if !out.Push(Block{Payload: block, BytesUsed: bytesUsed}) {
			return archerr.New(archerr.IoError, "pipeline.reader", fmt.Errorf("output queue stopped accepting blocks"))
		}

		blocksRead++
		bytesRead += int64(bytesUsed)
		if progress != nil {
			progress(blocksRead, bytesRead, 0)
		}
	}

	out.CloseStream()
	logger.Debug("reader pipeline finished", "blocks_read", blocksRead, "bytes_read", bytesRead)
	return nil
}

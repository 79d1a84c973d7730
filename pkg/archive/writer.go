// Package archive is the session facade: it wires the Volume Store, FEC
// Codec and Writer/Reader Pipelines together behind the two types real
// callers use, Writer and Reader, mirroring the way the teacher's
// ISO9660Image wires its parser and extractor behind one Image interface.
package archive

import (
	"fmt"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/fec"
	"github.com/fsarchive/fsa-core/pkg/archive/pipeline"
	"github.com/fsarchive/fsa-core/pkg/archive/volume"
	"github.com/fsarchive/fsa-core/pkg/consts"
	"github.com/fsarchive/fsa-core/pkg/option"
)

// queueCapacity bounds how many decoded/undecoded logical blocks may sit
// between the caller and the pipeline goroutine before WriteBlock/ReadBlock
// blocks. It has no on-disk meaning, only a throughput/memory tradeoff.
const queueCapacity = 4

// blockSize is the fixed logical block size every producer must hand to
// WriteBlock: K*PacketSize bytes, per the archive format's compile-time
// constants.
const blockSize = consts.DefaultK * consts.PacketSize

// Writer is a single producer-side archive write session: one Volume
// Store, one FEC Codec, and one Writer Pipeline goroutine draining blocks
// handed to it via WriteBlock.
type Writer struct {
	opts     *option.WriteOptions
	queue    *pipeline.Queue
	resultCh chan error
}

// NewWriter opens base_path for writing and starts the Writer Pipeline
// goroutine. The returned Writer is ready to accept WriteBlock calls;
// Close must be called exactly once to flush and finalize the archive.
func NewWriter(basePath string, opts ...option.WriteOption) (*Writer, error) {
	o := option.NewWriteOptions(opts...)

	vs, err := volume.NewWriteSession(basePath, o.ECCLevel, o.SplitSize, o.OverwriteExisting, o.Logger)
	if err != nil {
		return nil, err
	}
	codec, err := fec.NewCodec(consts.DefaultK, o.ECCLevel, consts.PacketSize)
	if err != nil {
		return nil, err
	}

	o.Logger.Info("write session opened", "session_id", o.SessionID.String(), "archive_id", vs.ArchiveID(), "ecc_level", o.ECCLevel, "split_size", o.SplitSize)

	w := &Writer{
		opts:     o,
		queue:    pipeline.NewQueue(queueCapacity),
		resultCh: make(chan error, 1),
	}
	go func() {
		w.resultCh <- pipeline.RunWriter(w.queue, vs, codec, o.Logger, o.Progress)
	}()
	return w, nil
}

// WriteBlock hands one logical block to the Writer Pipeline. payload must
// be exactly K*PacketSize bytes; bytesUsed must be in (0, len(payload)].
// It blocks if the pipeline's input queue is full.
func (w *Writer) WriteBlock(payload []byte, bytesUsed uint32) error {
	if len(payload) != blockSize {
		return archerr.New(archerr.FormatError, "archive.WriteBlock", fmt.Errorf("payload is %d bytes, want %d", len(payload), blockSize))
	}
	if bytesUsed == 0 || bytesUsed > uint32(blockSize) {
		return archerr.New(archerr.FormatError, "archive.WriteBlock", fmt.Errorf("bytes_used %d out of range (0, %d]", bytesUsed, blockSize))
	}
	if !w.queue.Push(pipeline.Block{Payload: payload, BytesUsed: bytesUsed}) {
		return archerr.New(archerr.IoError, "archive.WriteBlock", fmt.Errorf("write session is shutting down"))
	}
	return nil
}

// Close signals end-of-stream to the Writer Pipeline and waits for it to
// finalize the archive (closing the last volume with last_volume=true) or
// report the failure that triggered a delete_all rollback.
func (w *Writer) Close() error {
	w.queue.CloseStream()
	return <-w.resultCh
}

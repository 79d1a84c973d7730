package archive

import (
	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/pipeline"
	"github.com/fsarchive/fsa-core/pkg/archive/volume"
	"github.com/fsarchive/fsa-core/pkg/option"
)

// Reader is a single consumer-side archive read session: one Volume Store
// and one Reader Pipeline goroutine, delivering reconstructed blocks via
// ReadBlock in the order they were written.
type Reader struct {
	rs       *volume.ReadSession
	opts     *option.ReadOptions
	queue    *pipeline.Queue
	resultCh chan error
	finalErr error
	finished bool
}

// NewReader opens base_path for reading, validates its volume 0 descriptor,
// and starts the Reader Pipeline goroutine. If opts doesn't set a
// WithMissingVolumeResolver, the built-in interactive one is used.
func NewReader(basePath string, opts ...option.ReadOption) (*Reader, error) {
	o := option.NewReadOptions(opts...)

	queue := pipeline.NewQueue(queueCapacity)

	resolver := o.OnMissingVolume
	if resolver == nil {
		resolver = defaultMissingVolumeResolver(queue, o.Logger)
	}

	rs, err := volume.NewReadSession(basePath, volume.MissingVolumeResolver(resolver), o.Logger)
	if err != nil {
		return nil, err
	}

	o.Logger.Info("read session opened", "session_id", o.SessionID.String(), "archive_id", rs.ArchiveID(), "ecc_level", rs.ECCLevel())

	r := &Reader{
		rs:       rs,
		opts:     o,
		queue:    queue,
		resultCh: make(chan error, 1),
	}
	go func() {
		r.resultCh <- pipeline.RunReader(r.queue, rs, o.Logger, o.Progress)
	}()
	return r, nil
}

// ReadBlock returns the next reconstructed logical block and its
// bytes_used, or an *archerr.Error of kind EndOfArchive once the archive's
// last volume has been consumed, or whatever error the Reader Pipeline
// reported.
func (r *Reader) ReadBlock() ([]byte, uint32, error) {
	if r.finished {
		if r.finalErr != nil {
			return nil, 0, r.finalErr
		}
		return nil, 0, archerr.New(archerr.EndOfArchive, "archive.ReadBlock", nil)
	}

	b, ok := r.queue.Pop()
	if !ok {
		r.finished = true
		r.finalErr = <-r.resultCh
		if r.finalErr != nil {
			return nil, 0, r.finalErr
		}
		return nil, 0, archerr.New(archerr.EndOfArchive, "archive.ReadBlock", nil)
	}
	return b.Payload, b.BytesUsed, nil
}

// Close releases the current volume file handle. Safe to call after
// ReadBlock has reported EndOfArchive or any other terminal error.
func (r *Reader) Close() error {
	return r.rs.CloseRead()
}

package option

import (
	"github.com/google/uuid"

	"github.com/fsarchive/fsa-core/pkg/logging"
)

// ProgressCallback reports the progress of a write or read session: how
// many blocks have been processed so far and the sum of their bytes_used,
// out of an optional known total (0 when the total isn't known ahead of
// time; the pipelines always pass 0).
type ProgressCallback func(blocksWritten int, bytesWritten int64, totalBytes int64)

// WriteOptions configures a write Session. The zero value is not usable;
// construct via NewWriteOptions so Logger and SessionID are set.
type WriteOptions struct {
	SplitSize         int64
	ECCLevel          int
	OverwriteExisting bool
	Progress          ProgressCallback
	Logger            *logging.Logger
	SessionID         uuid.UUID
}

// WriteOption mutates a WriteOptions during session construction.
type WriteOption func(*WriteOptions)

// NewWriteOptions builds a WriteOptions with the core's defaults (no split,
// no FEC redundancy, refuse to overwrite) and applies opts over them.
func NewWriteOptions(opts ...WriteOption) *WriteOptions {
	o := &WriteOptions{
		SplitSize:         0,
		ECCLevel:          0,
		OverwriteExisting: false,
		Logger:            logging.DefaultLogger(),
		SessionID:         uuid.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSplitSize sets the maximum byte size of a single volume file. Zero
// disables splitting: the archive is written as one growing volume.
func WithSplitSize(bytes int64) WriteOption {
	return func(o *WriteOptions) {
		o.SplitSize = bytes
	}
}

// WithECCLevel sets the number of parity packets added per block, i.e.
// N = K + level. The caller is responsible for keeping level within
// [0, NMax-K]; the FEC codec rejects out-of-range values when it is built,
// so archive.NewWriter returns the error.
func WithECCLevel(level int) WriteOption {
	return func(o *WriteOptions) {
		o.ECCLevel = level
	}
}

// WithOverwriteExisting allows the first write_block, which creates volume
// 0, to reuse a base path whose volume 0 already exists, truncating it
// instead of failing.
func WithOverwriteExisting(overwrite bool) WriteOption {
	return func(o *WriteOptions) {
		o.OverwriteExisting = overwrite
	}
}

// WithWriteProgress registers a callback invoked after each accepted block.
func WithWriteProgress(cb ProgressCallback) WriteOption {
	return func(o *WriteOptions) {
		o.Progress = cb
	}
}

// WithWriteLogger injects a logger; DefaultLogger (discard) is used if omitted.
func WithWriteLogger(logger *logging.Logger) WriteOption {
	return func(o *WriteOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

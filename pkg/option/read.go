package option

import (
	"github.com/google/uuid"

	"github.com/fsarchive/fsa-core/pkg/logging"
)

// MissingVolumeResolver is consulted when the reader reaches the end of a
// volume that did not set last_volume and the next volume's file isn't
// present yet (e.g. the archive spans removable media). It receives the
// base path and the index of the volume being waited for, and returns the
// path to read it from, or an error to abort the read.
type MissingVolumeResolver func(basePath string, volumeNumber int) (path string, err error)

// ReadOptions configures a read Session.
type ReadOptions struct {
	Progress        ProgressCallback
	Logger          *logging.Logger
	SessionID       uuid.UUID
	OnMissingVolume MissingVolumeResolver
}

// ReadOption mutates a ReadOptions during session construction.
type ReadOption func(*ReadOptions)

// NewReadOptions builds a ReadOptions with the core's defaults (no
// progress callback, discard logger, and no missing-volume resolver, in
// which case archive.NewReader uses its built-in interactive one) and
// applies opts over them.
func NewReadOptions(opts ...ReadOption) *ReadOptions {
	o := &ReadOptions{
		Logger:    logging.DefaultLogger(),
		SessionID: uuid.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithReadProgress registers a callback invoked after each delivered block.
func WithReadProgress(cb ProgressCallback) ReadOption {
	return func(o *ReadOptions) {
		o.Progress = cb
	}
}

// WithReadLogger injects a logger; DefaultLogger (discard) is used if omitted.
func WithReadLogger(logger *logging.Logger) ReadOption {
	return func(o *ReadOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithMissingVolumeResolver overrides how the reader resolves a missing
// next volume; the default prompts interactively on a terminal and fails
// immediately otherwise.
func WithMissingVolumeResolver(resolver MissingVolumeResolver) ReadOption {
	return func(o *ReadOptions) {
		o.OnMissingVolume = resolver
	}
}

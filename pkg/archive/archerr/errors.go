// Package archerr defines the error-kind taxonomy shared by every layer of
// the archive core, so a caller can branch on what went wrong (a short
// write vs. a bad checksum vs. a version gate) without parsing strings.
package archerr

import "errors"

// Kind classifies why an archive operation failed.
type Kind int

const (
	// IoError means the underlying read/write/seek/stat failed.
	IoError Kind = iota
	// NoSpace means a short write where statfs reports (near-)zero free bytes.
	NoSpace
	// FormatError means a magic/archive_id mismatch at an expected frame
	// boundary, or an unknown type tag.
	FormatError
	// ChecksumError means a Fletcher-32 or MD5 mismatch.
	ChecksumError
	// VersionMismatch means minimum_reader_version exceeds the
	// implementation's version.
	VersionMismatch
	// VolumeMismatch means a wrong volume number or wrong archive id was
	// found on continuation.
	VolumeMismatch
	// Unrecoverable means an FEC block had fewer than K good packets.
	Unrecoverable
	// EndOfArchive means the clean terminator was observed; not itself an
	// error, but carried through the same Error type for uniform handling.
	EndOfArchive
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case NoSpace:
		return "NoSpace"
	case FormatError:
		return "FormatError"
	case ChecksumError:
		return "ChecksumError"
	case VersionMismatch:
		return "VersionMismatch"
	case VolumeMismatch:
		return "VolumeMismatch"
	case Unrecoverable:
		return "Unrecoverable"
	case EndOfArchive:
		return "EndOfArchive"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every exported operation in
// pkg/archive/*. Op names the failing operation (e.g. "volume.write_block")
// so log lines and %w chains stay greppable.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error, wrapping err (which may be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is an *Error of the given Kind, unwrapping through
// any fmt.Errorf %w chain to find it.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

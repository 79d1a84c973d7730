package frame

import (
	"errors"
	"io"

	"github.com/fsarchive/fsa-core/pkg/consts"
)

// ErrEndOfFile is returned by ReadWithResync when no frame (matching or
// not) could be found before the underlying reader ran out of bytes. It is
// distinct from archerr.EndOfArchive: reaching physical end of file without
// ever seeing a last_volume descriptor is a format violation at the Volume
// Store layer, not a clean archive terminator.
var ErrEndOfFile = errors.New("frame: end of file")

// ReadWithResync reads one frame from r, tolerating garbage inserted
// between frames. It remembers the starting offset, attempts a full
// HeaderSize read, and accepts the first candidate whose magic and
// archive_id match; anything else is treated as noise and the scan
// advances one byte and retries. The Fletcher-32 checksum is NOT part of
// acceptance here — a frame with a bad checksum is still returned (with
// ok=false) so the caller can inspect both descriptor copies before
// deciding; only magic+archive_id gate the resynchronization itself.
//
// bytesSkipped counts how many bytes were discarded before a matching
// frame was found, for diagnostic logging.
func ReadWithResync(r io.ReadSeeker, archiveID uint32) (hdr Header, checksumOK bool, bytesSkipped int64, err error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Header{}, false, 0, err
	}

	pos := start
	buf := make([]byte, HeaderSize)

	for {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return Header{}, false, bytesSkipped, err
		}

		n, readErr := io.ReadFull(r, buf)
		if readErr != nil {
			if errors.Is(readErr, io.ErrUnexpectedEOF) || errors.Is(readErr, io.EOF) {
				return Header{}, false, bytesSkipped, ErrEndOfFile
			}
			return Header{}, false, bytesSkipped, readErr
		}
		if n != HeaderSize {
			return Header{}, false, bytesSkipped, ErrEndOfFile
		}

		var candidate Header
		if err := candidate.Unmarshal(buf); err != nil {
			return Header{}, false, bytesSkipped, err
		}

		if candidate.Magic == consts.FrameMagic && candidate.ArchiveID == archiveID {
			return candidate, candidate.ChecksumOK(), bytesSkipped, nil
		}

		pos++
		bytesSkipped++
	}
}

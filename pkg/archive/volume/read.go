package volume

import (
	"fmt"
	"io"
	"os"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/frame"
	"github.com/fsarchive/fsa-core/pkg/logging"
)

// MissingVolumeResolver is called when the path computed for the next
// volume does not exist as a regular file. It returns the path to retry,
// or an error to abort the read. Implementations are expected to drain any
// downstream queue before blocking on interactive input; the Volume Store
// itself has no notion of that queue.
type MissingVolumeResolver func(basePath string, volumeNumber int) (string, error)

// ReadSession owns the single file handle backing an in-progress archive
// read.
type ReadSession struct {
	basePath  string
	archiveID uint32
	eccLevel  uint32
	onMissing MissingVolumeResolver
	logger    *logging.Logger

	currentVolume int
	file          *os.File
}

// NewReadSession implements init_read: opens volume 0, validates its
// descriptor(s), and populates archive_id, ecc_level from whichever
// descriptor validated first. The caller uses the returned ECCLevel to
// configure the FEC layer before pulling any blocks.
func NewReadSession(basePath string, onMissing MissingVolumeResolver, logger *logging.Logger) (*ReadSession, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	s := &ReadSession{basePath: basePath, onMissing: onMissing, logger: logger}

	if err := s.openVolume(PathForVolume(basePath, 0), 0); err != nil {
		return nil, err
	}
	return s, nil
}

// ECCLevel returns the ecc_level discovered on volume 0's descriptor.
func (s *ReadSession) ECCLevel() int { return int(s.eccLevel) }

// ArchiveID returns the archive_id discovered on volume 0's descriptor.
func (s *ReadSession) ArchiveID() uint32 { return s.archiveID }

func (s *ReadSession) openVolume(path string, volumeNumber int) error {
	f, err := os.Open(path)
	if err != nil {
		return archerr.New(archerr.IoError, "volume.open_read", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return archerr.New(archerr.IoError, "volume.open_read", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return archerr.New(archerr.FormatError, "volume.open_read", fmt.Errorf("%s is not a regular file", path))
	}

	expectedID := s.archiveID
	vd, archiveID, err := validateOpenedVolume(f, info.Size(), volumeNumber, expectedID)
	if err != nil {
		f.Close()
		return err
	}
	if volumeNumber == 0 {
		s.archiveID = archiveID
		s.eccLevel = vd.ECCLevel
	}

	s.file = f
	s.currentVolume = volumeNumber
	if _, err := f.Seek(int64(frame.HeaderSize), io.SeekStart); err != nil {
		f.Close()
		return archerr.New(archerr.IoError, "volume.open_read", err)
	}
	s.logger.Debug("opened volume for read", "path", path, "volume_number", volumeNumber, "last_volume", vd.LastVolume)
	return nil
}

// ReadBlock implements read_block: it returns the payload and bytes_used of
// the next BLOCK_HEADER frame, transparently following VOLUME_DESCRIPTOR
// frames to the next volume (or reporting end of archive) and resolving
// missing volumes via onMissing.
func (s *ReadSession) ReadBlock(expectedSize int) ([]byte, uint32, error) {
	for {
		if s.file == nil {
			if err := s.advanceToNextVolume(); err != nil {
				return nil, 0, err
			}
		}

		hdr, checksumOK, _, err := frame.ReadWithResync(s.file, s.archiveID)
		if err != nil {
			return nil, 0, archerr.New(archerr.FormatError, "volume.read_block", err)
		}

		switch hdr.Type {
		case frame.TypeVolumeDescriptor:
			vd := frame.UnmarshalVolumeDescriptor(hdr.Payload)
			if vd.LastVolume {
				return nil, 0, archerr.New(archerr.EndOfArchive, "volume.read_block", nil)
			}
			s.file.Close()
			s.file = nil
			s.currentVolume++
			continue

		case frame.TypeBlockHeader:
			if !checksumOK {
				return nil, 0, archerr.New(archerr.ChecksumError, "volume.read_block", fmt.Errorf("block header checksum mismatch"))
			}
			bh := frame.UnmarshalBlockHeader(hdr.Payload)
			payload := make([]byte, expectedSize)
			if _, err := io.ReadFull(s.file, payload); err != nil {
				return nil, 0, archerr.New(archerr.IoError, "volume.read_block", err)
			}
			return payload, bh.BytesUsed, nil

		default:
			return nil, 0, archerr.New(archerr.FormatError, "volume.read_block", fmt.Errorf("unknown frame type %d", hdr.Type))
		}
	}
}

// advanceToNextVolume opens s.currentVolume, resolving a missing file via
// onMissing when the deterministic path doesn't exist.
func (s *ReadSession) advanceToNextVolume() error {
	path := PathForVolume(s.basePath, s.currentVolume)

	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		if s.onMissing == nil {
			return archerr.New(archerr.IoError, "volume.read_block", fmt.Errorf("volume %d missing at %s and no resolver configured", s.currentVolume, path))
		}
		resolved, err := s.onMissing(s.basePath, s.currentVolume)
		if err != nil {
			return archerr.New(archerr.IoError, "volume.read_block", err)
		}
		path = resolved
	}

	return s.openVolume(path, s.currentVolume)
}

// CloseRead implements close_read: closes the current file handle if any.
func (s *ReadSession) CloseRead() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return archerr.New(archerr.IoError, "volume.close_read", err)
	}
	return nil
}

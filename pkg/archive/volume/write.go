package volume

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/frame"
	"github.com/fsarchive/fsa-core/pkg/consts"
	"github.com/fsarchive/fsa-core/pkg/logging"
)

// WriteSession owns the single file handle backing an in-progress archive
// write. It is not safe for concurrent use; per §5 of the core's
// concurrency model exactly one thread drives it.
type WriteSession struct {
	basePath          string
	archiveID         uint32
	eccLevel          uint32
	splitSize         int64
	overwriteExisting bool
	logger            *logging.Logger

	currentVolume   int
	file            *os.File
	currentOffset   int64
	nextBlockNumber uint64
	sessionFiles    []string
}

// NewWriteSession implements init_write: assigns a random archive_id, records
// the split and ECC parameters, and sets the current volume to 0. It
// performs no I/O; the first volume file is created lazily by WriteBlock.
func NewWriteSession(basePath string, eccLevel int, splitSize int64, overwriteExisting bool, logger *logging.Logger) (*WriteSession, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	var idBuf [4]byte
	if _, err := rand.Read(idBuf[:]); err != nil {
		return nil, archerr.New(archerr.IoError, "volume.init_write", err)
	}

	s := &WriteSession{
		basePath:          basePath,
		archiveID:         binary.LittleEndian.Uint32(idBuf[:]),
		eccLevel:          uint32(eccLevel),
		splitSize:         splitSize,
		overwriteExisting: overwriteExisting,
		logger:            logger,
		currentVolume:     0,
	}
	s.logger.Debug("volume write session initialized", "archive_id", s.archiveID, "ecc_level", eccLevel, "split_size", splitSize)
	return s, nil
}

// ArchiveID returns the archive_id assigned at init_write.
func (s *WriteSession) ArchiveID() uint32 { return s.archiveID }

// openNextVolume creates the file for s.currentVolume, writes its initial
// (non-final) head descriptor, and positions currentOffset just past it.
func (s *WriteSession) openNextVolume() error {
	path := PathForVolume(s.basePath, s.currentVolume)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if s.currentVolume == 0 && !s.overwriteExisting {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return archerr.New(archerr.IoError, "volume.write_block", fmt.Errorf("open %s: %w", path, err))
	}

	vd := frame.VolumeDescriptor{
		VolumeNumber:     uint32(s.currentVolume),
		MinReaderVersion: consts.MinReaderVersion,
		ECCLevel:         s.eccLevel,
		LastVolume:       false,
	}
	hdr := frame.NewVolumeDescriptorHeader(s.archiveID, vd)
	if _, err := f.Write(hdr.Marshal()); err != nil {
		f.Close()
		return archerr.New(archerr.IoError, "volume.write_block", fmt.Errorf("write head descriptor: %w", err))
	}

	s.file = f
	s.currentOffset = int64(frame.HeaderSize)
	s.sessionFiles = append(s.sessionFiles, path)
	s.logger.Debug("opened volume for write", "path", path, "volume_number", s.currentVolume)
	return nil
}

// splitNeeded reports whether writing a frame+payload of size frameSize at
// the current offset would leave no room for the tail descriptor within
// split_size. split_size == 0 disables splitting entirely.
func (s *WriteSession) splitNeeded(frameSize int64) bool {
	if s.splitSize <= 0 {
		return false
	}
	return s.currentOffset+frameSize+int64(frame.HeaderSize) > s.splitSize
}

// WriteBlock implements write_block: it assigns the next block_number,
// pre-checks the split policy, opens a volume file lazily if needed, and
// writes the block header followed by the raw payload (the FEC-expanded
// block). bytesUsed is opaque to the Volume Store and is only carried in
// the header.
func (s *WriteSession) WriteBlock(payload []byte, bytesUsed uint32) error {
	blockNumber := s.nextBlockNumber
	s.nextBlockNumber++

	hdr := frame.NewBlockHeader(s.archiveID, frame.BlockHeader{BlockNumber: blockNumber, BytesUsed: bytesUsed})
	frameSize := int64(frame.HeaderSize) + int64(len(payload))

	if s.file != nil && s.splitNeeded(frameSize) {
		if err := s.closeCurrentVolume(false); err != nil {
			return err
		}
		s.currentVolume++
	}
	if s.file == nil {
		if err := s.openNextVolume(); err != nil {
			return err
		}
	}

	if err := s.writeLowLevel(hdr.Marshal()); err != nil {
		return err
	}
	if err := s.writeLowLevel(payload); err != nil {
		return err
	}
	return nil
}

// writeLowLevel writes buf to the current file, distinguishing a genuine
// no-space condition (via statfs on a short write) from a generic I/O
// error, mirroring archio_write_low_level.
func (s *WriteSession) writeLowLevel(buf []byte) error {
	n, err := s.file.Write(buf)
	s.currentOffset += int64(n)
	if err == nil {
		return nil
	}
	if n < len(buf) {
		if free, statErr := freeBytes(s.basePath); statErr == nil && free < uint64(len(buf)-n) {
			return archerr.New(archerr.NoSpace, "volume.write_block", err)
		}
	}
	return archerr.New(archerr.IoError, "volume.write_block", err)
}

// closeCurrentVolume writes the tail descriptor, seeks to 0, rewrites the
// head descriptor with lastVolumeFlag, fsyncs and closes, per close_write.
func (s *WriteSession) closeCurrentVolume(lastVolumeFlag bool) error {
	vd := frame.VolumeDescriptor{
		VolumeNumber:     uint32(s.currentVolume),
		MinReaderVersion: consts.MinReaderVersion,
		ECCLevel:         s.eccLevel,
		LastVolume:       lastVolumeFlag,
	}
	hdr := frame.NewVolumeDescriptorHeader(s.archiveID, vd)
	raw := hdr.Marshal()

	if _, err := s.file.Write(raw); err != nil {
		return archerr.New(archerr.IoError, "volume.close_write", fmt.Errorf("write tail descriptor: %w", err))
	}
	if _, err := s.file.Seek(0, 0); err != nil {
		return archerr.New(archerr.IoError, "volume.close_write", err)
	}
	if _, err := s.file.Write(raw); err != nil {
		return archerr.New(archerr.IoError, "volume.close_write", fmt.Errorf("rewrite head descriptor: %w", err))
	}
	if err := s.file.Sync(); err != nil {
		return archerr.New(archerr.IoError, "volume.close_write", err)
	}
	if err := s.file.Close(); err != nil {
		return archerr.New(archerr.IoError, "volume.close_write", err)
	}
	s.file = nil
	return nil
}

// CloseWrite implements close_write: finalizes the currently open volume
// with the given last_volume flag. Calling it with no open volume (e.g. a
// session that never wrote a block) is a no-op.
func (s *WriteSession) CloseWrite(lastVolumeFlag bool) error {
	if s.file == nil {
		return nil
	}
	return s.closeCurrentVolume(lastVolumeFlag)
}

// DeleteAll implements delete_all: unlinks every volume file created during
// this write session. Used on the error path so no partial archive survives.
func (s *WriteSession) DeleteAll() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	var firstErr error
	for _, path := range s.sessionFiles {
		if err := os.Remove(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return archerr.New(archerr.IoError, "volume.delete_all", firstErr)
	}
	return nil
}

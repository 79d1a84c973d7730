// Package volume implements the Volume Store: the layer that splits a
// logical archive across one or more regular files, each bracketed by a
// pair of identical volume descriptors, and exposes it to the rest of the
// core as a single append-only byte sink (WriteSession) or byte source
// (ReadSession).
package volume

import (
	"fmt"
	"os"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/frame"
	"github.com/fsarchive/fsa-core/pkg/consts"
)

// readDescriptorAt reads and unmarshals a frame at a fixed offset in f
// (used for the head and tail descriptors, which are read directly rather
// than via the resynchronizing scan reserved for block frames).
func readDescriptorAt(f *os.File, offset int64) (frame.Header, bool, error) {
	buf := make([]byte, frame.HeaderSize)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return frame.Header{}, false, err
	}
	var hdr frame.Header
	if err := hdr.Unmarshal(buf); err != nil {
		return frame.Header{}, false, err
	}
	valid := hdr.Magic == consts.FrameMagic && hdr.Type == frame.TypeVolumeDescriptor && hdr.ChecksumOK()
	return hdr, valid, nil
}

// validateOpenedVolume implements "Volume open for read": it reads the tail
// descriptor then the head descriptor, accepts whichever validates (and
// requires at least one to), and cross-checks volume_number, archive_id and
// minimum_reader_version against the expected state.
//
// expectedArchiveID is ignored (and its returned archive id becomes the new
// expectation) when expectVolume == 0.
func validateOpenedVolume(f *os.File, size int64, expectVolume int, expectedArchiveID uint32) (frame.VolumeDescriptor, uint32, error) {
	if size < 2*int64(frame.HeaderSize) {
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.FormatError, "volume.open_read",
			fmt.Errorf("file too small (%d bytes) to hold head and tail descriptors", size))
	}

	tailHdr, tailOK, err := readDescriptorAt(f, size-int64(frame.HeaderSize))
	if err != nil {
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.IoError, "volume.open_read", err)
	}
	headHdr, headOK, err := readDescriptorAt(f, 0)
	if err != nil {
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.IoError, "volume.open_read", err)
	}

	var chosen frame.Header
	switch {
	case headOK:
		chosen = headHdr
	case tailOK:
		chosen = tailHdr
	default:
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.ChecksumError, "volume.open_read",
			fmt.Errorf("neither head nor tail descriptor validated"))
	}

	vd := frame.UnmarshalVolumeDescriptor(chosen.Payload)

	if int(vd.VolumeNumber) != expectVolume {
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.VolumeMismatch, "volume.open_read",
			fmt.Errorf("volume_number %d, want %d", vd.VolumeNumber, expectVolume))
	}
	if vd.MinReaderVersion > consts.ImplementationVersion {
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.VersionMismatch, "volume.open_read",
			fmt.Errorf("minimum_reader_version %#x exceeds implementation version %#x", vd.MinReaderVersion, consts.ImplementationVersion))
	}
	if expectVolume != 0 && chosen.ArchiveID != expectedArchiveID {
		return frame.VolumeDescriptor{}, 0, archerr.New(archerr.VolumeMismatch, "volume.open_read",
			fmt.Errorf("archive_id %#x, want %#x", chosen.ArchiveID, expectedArchiveID))
	}

	return vd, chosen.ArchiveID, nil
}

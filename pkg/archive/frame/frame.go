// Package frame implements the on-disk "io-head" record: a fixed-size,
// magic-tagged, checksummed header that precedes every volume descriptor
// and every block payload in an archive. The layout and the
// resynchronizing read are a direct port of the archiver's own framing
// discipline, expressed as Go structs with explicit offset-based
// Marshal/Unmarshal methods in the same style as the ISO9660 descriptor
// codecs this module grew out of.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fsarchive/fsa-core/pkg/consts"
)

// Type discriminates the payload carried by a Header.
type Type = uint16

const (
	// TypeVolumeDescriptor tags a frame whose payload is a VolumeDescriptor.
	TypeVolumeDescriptor Type = consts.FrameTypeVolumeDescriptor
	// TypeBlockHeader tags a frame whose payload is a BlockHeader.
	TypeBlockHeader Type = consts.FrameTypeBlockHeader
)

// PayloadSize is the fixed width of the payload union; both VolumeDescriptor
// and BlockHeader are marshaled into (and padded to) this many bytes.
const PayloadSize = 24

// HeaderSize is the fixed on-disk size of one frame: magic + archive_id +
// type + payload + checksum. Used both as "sizeof(frame_header)" in the
// split-size computation and as the read size for the head/tail volume
// descriptors.
const HeaderSize = 4 + 4 + 2 + PayloadSize + 4

// Header is the in-memory form of one io-head record.
type Header struct {
	Magic     uint32
	ArchiveID uint32
	Type      Type
	Payload   [PayloadSize]byte
	Checksum  uint32
}

// VolumeDescriptor is the payload of a TypeVolumeDescriptor frame.
type VolumeDescriptor struct {
	VolumeNumber     uint32
	MinReaderVersion uint64
	ECCLevel         uint32
	LastVolume       bool
}

// BlockHeader is the payload of a TypeBlockHeader frame.
type BlockHeader struct {
	BlockNumber uint64
	BytesUsed   uint32
}

// MarshalVolumeDescriptor packs a VolumeDescriptor into a PayloadSize-byte
// array: volume_number (4), minimum_reader_version (8), ecc_level (4),
// last_volume (1), zero padding for the remainder.
func MarshalVolumeDescriptor(vd VolumeDescriptor) [PayloadSize]byte {
	var buf [PayloadSize]byte
	offset := 0

	binary.LittleEndian.PutUint32(buf[offset:], vd.VolumeNumber)
	offset += 4

	binary.LittleEndian.PutUint64(buf[offset:], vd.MinReaderVersion)
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], vd.ECCLevel)
	offset += 4

	if vd.LastVolume {
		buf[offset] = 1
	}
	offset += 1

	return buf
}

// UnmarshalVolumeDescriptor is the inverse of MarshalVolumeDescriptor.
func UnmarshalVolumeDescriptor(payload [PayloadSize]byte) VolumeDescriptor {
	offset := 0

	volumeNumber := binary.LittleEndian.Uint32(payload[offset:])
	offset += 4

	minReaderVersion := binary.LittleEndian.Uint64(payload[offset:])
	offset += 8

	eccLevel := binary.LittleEndian.Uint32(payload[offset:])
	offset += 4

	lastVolume := payload[offset] != 0

	return VolumeDescriptor{
		VolumeNumber:     volumeNumber,
		MinReaderVersion: minReaderVersion,
		ECCLevel:         eccLevel,
		LastVolume:       lastVolume,
	}
}

// MarshalBlockHeader packs a BlockHeader into a PayloadSize-byte array:
// block_number (8), bytes_used (4), zero padding for the remainder.
func MarshalBlockHeader(bh BlockHeader) [PayloadSize]byte {
	var buf [PayloadSize]byte
	offset := 0

	binary.LittleEndian.PutUint64(buf[offset:], bh.BlockNumber)
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], bh.BytesUsed)
	offset += 4

	return buf
}

// UnmarshalBlockHeader is the inverse of MarshalBlockHeader.
func UnmarshalBlockHeader(payload [PayloadSize]byte) BlockHeader {
	offset := 0

	blockNumber := binary.LittleEndian.Uint64(payload[offset:])
	offset += 8

	bytesUsed := binary.LittleEndian.Uint32(payload[offset:])
	offset += 4

	return BlockHeader{
		BlockNumber: blockNumber,
		BytesUsed:   bytesUsed,
	}
}

// NewVolumeDescriptorHeader builds a ready-to-write frame around a volume
// descriptor payload, computing the Fletcher-32 checksum over the payload.
func NewVolumeDescriptorHeader(archiveID uint32, vd VolumeDescriptor) Header {
	payload := MarshalVolumeDescriptor(vd)
	return Header{
		Magic:     consts.FrameMagic,
		ArchiveID: archiveID,
		Type:      TypeVolumeDescriptor,
		Payload:   payload,
		Checksum:  Fletcher32(payload[:]),
	}
}

// NewBlockHeader builds a ready-to-write frame around a block header
// payload, computing the Fletcher-32 checksum over the payload.
func NewBlockHeader(archiveID uint32, bh BlockHeader) Header {
	payload := MarshalBlockHeader(bh)
	return Header{
		Magic:     consts.FrameMagic,
		ArchiveID: archiveID,
		Type:      TypeBlockHeader,
		Payload:   payload,
		Checksum:  Fletcher32(payload[:]),
	}
}

// Marshal serializes the header to exactly HeaderSize bytes, all multi-byte
// fields little-endian, in the order magic, archive_id, type, payload,
// checksum.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	offset := 0

	binary.LittleEndian.PutUint32(buf[offset:], h.Magic)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:], h.ArchiveID)
	offset += 4

	binary.LittleEndian.PutUint16(buf[offset:], h.Type)
	offset += 2

	copy(buf[offset:], h.Payload[:])
	offset += PayloadSize

	binary.LittleEndian.PutUint32(buf[offset:], h.Checksum)
	offset += 4

	if offset != HeaderSize {
		panic("frame: Marshal wrote an unexpected number of bytes")
	}

	return buf
}

// Unmarshal parses exactly HeaderSize bytes of buf into h. It performs no
// validation of magic, archive id, or checksum; callers that need those
// checks use ReadWithResync.
func (h *Header) Unmarshal(buf []byte) error {
	if len(buf) < HeaderSize {
		return io.ErrUnexpectedEOF
	}
	offset := 0

	h.Magic = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	h.ArchiveID = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	h.Type = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	copy(h.Payload[:], buf[offset:offset+PayloadSize])
	offset += PayloadSize

	h.Checksum = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	if offset != HeaderSize {
		return fmt.Errorf("frame: Unmarshal consumed %d bytes, want %d", offset, HeaderSize)
	}

	return nil
}

// ChecksumOK recomputes the Fletcher-32 checksum over the payload and
// reports whether it matches the stored checksum.
func (h Header) ChecksumOK() bool {
	return Fletcher32(h.Payload[:]) == h.Checksum
}

// Fletcher32 computes the Fletcher-32 checksum of data, operating on
// 16-bit little-endian words as the on-disk format requires. A trailing
// odd byte is treated as a word with a zero high byte.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32 = 0, 0
	i := 0
	for i+1 < len(data) {
		word := uint32(data[i]) | uint32(data[i+1])<<8
		sum1 = (sum1 + word) % 0xFFFF
		sum2 = (sum2 + sum1) % 0xFFFF
		i += 2
	}
	if i < len(data) {
		word := uint32(data[i])
		sum1 = (sum1 + word) % 0xFFFF
		sum2 = (sum2 + sum1) % 0xFFFF
	}
	return (sum2 << 16) | sum1
}

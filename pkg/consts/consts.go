// Package consts holds the on-disk magic numbers and fixed sizes that make
// up the archive format. Nothing in this package depends on any other
// package in this module.
package consts

const (
	// FrameMagic identifies the start of an io-head frame on disk.
	FrameMagic uint32 = 0x46534148 // "FSAH"

	// FECHeaderMagic identifies the FEC main header, distinct from FrameMagic.
	FECHeaderMagic uint32 = 0x46534146 // "FSAF"

	// FrameTypeVolumeDescriptor tags a frame whose payload is a volume descriptor.
	FrameTypeVolumeDescriptor uint16 = 1

	// FrameTypeBlockHeader tags a frame whose payload is a block header.
	FrameTypeBlockHeader uint16 = 2

	// MinReaderVersion is the minimum reader version this implementation writes,
	// packed as major.minor.patch.build, 16 bits each, high to low.
	MinReaderVersion uint64 = 0x0001000000000000

	// ImplementationVersion is the version this implementation reports, checked
	// against a volume's MinReaderVersion on open.
	ImplementationVersion uint64 = 0x0001000000000000

	// FECMainHeaderSize is the padded, fixed size of the FEC main header block.
	FECMainHeaderSize = 4096

	// FECMainHeadCopies is the number of times the FEC main header is written
	// at the start of an archive, for redundancy.
	FECMainHeadCopies = 2

	// PacketSize is the size in bytes of a single FEC-coded packet.
	PacketSize = 1024

	// MD5TagSize is the size in bytes of the erasure-indicator tag following
	// each coded packet on disk.
	MD5TagSize = 16

	// DefaultK is the number of source packets a logical block is split into
	// before FEC expansion. Compile-time constant per spec.
	DefaultK = 128

	// NMax is the upper bound on N = K + ecc_level.
	NMax = 256

	// DefaultBlockSize is the size in bytes of one logical block: K*PacketSize.
	DefaultBlockSize = DefaultK * PacketSize

	// DefaultVolumeExtension is the extension used for volume 0's filename.
	DefaultVolumeExtension = ".fsa"
)

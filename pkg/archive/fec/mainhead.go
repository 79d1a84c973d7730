package fec

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/consts"
)

// MainHeader is the archive-level record written as the first one or two
// block frames of every archive (see consts.FECMainHeadCopies), carrying
// the chosen N for the whole archive so the Reader Pipeline can build a
// matching Codec before it sees a single data block.
type MainHeader struct {
	Version uint32
	FecN    uint32
}

// MarshalMainHeader packs a MainHeader into the padded, self-checksummed
// consts.FECMainHeaderSize-byte on-disk form: magic (4), version (4),
// fec_n (4), MD5 of the fields above (16), zero padding to fill the rest.
func MarshalMainHeader(h MainHeader) []byte {
	buf := make([]byte, consts.FECMainHeaderSize)
	offset := 0

	binary.LittleEndian.PutUint32(buf[offset:], consts.FECHeaderMagic)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:], h.Version)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:], h.FecN)
	offset += 4

	tag := md5.Sum(buf[:offset])
	copy(buf[offset:], tag[:])

	return buf
}

// UnmarshalMainHeader parses and MD5-validates a MainHeader from a
// consts.FECMainHeaderSize-byte buffer. ok reports whether the stored MD5
// tag matches; callers try the FECMainHeadCopies in order and use the
// first one that validates.
func UnmarshalMainHeader(buf []byte) (h MainHeader, ok bool, err error) {
	if len(buf) != consts.FECMainHeaderSize {
		return MainHeader{}, false, archerr.New(archerr.FormatError, "fec.UnmarshalMainHeader",
			fmt.Errorf("buffer is %d bytes, want %d", len(buf), consts.FECMainHeaderSize))
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	version := binary.LittleEndian.Uint32(buf[4:8])
	fecN := binary.LittleEndian.Uint32(buf[8:12])

	if magic != consts.FECHeaderMagic {
		return MainHeader{}, false, nil
	}

	tag := md5.Sum(buf[:12])
	storedTag := buf[12:28]
	if string(tag[:]) != string(storedTag) {
		return MainHeader{}, false, nil
	}

	return MainHeader{Version: version, FecN: fecN}, true, nil
}

package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsarchive/fsa-core/pkg/consts"
)

func TestVolumeDescriptorRoundTrip(t *testing.T) {
	vd := VolumeDescriptor{
		VolumeNumber:     3,
		MinReaderVersion: consts.MinReaderVersion,
		ECCLevel:         7,
		LastVolume:       true,
	}

	hdr := NewVolumeDescriptorHeader(0xDEADBEEF, vd)
	require.True(t, hdr.ChecksumOK())

	got := UnmarshalVolumeDescriptor(hdr.Payload)
	require.Equal(t, vd, got)
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	bh := BlockHeader{BlockNumber: 42, BytesUsed: 1024}
	hdr := NewBlockHeader(0x1, bh)
	require.True(t, hdr.ChecksumOK())

	got := UnmarshalBlockHeader(hdr.Payload)
	require.Equal(t, bh, got)
}

func TestHeaderMarshalUnmarshal(t *testing.T) {
	bh := BlockHeader{BlockNumber: 7, BytesUsed: 512}
	want := NewBlockHeader(99, bh)

	raw := want.Marshal()
	require.Len(t, raw, HeaderSize)

	var got Header
	require.NoError(t, got.Unmarshal(raw))
	require.Equal(t, want, got)
}

func TestFletcher32KnownValue(t *testing.T) {
	// "abcde" is a commonly cited Fletcher-32 test vector.
	require.Equal(t, uint32(0xF04FC729), Fletcher32([]byte("abcde")))
}

func TestFletcher32DetectsCorruption(t *testing.T) {
	data := []byte("the quick brown fox")
	sum := Fletcher32(data)

	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF
	require.NotEqual(t, sum, Fletcher32(corrupted))
}

type seekBuf struct {
	*bytes.Reader
}

func newSeekBuf(b []byte) *seekBuf {
	return &seekBuf{bytes.NewReader(b)}
}

func TestReadWithResyncSkipsGarbage(t *testing.T) {
	const archiveID = 0x42

	hdr := NewBlockHeader(archiveID, BlockHeader{BlockNumber: 1, BytesUsed: 10})

	var buf bytes.Buffer
	buf.WriteString("garbage-before-frame")
	buf.Write(hdr.Marshal())

	r := newSeekBuf(buf.Bytes())
	got, ok, skipped, err := ReadWithResync(r, archiveID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hdr, got)
	require.Equal(t, int64(len("garbage-before-frame")), skipped)
}

func TestReadWithResyncRejectsWrongArchiveID(t *testing.T) {
	hdr := NewBlockHeader(1, BlockHeader{BlockNumber: 1, BytesUsed: 10})
	r := newSeekBuf(hdr.Marshal())

	_, _, _, err := ReadWithResync(r, 2)
	require.ErrorIs(t, err, ErrEndOfFile)
}

func TestReadWithResyncReturnsBadChecksum(t *testing.T) {
	hdr := NewBlockHeader(5, BlockHeader{BlockNumber: 1, BytesUsed: 10})
	hdr.Checksum ^= 0xFFFFFFFF // corrupt only the checksum, keep magic/archive_id

	r := newSeekBuf(hdr.Marshal())
	got, ok, skipped, err := ReadWithResync(r, 5)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(0), skipped)
	require.Equal(t, hdr.Payload, got.Payload)
}

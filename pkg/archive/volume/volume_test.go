package volume

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/archive/frame"
)

func TestSingleVolumeIdentity(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	ws, err := NewWriteSession(base, 0, 0, false, nil)
	require.NoError(t, err)

	block0 := bytes.Repeat([]byte{0xAA}, 256)
	block1 := bytes.Repeat([]byte{0xBB}, 256)

	require.NoError(t, ws.WriteBlock(block0, 200))
	require.NoError(t, ws.WriteBlock(block1, 256))
	require.NoError(t, ws.CloseWrite(true))

	_, err = os.Stat(base)
	require.NoError(t, err)
	_, err = os.Stat(PathForVolume(base, 1))
	require.True(t, os.IsNotExist(err))

	rs, err := NewReadSession(base, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, rs.ECCLevel())

	got0, used0, err := rs.ReadBlock(256)
	require.NoError(t, err)
	require.Equal(t, uint32(200), used0)
	require.True(t, bytes.Equal(block0, got0))

	got1, used1, err := rs.ReadBlock(256)
	require.NoError(t, err)
	require.Equal(t, uint32(256), used1)
	require.True(t, bytes.Equal(block1, got1))

	_, _, err = rs.ReadBlock(256)
	require.True(t, archerr.Is(err, archerr.EndOfArchive))

	require.NoError(t, rs.CloseRead())
}

func TestTwoVolumeSplit(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	payloadSize := 64
	// Exactly enough room in volume 0 for one block frame plus its tail
	// descriptor: head descriptor + one frame + tail descriptor fits, a
	// second block forces a new volume.
	splitSize := int64(frame.HeaderSize) + int64(frame.HeaderSize+payloadSize) + int64(frame.HeaderSize)

	ws, err := NewWriteSession(base, 0, splitSize, false, nil)
	require.NoError(t, err)

	block0 := bytes.Repeat([]byte{0x01}, payloadSize)
	block1 := bytes.Repeat([]byte{0x02}, payloadSize)

	require.NoError(t, ws.WriteBlock(block0, uint32(payloadSize)))
	require.NoError(t, ws.WriteBlock(block1, uint32(payloadSize)))
	require.NoError(t, ws.CloseWrite(true))

	_, err = os.Stat(base)
	require.NoError(t, err)
	_, err = os.Stat(PathForVolume(base, 1))
	require.NoError(t, err)

	rs, err := NewReadSession(base, nil, nil)
	require.NoError(t, err)

	got0, used0, err := rs.ReadBlock(payloadSize)
	require.NoError(t, err)
	require.Equal(t, uint32(payloadSize), used0)
	require.True(t, bytes.Equal(block0, got0))

	got1, used1, err := rs.ReadBlock(payloadSize)
	require.NoError(t, err)
	require.Equal(t, uint32(payloadSize), used1)
	require.True(t, bytes.Equal(block1, got1))

	_, _, err = rs.ReadBlock(payloadSize)
	require.True(t, archerr.Is(err, archerr.EndOfArchive))
}

func TestOverwriteExistingRejectsByDefault(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")
	require.NoError(t, os.WriteFile(base, []byte("pre-existing"), 0o644))

	ws, err := NewWriteSession(base, 0, 0, false, nil)
	require.NoError(t, err)

	err = ws.WriteBlock(bytes.Repeat([]byte{0x01}, 16), 16)
	require.Error(t, err)
}

func TestExactSplitBoundary(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	const payloadSize = 8
	splitSize := int64(4*frame.HeaderSize + 2*payloadSize)

	ws, err := NewWriteSession(base, 0, splitSize, false, nil)
	require.NoError(t, err)

	blocks := [][]byte{
		bytes.Repeat([]byte{0x01}, payloadSize),
		bytes.Repeat([]byte{0x02}, payloadSize),
		bytes.Repeat([]byte{0x03}, payloadSize),
	}
	for _, b := range blocks {
		require.NoError(t, ws.WriteBlock(b, payloadSize))
	}
	require.NoError(t, ws.CloseWrite(true))

	// Blocks 0 and 1 land exactly in volume 0; block 2 forces volume 1.
	_, err = os.Stat(PathForVolume(base, 1))
	require.NoError(t, err)
	_, err = os.Stat(PathForVolume(base, 2))
	require.True(t, os.IsNotExist(err))

	rs, err := NewReadSession(base, nil, nil)
	require.NoError(t, err)
	for _, want := range blocks {
		got, used, err := rs.ReadBlock(payloadSize)
		require.NoError(t, err)
		require.Equal(t, uint32(payloadSize), used)
		require.True(t, bytes.Equal(want, got))
	}
	_, _, err = rs.ReadBlock(payloadSize)
	require.True(t, archerr.Is(err, archerr.EndOfArchive))
}

package pipeline

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsarchive/fsa-core/pkg/archive/fec"
	"github.com/fsarchive/fsa-core/pkg/archive/volume"
	"github.com/fsarchive/fsa-core/pkg/consts"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	const eccLevel = 2
	blockSize := consts.DefaultK * consts.PacketSize

	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	writeCodec, err := fec.NewCodec(consts.DefaultK, eccLevel, consts.PacketSize)
	require.NoError(t, err)

	ws, err := volume.NewWriteSession(base, eccLevel, 0, false, nil)
	require.NoError(t, err)

	block0 := bytes.Repeat([]byte{0x10}, blockSize)
	block1 := bytes.Repeat([]byte{0x20}, blockSize)

	in := NewQueue(2)
	require.True(t, in.Push(Block{Payload: block0, BytesUsed: 100}))
	require.True(t, in.Push(Block{Payload: block1, BytesUsed: uint32(blockSize)}))
	in.CloseStream()

	var progressed []int
	err = RunWriter(in, ws, writeCodec, nil, func(blocksWritten int, bytesWritten int64, totalBytes int64) {
		progressed = append(progressed, blocksWritten)
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, progressed)

	rs, err := volume.NewReadSession(base, nil, nil)
	require.NoError(t, err)
	require.Equal(t, eccLevel, rs.ECCLevel())

	out := NewQueue(2)
	err = RunReader(out, rs, nil, nil)
	require.NoError(t, err)

	b0, ok := out.Pop()
	require.True(t, ok)
	require.Equal(t, uint32(100), b0.BytesUsed)
	require.True(t, bytes.Equal(block0, b0.Payload))

	b1, ok := out.Pop()
	require.True(t, ok)
	require.Equal(t, uint32(blockSize), b1.BytesUsed)
	require.True(t, bytes.Equal(block1, b1.Payload))

	_, ok = out.Pop()
	require.False(t, ok)
}

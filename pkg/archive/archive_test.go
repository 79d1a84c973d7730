package archive

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/option"
)

func TestWriterReaderSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	w, err := NewWriter(base, option.WithECCLevel(2))
	require.NoError(t, err)

	block0 := bytes.Repeat([]byte{0xAB}, blockSize)
	block1 := bytes.Repeat([]byte{0xCD}, blockSize)

	require.NoError(t, w.WriteBlock(block0, 4096))
	require.NoError(t, w.WriteBlock(block1, uint32(blockSize)))
	require.NoError(t, w.Close())

	r, err := NewReader(base)
	require.NoError(t, err)

	got0, used0, err := r.ReadBlock()
	require.NoError(t, err)
	require.Equal(t, uint32(4096), used0)
	require.True(t, bytes.Equal(block0, got0))

	got1, used1, err := r.ReadBlock()
	require.NoError(t, err)
	require.Equal(t, uint32(blockSize), used1)
	require.True(t, bytes.Equal(block1, got1))

	_, _, err = r.ReadBlock()
	require.True(t, archerr.Is(err, archerr.EndOfArchive))
	require.NoError(t, r.Close())
}

func TestWriteBlockRejectsZeroBytesUsed(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	w, err := NewWriter(base)
	require.NoError(t, err)
	defer w.Close()

	block := make([]byte, blockSize)
	err = w.WriteBlock(block, 0)
	require.True(t, archerr.Is(err, archerr.FormatError))
}

func TestWriteBlockRejectsWrongSize(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive.fsa")

	w, err := NewWriter(base)
	require.NoError(t, err)
	defer w.Close()

	err = w.WriteBlock(make([]byte, blockSize-1), 10)
	require.True(t, archerr.Is(err, archerr.FormatError))
}

package fec

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomBlock(t *testing.T, k, packetSize int) []byte {
	t.Helper()
	block := make([]byte, k*packetSize)
	_, err := rand.Read(block)
	require.NoError(t, err)
	return block
}

func TestEncodeDecodeNoCorruption(t *testing.T) {
	c, err := NewCodec(4, 2, 64)
	require.NoError(t, err)

	block := randomBlock(t, 4, 64)
	coded, err := c.Encode(block)
	require.NoError(t, err)
	require.Len(t, coded, c.CodedSize())

	got, bad, err := c.Decode(coded)
	require.NoError(t, err)
	require.Equal(t, 0, bad)
	require.True(t, bytes.Equal(block, got))
}

func TestDecodeRecoversFromBadPackets(t *testing.T) {
	c, err := NewCodec(4, 2, 64)
	require.NoError(t, err)

	block := randomBlock(t, 4, 64)
	coded, err := c.Encode(block)
	require.NoError(t, err)

	// Corrupt 2 packets (the codec's redundancy budget); K=4 good remain of N=6.
	stride := 64 + 16
	coded[0*stride] ^= 0xFF
	coded[3*stride] ^= 0xFF

	got, bad, err := c.Decode(coded)
	require.NoError(t, err)
	require.Equal(t, 2, bad)
	require.True(t, bytes.Equal(block, got))
}

func TestDecodeUnrecoverableBelowK(t *testing.T) {
	c, err := NewCodec(4, 1, 64)
	require.NoError(t, err)

	block := randomBlock(t, 4, 64)
	coded, err := c.Encode(block)
	require.NoError(t, err)

	stride := 64 + 16
	coded[0*stride] ^= 0xFF
	coded[1*stride] ^= 0xFF

	_, bad, err := c.Decode(coded)
	require.Error(t, err)
	require.Equal(t, 2, bad)
}

func TestIdentityCodingNoRedundancy(t *testing.T) {
	c, err := NewCodec(4, 0, 64)
	require.NoError(t, err)
	require.Equal(t, 4, c.N())

	block := randomBlock(t, 4, 64)
	coded, err := c.Encode(block)
	require.NoError(t, err)

	got, bad, err := c.Decode(coded)
	require.NoError(t, err)
	require.Equal(t, 0, bad)
	require.True(t, bytes.Equal(block, got))

	stride := 64 + 16
	coded[0*stride] ^= 0xFF
	_, _, err = c.Decode(coded)
	require.Error(t, err)
}

func TestMainHeaderRoundTrip(t *testing.T) {
	want := MainHeader{Version: 1, FecN: 192}
	buf := MarshalMainHeader(want)
	require.Len(t, buf, 4096)

	got, ok, err := UnmarshalMainHeader(buf)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestMainHeaderRejectsCorruption(t *testing.T) {
	buf := MarshalMainHeader(MainHeader{Version: 1, FecN: 192})
	buf[4] ^= 0xFF // corrupt version field without touching magic

	_, ok, err := UnmarshalMainHeader(buf)
	require.NoError(t, err)
	require.False(t, ok)
}

// Package fec implements the (N,K) erasure code layer: it expands one
// logical block of K fixed-size packets into N coded packets (the K source
// packets followed by N-K parity packets computed via
// github.com/klauspost/reedsolomon), tags
// each coded packet with an MD5 erasure indicator, and on the read side
// verifies tags and reconstructs the original K packets from any K that
// verify good.
package fec

import (
	"crypto/md5"
	"fmt"

	"github.com/klauspost/reedsolomon"

	"github.com/fsarchive/fsa-core/pkg/archive/archerr"
	"github.com/fsarchive/fsa-core/pkg/consts"
)

// Codec holds the parameters and the underlying erasure encoder for one
// archive session. K and PacketSize are fixed per the on-disk format; N is
// derived from the session's configured ecc_level.
type Codec struct {
	k          int
	n          int
	packetSize int
	enc        reedsolomon.Encoder // nil when n == k (identity coding)
}

// NewCodec builds a Codec for k source packets of packetSize bytes each,
// expanded to n = k + eccLevel coded packets. eccLevel must be in
// [0, NMax-K]; eccLevel == 0 means identity coding: N packets are exactly
// the K source packets with no parity, and a single bad packet makes the
// block Unrecoverable.
func NewCodec(k, eccLevel, packetSize int) (*Codec, error) {
	if k <= 0 {
		return nil, archerr.New(archerr.FormatError, "fec.NewCodec", fmt.Errorf("k must be positive, got %d", k))
	}
	n := k + eccLevel
	if eccLevel < 0 || n > consts.NMax {
		return nil, archerr.New(archerr.FormatError, "fec.NewCodec", fmt.Errorf("ecc_level %d out of range for k=%d, n_max=%d", eccLevel, k, consts.NMax))
	}

	c := &Codec{k: k, n: n, packetSize: packetSize}
	if eccLevel > 0 {
		enc, err := reedsolomon.New(k, eccLevel)
		if err != nil {
			return nil, archerr.New(archerr.FormatError, "fec.NewCodec", err)
		}
		c.enc = enc
	}
	return c, nil
}

// K returns the number of source packets per logical block.
func (c *Codec) K() int { return c.k }

// N returns the number of coded packets per FEC-expanded block.
func (c *Codec) N() int { return c.n }

// codedSize is the size in bytes of one FEC-expanded block on disk:
// n * (packetSize + MD5TagSize).
func (c *Codec) codedSize() int {
	return c.n * (c.packetSize + consts.MD5TagSize)
}

// CodedSize exposes codedSize for callers sizing read buffers.
func (c *Codec) CodedSize() int {
	return c.codedSize()
}

// Encode takes one logical block (k*packetSize bytes) and returns the
// on-disk FEC expansion: n packets, each packetSize bytes of coded data
// immediately followed by a 16-byte MD5 tag of those coded bytes.
func (c *Codec) Encode(block []byte) ([]byte, error) {
	want := c.k * c.packetSize
	if len(block) != want {
		return nil, archerr.New(archerr.FormatError, "fec.Encode", fmt.Errorf("block is %d bytes, want %d", len(block), want))
	}

	shards := make([][]byte, c.n)
	for i := 0; i < c.k; i++ {
		shards[i] = block[i*c.packetSize : (i+1)*c.packetSize]
	}
	for i := c.k; i < c.n; i++ {
		shards[i] = make([]byte, c.packetSize)
	}

	if c.enc != nil {
		if err := c.enc.Encode(shards); err != nil {
			return nil, archerr.New(archerr.IoError, "fec.Encode", err)
		}
	}

	out := make([]byte, 0, c.codedSize())
	for _, shard := range shards {
		tag := md5.Sum(shard)
		out = append(out, shard...)
		out = append(out, tag[:]...)
	}
	return out, nil
}

// Decode takes the on-disk FEC expansion of one block (n packets, each with
// its MD5 tag) and reconstructs the original k*packetSize logical block.
// It returns the count of packets whose MD5 tag did not match; if fewer
// than k packets verified good, it returns an *archerr.Error of kind
// Unrecoverable and a nil block.
func (c *Codec) Decode(coded []byte) (block []byte, badCount int, err error) {
	want := c.codedSize()
	if len(coded) != want {
		return nil, 0, archerr.New(archerr.FormatError, "fec.Decode", fmt.Errorf("coded block is %d bytes, want %d", len(coded), want))
	}

	stride := c.packetSize + consts.MD5TagSize
	shards := make([][]byte, c.n)
	goodCount := 0

	for i := 0; i < c.n; i++ {
		start := i * stride
		packet := coded[start : start+c.packetSize]
		tag := coded[start+c.packetSize : start+stride]

		got := md5.Sum(packet)
		if string(got[:]) == string(tag) {
			shards[i] = append([]byte(nil), packet...)
			goodCount++
		} else {
			shards[i] = nil
			badCount++
		}
	}

	if goodCount < c.k {
		return nil, badCount, archerr.New(archerr.Unrecoverable, "fec.Decode",
			fmt.Errorf("only %d of %d packets verified good, need %d", goodCount, c.n, c.k))
	}

	if badCount > 0 {
		if c.enc == nil {
			// Identity coding has no redundancy; bad packets within K are fatal
			// even though goodCount counted k-or-more overall (can't happen when
			// n==k and badCount>0, but guard explicitly for clarity).
			return nil, badCount, archerr.New(archerr.Unrecoverable, "fec.Decode",
				fmt.Errorf("identity-coded block has %d bad packets, no redundancy available", badCount))
		}
		if err := c.enc.Reconstruct(shards); err != nil {
			return nil, badCount, archerr.New(archerr.Unrecoverable, "fec.Decode", err)
		}
	}

	out := make([]byte, 0, c.k*c.packetSize)
	for i := 0; i < c.k; i++ {
		out = append(out, shards[i]...)
	}
	return out, badCount, nil
}

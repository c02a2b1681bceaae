package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// ByteGenerator generates a deterministic byte stream from the combined seed
// material using HMAC-SHA256. Each round keys the HMAC with the server seed
// and hashes "participant:clientSeed:round", yielding 32 bytes per round.
//
// The exact message layout is part of the audit contract: any independent
// verifier must reproduce identical rolls from the disclosed seeds, so the
// scheme must never change between releases without a version bump.
type ByteGenerator struct {
	serverSeed    string
	participantID string
	clientSeed    string
	currentRound  uint64
	currentPos    int
	buffer        [32]byte
}

// NewByteGenerator creates a byte generator for one participant's stream.
func NewByteGenerator(serverSeed, participantID, clientSeed string) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:    serverSeed,
		participantID: participantID,
		clientSeed:    clientSeed,
	}

	// Always generate the initial round
	bg.generateRound()

	return bg
}

// Next returns the next byte from the generator.
func (bg *ByteGenerator) Next() byte {
	// Check if we need to advance to the next round
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextUint64 consumes exactly 8 bytes and interprets them big-endian.
func (bg *ByteGenerator) NextUint64() uint64 {
	var chunk [8]byte
	for i := range chunk {
		chunk[i] = bg.Next()
	}
	return binary.BigEndian.Uint64(chunk[:])
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	message := fmt.Sprintf("%s:%s:%d", bg.participantID, bg.clientSeed, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

// Roll derives the participant's integer roll in [rng.Min, rng.Max] from the
// combined seed material. Uses rejection sampling on 8-byte chunks so the
// mapping carries no modulo bias: chunks at or above the largest exact
// multiple of the range width are discarded and the stream advances to the
// next chunk.
func Roll(serverSeed, participantID, clientSeed string, rng RollRange) (int, error) {
	if !rng.Valid() {
		return 0, fmt.Errorf("invalid roll range [%d, %d]", rng.Min, rng.Max)
	}

	width := rng.Width()
	if width == 1 {
		return rng.Min, nil
	}

	limit := math.MaxUint64 - math.MaxUint64%width

	bg := NewByteGenerator(serverSeed, participantID, clientSeed)
	for {
		v := bg.NextUint64()
		if v < limit {
			return rng.Min + int(v%width), nil
		}
	}
}

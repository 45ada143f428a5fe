package xts

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-xts/internal/gf128"
)

// TweakGenerator computes tweak values statelessly from (sector, block)
// coordinates. It holds only the keyed AES context for the tweak key.
type TweakGenerator struct {
	block cipher.Block
}

// NewTweakGenerator creates a generator keyed with the tweak key K2.
func NewTweakGenerator(key []byte) (*TweakGenerator, error) {
	switch len(key) {
	case 16, 32:
	default:
		return nil, fmt.Errorf("%w: tweak key must be 16 or 32 bytes, got %d", ErrInvalidArgument, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("xts: tweak cipher: %w", err)
	}
	return &TweakGenerator{block: block}, nil
}

// Compute writes T(sector, blockIdx) into out: the sector index encoded as
// 16 little-endian bytes, encrypted under K2, then advanced blockIdx steps
// along the alpha powers.
func (g *TweakGenerator) Compute(sector uint64, blockIdx uint64, out *gf128.Element) {
	seedTweak(g.block, sector, out)
	gf128.MulAlphaPow(out, blockIdx)
}

// ComputeRaw is Compute for callers carrying a full 128-bit sector index.
// The index is taken as 16 little-endian bytes; for values that fit in 64
// bits it produces the same tweak as Compute.
func (g *TweakGenerator) ComputeRaw(sector [16]byte, blockIdx uint64, out *gf128.Element) {
	g.block.Encrypt(out[:], sector[:])
	gf128.MulAlphaPow(out, blockIdx)
}

// seedTweak produces the sector-start tweak alpha^0 = E_K2(LE(sector)).
func seedTweak(block cipher.Block, sector uint64, out *gf128.Element) {
	var enc [gf128.Size]byte
	binary.LittleEndian.PutUint64(enc[:8], sector)
	block.Encrypt(out[:], enc[:])
}

// tweakIterator walks the tweak schedule statefully. It is owned
// exclusively by a Cipher; at every observable moment its tweak equals
// T(sector, blockIdx).
type tweakIterator struct {
	block           cipher.Block
	sectorSize      uint64
	blocksPerSector uint64
	sector          uint64
	blockIdx        uint64
	tweak           gf128.Element
}

// newTweakIterator creates an iterator keyed with K2 and positioned at
// (startSector, startBlock) for the given sector size.
func newTweakIterator(key []byte, sectorSize, startSector, startBlock uint64) (*tweakIterator, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("xts: tweak cipher: %w", err)
	}
	it := &tweakIterator{block: block}
	if err := it.reset(sectorSize, startSector, startBlock); err != nil {
		return nil, err
	}
	return it, nil
}

// reset repositions the iterator. sectorSize must be at least one block;
// startBlock must lie within the sector.
func (it *tweakIterator) reset(sectorSize, startSector, startBlock uint64) error {
	if sectorSize < BlockSize {
		return fmt.Errorf("%w: sector size %d is below the block size %d", ErrInvalidArgument, sectorSize, BlockSize)
	}
	blocksPerSector := (sectorSize + BlockSize - 1) / BlockSize
	if startBlock >= blocksPerSector {
		return fmt.Errorf("%w: start block %d exceeds %d blocks per sector", ErrOutOfRange, startBlock, blocksPerSector)
	}

	it.sectorSize = sectorSize
	it.blocksPerSector = blocksPerSector
	it.sector = startSector
	it.blockIdx = startBlock
	seedTweak(it.block, startSector, &it.tweak)
	gf128.MulAlphaPow(&it.tweak, startBlock)
	return nil
}

// current returns the tweak for the iterator's present coordinates. The
// caller must not retain the copy past the next advance.
func (it *tweakIterator) current() gf128.Element {
	return it.tweak
}

// advance steps to the next block. Tweaks never cross a sector boundary
// multiplicatively: when the block index wraps, the next sector's tweak is
// reseeded from the block cipher rather than doubled across.
func (it *tweakIterator) advance() {
	it.blockIdx++
	if it.blockIdx == it.blocksPerSector {
		it.blockIdx = 0
		it.sector++
		seedTweak(it.block, it.sector, &it.tweak)
		return
	}
	gf128.Double(&it.tweak)
}

// takeAndAdvance copies the current tweak into out, then advances.
func (it *tweakIterator) takeAndAdvance(out *gf128.Element) {
	*out = it.tweak
	it.advance()
}

// close wipes the tweak and drops the AES context.
func (it *tweakIterator) close() {
	gf128.Wipe(&it.tweak)
	it.block = nil
}

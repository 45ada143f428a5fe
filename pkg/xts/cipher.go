// Package xts implements the XTS-AES cipher mode of IEEE Std 1619-2007
// (NIST SP 800-38E) as a buffered streaming transform.
//
// XTS encrypts a disk-style array of sectors, each under its own tweak
// seed, with ciphertext stealing for sectors and tails that are not a
// multiple of the AES block size. A Cipher accepts arbitrarily fragmented
// input through Process and holds back the last 16 to 31 bytes so the
// final two blocks are always available for ciphertext stealing when
// Finalize runs. Output is bit-identical to the IEEE/NIST reference
// vectors for byte-aligned data units.
//
// A Cipher is not safe for concurrent use. Independent instances may run
// in parallel without coordination.
package xts

import (
	"crypto/aes"
	"fmt"
	"math"

	"github.com/deploymenttheory/go-xts/internal/gf128"
	"github.com/deploymenttheory/go-xts/internal/helpers"
)

// BlockSize is the AES block size XTS operates on.
const BlockSize = 16

// maxPending is the largest number of bytes the cipher buffers: one byte
// short of two blocks, so that the final two (possibly stolen-from) blocks
// can always be held back until finalization.
const maxPending = 2*BlockSize - 1

// Cipher is a buffered streaming XTS-AES encryptor or decryptor. The
// direction is fixed at construction; block dispatch goes through a single
// function value rather than per-call branching.
type Cipher struct {
	direction  Direction
	mode       Mode
	cryptBlock func(dst, src []byte)
	tweaks     *tweakIterator

	pending    [maxPending]byte
	pendingLen int

	sectorSize  uint64
	startSector uint64

	// sectorBytes counts the bytes submitted since the last reset,
	// including bytes still buffered. Independent mode only.
	sectorBytes uint64

	disposed bool
}

// NewCipher creates a Cipher for the given direction and parameters.
func NewCipher(direction Direction, params Params) (*Cipher, error) {
	if direction != Encrypt && direction != Decrypt {
		return nil, fmt.Errorf("%w: unknown direction %d", ErrInvalidArgument, direction)
	}
	if params.Mode != Continuous && params.Mode != Independent {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, params.Mode)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	dataBlock, err := aes.NewCipher(params.Key1)
	if err != nil {
		return nil, fmt.Errorf("xts: data cipher: %w", err)
	}
	tweaks, err := newTweakIterator(params.Key2, params.SectorSize, params.StartSector, 0)
	if err != nil {
		return nil, err
	}

	c := &Cipher{
		direction:   direction,
		mode:        params.Mode,
		tweaks:      tweaks,
		sectorSize:  params.SectorSize,
		startSector: params.StartSector,
	}
	if direction == Encrypt {
		c.cryptBlock = dataBlock.Encrypt
	} else {
		c.cryptBlock = dataBlock.Decrypt
	}
	return c, nil
}

// BlockSize returns the cipher block size, 16.
func (c *Cipher) BlockSize() int {
	return BlockSize
}

// AlgorithmName identifies the transform.
func (c *Cipher) AlgorithmName() string {
	return "AES/XTS"
}

// checkInput runs the pre-checks shared by every data-accepting call.
// Totals are computed in 64 bits regardless of the public entry point.
// Nothing is mutated when it fails.
func (c *Cipher) checkInput(n int64) error {
	if c.disposed {
		return fmt.Errorf("%w: cipher has been closed", ErrInvalidState)
	}
	if n < 0 {
		return fmt.Errorf("%w: negative input length %d", ErrInvalidArgument, n)
	}
	if c.mode == Independent && c.sectorBytes+uint64(n) > c.sectorSize {
		return fmt.Errorf("%w: %d bytes exceed the %d-byte sector budget (%d already submitted)",
			ErrInvalidState, n, c.sectorSize, c.sectorBytes)
	}
	return nil
}

// UpdateOutputSize reports exactly how many bytes Process will emit for n
// more input bytes in the current state. It fails the same way Process
// would, including when pending+n overflows a 32-bit size.
func (c *Cipher) UpdateOutputSize(n int) (int, error) {
	out, err := c.UpdateOutputSize64(int64(n))
	if err != nil {
		return 0, err
	}
	if int64(c.pendingLen)+int64(n) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: output size exceeds 32-bit range", ErrInvalidState)
	}
	return int(out), nil
}

// UpdateOutputSize64 is UpdateOutputSize without the 32-bit range check.
func (c *Cipher) UpdateOutputSize64(n int64) (int64, error) {
	if err := c.checkInput(n); err != nil {
		return 0, err
	}
	total := int64(c.pendingLen) + n
	if total <= maxPending {
		return 0, nil
	}
	return (total/BlockSize - 1) * BlockSize, nil
}

// FinalOutputSize reports exactly how many bytes Finalize will emit for n
// more input bytes: XTS preserves length, so it is pending+n.
func (c *Cipher) FinalOutputSize(n int) (int, error) {
	out, err := c.FinalOutputSize64(int64(n))
	if err != nil {
		return 0, err
	}
	if out > math.MaxInt32 {
		return 0, fmt.Errorf("%w: output size exceeds 32-bit range", ErrInvalidState)
	}
	return int(out), nil
}

// FinalOutputSize64 is FinalOutputSize without the 32-bit range check.
func (c *Cipher) FinalOutputSize64(n int64) (int64, error) {
	if err := c.checkInput(n); err != nil {
		return 0, err
	}
	return int64(c.pendingLen) + n, nil
}

// Process submits src to the cipher and returns the bytes emitted: as many
// full blocks as can be released while keeping at least one block and at
// most 31 bytes buffered for finalization.
func (c *Cipher) Process(src []byte) ([]byte, error) {
	n, err := c.UpdateOutputSize(len(src))
	if err != nil {
		return nil, err
	}
	dst := make([]byte, n)
	if _, err := c.processInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// ProcessByte submits a single byte.
func (c *Cipher) ProcessByte(b byte) ([]byte, error) {
	return c.Process([]byte{b})
}

// ProcessInto is Process writing into a caller-supplied buffer. The
// capacity is checked before any state changes; the byte count written is
// returned.
func (c *Cipher) ProcessInto(dst, src []byte) (int, error) {
	n, err := c.UpdateOutputSize(len(src))
	if err != nil {
		return 0, err
	}
	if len(dst) < n {
		return 0, fmt.Errorf("%w: output buffer holds %d bytes, need %d", ErrInvalidArgument, len(dst), n)
	}
	return c.processInto(dst[:n], src)
}

// processInto performs the buffered update. All pre-checks have passed and
// dst is exactly the emission size.
func (c *Cipher) processInto(dst, src []byte) (int, error) {
	submitted := len(src)
	total := c.pendingLen + len(src)

	if total <= maxPending {
		copy(c.pending[c.pendingLen:], src)
		c.pendingLen = total
		c.noteSubmitted(submitted)
		return 0, nil
	}

	emit := (total/BlockSize - 1) * BlockSize

	var blockBuf [BlockSize]byte
	defer helpers.ZeroizeBlock(&blockBuf)

	// Blocks are drawn from the logical stream pending||src.
	pi := 0
	written := 0
	for written < emit {
		n := 0
		for n < BlockSize && pi < c.pendingLen {
			blockBuf[n] = c.pending[pi]
			n++
			pi++
		}
		take := BlockSize - n
		copy(blockBuf[n:], src[:take])
		src = src[take:]

		c.transformBlock(dst[written:written+BlockSize], &blockBuf)
		written += BlockSize
	}

	// Carry the unconsumed tail back into the pending buffer, wiping the
	// old contents first.
	var stash [maxPending]byte
	rest := c.pendingLen - pi
	copy(stash[:rest], c.pending[pi:c.pendingLen])
	copy(stash[rest:], src)

	helpers.Zeroize(c.pending[:])
	c.pending = stash
	c.pendingLen = rest + len(src)
	helpers.Zeroize(stash[:])

	c.noteSubmitted(submitted)
	return written, nil
}

// Finalize submits any trailing bytes, emits the remainder of the stream
// with ciphertext stealing applied to a non-aligned tail, and resets the
// cipher to its configured start state.
func (c *Cipher) Finalize(src []byte) ([]byte, error) {
	n, err := c.FinalOutputSize(len(src))
	if err != nil {
		return nil, err
	}
	dst := make([]byte, n)
	if _, err := c.finalizeInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// FinalizeInto is Finalize writing into a caller-supplied buffer, checked
// for capacity before any state changes.
func (c *Cipher) FinalizeInto(dst, src []byte) (int, error) {
	n, err := c.FinalOutputSize(len(src))
	if err != nil {
		return 0, err
	}
	if len(dst) < n {
		return 0, fmt.Errorf("%w: output buffer holds %d bytes, need %d", ErrInvalidArgument, len(dst), n)
	}
	return c.finalizeInto(dst[:n], src)
}

// finalizeInto performs finalization. All pre-checks except the short-unit
// and sector-straddle conditions have passed; those are validated here
// before any state is touched.
func (c *Cipher) finalizeInto(dst, src []byte) (int, error) {
	total := c.pendingLen + len(src)
	if total == 0 {
		c.resetState()
		return 0, nil
	}
	if total < BlockSize {
		return 0, fmt.Errorf("%w: data unit is %d bytes, the minimum is one %d-byte block",
			ErrInvalidArgument, total, BlockSize)
	}

	fullBlocks := uint64(total / BlockSize)
	rem := total % BlockSize

	// Ciphertext stealing is defined only within one data unit: a
	// non-aligned tail whose final fragment would open a new sector
	// cannot be finalized here.
	if c.mode == Continuous && rem != 0 &&
		(c.tweaks.blockIdx+fullBlocks)%c.tweaks.blocksPerSector == 0 {
		return 0, fmt.Errorf("%w: invalid data state for finalization at a sector boundary", ErrInvalidArgument)
	}

	lead := fullBlocks
	if rem != 0 {
		lead--
	}

	// Consume the logical stream pending||src.
	pi := 0
	next := func(buf []byte) {
		for i := range buf {
			if pi < c.pendingLen {
				buf[i] = c.pending[pi]
				pi++
			} else {
				buf[i] = src[0]
				src = src[1:]
			}
		}
	}

	var blockBuf [BlockSize]byte
	defer helpers.ZeroizeBlock(&blockBuf)

	written := 0
	for i := uint64(0); i < lead; i++ {
		next(blockBuf[:])
		c.transformBlock(dst[written:written+BlockSize], &blockBuf)
		written += BlockSize
	}

	if rem != 0 {
		var tail [BlockSize - 1]byte
		defer helpers.Zeroize(tail[:])
		next(blockBuf[:])
		next(tail[:rem])
		c.stealFinal(dst[written:], &blockBuf, tail[:rem])
	}

	c.resetState()
	return total, nil
}

// transformBlock applies the XTS block transform to one full block: XOR
// with the current tweak, the fixed-direction AES call, XOR again. The
// tweak advances once per block.
func (c *Cipher) transformBlock(dst []byte, src *[BlockSize]byte) {
	var tw gf128.Element
	var buf [BlockSize]byte
	c.tweaks.takeAndAdvance(&tw)
	for i := 0; i < BlockSize; i++ {
		buf[i] = src[i] ^ tw[i]
	}
	c.cryptBlock(buf[:], buf[:])
	for i := 0; i < BlockSize; i++ {
		dst[i] = buf[i] ^ tw[i]
	}
	helpers.ZeroizeBlock(&buf)
	gf128.Wipe(&tw)
}

// stealFinal applies ciphertext stealing to the last full block and the
// m-byte tail, writing 16+m bytes to dst. Encryption processes the blocks
// in order under (T_{n-1}, T_n); decryption mirrors it with the tweaks
// swapped, so a single path serves both directions.
func (c *Cipher) stealFinal(dst []byte, block *[BlockSize]byte, tail []byte) {
	m := len(tail)

	var t1, t2 gf128.Element
	c.tweaks.takeAndAdvance(&t1)
	c.tweaks.takeAndAdvance(&t2)
	first, second := &t1, &t2
	if c.direction == Decrypt {
		first, second = &t2, &t1
	}

	var scratch, combined [BlockSize]byte
	defer helpers.ZeroizeBlock(&scratch)
	defer helpers.ZeroizeBlock(&combined)

	for i := 0; i < BlockSize; i++ {
		scratch[i] = block[i] ^ first[i]
	}
	c.cryptBlock(scratch[:], scratch[:])
	for i := 0; i < BlockSize; i++ {
		scratch[i] ^= first[i]
	}

	// The head of the transformed block becomes the short output; its
	// stolen tail completes the other block.
	copy(dst[BlockSize:], scratch[:m])
	copy(combined[:m], tail)
	copy(combined[m:], scratch[m:])

	for i := 0; i < BlockSize; i++ {
		combined[i] ^= second[i]
	}
	c.cryptBlock(combined[:], combined[:])
	for i := 0; i < BlockSize; i++ {
		dst[i] = combined[i] ^ second[i]
	}

	gf128.Wipe(&t1)
	gf128.Wipe(&t2)
}

// noteSubmitted advances the independent-mode byte budget.
func (c *Cipher) noteSubmitted(n int) {
	if c.mode == Independent {
		c.sectorBytes += uint64(n)
	}
}

// Reset returns the cipher to its configured start: pending cleared, the
// sector budget zeroed, the tweak schedule back at the start sector.
func (c *Cipher) Reset() error {
	if c.disposed {
		return fmt.Errorf("%w: cipher has been closed", ErrInvalidState)
	}
	c.resetState()
	return nil
}

func (c *Cipher) resetState() {
	helpers.Zeroize(c.pending[:])
	c.pendingLen = 0
	c.sectorBytes = 0
	// Parameters were validated at construction; repositioning to block 0
	// of the start sector cannot fail.
	_ = c.tweaks.reset(c.sectorSize, c.startSector, 0)
}

// Close wipes the pending buffer and the tweak state and releases the AES
// contexts. Any later data, size-prediction or Reset call fails with
// ErrInvalidState; BlockSize and AlgorithmName do not check for Close and
// keep returning their constant values. Close is idempotent.
func (c *Cipher) Close() error {
	if c.disposed {
		return nil
	}
	helpers.Zeroize(c.pending[:])
	c.pendingLen = 0
	c.sectorBytes = 0
	c.tweaks.close()
	c.cryptBlock = nil
	c.disposed = true
	return nil
}

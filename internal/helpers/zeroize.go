// Package helpers provides small utilities shared across the module.
package helpers

// Zeroize overwrites b with zeros. Buffers that held key, tweak, or
// plaintext material must be passed through here before they go out of
// scope, including on error paths (defer it next to the allocation).
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeBlock overwrites a 16-byte block in place.
func ZeroizeBlock(b *[16]byte) {
	for i := range b {
		b[i] = 0
	}
}

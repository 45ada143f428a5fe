// Package keybag stores XTS key pairs (a data key and a tweak key) under
// UUID identities, with a little-endian serialized form and an optional
// passphrase-sealed encoding for storage at rest.
package keybag

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-xts/internal/helpers"
)

// Version is the current serialized keybag version.
const Version = 1

const (
	headerSize     = 16 // version(2) + numKeys(2) + numBytes(4) + reserved(8)
	entryHeadSize  = 24 // UUID(16) + keySize(2) + labelLen(2) + reserved(4)
	sealSaltSize   = 16
	kdfIterations  = 10000
	sealedKeyBytes = 32
)

// Entry is one stored key pair.
type Entry struct {
	ID    uuid.UUID
	Label string
	Key1  []byte // data key
	Key2  []byte // tweak key
}

// Keybag is a collection of XTS key pairs.
type Keybag struct {
	Entries []Entry
}

// New creates an empty keybag.
func New() *Keybag {
	return &Keybag{Entries: make([]Entry, 0)}
}

// GenerateKeyPair produces a fresh random XTS key pair. size is the AES
// key size for each half, 16 or 32 bytes.
func GenerateKeyPair(size int) (key1, key2 []byte, err error) {
	if size != 16 && size != 32 {
		return nil, nil, fmt.Errorf("key size must be 16 or 32 bytes, got %d", size)
	}
	key1 = make([]byte, size)
	key2 = make([]byte, size)
	if _, err := rand.Read(key1); err != nil {
		return nil, nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	if _, err := rand.Read(key2); err != nil {
		helpers.Zeroize(key1)
		return nil, nil, fmt.Errorf("failed to generate tweak key: %w", err)
	}
	return key1, key2, nil
}

// Add stores a key pair under a fresh UUID and returns it. Both halves
// must be the same valid AES key size.
func (kb *Keybag) Add(label string, key1, key2 []byte) (uuid.UUID, error) {
	if len(key1) != 16 && len(key1) != 32 {
		return uuid.Nil, fmt.Errorf("data key must be 16 or 32 bytes, got %d", len(key1))
	}
	if len(key2) != len(key1) {
		return uuid.Nil, fmt.Errorf("tweak key must match the data key size (%d vs %d)", len(key2), len(key1))
	}
	if len(label) > 0xffff {
		return uuid.Nil, errors.New("label too long")
	}

	entry := Entry{
		ID:    uuid.New(),
		Label: label,
		Key1:  make([]byte, len(key1)),
		Key2:  make([]byte, len(key2)),
	}
	copy(entry.Key1, key1)
	copy(entry.Key2, key2)
	kb.Entries = append(kb.Entries, entry)
	return entry.ID, nil
}

// Retrieve returns copies of the key pair stored under id.
func (kb *Keybag) Retrieve(id uuid.UUID) (key1, key2 []byte, err error) {
	for _, entry := range kb.Entries {
		if entry.ID == id {
			key1 = make([]byte, len(entry.Key1))
			key2 = make([]byte, len(entry.Key2))
			copy(key1, entry.Key1)
			copy(key2, entry.Key2)
			return key1, key2, nil
		}
	}
	return nil, nil, fmt.Errorf("key pair %s not found in keybag", id)
}

// Lookup returns the first entry carrying label.
func (kb *Keybag) Lookup(label string) (*Entry, error) {
	for i := range kb.Entries {
		if kb.Entries[i].Label == label {
			return &kb.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("no key pair labeled %q in keybag", label)
}

// Remove wipes and drops the entry stored under id.
func (kb *Keybag) Remove(id uuid.UUID) error {
	for i := range kb.Entries {
		if kb.Entries[i].ID == id {
			helpers.Zeroize(kb.Entries[i].Key1)
			helpers.Zeroize(kb.Entries[i].Key2)
			kb.Entries = append(kb.Entries[:i], kb.Entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("key pair %s not found in keybag", id)
}

// Zeroize wipes every key in the bag.
func (kb *Keybag) Zeroize() {
	for i := range kb.Entries {
		helpers.Zeroize(kb.Entries[i].Key1)
		helpers.Zeroize(kb.Entries[i].Key2)
	}
	kb.Entries = kb.Entries[:0]
}

// Serialize converts the keybag to its binary representation.
func (kb *Keybag) Serialize() ([]byte, error) {
	totalSize := headerSize
	var keyBytes uint32
	for _, entry := range kb.Entries {
		totalSize += entryHeadSize + len(entry.Key1) + len(entry.Key2) + len(entry.Label)
		keyBytes += uint32(len(entry.Key1) + len(entry.Key2))
	}

	buf := make([]byte, 0, totalSize)
	w := bytes.NewBuffer(buf)

	binary.Write(w, binary.LittleEndian, uint16(Version))
	binary.Write(w, binary.LittleEndian, uint16(len(kb.Entries)))
	binary.Write(w, binary.LittleEndian, keyBytes)
	binary.Write(w, binary.LittleEndian, [8]byte{})

	for _, entry := range kb.Entries {
		binary.Write(w, binary.LittleEndian, entry.ID)
		binary.Write(w, binary.LittleEndian, uint16(len(entry.Key1)))
		binary.Write(w, binary.LittleEndian, uint16(len(entry.Label)))
		binary.Write(w, binary.LittleEndian, [4]byte{})
		w.Write(entry.Key1)
		w.Write(entry.Key2)
		w.WriteString(entry.Label)
	}

	return w.Bytes(), nil
}

// Deserialize reconstructs a keybag from its binary representation.
func Deserialize(data []byte) (*Keybag, error) {
	if len(data) < headerSize {
		return nil, errors.New("keybag data too short")
	}

	version := binary.LittleEndian.Uint16(data[0:2])
	if version != Version {
		return nil, fmt.Errorf("unsupported keybag version: %d", version)
	}
	numKeys := int(binary.LittleEndian.Uint16(data[2:4]))

	kb := New()
	offset := headerSize
	for i := 0; i < numKeys; i++ {
		if offset+entryHeadSize > len(data) {
			return nil, errors.New("unexpected end of keybag data")
		}

		var entry Entry
		copy(entry.ID[:], data[offset:offset+16])
		keySize := int(binary.LittleEndian.Uint16(data[offset+16 : offset+18]))
		labelLen := int(binary.LittleEndian.Uint16(data[offset+18 : offset+20]))
		offset += entryHeadSize

		if keySize != 16 && keySize != 32 {
			return nil, fmt.Errorf("invalid key size %d in keybag entry %d", keySize, i)
		}
		if offset+2*keySize+labelLen > len(data) {
			return nil, errors.New("key data extends beyond end of buffer")
		}

		entry.Key1 = make([]byte, keySize)
		copy(entry.Key1, data[offset:offset+keySize])
		offset += keySize
		entry.Key2 = make([]byte, keySize)
		copy(entry.Key2, data[offset:offset+keySize])
		offset += keySize
		entry.Label = string(data[offset : offset+labelLen])
		offset += labelLen

		kb.Entries = append(kb.Entries, entry)
	}

	return kb, nil
}

// Seal serializes the keybag and encrypts it under a passphrase-derived
// key with AES-256-CBC. Output layout: salt || IV || ciphertext.
func (kb *Keybag) Seal(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}

	plain, err := kb.Serialize()
	if err != nil {
		return nil, err
	}
	defer helpers.Zeroize(plain)

	salt := make([]byte, sealSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	key := deriveKey(passphrase, salt)
	defer helpers.Zeroize(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealing cipher: %w", err)
	}

	padded := padPKCS7(plain, aes.BlockSize)
	defer helpers.Zeroize(padded)

	result := make([]byte, 0, len(salt)+len(iv)+len(padded))
	result = append(result, salt...)
	result = append(result, iv...)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return append(result, ciphertext...), nil
}

// Open decrypts and deserializes a sealed keybag.
func Open(data []byte, passphrase string) (*Keybag, error) {
	if len(data) < sealSaltSize+2*aes.BlockSize {
		return nil, errors.New("sealed keybag too short")
	}

	salt := data[:sealSaltSize]
	iv := data[sealSaltSize : sealSaltSize+aes.BlockSize]
	ciphertext := data[sealSaltSize+aes.BlockSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("sealed keybag is not block aligned")
	}

	key := deriveKey(passphrase, salt)
	defer helpers.Zeroize(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealing cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	defer helpers.Zeroize(padded)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plain, err := unpadPKCS7(padded)
	if err != nil {
		return nil, errors.New("wrong passphrase or corrupt keybag")
	}

	return Deserialize(plain)
}

// deriveKey stretches a passphrase into a sealing key by iterated
// SHA-256 over the salt.
func deriveKey(passphrase string, salt []byte) []byte {
	key := make([]byte, sealedKeyBytes)
	copy(key, salt)
	for i := 0; i < kdfIterations; i++ {
		h := sha256.New()
		h.Write(key)
		h.Write([]byte(passphrase))
		key = h.Sum(nil)[:sealedKeyBytes]
	}
	return key
}

// padPKCS7 adds PKCS#7 padding to data.
func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(append([]byte{}, data...), padText...)
}

// unpadPKCS7 removes PKCS#7 padding from data.
func unpadPKCS7(data []byte) ([]byte, error) {
	length := len(data)
	if length == 0 {
		return nil, errors.New("empty data")
	}

	padLength := int(data[length-1])
	if padLength == 0 || padLength > length {
		return nil, errors.New("invalid padding length")
	}
	for i := length - padLength; i < length; i++ {
		if data[i] != byte(padLength) {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:length-padLength], nil
}

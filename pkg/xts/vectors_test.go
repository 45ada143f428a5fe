package xts

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Known-answer vectors from IEEE Std 1619-2007 Annex B (the set the NIST
// XTSVS samples draw from). Byte-aligned data unit lengths only.
func TestXTSKnownAnswerVectors(t *testing.T) {
	tests := []struct {
		name       string
		key1       string // hex
		key2       string // hex
		sectorNum  uint64
		plaintext  string // hex
		ciphertext string // hex
	}{
		{
			// Vector 1: AES-128, two zero blocks under zero keys.
			name:       "IEEE Vector 1",
			key1:       "00000000000000000000000000000000",
			key2:       "00000000000000000000000000000000",
			sectorNum:  0,
			plaintext:  "0000000000000000000000000000000000000000000000000000000000000000",
			ciphertext: "917cf69ebd68b2ec9b9fe9a3eadda692cd43d2f59598ed858c02c2652fbf922e",
		},
		{
			// Vector 2: AES-128, repeated nibbles, nonzero data unit number.
			name:       "IEEE Vector 2",
			key1:       "11111111111111111111111111111111",
			key2:       "22222222222222222222222222222222",
			sectorNum:  0x3333333333,
			plaintext:  "4444444444444444444444444444444444444444444444444444444444444444",
			ciphertext: "c454185e6a16936e39334038acef838bfb186fff7480adc4289382ecd6d394f0",
		},
		{
			// Vectors 15-18: AES-128 with ciphertext stealing, data units
			// of 17 through 20 bytes.
			name:       "IEEE Vector 15 (CTS, 17 bytes)",
			key1:       "fffefdfcfbfaf9f8f7f6f5f4f3f2f1f0",
			key2:       "bfbebdbcbbbab9b8b7b6b5b4b3b2b1b0",
			sectorNum:  0x123456789a,
			plaintext:  "000102030405060708090a0b0c0d0e0f10",
			ciphertext: "6c1625db4671522d3d7599601de7ca09ed",
		},
		{
			name:       "IEEE Vector 16 (CTS, 18 bytes)",
			key1:       "fffefdfcfbfaf9f8f7f6f5f4f3f2f1f0",
			key2:       "bfbebdbcbbbab9b8b7b6b5b4b3b2b1b0",
			sectorNum:  0x123456789a,
			plaintext:  "000102030405060708090a0b0c0d0e0f1011",
			ciphertext: "d069444b7a7e0cab09e24447d24deb1fedbf",
		},
		{
			name:       "IEEE Vector 17 (CTS, 19 bytes)",
			key1:       "fffefdfcfbfaf9f8f7f6f5f4f3f2f1f0",
			key2:       "bfbebdbcbbbab9b8b7b6b5b4b3b2b1b0",
			sectorNum:  0x123456789a,
			plaintext:  "000102030405060708090a0b0c0d0e0f101112",
			ciphertext: "e5df1351c0544ba1350b3363cd8ef4beedbf9d",
		},
		{
			name:       "IEEE Vector 18 (CTS, 20 bytes)",
			key1:       "fffefdfcfbfaf9f8f7f6f5f4f3f2f1f0",
			key2:       "bfbebdbcbbbab9b8b7b6b5b4b3b2b1b0",
			sectorNum:  0x123456789a,
			plaintext:  "000102030405060708090a0b0c0d0e0f10111213",
			ciphertext: "9d84c813f719aa2c7be3f66171c7c5c2edbf9dac",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key1, _ := hex.DecodeString(tt.key1)
			key2, _ := hex.DecodeString(tt.key2)
			plaintext, _ := hex.DecodeString(tt.plaintext)
			expected, _ := hex.DecodeString(tt.ciphertext)

			encrypted, err := EncryptSector(key1, key2, tt.sectorNum, plaintext)
			if err != nil {
				t.Fatalf("EncryptSector error: %v", err)
			}
			if !bytes.Equal(encrypted, expected) {
				t.Errorf("Encrypt mismatch:\ngot:  %x\nwant: %x", encrypted, expected)
			}

			decrypted, err := DecryptSector(key1, key2, tt.sectorNum, expected)
			if err != nil {
				t.Fatalf("DecryptSector error: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Errorf("Decrypt mismatch:\ngot:  %x\nwant: %x", decrypted, plaintext)
			}
		})
	}
}

// The same vectors must come out of the buffered path when the unit is
// fed through Process in small fragments.
func TestXTSKnownAnswerVectorsStreamed(t *testing.T) {
	key1, _ := hex.DecodeString("fffefdfcfbfaf9f8f7f6f5f4f3f2f1f0")
	key2, _ := hex.DecodeString("bfbebdbcbbbab9b8b7b6b5b4b3b2b1b0")
	plaintext, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f10111213")
	expected, _ := hex.DecodeString("9d84c813f719aa2c7be3f66171c7c5c2edbf9dac")

	for _, chunk := range []int{1, 3, 7, 19} {
		c, err := NewCipher(Encrypt, Params{
			Mode:        Independent,
			Key1:        key1,
			Key2:        key2,
			SectorSize:  uint64(len(plaintext)),
			StartSector: 0x123456789a,
		})
		if err != nil {
			t.Fatalf("NewCipher error: %v", err)
		}

		var got []byte
		for off := 0; off < len(plaintext); off += chunk {
			end := off + chunk
			if end > len(plaintext) {
				end = len(plaintext)
			}
			out, err := c.Process(plaintext[off:end])
			if err != nil {
				t.Fatalf("Process error: %v", err)
			}
			got = append(got, out...)
		}
		fin, err := c.Finalize(nil)
		if err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		got = append(got, fin...)
		c.Close()

		if !bytes.Equal(got, expected) {
			t.Errorf("chunk=%d:\ngot:  %x\nwant: %x", chunk, got, expected)
		}
	}
}

// sequencePlaintext is the 512-byte pattern used by the long IEEE
// vectors: the byte values 0x00..0xff, twice.
func sequencePlaintext() []byte {
	p := make([]byte, 512)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func TestXTSLongUnitAES128(t *testing.T) {
	// IEEE Vector 4: AES-128, 512-byte data unit, data unit number 0.
	key1, _ := hex.DecodeString("27182818284590452353602874713526")
	key2, _ := hex.DecodeString("31415926535897932384626433832795")
	wantFirstBlock, _ := hex.DecodeString("27a7479befa1d476489f308cd4cfa6e2")

	plaintext := sequencePlaintext()
	ciphertext, err := EncryptSector(key1, key2, 0, plaintext)
	if err != nil {
		t.Fatalf("EncryptSector error: %v", err)
	}

	if !bytes.Equal(ciphertext[:16], wantFirstBlock) {
		t.Errorf("first block mismatch:\ngot:  %x\nwant: %x", ciphertext[:16], wantFirstBlock)
	}

	decrypted, err := DecryptSector(key1, key2, 0, ciphertext)
	if err != nil {
		t.Fatalf("DecryptSector error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("512-byte round trip failed")
	}
}

func TestXTSLongUnitAES256(t *testing.T) {
	// IEEE Vector 10: AES-256, 512-byte data unit, data unit number 0xff.
	key1, _ := hex.DecodeString("2718281828459045235360287471352662497757247093699959574966967627")
	key2, _ := hex.DecodeString("3141592653589793238462643383279502884197169399375105820974944592")
	wantFirstBlock, _ := hex.DecodeString("1c3b3a102f770386e4836c99e370cf9b")

	plaintext := sequencePlaintext()
	ciphertext, err := EncryptSector(key1, key2, 0xff, plaintext)
	if err != nil {
		t.Fatalf("EncryptSector error: %v", err)
	}

	if !bytes.Equal(ciphertext[:16], wantFirstBlock) {
		t.Errorf("first block mismatch:\ngot:  %x\nwant: %x", ciphertext[:16], wantFirstBlock)
	}

	decrypted, err := DecryptSector(key1, key2, 0xff, ciphertext)
	if err != nil {
		t.Fatalf("DecryptSector error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("512-byte round trip failed")
	}
}

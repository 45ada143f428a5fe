package xts

// One-shot helpers for callers that hold a whole data unit in memory,
// such as sector-addressed disk I/O. Each call runs an independent-mode
// cipher over exactly one sector.

// EncryptSector encrypts one data unit addressed by sectorNum and returns
// the ciphertext. data must be at least one block long.
func EncryptSector(key1, key2 []byte, sectorNum uint64, data []byte) ([]byte, error) {
	return cryptSector(Encrypt, key1, key2, sectorNum, data)
}

// DecryptSector decrypts one data unit addressed by sectorNum.
func DecryptSector(key1, key2 []byte, sectorNum uint64, data []byte) ([]byte, error) {
	return cryptSector(Decrypt, key1, key2, sectorNum, data)
}

func cryptSector(direction Direction, key1, key2 []byte, sectorNum uint64, data []byte) ([]byte, error) {
	c, err := NewCipher(direction, Params{
		Mode:        Independent,
		Key1:        key1,
		Key2:        key2,
		SectorSize:  sectorLen(len(data)),
		StartSector: sectorNum,
	})
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Finalize(data)
}

// sectorLen widens a unit length to a valid sector size so short inputs
// are rejected by the finalize-time unit check rather than at
// construction.
func sectorLen(n int) uint64 {
	if n < BlockSize {
		return BlockSize
	}
	return uint64(n)
}

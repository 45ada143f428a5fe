package xts

import (
	"fmt"
	"io"
)

// Writer encrypts a byte stream through a Cipher and forwards the
// ciphertext to an underlying writer. Bytes held back for ciphertext
// stealing are flushed by Close, which finalizes the stream; output is
// incomplete until Close returns.
type Writer struct {
	w      io.Writer
	cipher *Cipher
	closed bool
}

// NewWriter creates an encrypting writer around w.
func NewWriter(w io.Writer, params Params) (*Writer, error) {
	c, err := NewCipher(Encrypt, params)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, cipher: c}, nil
}

// Write submits p for encryption and forwards whatever the cipher emits.
func (x *Writer) Write(p []byte) (int, error) {
	if x.closed {
		return 0, fmt.Errorf("%w: writer has been closed", ErrInvalidState)
	}
	out, err := x.cipher.Process(p)
	if err != nil {
		return 0, err
	}
	if len(out) > 0 {
		if _, err := x.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Close finalizes the stream, writes the remaining ciphertext, and wipes
// the cipher. It does not close the underlying writer.
func (x *Writer) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	defer x.cipher.Close()

	out, err := x.cipher.Finalize(nil)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		if _, err := x.w.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// Reader decrypts a byte stream from an underlying reader. The cipher's
// hold-back means plaintext lags the ciphertext read; the tail is released
// when the underlying reader reports EOF.
type Reader struct {
	r      io.Reader
	cipher *Cipher
	out    []byte
	done   bool
}

// NewReader creates a decrypting reader around r.
func NewReader(r io.Reader, params Params) (*Reader, error) {
	c, err := NewCipher(Decrypt, params)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, cipher: c}, nil
}

// Read fills p with decrypted plaintext.
func (x *Reader) Read(p []byte) (int, error) {
	var buf [4096]byte
	for len(x.out) == 0 && !x.done {
		n, err := x.r.Read(buf[:])
		if n > 0 {
			dec, perr := x.cipher.Process(buf[:n])
			if perr != nil {
				return 0, perr
			}
			x.out = dec
		}
		switch {
		case err == io.EOF:
			fin, perr := x.cipher.Finalize(nil)
			if perr != nil {
				return 0, perr
			}
			x.out = append(x.out, fin...)
			x.done = true
			x.cipher.Close()
		case err != nil:
			return 0, err
		}
	}

	if len(x.out) == 0 && x.done {
		return 0, io.EOF
	}
	n := copy(p, x.out)
	x.out = x.out[n:]
	return n, nil
}

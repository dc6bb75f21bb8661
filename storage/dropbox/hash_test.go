package dropbox

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

// referenceContentHash computes the content hash directly from its
// definition: SHA-256 over the concatenated SHA-256 digests of each 4 MiB
// block.
func referenceContentHash(data []byte) string {
	overall := sha256.New()
	for len(data) > 0 {
		n := len(data)
		if n > hashBlockSize {
			n = hashBlockSize
		}
		block := sha256.Sum256(data[:n])
		overall.Write(block[:])
		data = data[n:]
	}
	return hex.EncodeToString(overall.Sum(nil))
}

func TestContentHasher(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"small", []byte("hello world")},
		{"exactly one block", bytes.Repeat([]byte{0xaa}, hashBlockSize)},
		{"one block plus one byte", bytes.Repeat([]byte{0xbb}, hashBlockSize+1)},
		{"two and a half blocks", bytes.Repeat([]byte{0xcc}, hashBlockSize*2+hashBlockSize/2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newContentHasher()
			h.Write(tt.data)
			if got, want := h.Sum(), referenceContentHash(tt.data); got != want {
				t.Errorf("Sum() = %s, want %s", got, want)
			}
		})
	}
}

func TestContentHasherChunkedWrites(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), hashBlockSize/8)

	whole := newContentHasher()
	whole.Write(data)

	chunked := newContentHasher()
	// Uneven chunk sizes that straddle block boundaries.
	for rest := data; len(rest) > 0; {
		n := 7919 // prime, never aligns with the block size
		if n > len(rest) {
			n = len(rest)
		}
		chunked.Write(rest[:n])
		rest = rest[n:]
	}

	if whole.Sum() != chunked.Sum() {
		t.Error("chunked writes produced a different hash than a single write")
	}
}

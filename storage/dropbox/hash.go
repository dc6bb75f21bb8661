package dropbox

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// hashBlockSize is the block size of the Dropbox content hash algorithm.
const hashBlockSize = 4 * 1024 * 1024

// contentHasher computes the Dropbox content_hash of a byte stream: the
// SHA-256 of the concatenated SHA-256 digests of each 4 MiB block. It is an
// io.Writer so it can sit on a TeeReader while an upload streams through.
type contentHasher struct {
	block    hash.Hash
	overall  hash.Hash
	blockLen int
}

func newContentHasher() *contentHasher {
	return &contentHasher{
		block:   sha256.New(),
		overall: sha256.New(),
	}
}

func (h *contentHasher) Write(p []byte) (int, error) {
	written := len(p)
	for len(p) > 0 {
		room := hashBlockSize - h.blockLen
		n := len(p)
		if n > room {
			n = room
		}
		h.block.Write(p[:n])
		h.blockLen += n
		p = p[n:]

		if h.blockLen == hashBlockSize {
			h.overall.Write(h.block.Sum(nil))
			h.block.Reset()
			h.blockLen = 0
		}
	}
	return written, nil
}

// Sum finalizes the hash and returns it hex-encoded. The hasher must not be
// written to afterwards.
func (h *contentHasher) Sum() string {
	if h.blockLen > 0 {
		h.overall.Write(h.block.Sum(nil))
		h.block.Reset()
		h.blockLen = 0
	}
	return hex.EncodeToString(h.overall.Sum(nil))
}

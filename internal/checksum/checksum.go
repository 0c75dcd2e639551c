// Package checksum fingerprints note content so unchanged files can be
// skipped during a sync.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

var crlf = []byte("\r\n")

// Sum returns the hex-encoded SHA-256 digest of data with CRLF line
// endings folded to LF. The parser ignores a trailing carriage return, so
// a note re-saved with different line endings yields the same tasks and
// keeps its fingerprint.
func Sum(data []byte) string {
	h := sha256.New()
	for {
		i := bytes.Index(data, crlf)
		if i < 0 {
			h.Write(data)
			break
		}
		h.Write(data[:i])
		h.Write([]byte{'\n'})
		data = data[i+2:]
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Changed reports whether data differs from the content fingerprinted by
// prev. An empty prev always counts as changed.
func Changed(prev string, data []byte) bool {
	return prev == "" || prev != Sum(data)
}

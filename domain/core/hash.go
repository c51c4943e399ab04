package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// DatasetFingerprint identifies a training table by its header and size
type DatasetFingerprint Hash

func (h DatasetFingerprint) String() string { return Hash(h).String() }

// ComputeDatasetFingerprint hashes the ordered column names and the row count.
// Column order matters: the fitted model consumes features positionally.
func ComputeDatasetFingerprint(columns []string, rows int) DatasetFingerprint {
	var data strings.Builder
	for _, col := range columns {
		data.WriteString(col)
		data.WriteByte(0)
	}
	data.WriteString(fmt.Sprintf("rows=%d", rows))
	return DatasetFingerprint(NewHash([]byte(data.String())))
}

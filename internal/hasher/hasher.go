// Package hasher names converted files by their content.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// NameLen is the number of hex chars of the hash used in output file
// names.
const NameLen = 8

// Sum returns the full xxHash64 of data as 16 hex chars.
func Sum(data []byte) string {
	return encode(xxhash.Sum64(data))
}

// sumReader computes the same hash as Sum, streaming from r.
func sumReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return encode(h.Sum64()), nil
}

// SumFile hashes the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return sumReader(f)
}

// Short truncates a hash to NameLen chars.
func Short(sum string) string {
	if len(sum) > NameLen {
		return sum[:NameLen]
	}
	return sum
}

func encode(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hex.EncodeToString(b[:])
}

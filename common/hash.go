package common

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ComputeHash computes the BLAKE2b-256 hash of the given data
func ComputeHash(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}

func Blake2Hash(data []byte) Hash {
	return BytesToHash(ComputeHash(data))
}

func Keccak256(data ...[]byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hash.Write(d)
	}
	return BytesToHash(hash.Sum(nil))
}

func IsNilHash(h Hash) bool {
	return h == Hash{}
}

// PadToMultipleOfN zero pads input up to the next multiple of n.
func PadToMultipleOfN(input []byte, n int) []byte {
	if n <= 0 {
		return input
	}
	paddingSize := (n - (len(input) % n)) % n
	if paddingSize == 0 {
		return input
	}
	padded := make([]byte, len(input)+paddingSize)
	copy(padded, input)
	return padded
}

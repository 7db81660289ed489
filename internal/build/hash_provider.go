package build

import (
	"fmt"
	"hash/crc32"
	"os"
	"sync"
)

// HashProvider remembers the content hash of every output file it has seen so
// an unchanged page is not rewritten. Lookups are keyed on path, modification
// time and size, so a file touched by something else is hashed again.
type HashProvider struct {
	// crcTable is pre-computed for faster hash generation
	crcTable *crc32.Table
	// hashes maps a metadata key to the content hash
	hashes map[string]uint32
	mu     sync.RWMutex
}

// NewHashProvider creates an empty hash provider.
func NewHashProvider() *HashProvider {
	return &HashProvider{
		crcTable: crc32.MakeTable(crc32.Castagnoli),
		hashes:   make(map[string]uint32),
	}
}

// Sum returns the content hash of data.
func (hp *HashProvider) Sum(data []byte) uint32 {
	return crc32.Checksum(data, hp.crcTable)
}

// Unchanged reports whether the file at path already holds data.
func (hp *HashProvider) Unchanged(path string, data []byte) bool {
	stat, err := os.Stat(path)
	if err != nil || stat.Size() != int64(len(data)) {
		return false
	}

	key := metadataKey(path, stat)
	want := hp.Sum(data)

	hp.mu.RLock()
	sum, found := hp.hashes[key]
	hp.mu.RUnlock()
	if found {
		return sum == want
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	sum = hp.Sum(existing)
	hp.remember(key, sum)
	return sum == want
}

// Record stores the hash of data just written to path.
func (hp *HashProvider) Record(path string, data []byte) {
	stat, err := os.Stat(path)
	if err != nil {
		return
	}
	hp.remember(metadataKey(path, stat), hp.Sum(data))
}

// Len returns the number of cached hashes.
func (hp *HashProvider) Len() int {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return len(hp.hashes)
}

func (hp *HashProvider) remember(key string, sum uint32) {
	hp.mu.Lock()
	defer hp.mu.Unlock()
	hp.hashes[key] = sum
}

func metadataKey(path string, stat os.FileInfo) string {
	return fmt.Sprintf("%s:%d:%d", path, stat.ModTime().UnixNano(), stat.Size())
}

package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// EnrichmentKey returns the cache key for the supplementary fields of a description URL.
// URLs are hashed so arbitrary characters never leak into the key space.
func (r *CacheKeyStruct) EnrichmentKey(descriptionURL string) string {
	sum := sha1.Sum([]byte(descriptionURL))
	return fmt.Sprintf("enrichment:%s", hex.EncodeToString(sum[:]))
}

var CacheKey = NewCacheKeyStruct()

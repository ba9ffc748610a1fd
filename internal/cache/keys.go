package cache

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
)

// Key builds a cache key from an upstream operation name and its query
// parameters. url.Values.Encode sorts by key, so identical parameter
// sets always hash identically regardless of insertion order.
func Key(operation string, params url.Values) string {
	sum := md5.Sum([]byte(params.Encode()))
	return operation + ":" + hex.EncodeToString(sum[:])
}

package catalog

import (
	"crypto/rand"
	"fmt"
	"time"
)

const identAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// newAlbumID mints a stable album identifier: a creation timestamp plus a
// short random alphabetic suffix so ids minted in the same instant stay
// distinct. Ids are never reused and never change after creation.
func newAlbumID() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the platform source is broken;
		// fall back to the timestamp alone rather than aborting.
		return fmt.Sprintf("a%d", time.Now().UnixNano())
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = identAlphabet[int(b)%len(identAlphabet)]
	}
	return fmt.Sprintf("a%d%s", time.Now().UnixNano(), suffix)
}

// Package idgen generates the identifiers of change batches, documents,
// sessions and uploaded files. Constructors take a Generator so tests can
// swap in a deterministic one.
package idgen

import (
	"crypto/rand"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 produces time-ordered RFC 9562 UUIDs.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Short produces random lower-case base-36 IDs of length n, for values that
// end up in URLs and file names.
func Short(n int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i, b := range buf {
			buf[i] = alphabet[int(b)%len(alphabet)]
		}
		return string(buf)
	}
}

// Prefixed prepends prefix to every ID of gen, e.g. "doc_".
func Prefixed(prefix string, gen Generator) Generator {
	return func() string { return prefix + gen() }
}

// Counter yields prefix1, prefix2, ... It is safe for concurrent use.
func Counter(prefix string) Generator {
	var n atomic.Uint64
	return func() string {
		return prefix + strconv.FormatUint(n.Add(1), 10)
	}
}

// Default is UUIDv7.
var Default Generator = UUIDv7()

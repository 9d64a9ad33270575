// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package attr

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
)

// IDLen is the standard length of stanza identifiers in bytes.
const IDLen = 16

// RandomID generates a new random identifier of length IDLen. If the OS's
// entropy pool isn't initialized, or we can't generate random numbers for some
// other reason, panic.
func RandomID() string {
	return randomID(IDLen, rand.Reader)
}

func randomID(n int, r io.Reader) string {
	b := make([]byte, (n/2)+(n&1))
	switch n, err := r.Read(b); {
	case err != nil:
		panic(err)
	case n != len(b):
		panic("Could not read enough randomness")
	}

	return fmt.Sprintf("%x", b)[:n]
}

// IDGen generates sequential identifiers of the form "prefix.N" where N starts
// at 0.
// Identifiers are never reused for the lifetime of the IDGen.
// It is safe to call Next from multiple goroutines.
type IDGen struct {
	prefix string
	next   atomic.Uint64
}

// NewIDGen returns an IDGen that scopes its identifiers by prefix.
func NewIDGen(prefix string) *IDGen {
	return &IDGen{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGen) Next() string {
	n := g.next.Add(1) - 1
	return g.prefix + "." + strconv.FormatUint(n, 10)
}

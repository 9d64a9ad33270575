// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid_test

import (
	"testing"

	"mellium.im/pushd/jid"
)

func FuzzParse(f *testing.F) {
	for _, s := range []string{
		"user@example.com/resource",
		"example.com",
		"user@[::1]",
		"@/",
		"a@b/c@d/e",
	} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		j, err := jid.Parse(s)
		if err != nil {
			return
		}
		// Anything that parses must survive a round trip.
		j2, err := jid.Parse(j.String())
		if err != nil {
			t.Fatalf("error reparsing %q (from %q): %v", j, s, err)
		}
		if !j.Equal(j2) {
			t.Errorf("round trip changed the JID: %q != %q", j, j2)
		}
	})
}

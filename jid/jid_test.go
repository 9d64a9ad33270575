// Copyright 2015 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mellium.im/pushd/jid"
)

var _ fmt.Stringer = jid.JID{}

func TestValidJIDs(t *testing.T) {
	for i, tc := range [...]struct {
		jid, lp, dp, rp string
	}{
		0: {"mercutio@example.net", "mercutio", "example.net", ""},
		1: {"mercutio@example.net/rp", "mercutio", "example.net", "rp"},
		2: {"mercutio@example.net/rp@rp", "mercutio", "example.net", "rp@rp"},
		3: {"mercutio@example.net/rp@rp/rp", "mercutio", "example.net", "rp@rp/rp"},
		4: {"mercutio@example.net/@", "mercutio", "example.net", "@"},
		5: {"mercutio@example.net//@", "mercutio", "example.net", "/@"},
		6: {"juliet@[::1]", "juliet", "[::1]", ""},
		7: {"juliet@127.0.0.1", "juliet", "127.0.0.1", ""},
		8: {"juliet@example.com/ foo", "juliet", "example.com", " foo"},
		9: {"juliet@example.net.", "juliet", "example.net.", ""},
		10: {
			"foo@quux.com/127.0.0.1:5222.resource",
			"foo", "quux.com", "127.0.0.1:5222.resource",
		},
		11: {"Foo@baz.com/Res", "Foo", "baz.com", "Res"},
		12: {"foo bar@example.com", "foo bar", "example.com", ""},
		13: {"ＦＯＯ@example.com", "ＦＯＯ", "example.com", ""},
		14: {`b:d@example.net`, "b:d", "example.net", ""},
		15: {"e@[127.0.0.1]", "e", "[127.0.0.1]", ""},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			j, err := jid.Parse(tc.jid)
			if err != nil {
				t.Fatal(err)
			}
			if j.Domainpart() != tc.dp {
				t.Errorf("Got domainpart %s but expected %s", j.Domainpart(), tc.dp)
			}
			if j.Localpart() != tc.lp {
				t.Errorf("Got localpart %s but expected %s", j.Localpart(), tc.lp)
			}
			if j.Resourcepart() != tc.rp {
				t.Errorf("Got resourcepart %s but expected %s", j.Resourcepart(), tc.rp)
			}
		})
	}
}

var invalidutf8 = string([]byte{0xff, 0xfe, 0xfd})

var invalidJIDs = [...]string{
	0:  "test@/test",
	1:  invalidutf8 + "@example.com/rp",
	2:  "example.com",
	3:  "example.com/rp",
	4:  "lp@example.com/" + invalidutf8,
	5:  "lp@/rp",
	6:  `e@example.net/`,
	7:  `@example.net/`,
	8:  `juliet@`,
	9:  `/foobar`,
	10: "lp@" + invalidutf8,
}

func TestInvalidParseJIDs(t *testing.T) {
	for i, tc := range invalidJIDs {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := jid.Parse(tc)
			if err == nil {
				t.Errorf("Expected JID %s to fail", tc)
			}
		})
	}
}

var invalidParts = [...]struct {
	lp, dp, rp string
}{
	0: {"", "example.net", "rp"},
	1: {"e", "", "rp"},
	2: {"", "", ""},
	3: {invalidutf8, "example.net", ""},
	4: {"e", invalidutf8, ""},
	5: {"e", "example.net", invalidutf8},
}

func TestInvalidNewJIDs(t *testing.T) {
	for i, tc := range invalidParts {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := jid.New(tc.lp, tc.dp, tc.rp)
			if err == nil {
				t.Errorf("Expected composition of JID parts %v to fail", tc)
			}
		})
	}
}

func TestNewVerbatim(t *testing.T) {
	for i, tc := range [...]struct {
		lp, dp, rp string
		str        string
	}{
		0: {"foo bar", "example.com", "", "foo bar@example.com"},
		1: {"ＦＯＯ", "example.com", "", "ＦＯＯ@example.com"},
		2: {"a:b", "example.com", "r", "a:b@example.com/r"},
		3: {"b&d", "example.net.", "", "b&d@example.net."},
		4: {strings.Repeat("a", 1024), "[example.net]", "", strings.Repeat("a", 1024) + "@[example.net]"},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			j, err := jid.New(tc.lp, tc.dp, tc.rp)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if j.Localpart() != tc.lp || j.Domainpart() != tc.dp || j.Resourcepart() != tc.rp {
				t.Errorf("Parts were modified: want=%q %q %q, got=%q %q %q", tc.lp, tc.dp, tc.rp, j.Localpart(), j.Domainpart(), j.Resourcepart())
			}
			if s := j.String(); s != tc.str {
				t.Errorf("Wrong string: want=%q, got=%q", tc.str, s)
			}
			j2, err := jid.Parse(j.String())
			if err != nil {
				t.Fatalf("Error parsing %q: %v", j, err)
			}
			if !j.Equal(j2) {
				t.Errorf("Round trip changed the JID: want=%q, got=%q", j, j2)
			}
		})
	}
}

var unpreparedParts = [...]struct {
	lp, dp, rp string
}{
	0:  {strings.Repeat("a", 1024), "example.net", ""},
	1:  {"e", "example.net", strings.Repeat("a", 1024)},
	2:  {"b/d", "example.net", ""},
	3:  {"b@d", "example.net", ""},
	4:  {"e", "[example.net]", ""},
	5:  {`b"d`, "example.net", ""},
	6:  {"b&d", "example.net", ""},
	7:  {"b'd", "example.net", ""},
	8:  {"b:d", "example.net", ""},
	9:  {"b<d", "example.net", ""},
	10: {"b>d", "example.net", ""},
	11: {"foo bar", "example.com", ""},
	12: {"e", "[127.0.0.1]", ""},
	13: {"", "example.net", ""},
	14: {invalidutf8, "example.net", ""},
}

func TestInvalidPrepareJIDs(t *testing.T) {
	for i, tc := range unpreparedParts {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := jid.Prepare(tc.lp, tc.dp, tc.rp)
			if err == nil {
				t.Errorf("Expected preparation of JID parts %v to fail", tc)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	for i, tc := range [...]struct {
		lp, dp, rp string
		str        string
	}{
		0: {"ＦＯＯ", "example.com", "", "FOO@example.com"},
		1: {"juliet", "example.net.", "balcony", "juliet@example.net/balcony"},
		2: {"Foo", "baz.com", "Res", "Foo@baz.com/Res"},
		3: {"juliet", "[::1]", "", "juliet@[::1]"},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			j, err := jid.Prepare(tc.lp, tc.dp, tc.rp)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s := j.String(); s != tc.str {
				t.Errorf("Wrong string: want=%q, got=%q", tc.str, s)
			}
		})
	}
}

func TestNewEmptyPart(t *testing.T) {
	_, err := jid.New("", "example.net", "")
	if !errors.Is(err, jid.ErrEmptyPart) {
		t.Errorf("Wrong error for empty localpart: want=%v, got=%v", jid.ErrEmptyPart, err)
	}
	_, err = jid.New("foo", "", "")
	if !errors.Is(err, jid.ErrEmptyPart) {
		t.Errorf("Wrong error for empty domainpart: want=%v, got=%v", jid.ErrEmptyPart, err)
	}
}

func TestMustParsePanics(t *testing.T) {
	for i, tc := range [...]struct {
		jid         string
		shouldPanic bool
	}{
		0: {"@me", true},
		1: {"@`me", true},
		2: {"e@example.net", false},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			defer func() {
				r := recover()
				switch {
				case tc.shouldPanic && r == nil:
					t.Error("Must parse should panic on invalid JID")
				case !tc.shouldPanic && r != nil:
					t.Error("Must parse should not panic on valid JID")
				}
			}()
			jid.MustParse(tc.jid)
		})
	}
}

func TestEqual(t *testing.T) {
	m := jid.MustParse("mercutio@example.net/test")
	for i, tc := range [...]struct {
		j1, j2 jid.JID
		eq     bool
	}{
		0: {m, jid.MustParse("mercutio@example.net/test"), true},
		1: {m.Bare(), jid.MustParse("mercutio@example.net"), true},
		2: {m, jid.MustParse("mercutio@example.net/nope"), false},
		3: {m, jid.MustParse("mercutio@e.com/test"), false},
		4: {m, jid.MustParse("m@example.net/test"), false},
		5: {m, jid.MustParse("Mercutio@example.net/test"), false},
		6: {m, jid.MustParse("mercutio@example.net/Test"), false},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			switch {
			case tc.eq && !tc.j1.Equal(tc.j2):
				t.Errorf("JIDs %s and %s should be equal", tc.j1, tc.j2)
			case !tc.eq && tc.j1.Equal(tc.j2):
				t.Errorf("JIDs %s and %s should not be equal", tc.j1, tc.j2)
			}
		})
	}
}

func TestMapKey(t *testing.T) {
	seen := map[jid.JID]int{}
	seen[jid.MustParse("a@example.net/1")]++
	seen[jid.MustParse("a@example.net/1")]++
	seen[jid.MustParse("a@example.net/1").Bare()]++
	if len(seen) != 2 {
		t.Errorf("Expected 2 distinct keys, got %d", len(seen))
	}
	if n := seen[jid.MustParse("a@example.net/1")]; n != 2 {
		t.Errorf("Expected equal JIDs to share a key, got count %d", n)
	}
}

func TestBare(t *testing.T) {
	for i, tc := range [...]struct {
		lp, dp, rp string
	}{
		0: {"foo", "bar.com", ""},
		1: {"foo", "bar.com", "resource"},
		2: {"foo", "bar.com", "a/b"},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			j, err := jid.New(tc.lp, tc.dp, tc.rp)
			if err != nil {
				t.Fatal(err)
			}
			bare := j.Bare()
			if s := bare.String(); strings.Contains(s, "/") {
				t.Errorf("Bare JID contains a resource: %s", s)
			}
			if bare.Localpart() != tc.lp || bare.Domainpart() != tc.dp {
				t.Errorf("Bare changed localpart or domainpart: %s", bare)
			}
			if j.Resourcepart() != tc.rp {
				t.Errorf("Bare mutated the original JID: %s", j)
			}
		})
	}
}

func TestString(t *testing.T) {
	for i, tc := range [...]string{
		0: "feste@example.com",
		1: "feste@example.com/testabc",
		2: "resource_prefix@quux.com/resource_prefix.resource",
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			j := jid.MustParse(tc)

			// Check that String() and jid.Parse() are inverse operations
			if js := j.String(); js != tc {
				t.Errorf("want=%s, got=%s", tc, js)
			}
			j2, err := jid.Parse(j.String())
			if err != nil {
				t.Fatal(err)
			}
			if j2 != j {
				t.Errorf("Round trip changed the JID: want=%s, got=%s", j, j2)
			}
		})
	}
}

func TestZero(t *testing.T) {
	var j jid.JID
	if !j.IsZero() {
		t.Error("Zero value should report IsZero")
	}
	if s := j.String(); s != "" {
		t.Errorf("Zero value should stringify to the empty string, got %q", s)
	}
	if jid.MustParse("a@b").IsZero() {
		t.Error("Valid JID should not report IsZero")
	}
}

func TestSplitMallocs(t *testing.T) {
	n := testing.AllocsPerRun(1000, func() {
		jid.SplitString("olivia@example.net/ilyria")
	})
	if n > 0 {
		t.Errorf("got %f allocs, want 0", n)
	}
}

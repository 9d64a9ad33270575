// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"mellium.im/pushd/internal/ns"
)

// Is tests whether e is one of the three stanza kinds (iq, message, or
// presence).
// Elements with a namespace prefix are never stanzas.
func Is(e *Element) bool {
	if e == nil || e.Name.Space != "" {
		return false
	}
	switch e.Name.Local {
	case "iq", "message", "presence":
		return true
	}
	return false
}

// IsStream reports whether e is a stream root, either <stream:stream> or a
// <stream> element whose default namespace is the streams namespace.
func IsStream(e *Element) bool {
	if e == nil || e.Name.Local != "stream" {
		return false
	}
	return e.Name.Space == "stream" || e.NS() == ns.Stream
}

// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package attr contains unexported functionality related to XML attributes.
package attr // import "mellium.im/pushd/internal/attr"

import (
	"encoding/xml"
	"strings"
)

// Qualified returns the value of the first attribute with the provided raw
// qualified name (eg. "xmlns:stream" or "to") from a list of attributes or an
// empty string if no such attribute exists.
// It also returns the index of the attribute, or -1 if it was not found.
func Qualified(attr []xml.Attr, qname string) (int, string) {
	prefix, local := Split(qname)
	for idx, a := range attr {
		if a.Name.Space == prefix && a.Name.Local == local {
			return idx, a.Value
		}
	}
	return -1, ""
}

// Split splits a raw qualified name into its prefix and local name.
// The prefix is empty if the name is not qualified.
func Split(qname string) (prefix, local string) {
	if i := strings.IndexByte(qname, ':'); i > 0 && i < len(qname)-1 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// Join is the inverse of Split.
func Join(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

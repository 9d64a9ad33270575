// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza contains a small, mutable XML element tree and an incremental
// parser that splits an XMPP byte stream into stanzas.
//
// Stanzas (Message, Presence, and IQ) are the "primitives" of XMPP. On the
// wire they are the first level children of the stream root,
// <stream:stream>, which is itself never closed until the underlying
// connection goes away. The Parser in this package understands that: the
// stream root is handed to the Handler as soon as its start tag has been
// read, and every other top level element is handed over once it is
// complete.
//
// Names in the tree are kept exactly as they appear on the wire. The Space
// field of an xml.Name holds the namespace prefix (eg. "stream" for
// <stream:stream>), not a resolved namespace URI. This keeps serialization
// byte-for-byte predictable, which the push server relies on.
package stanza // import "mellium.im/pushd/stanza"

// Copyright 2014 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jid implements the XMPP addresses ("Jabber ID's" or "JID's") handed
// out to clients of the push server.
//
// Unlike the general addresses described in RFC 7622, every JID in this
// package has a localpart, because the server only ever binds addresses for
// authenticated users.
// The syntax is:
//
//     jid          = localpart "@" domainpart [ "/" resourcepart ]
//
// New keeps the parts exactly as the client sent them, only requiring a
// localpart and domainpart that are valid UTF-8.
// Prepare additionally applies the PRECIS and IDNA rules of RFC 7622.
//
// JID is a comparable value type: two JIDs are equal if and only if all three
// parts are octet-for-octet equal, so JIDs may be used as map keys.
package jid // import "mellium.im/pushd/jid"

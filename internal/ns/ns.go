// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are used by the server and
// stanza packages.
package ns // import "mellium.im/pushd/internal/ns"

// List of commonly used namespaces.
const (
	Bind    = "urn:ietf:params:xml:ns:xmpp-bind"
	Client  = "jabber:client"
	SASL    = "urn:ietf:params:xml:ns:xmpp-sasl"
	Session = "urn:ietf:params:xml:ns:xmpp-session"
	Stream  = "http://etherx.jabber.org/streams"

	// Push is the namespace of subscriptions and notifications.
	Push = "google:push"

	// Notifier is the namespace of the legacy notifier protocol, which is not
	// served.
	Notifier = "google:notifier"
)

// Copyright 2015 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package server

import (
	"crypto/tls"
	"io"
	"log"

	"golang.org/x/text/language"
)

// Option's can be used to configure a server and its connections.
type Option func(*options)
type options struct {
	clientAddr string // TCP address to listen on, ":5222" if empty.
	tlsConfig  *tls.Config
	noAuth     bool
	lang       language.Tag
	prepare    bool
	maxSize    int
	logger     *log.Logger
	debug      *log.Logger
}

func getOpts(o ...Option) (res options) {
	for _, f := range o {
		f(&res)
	}

	// Log to /dev/null by default.
	if res.logger == nil {
		res.logger = log.New(io.Discard, "", log.LstdFlags)
	}
	if res.debug == nil {
		res.debug = log.New(io.Discard, "", log.LstdFlags)
	}
	return
}

// The ClientAddr option sets the interface and port that the server will listen
// on for inbound connections from XMPP clients.
func ClientAddr(addr string) Option {
	return func(o *options) {
		o.clientAddr = addr
	}
}

// The TLSConfig option fully configures the servers TLS including the
// certificate chains used, cipher suites, etc. based on the given tls.Config.
// If it is set, ListenAndServe wraps the listener in TLS.
func TLSConfig(config *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = config
	}
}

// The RequireAuth option controls whether clients must finish the full
// authenticated handshake (the default).
// If it is false, a client's SASL exchange is answered with a failure and the
// connection is closed without ever becoming eligible for notifications.
func RequireAuth(require bool) Option {
	return func(o *options) {
		o.noAuth = !require
	}
}

// The Lang option sets the default xml:lang sent in stream headers when the
// client does not specify a valid language itself.
func Lang(tag language.Tag) Option {
	return func(o *options) {
		o.lang = tag
	}
}

// The PrepareJIDs option makes the server apply the RFC 7622 preparation rules
// (see jid.Prepare) to the address it builds at the end of the handshake.
// By default the username, domain, and resource are used as sent, and a
// client whose address does not survive preparation fails its handshake.
func PrepareJIDs(prepare bool) Option {
	return func(o *options) {
		o.prepare = prepare
	}
}

// The MaxStanzaSize option limits the number of bytes buffered for a single
// incoming element.
// Clients that exceed it are disconnected.
// If it is not set, stanza.DefaultMaxSize is used.
func MaxStanzaSize(n int) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// The Logger option can be provided to have the server log connection
// lifecycle messages.
func Logger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// The Debug option can be provided to have the server log every XML stanza it
// sends or receives.
func Debug(logger *log.Logger) Option {
	return func(o *options) {
		o.debug = logger
	}
}

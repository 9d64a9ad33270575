// Copyright 2015 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package server implements a small XMPP server that delivers push
// notifications to subscribed clients.
//
// It is meant for exercising push clients in tests, not for production use:
// the client's SASL credentials are decoded but passwords are never verified.
//
// Each connection walks through a fixed handshake (stream header, SASL PLAIN,
// stream restart, resource binding, and session) after which it can subscribe
// to notifications with an IQ in the google:push namespace.
// Notifications are messages of the form:
//
//	<message>
//	  <push channel="CHANNEL" xmlns="google:push">
//	    <data>BASE64</data>
//	  </push>
//	</message>
//
// The Server keeps two collections: the SocketMap of every open connection,
// and the set of connections that finished their handshake and receive
// notifications.
// Each accepted connection is served on its own goroutine.
package server // import "mellium.im/pushd/server"

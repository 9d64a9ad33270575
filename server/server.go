// Copyright 2015 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io"
	"net"
	"sync"

	"mellium.im/pushd/internal/ns"
	"mellium.im/pushd/stanza"
	"mellium.im/xmlstream"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Close.
var ErrServerClosed = errors.New("server: server closed")

// A Server accepts client connections and broadcasts push notifications to
// every connection that has completed its handshake.
type Server struct {
	options
	opts    []Option
	sockets *SocketMap

	mu        sync.Mutex
	completed map[*Conn]struct{}
	disabled  bool
	closed    bool
	listener  net.Listener
}

// New creates a new push server with the given options.
// Notifications start out enabled.
func New(opts ...Option) *Server {
	return &Server{
		options:   getOpts(opts...),
		opts:      opts,
		sockets:   NewSocketMap(),
		completed: make(map[*Conn]struct{}),
	}
}

// Sockets returns the registry of every open connection.
func (s *Server) Sockets() *SocketMap {
	return s.sockets
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	return s.sockets.Len()
}

// HandshakeDoneCount returns the number of connections that will receive
// notifications.
func (s *Server) HandshakeDoneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

// Accept creates a connection served by s.
// The caller is responsible for reading from rwc, either by calling the
// connection's Serve method or by passing data to Feed.
func (s *Server) Accept(rwc io.ReadWriteCloser, addr net.Addr) *Conn {
	return NewConn(rwc, s.sockets, s, addr, !s.noAuth, s.opts...)
}

// ListenAndServe listens on the TCP network address ClientAddr and then
// calls Serve to handle requests on incoming connections. If ClientAddr is
// blank, ":xmpp-client" (":5222") is used.
// If a TLS config was provided the listener is wrapped in TLS.
func (s *Server) ListenAndServe() error {
	clientaddr := s.clientAddr
	if clientaddr == "" {
		clientaddr = ":5222"
	}
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", clientaddr)
	if err != nil {
		return err
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	return s.Serve(ln)
}

// Serve accepts incoming connections on the Listener, spawning a new service
// goroutine for each.
// Serve always closes l before returning.
// After Close it returns nil.
func (s *Server) Serve(l net.Listener) (err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		/* #nosec */
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	defer func() {
		if cerr := l.Close(); err == nil && cerr != nil && !s.isClosed() {
			err = cerr
		}
	}()
	for {
		rwc, e := l.Accept()
		if e != nil {
			if s.isClosed() {
				return nil
			}
			var ne net.Error
			if errors.As(e, &ne) && ne.Timeout() {
				continue
			}
			return e
		}
		c := s.Accept(rwc, rwc.RemoteAddr())
		s.logger.Printf("accepted connection from %s", rwc.RemoteAddr())
		if s.isClosed() {
			/* #nosec */
			c.Close()
			return nil
		}
		go func() {
			if err := c.Serve(); err != nil {
				s.debug.Printf("connection %s ended: %v", c, err)
			}
		}()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// OnHandshakeDone makes c eligible for notifications.
// Connections that are not in the socket map are ignored and adding a
// connection twice has no effect.
func (s *Server) OnHandshakeDone(c *Conn) {
	if !s.sockets.Contains(c) {
		return
	}
	s.mu.Lock()
	s.completed[c] = struct{}{}
	s.mu.Unlock()

	// The connection may have been closed concurrently.
	if !s.sockets.Contains(c) {
		s.OnConnClosed(c)
	}
}

// OnConnClosed stops sending notifications to c.
func (s *Server) OnConnClosed(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.completed, c)
}

// ForwardNotification relays a notification sent by a client to every
// connection that has completed its handshake, including the sender.
func (s *Server) ForwardNotification(from *Conn, n *stanza.Element) {
	s.debug.Printf("relaying notification from %s", from)
	s.broadcast(n)
}

// EnableNotifications turns on notification delivery.
func (s *Server) EnableNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = false
}

// DisableNotifications turns off notification delivery.
// Notifications sent while delivery is disabled are dropped.
func (s *Server) DisableNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = true
}

// NotificationsEnabled reports whether notifications are being delivered.
func (s *Server) NotificationsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disabled
}

// SendNotification sends a notification on channel to every connection that
// has completed its handshake and returns the number of connections it was
// written to.
// A failure to write to one connection is logged and does not stop delivery to
// the others.
func (s *Server) SendNotification(channel string, data []byte) int {
	return s.broadcast(MakeNotification(channel, data))
}

func (s *Server) broadcast(n *stanza.Element) int {
	s.mu.Lock()
	if s.disabled {
		s.mu.Unlock()
		return 0
	}
	conns := make([]*Conn, 0, len(s.completed))
	for c := range s.completed {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var sent int
	for _, c := range conns {
		if err := c.ForwardNotification(n); err != nil {
			s.logger.Printf("error sending notification to %s: %v", c, err)
			continue
		}
		sent++
	}
	return sent
}

// MakeNotification builds a push notification stanza:
//
//	<message>
//	  <push channel="CHANNEL" xmlns="google:push">
//	    <data>BASE64(DATA)</data>
//	  </push>
//	</message>
func MakeNotification(channel string, data []byte) *stanza.Element {
	e, err := stanza.Decode(xmlstream.Wrap(
		xmlstream.Wrap(
			xmlstream.Wrap(
				xmlstream.Token(xml.CharData(base64.StdEncoding.EncodeToString(data))),
				xml.StartElement{Name: xml.Name{Local: "data"}},
			),
			xml.StartElement{
				Name: xml.Name{Local: "push"},
				Attr: []xml.Attr{
					{Name: xml.Name{Local: "channel"}, Value: channel},
					{Name: xml.Name{Local: "xmlns"}, Value: ns.Push},
				},
			},
		),
		xml.StartElement{Name: xml.Name{Local: "message"}},
	))
	if err != nil {
		// The token stream above is always well formed.
		panic(err)
	}
	return e
}

// Close closes every open connection and the listener, if any.
// Afterwards the socket map is empty and no connection is eligible for
// notifications.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	l := s.listener
	s.listener = nil
	s.mu.Unlock()

	for _, c := range s.sockets.Conns() {
		if err := c.Close(); err != nil {
			s.debug.Printf("error closing %s: %v", c, err)
		}
	}

	s.mu.Lock()
	for c := range s.completed {
		delete(s.completed, c)
	}
	s.mu.Unlock()

	if l != nil {
		return l.Close()
	}
	return nil
}

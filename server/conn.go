// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"

	"mellium.im/pushd/internal/ns"
	"mellium.im/pushd/jid"
	"mellium.im/pushd/stanza"
)

// Delegate is notified about connection level events.
// Server implements Delegate; tests may provide their own.
//
// Methods are never called while the connection holds any of its own locks,
// so they may call back into the connection.
type Delegate interface {
	// OnHandshakeDone is called when a connection becomes eligible for
	// notifications, possibly more than once for the same connection.
	OnHandshakeDone(c *Conn)

	// OnConnClosed is called when a connection that completed its handshake is
	// closed.
	OnConnClosed(c *Conn)

	// ForwardNotification is called when a client sends a push notification.
	ForwardNotification(from *Conn, n *stanza.Element)
}

// Conn is a single client connection.
//
// Until the handshake completes every stanza read from the connection is
// handed to the handshake; afterwards stanzas are treated as part of the push
// subscription protocol.
type Conn struct {
	rwc     io.ReadWriteCloser
	addr    net.Addr
	sockets *SocketMap
	d       Delegate
	logger  *log.Logger
	debug   *log.Logger
	parser  *stanza.Parser

	// fmu serializes feeding the parser.
	fmu sync.Mutex

	smu    sync.Mutex
	hs     *handshake
	jid    jid.JID
	done   bool
	closed bool

	wmu sync.Mutex
}

// NewConn creates a connection reading from and writing to rwc and registers
// it in sockets.
// The peer address is used as the prefix of every resource the client binds.
// If requireAuth is false clients are refused during SASL and the connection
// never becomes eligible for notifications.
//
// Only the Lang, PrepareJIDs, MaxStanzaSize, Logger, and Debug options apply
// to connections.
func NewConn(rwc io.ReadWriteCloser, sockets *SocketMap, d Delegate, addr net.Addr, requireAuth bool, opts ...Option) *Conn {
	o := getOpts(opts...)
	c := &Conn{
		rwc:     rwc,
		addr:    addr,
		sockets: sockets,
		d:       d,
		logger:  o.logger,
		debug:   o.debug,
	}
	var prefix string
	if addr != nil {
		prefix = addr.String()
	}
	c.hs = newHandshake(c, prefix, requireAuth, o.lang)
	if o.prepare {
		c.hs.newJID = jid.Prepare
	}
	c.parser = stanza.NewParser(stanza.HandlerFunc(c.feedStanza))
	c.parser.MaxSize = o.maxSize
	sockets.add(c)
	return c
}

// JID returns the address negotiated during the handshake or the zero JID if
// the handshake has not completed.
func (c *Conn) JID() jid.JID {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.jid
}

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() net.Addr {
	return c.addr
}

// String returns the connection's JID if known and otherwise its peer address.
func (c *Conn) String() string {
	if j := c.JID(); !j.IsZero() {
		return j.String()
	}
	if c.addr != nil {
		return c.addr.String()
	}
	return "unknown peer"
}

// Feed passes incoming bytes to the connection.
// Stanzas are processed synchronously in the order they complete.
//
// Any returned error is fatal and the caller is expected to close the
// connection: a *stanza.SyntaxError for malformed XML, a *UnexpectedXMLError
// for stanzas that make no sense at this point, or io.EOF if the client ended
// its stream.
func (c *Conn) Feed(p []byte) error {
	c.fmu.Lock()
	defer c.fmu.Unlock()
	c.debug.Printf("IN %s: %s", c, p)
	return c.parser.Feed(p)
}

func (c *Conn) feedStanza(e *stanza.Element) error {
	c.smu.Lock()
	hs := c.hs
	c.smu.Unlock()
	if hs != nil {
		return hs.feedStanza(e)
	}

	switch classify(e) {
	case kindSubscribe:
		if err := c.sendStanza(stanza.NewIQ(e.GetAttr("id"), stanza.ResultIQ)); err != nil {
			return err
		}
		c.d.OnHandshakeDone(c)
	case kindResult:
	case kindPush:
		c.d.ForwardNotification(c, e)
	default:
		if child := e.FirstChildElement(); child != nil && childNS(e, child) == ns.Notifier {
			return unexpected(e, errNotifier)
		}
		return unexpected(e, nil)
	}
	return nil
}

// HandshakeDone is called when the handshake finishes.
// A nil JID means the client was not authenticated and the connection is
// closed immediately.
// Otherwise the connection records its JID, starts handling push stanzas, and
// tells the delegate that it is ready for notifications.
func (c *Conn) HandshakeDone(j *jid.JID) {
	if j == nil {
		c.logger.Printf("closing unauthenticated connection %s", c)
		if err := c.Close(); err != nil {
			c.debug.Printf("error closing %s: %v", c, err)
		}
		return
	}

	c.smu.Lock()
	if c.closed {
		c.smu.Unlock()
		return
	}
	c.jid = *j
	c.hs = nil
	c.done = true
	c.smu.Unlock()

	c.logger.Printf("handshake done for %s", c)
	c.d.OnHandshakeDone(c)
}

func (c *Conn) handshakeDone(j *jid.JID) {
	c.HandshakeDone(j)
}

// ForwardNotification sends a copy of n to the client addressed to its bare
// JID.
func (c *Conn) ForwardNotification(n *stanza.Element) error {
	msg := stanza.Clone(n)
	if j := c.JID(); !j.IsZero() {
		msg.SetAttr("to", j.Bare().String())
	}
	return c.sendStanza(msg)
}

func (c *Conn) sendStanza(e *stanza.Element) error {
	if c.isClosed() {
		return ErrConnClosed
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.debug.Printf("OUT %s: %s", c, e)
	_, err := e.WriteTo(c.rwc)
	return err
}

func (c *Conn) sendData(s string) error {
	if c.isClosed() {
		return ErrConnClosed
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.debug.Printf("OUT %s: %s", c, s)
	_, err := io.WriteString(c.rwc, s)
	return err
}

// Close removes the connection from the socket map, tells the delegate if the
// connection had completed its handshake, and closes the underlying
// connection.
// Calling Close more than once has no effect.
func (c *Conn) Close() error {
	c.smu.Lock()
	if c.closed {
		c.smu.Unlock()
		return nil
	}
	c.closed = true
	done := c.done
	c.smu.Unlock()

	c.sockets.remove(c)
	if done {
		c.d.OnConnClosed(c)
	}
	c.logger.Printf("closed connection %s", c)
	return c.rwc.Close()
}

func (c *Conn) isClosed() bool {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.closed
}

// Serve reads from the connection until it fails or the client ends its
// stream, then closes the connection.
// A client that disconnects or ends its stream cleanly results in a nil error.
func (c *Conn) Serve() error {
	buf := make([]byte, 4096)
	for {
		n, err := c.rwc.Read(buf)
		if n > 0 {
			if ferr := c.Feed(buf[:n]); ferr != nil {
				if ferr == io.EOF {
					return c.Close()
				}
				c.logger.Printf("closing %s: %v", c, ferr)
				/* #nosec */
				c.Close()
				return ferr
			}
		}
		if err != nil {
			if c.isClosed() {
				return nil
			}
			cerr := c.Close()
			if errors.Is(err, io.EOF) {
				return cerr
			}
			c.logger.Printf("error reading from %s: %v", c, err)
			return err
		}
	}
}

// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package server

import (
	"sync"
)

// SocketMap is the registry of every open connection, whether or not its
// handshake has completed.
// It is safe for concurrent use.
type SocketMap struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewSocketMap returns an empty socket map.
func NewSocketMap() *SocketMap {
	return &SocketMap{conns: make(map[*Conn]struct{})}
}

// Len returns the number of registered connections.
func (m *SocketMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Contains reports whether c is registered.
func (m *SocketMap) Contains(c *Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conns[c]
	return ok
}

// Conns returns a snapshot of the registered connections in no particular
// order.
func (m *SocketMap) Conns() []*Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := make([]*Conn, 0, len(m.conns))
	for c := range m.conns {
		conns = append(conns, c)
	}
	return conns
}

func (m *SocketMap) add(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c] = struct{}{}
}

// remove reports whether c was registered.
func (m *SocketMap) remove(c *Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conns[c]
	delete(m.conns, c)
	return ok
}

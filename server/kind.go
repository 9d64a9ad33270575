// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=kind -linecomment

package server

import (
	"mellium.im/pushd/internal/ns"
	"mellium.im/pushd/stanza"
)

// kind is the shape of a stanza as far as the push protocol cares.
type kind uint8

const (
	kindUnrecognized kind = iota // unrecognized
	kindStreamOpen               // stream-open
	kindAuth                     // auth
	kindBind                     // bind
	kindSession                  // session
	kindSubscribe                // subscribe
	kindResult                   // result
	kindPush                     // push
)

func classify(e *stanza.Element) kind {
	if stanza.IsStream(e) {
		return kindStreamOpen
	}
	if e.Tag() == "auth" {
		return kindAuth
	}
	if !stanza.Is(e) {
		return kindUnrecognized
	}

	child := e.FirstChildElement()
	switch e.Name.Local {
	case "iq":
		typ, _ := e.IQ()
		switch {
		case child != nil && child.Tag() == "subscribe" && childNS(e, child) == ns.Push:
			return kindSubscribe
		case typ == stanza.ResultIQ:
			return kindResult
		case typ != stanza.SetIQ || child == nil:
			return kindUnrecognized
		case child.Tag() == "bind":
			return kindBind
		case child.Tag() == "session":
			return kindSession
		}
	case "message":
		if child != nil && child.Tag() == "push" && childNS(e, child) == ns.Push {
			return kindPush
		}
	}
	return kindUnrecognized
}

// childNS returns the namespace of child, inheriting the parent's default
// namespace if the child does not declare its own.
func childNS(parent, child *stanza.Element) string {
	if s := child.NS(); s != "" {
		return s
	}
	if child.Name.Space == "" {
		return parent.NS()
	}
	return ""
}

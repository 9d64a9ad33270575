// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=state -linecomment

package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"mellium.im/pushd/internal/attr"
	"mellium.im/pushd/internal/ns"
	"mellium.im/pushd/jid"
	"mellium.im/pushd/stanza"
	"mellium.im/sasl"
)

type state uint8

const (
	stateInitialStream state = iota // initial-stream
	stateAuth                       // auth
	stateAuthStream                 // auth-stream
	stateBind                       // bind
	stateSession                    // session
	stateDone                       // done
)

var (
	errNoResource = errors.New("bind request has no resource")
	errBadPayload = errors.New("auth payload is not valid base64")
)

var (
	saslFeatures = stanza.MustParse(`<stream:features xmlns:stream="` + ns.Stream + `">` +
		`<mechanisms xmlns="` + ns.SASL + `">` +
		`<mechanism>` + sasl.Plain.Name + `</mechanism>` +
		`<mechanism>X-GOOGLE-TOKEN</mechanism>` +
		`<mechanism>X-OAUTH2</mechanism>` +
		`</mechanisms></stream:features>`)
	bindFeatures = stanza.MustParse(`<stream:features xmlns:stream="` + ns.Stream + `">` +
		`<bind xmlns="` + ns.Bind + `"/>` +
		`<session xmlns="` + ns.Session + `"/>` +
		`</stream:features>`)
	authSuccess = stanza.MustParse(`<success xmlns="` + ns.SASL + `"/>`)
	authFailure = stanza.MustParse(`<failure xmlns="` + ns.SASL + `"/>`)
)

// handshakeConn is the side of a connection that the handshake talks to.
type handshakeConn interface {
	// sendData writes raw text, used for stream headers which are never closed.
	sendData(s string) error
	sendStanza(e *stanza.Element) error
	// handshakeDone is called once with the negotiated JID, or nil if the
	// client was not authenticated.
	handshakeDone(j *jid.JID)
}

// handshake walks a client through stream negotiation: stream header, SASL,
// stream restart, resource binding, and session establishment.
// Passwords are never checked.
type handshake struct {
	conn           handshakeConn
	ids            *attr.IDGen
	resourcePrefix string
	requireAuth    bool
	lang           language.Tag
	newJID         func(localpart, domainpart, resourcepart string) (jid.JID, error)

	state            state
	initialDomain    string
	authDomain       string
	authStreamDomain string
	username         string
	resource         string
}

func newHandshake(c handshakeConn, resourcePrefix string, requireAuth bool, lang language.Tag) *handshake {
	idPrefix := resourcePrefix
	if idPrefix == "" {
		idPrefix = attr.RandomID()
	}
	return &handshake{
		conn:           c,
		ids:            attr.NewIDGen(idPrefix),
		resourcePrefix: resourcePrefix,
		requireAuth:    requireAuth,
		lang:           lang,
		newJID:         jid.New,
	}
}

func (h *handshake) feedStanza(e *stanza.Element) error {
	if h.state == stateDone {
		return nil
	}

	k := classify(e)
	switch {
	case h.state == stateInitialStream && k == kindStreamOpen:
		h.initialDomain = e.GetAttr("to")
		if err := h.openStream(e, saslFeatures); err != nil {
			return err
		}
		h.state = stateAuth
	case h.state == stateAuth && k == kindAuth:
		return h.auth(e)
	case h.state == stateAuthStream && k == kindStreamOpen:
		h.authStreamDomain = e.GetAttr("to")
		if err := h.openStream(e, bindFeatures); err != nil {
			return err
		}
		h.state = stateBind
	case h.state == stateBind && k == kindBind:
		return h.bind(e)
	case h.state == stateSession && k == kindSession:
		return h.session(e)
	default:
		return unexpected(e, fmt.Errorf("got %s while waiting for %s", k, h.state))
	}
	return nil
}

// openStream answers a client stream header with our own header and the
// given feature list.
func (h *handshake) openStream(e *stanza.Element, features *stanza.Element) error {
	hdr := stanza.New("stream:stream")
	if to := e.GetAttr("to"); to != "" {
		hdr.SetAttr("from", to)
	}
	hdr.SetAttr("id", h.ids.Next())
	hdr.SetAttr("version", "1.0")
	if lang := h.streamLang(e); lang != "" {
		hdr.SetAttr("xml:lang", lang)
	}
	hdr.SetAttr("xmlns:stream", ns.Stream)
	hdr.SetAttr("xmlns", ns.Client)
	if err := h.conn.sendData(hdr.StartTag()); err != nil {
		return err
	}
	return h.conn.sendStanza(features)
}

func (h *handshake) streamLang(e *stanza.Element) string {
	if l := e.GetAttr("xml:lang"); l != "" {
		if tag, err := language.Parse(l); err == nil {
			return tag.String()
		}
	}
	if h.lang != language.Und {
		return h.lang.String()
	}
	return ""
}

func (h *handshake) auth(e *stanza.Element) error {
	payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(e.Text()))
	if err != nil {
		return unexpected(e, errBadPayload)
	}

	var username string
	negotiator := sasl.NewServer(sasl.Plain, func(n *sasl.Negotiator) bool {
		user, _, _ := n.Credentials()
		username = string(user)
		return true
	})
	if _, _, err = negotiator.Step(payload); err != nil {
		return unexpected(e, err)
	}

	if !h.requireAuth {
		if err := h.conn.sendStanza(authFailure); err != nil {
			return err
		}
		h.state = stateDone
		h.conn.handshakeDone(nil)
		return nil
	}

	h.username, h.authDomain, _ = strings.Cut(username, "@")
	if err := h.conn.sendStanza(authSuccess); err != nil {
		return err
	}
	h.state = stateAuthStream
	return nil
}

func (h *handshake) bind(e *stanza.Element) error {
	resources := e.FirstChildElement().ElementsByTag("resource")
	if len(resources) == 0 {
		return unexpected(e, errNoResource)
	}
	h.resource = h.resourcePrefix + "." + resources[0].Text()

	jidEl := stanza.New("jid")
	jidEl.AppendText(h.username + "@" + h.domain() + "/" + h.resource)
	bindEl := stanza.New("bind")
	bindEl.SetAttr("xmlns", ns.Bind)
	bindEl.AppendChild(jidEl)
	reply := stanza.NewIQ(e.GetAttr("id"), stanza.ResultIQ)
	reply.AppendChild(bindEl)
	if err := h.conn.sendStanza(reply); err != nil {
		return err
	}
	h.state = stateSession
	return nil
}

func (h *handshake) session(e *stanza.Element) error {
	if err := h.conn.sendStanza(stanza.NewIQ(e.GetAttr("id"), stanza.ResultIQ)); err != nil {
		return err
	}
	j, err := h.newJID(h.username, h.domain(), h.resource)
	if err != nil {
		return unexpected(e, err)
	}
	h.state = stateDone
	h.conn.handshakeDone(&j)
	return nil
}

// domain picks the first non-empty of the post-auth stream's "to", the domain
// from the SASL username, and the initial stream's "to".
func (h *handshake) domain() string {
	switch {
	case h.authStreamDomain != "":
		return h.authStreamDomain
	case h.authDomain != "":
		return h.authDomain
	}
	return h.initialDomain
}

// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package server

import (
	"errors"

	"mellium.im/pushd/stanza"
)

// Errors returned by the server package.
var (
	ErrUnexpectedXML = errors.New("server: unexpected XML")
	ErrConnClosed    = errors.New("server: connection closed")
)

var errNotifier = errors.New("the google:notifier protocol is not supported")

// UnexpectedXMLError is returned when a well-formed stanza does not have the
// shape expected at the current point of the protocol.
// It is always fatal to the connection that received it.
type UnexpectedXMLError struct {
	Stanza *stanza.Element
	Err    error
}

func (e *UnexpectedXMLError) Error() string {
	msg := ErrUnexpectedXML.Error()
	if e.Stanza != nil {
		msg += " <" + e.Stanza.Tag() + ">"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *UnexpectedXMLError) Unwrap() error {
	return e.Err
}

// Is makes every UnexpectedXMLError match ErrUnexpectedXML.
func (e *UnexpectedXMLError) Is(target error) bool {
	return target == ErrUnexpectedXML
}

func unexpected(e *stanza.Element, err error) error {
	return &UnexpectedXMLError{Stanza: e, Err: err}
}

// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"mellium.im/pushd/internal/attr"
)

// Errors returned while building a tree.
var (
	ErrNoRoot        = errors.New("stanza: no root element")
	ErrMultipleRoots = errors.New("stanza: more than one root element")
	ErrTextOutside   = errors.New("stanza: text outside of the root element")
)

// SyntaxError is returned when the input is not well-formed.
// Offset is the byte offset into the input at which the error was detected.
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("stanza: malformed XML at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type rawReader struct {
	d *xml.Decoder
}

func (r rawReader) Token() (xml.Token, error) {
	return r.d.RawToken()
}

// Parse builds an element tree from a complete XML document.
// The document must contain exactly one root element; only whitespace,
// comments, and processing instructions may surround it.
// All errors are of type *SyntaxError.
func Parse(text string) (*Element, error) {
	d := xml.NewDecoder(strings.NewReader(text))
	root, err := Decode(rawReader{d: d})
	if err != nil {
		return nil, &SyntaxError{Offset: d.InputOffset(), Err: err}
	}
	for {
		tok, err := d.RawToken()
		switch {
		case err == io.EOF:
			return root, nil
		case err != nil:
			return nil, &SyntaxError{Offset: d.InputOffset(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, &SyntaxError{Offset: d.InputOffset(), Err: ErrMultipleRoots}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, &SyntaxError{Offset: d.InputOffset(), Err: ErrTextOutside}
			}
		case xml.EndElement:
			return nil, &SyntaxError{Offset: d.InputOffset(), Err: fmt.Errorf("stanza: unexpected end element </%s>", attr.Join(t.Name))}
		}
	}
}

// MustParse is like Parse except that it panics if text is not a well-formed
// document.
// It is meant for fixed templates.
func MustParse(text string) *Element {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// Decode reads tokens from r until it has read one complete element and
// returns the resulting tree.
// Leading whitespace, comments, and processing instructions are skipped.
// Names are taken as-is, so tokens from a decoder's RawToken method keep their
// prefixes.
func Decode(r xml.TokenReader) (*Element, error) {
	var stack []*Element
	for {
		tok, err := r.Token()
		if tok != nil {
			switch t := tok.(type) {
			case xml.StartElement:
				el := newElement(t)
				if len(stack) > 0 {
					parent := stack[len(stack)-1]
					parent.Child = append(parent.Child, el)
				}
				stack = append(stack, el)
			case xml.EndElement:
				if len(stack) == 0 {
					return nil, fmt.Errorf("stanza: unexpected end element </%s>", attr.Join(t.Name))
				}
				top := stack[len(stack)-1]
				if top.Name != t.Name {
					return nil, fmt.Errorf("stanza: element <%s> closed by </%s>", top.Tag(), attr.Join(t.Name))
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return top, nil
				}
			case xml.CharData:
				if len(stack) == 0 {
					if len(bytes.TrimSpace(t)) != 0 {
						return nil, ErrTextOutside
					}
					break
				}
				stack[len(stack)-1].AppendText(string(t))
			}
		}
		switch {
		case err == io.EOF:
			if len(stack) == 0 {
				return nil, ErrNoRoot
			}
			return nil, io.ErrUnexpectedEOF
		case err != nil:
			return nil, err
		}
	}
}

// Clone returns a deep copy of e.
// Changes to the copy never affect the original.
func Clone(e *Element) *Element {
	if e == nil {
		return nil
	}
	c, err := Decode(e.TokenReader())
	if err != nil {
		// TokenReader always produces a single balanced element.
		panic(err)
	}
	return c
}

func newElement(start xml.StartElement) *Element {
	el := &Element{Name: start.Name}
	if len(start.Attr) > 0 {
		el.Attr = append([]xml.Attr(nil), start.Attr...)
	}
	return el
}

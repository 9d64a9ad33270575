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
	"unicode/utf8"

	"mellium.im/pushd/internal/attr"
)

// DefaultMaxSize is the MaxSize used by parsers that do not set one.
const DefaultMaxSize = 1 << 20

var errIncomplete = errors.New("stanza: incomplete input")

// ErrTooLarge is wrapped in the SyntaxError returned by a Parser when a single
// element grows past its maximum size.
var ErrTooLarge = errors.New("stanza: element exceeds maximum size")

// A Handler receives each top level element read by a Parser.
type Handler interface {
	FeedStanza(e *Element) error
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions as
// stanza handlers.
// If f is a function with the appropriate signature, HandlerFunc(f) is a
// Handler that calls f.
type HandlerFunc func(e *Element) error

// FeedStanza calls f(e).
func (f HandlerFunc) FeedStanza(e *Element) error {
	return f(e)
}

// Parser splits an XMPP byte stream into elements.
//
// A stream root (<stream:stream>) is delivered as soon as its start tag is
// complete and is never waited on to close.
// Every other top level element is delivered when its end tag has been read.
// Input may be split at arbitrary byte boundaries; the handler sees the same
// elements in the same order no matter how the stream is chunked.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	// MaxSize is the largest number of bytes that may be buffered while
	// waiting for an element to complete.
	// If it is zero or negative DefaultMaxSize is used.
	MaxSize int

	h       Handler
	buf     []byte
	off     int64
	err     error
	pending bool
}

// NewParser returns a parser that delivers elements to h.
func NewParser(h Handler) *Parser {
	return &Parser{h: h}
}

// FeedString is like Feed but takes a string.
func (p *Parser) FeedString(s string) error {
	return p.Feed([]byte(s))
}

// Feed appends b to the parser's buffer and delivers every element that
// becomes complete, in order.
//
// If the input is malformed a *SyntaxError is returned and every later call
// returns the same error.
// If the stream root is closed (</stream:stream>) io.EOF is returned and the
// parser is likewise finished.
// Errors from the handler are returned as-is; any input remaining after the
// failed element stays buffered.
func (p *Parser) Feed(b []byte) error {
	if p.err != nil {
		return p.err
	}
	p.buf = append(p.buf, b...)

	// Every unit that can complete ends with '>'.
	if p.pending && bytes.IndexByte(b, '>') == -1 {
		return p.checkSize()
	}
	p.pending = false

	for len(p.buf) > 0 {
		e, n, err := p.next()
		if n > 0 {
			p.buf = p.buf[n:]
			p.off += int64(n)
		}
		switch {
		case err == errIncomplete:
			p.pending = true
			return p.checkSize()
		case err != nil:
			p.err = err
			return err
		}
		if e != nil {
			if err := p.h.FeedStanza(e); err != nil {
				p.compact()
				return err
			}
		}
	}
	p.compact()
	return nil
}

func (p *Parser) checkSize() error {
	max := p.MaxSize
	if max <= 0 {
		max = DefaultMaxSize
	}
	if len(p.buf) > max {
		p.err = &SyntaxError{Offset: p.off + int64(len(p.buf)), Err: ErrTooLarge}
		return p.err
	}
	return nil
}

func (p *Parser) compact() {
	if len(p.buf) == 0 {
		p.buf = nil
	}
}

// next reads a single top level unit from the buffer.
// It returns the element that was read (if any, whitespace and comments
// produce none) and the number of bytes consumed.
func (p *Parser) next() (*Element, int, error) {
	d := xml.NewDecoder(bytes.NewReader(p.buf[:len(p.buf)-partialRune(p.buf)]))
	var stack []*Element
	for {
		tok, err := d.RawToken()
		if err != nil {
			if incomplete(err) {
				return nil, 0, errIncomplete
			}
			return nil, 0, p.syntaxError(d, err)
		}
		n := int(d.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			el := newElement(t)
			if len(stack) == 0 && IsStream(el) {
				return el, n, nil
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Child = append(parent.Child, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				if t.Name.Space == "stream" && t.Name.Local == "stream" {
					return nil, n, io.EOF
				}
				return nil, 0, p.syntaxError(d, fmt.Errorf("stanza: unexpected end element </%s>", attr.Join(t.Name)))
			}
			top := stack[len(stack)-1]
			if top.Name != t.Name {
				return nil, 0, p.syntaxError(d, fmt.Errorf("stanza: element <%s> closed by </%s>", top.Tag(), attr.Join(t.Name)))
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return top, n, nil
			}
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) != 0 {
					return nil, 0, p.syntaxError(d, ErrTextOutside)
				}
				return nil, n, nil
			}
			stack[len(stack)-1].AppendText(string(t))
		default:
			// Comments, processing instructions, and directives.
			if len(stack) == 0 {
				return nil, n, nil
			}
		}
	}
}

func (p *Parser) syntaxError(d *xml.Decoder, err error) error {
	return &SyntaxError{Offset: p.off + d.InputOffset(), Err: err}
}

// partialRune returns the length of the incomplete UTF-8 sequence at the end
// of b, if any.
func partialRune(b []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if utf8.FullRune(b[start:]) {
			return 0
		}
		return i
	}
	return 0
}

func incomplete(err error) bool {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	var synErr *xml.SyntaxError
	return errors.As(err, &synErr) && synErr.Msg == "unexpected EOF"
}

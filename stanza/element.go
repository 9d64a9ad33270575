// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"mellium.im/pushd/internal/attr"
	"mellium.im/xmlstream"
)

// Node is a child of an Element.
// It is always either a *Element or a CharData.
type Node interface {
	node()
}

// CharData is a text node.
// It holds unescaped text.
type CharData string

func (CharData) node() {}

// Element is an XML element with its attributes and children.
//
// The Space field of Name and of every attribute name holds the raw namespace
// prefix as it was written, so an Element always serializes back to the same
// qualified names it was parsed from.
type Element struct {
	Name  xml.Name
	Attr  []xml.Attr
	Child []Node
}

func (*Element) node() {}

// Name splits a raw qualified name such as "stream:stream" into an xml.Name
// whose Space is the prefix.
func Name(qname string) xml.Name {
	prefix, local := attr.Split(qname)
	return xml.Name{Space: prefix, Local: local}
}

// New returns an element with the given qualified name and no attributes or
// children.
func New(qname string) *Element {
	return &Element{Name: Name(qname)}
}

// Tag returns the qualified name of the element, eg. "stream:stream".
func (e *Element) Tag() string {
	return attr.Join(e.Name)
}

// GetAttr returns the value of the attribute with the given qualified name, or
// the empty string if no such attribute exists.
func (e *Element) GetAttr(qname string) string {
	_, v := attr.Qualified(e.Attr, qname)
	return v
}

// SetAttr sets the attribute with the given qualified name, replacing any
// existing value and otherwise appending it.
func (e *Element) SetAttr(qname, value string) {
	if idx, _ := attr.Qualified(e.Attr, qname); idx != -1 {
		e.Attr[idx].Value = value
		return
	}
	e.Attr = append(e.Attr, xml.Attr{Name: Name(qname), Value: value})
}

// NS returns the namespace that the element declares for its own name: the
// xmlns attribute for unprefixed elements or the matching xmlns:prefix
// attribute for prefixed ones.
// Namespaces declared on ancestors are not considered.
func (e *Element) NS() string {
	if e.Name.Space == "" {
		return e.GetAttr("xmlns")
	}
	return e.GetAttr("xmlns:" + e.Name.Space)
}

// Elements returns the child elements of e, skipping text.
func (e *Element) Elements() []*Element {
	var els []*Element
	for _, c := range e.Child {
		if el, ok := c.(*Element); ok {
			els = append(els, el)
		}
	}
	return els
}

// FirstChildElement returns the first child element of e or nil if e has no
// child elements.
func (e *Element) FirstChildElement() *Element {
	for _, c := range e.Child {
		if el, ok := c.(*Element); ok {
			return el
		}
	}
	return nil
}

// ElementsByTag returns every descendant of e (not including e itself) with
// the given qualified name in document order.
func (e *Element) ElementsByTag(qname string) []*Element {
	var found []*Element
	var walk func(*Element)
	walk = func(parent *Element) {
		for _, c := range parent.Child {
			el, ok := c.(*Element)
			if !ok {
				continue
			}
			if el.Tag() == qname {
				found = append(found, el)
			}
			walk(el)
		}
	}
	walk(e)
	return found
}

// Text returns the concatenated text of the element's direct children.
func (e *Element) Text() string {
	var s strings.Builder
	for _, c := range e.Child {
		if cd, ok := c.(CharData); ok {
			s.WriteString(string(cd))
		}
	}
	return s.String()
}

// AppendChild appends a node to the element's children.
// Adjacent text nodes are merged.
func (e *Element) AppendChild(n Node) {
	if cd, ok := n.(CharData); ok {
		e.AppendText(string(cd))
		return
	}
	e.Child = append(e.Child, n)
}

// AppendText appends text to the element, merging it with a trailing text node
// if there is one.
func (e *Element) AppendText(s string) {
	if s == "" {
		return
	}
	if l := len(e.Child); l > 0 {
		if cd, ok := e.Child[l-1].(CharData); ok {
			e.Child[l-1] = cd + CharData(s)
			return
		}
	}
	e.Child = append(e.Child, CharData(s))
}

// Start returns a start element token for e.
// The attribute slice is a copy.
func (e *Element) Start() xml.StartElement {
	start := xml.StartElement{Name: e.Name}
	if len(e.Attr) > 0 {
		start.Attr = append([]xml.Attr(nil), e.Attr...)
	}
	return start
}

// TokenReader satisfies the xmlstream.Marshaler interface.
// The tokens use raw prefixes in the Space field of names; they round trip
// through Decode but are not suitable for a namespace aware xml.Encoder.
func (e *Element) TokenReader() xml.TokenReader {
	inner := make([]xml.TokenReader, 0, len(e.Child))
	for _, c := range e.Child {
		switch c := c.(type) {
		case *Element:
			inner = append(inner, c.TokenReader())
		case CharData:
			inner = append(inner, xmlstream.Token(xml.CharData(c)))
		}
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), e.Start())
}

// String returns the serialized form of the element.
// Elements without children are written as empty-element tags (eg. <iq/>)
// and attributes are written in order.
func (e *Element) String() string {
	return string(e.appendXML(nil))
}

// WriteTo writes the serialized form of the element to w.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.appendXML(nil))
	return int64(n), err
}

var escaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`"`, "&quot;",
	`>`, "&gt;",
)

func appendEscaped(dst []byte, s string) []byte {
	buf := bytes.NewBuffer(dst)
	// Writes to a bytes.Buffer never fail.
	_, _ = escaper.WriteString(buf, s)
	return buf.Bytes()
}

// StartTag returns only the serialized start tag of e, eg. a stream header
// which is never closed while the stream is open.
func (e *Element) StartTag() string {
	return string(append(e.appendStart(nil), '>'))
}

func (e *Element) appendStart(dst []byte) []byte {
	dst = append(dst, '<')
	dst = append(dst, e.Tag()...)
	for _, a := range e.Attr {
		dst = append(dst, ' ')
		dst = append(dst, attr.Join(a.Name)...)
		dst = append(dst, '=', '"')
		dst = appendEscaped(dst, a.Value)
		dst = append(dst, '"')
	}
	return dst
}

func (e *Element) appendXML(dst []byte) []byte {
	dst = e.appendStart(dst)
	if len(e.Child) == 0 {
		return append(dst, '/', '>')
	}
	dst = append(dst, '>')
	for _, c := range e.Child {
		switch c := c.(type) {
		case *Element:
			dst = c.appendXML(dst)
		case CharData:
			dst = appendEscaped(dst, string(c))
		}
	}
	dst = append(dst, '<', '/')
	dst = append(dst, e.Tag()...)
	return append(dst, '>')
}

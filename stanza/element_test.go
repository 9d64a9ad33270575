// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strconv"
	"strings"
	"testing"

	"mellium.im/pushd/stanza"
	"mellium.im/xmlstream"
)

var serializeTestCases = [...]struct {
	in  string
	out string
	err bool
}{
	0: {in: `<foo/>`, out: `<foo/>`},
	1: {in: `<bar></bar>`, out: `<bar/>`},
	2: {
		in:  `<stream:stream foo="bar" xmlns:stream="baz"></stream:stream>`,
		out: `<stream:stream foo="bar" xmlns:stream="baz"/>`,
	},
	3: {in: `<a b="1" c="2"><d>text</d>tail</a>`, out: `<a b="1" c="2"><d>text</d>tail</a>`},
	4: {in: `<a x="&lt;&amp;&quot;">1 &lt; 2 &amp;&amp; 3 &gt; 2</a>`, out: `<a x="&lt;&amp;&quot;">1 &lt; 2 &amp;&amp; 3 &gt; 2</a>`},
	5: {in: "<?xml version='1.0'?>\n<a/>\n", out: `<a/>`},
	6: {in: `<a/><b/>`, err: true},
	7: {in: `text<a/>`, err: true},
	8: {in: `<a>`, err: true},
	9: {in: `<a></b>`, err: true},
	10: {in: ``, err: true},
	11: {in: `<!-- c --><a><!-- inner --></a>`, out: `<a/>`},
}

func TestParseString(t *testing.T) {
	for i, tc := range serializeTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			e, err := stanza.Parse(tc.in)
			switch {
			case tc.err && err == nil:
				t.Fatalf("expected error parsing %q", tc.in)
			case !tc.err && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tc.err:
				var synErr *stanza.SyntaxError
				if !errors.As(err, &synErr) {
					t.Fatalf("wrong error type: want=*stanza.SyntaxError, got=%T", err)
				}
				return
			}
			if s := e.String(); s != tc.out {
				t.Errorf("wrong output: want=%s, got=%s", tc.out, s)
			}
			var buf bytes.Buffer
			n, err := e.WriteTo(&buf)
			if err != nil {
				t.Fatalf("error writing element: %v", err)
			}
			if int(n) != buf.Len() || buf.String() != tc.out {
				t.Errorf("wrong WriteTo output (%d bytes): want=%s, got=%s", n, tc.out, buf.String())
			}
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustParse to panic on malformed input")
		}
	}()
	stanza.MustParse(`<a>`)
}

func TestAttributes(t *testing.T) {
	e := stanza.MustParse(`<iq id="1" xmlns="jabber:client"/>`)
	if got := e.GetAttr("id"); got != "1" {
		t.Errorf("wrong id: want=1, got=%q", got)
	}
	if got := e.GetAttr("to"); got != "" {
		t.Errorf("missing attributes should be empty, got=%q", got)
	}
	e.SetAttr("type", "result")
	e.SetAttr("id", "2")
	e.SetAttr("xml:lang", "en")
	const want = `<iq id="2" xmlns="jabber:client" type="result" xml:lang="en"/>`
	if s := e.String(); s != want {
		t.Errorf("attributes out of order: want=%s, got=%s", want, s)
	}
	if got := e.GetAttr("xml:lang"); got != "en" {
		t.Errorf("prefixed attribute lookup failed: got=%q", got)
	}
	if got := e.GetAttr("lang"); got != "" {
		t.Errorf("lookup should match the qualified name, got=%q", got)
	}
}

func TestNS(t *testing.T) {
	for i, tc := range [...]struct {
		in string
		ns string
	}{
		0: {in: `<a xmlns="urn:a"/>`, ns: "urn:a"},
		1: {in: `<s:a xmlns:s="urn:s" xmlns="urn:default"/>`, ns: "urn:s"},
		2: {in: `<a xmlns:s="urn:s"/>`},
		3: {in: `<s:a xmlns="urn:default"/>`},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			e := stanza.MustParse(tc.in)
			if got := e.NS(); got != tc.ns {
				t.Errorf("wrong namespace: want=%q, got=%q", tc.ns, got)
			}
		})
	}
}

func TestChildren(t *testing.T) {
	e := stanza.MustParse(`<iq> <bind xmlns="b"><resource>r1</resource><x><resource>r2</resource></x></bind><resource>r3</resource></iq>`)
	first := e.FirstChildElement()
	if first == nil || first.Tag() != "bind" {
		t.Fatalf("first child element should skip whitespace, got=%v", first)
	}
	if l := len(e.Elements()); l != 2 {
		t.Errorf("wrong number of child elements: want=2, got=%d", l)
	}
	var texts []string
	for _, r := range e.ElementsByTag("resource") {
		texts = append(texts, r.Text())
	}
	if got := strings.Join(texts, ","); got != "r1,r2,r3" {
		t.Errorf("descendants not in document order: got=%s", got)
	}
	if empty := stanza.New("a").FirstChildElement(); empty != nil {
		t.Errorf("expected no child element, got=%v", empty)
	}
}

func TestAppendText(t *testing.T) {
	e := stanza.New("data")
	e.AppendText("")
	e.AppendText("ab")
	e.AppendChild(stanza.CharData("cd"))
	e.AppendChild(stanza.New("x"))
	e.AppendText("<")
	if l := len(e.Child); l != 3 {
		t.Errorf("adjacent text should be merged: want=3 children, got=%d", l)
	}
	if got := e.Text(); got != "abcd<" {
		t.Errorf("wrong text: got=%q", got)
	}
	const want = `<data>abcd<x/>&lt;</data>`
	if s := e.String(); s != want {
		t.Errorf("wrong output: want=%s, got=%s", want, s)
	}
}

func TestClone(t *testing.T) {
	orig := stanza.MustParse(`<message to="a"><push xmlns="google:push"><data>x</data></push></message>`)
	want := orig.String()
	c := stanza.Clone(orig)
	if s := c.String(); s != want {
		t.Fatalf("clone differs: want=%s, got=%s", want, s)
	}
	c.SetAttr("to", "b")
	c.FirstChildElement().SetAttr("channel", "c")
	c.FirstChildElement().FirstChildElement().AppendText("y")
	c.AppendChild(stanza.New("extra"))
	if s := orig.String(); s != want {
		t.Errorf("mutating the clone changed the original: want=%s, got=%s", want, s)
	}
	for i, in := range [...]string{
		0: `<a/>`,
		1: `<stream:features xmlns:stream="http://etherx.jabber.org/streams"><b xmlns="x"/></stream:features>`,
		2: `<a>one<b/>two &amp; three<c d="&lt;"/></a>`,
	} {
		if s := stanza.Clone(stanza.MustParse(in)).String(); s != in {
			t.Errorf("%d: clone differs: want=%s, got=%s", i, in, s)
		}
	}
	if stanza.Clone(nil) != nil {
		t.Errorf("clone of nil should be nil")
	}
}

func TestTokenReaderRoundTrip(t *testing.T) {
	const in = `<stream:features xmlns:stream="http://etherx.jabber.org/streams"><mechanisms xmlns="urn:ietf:params:xml:ns:xmpp-sasl"><mechanism>PLAIN</mechanism></mechanisms></stream:features>`
	e := stanza.MustParse(in)
	out, err := stanza.Decode(e.TokenReader())
	if err != nil {
		t.Fatalf("error decoding tokens: %v", err)
	}
	if s := out.String(); s != in {
		t.Errorf("round trip mismatch: want=%s, got=%s", in, s)
	}

	var toks []xml.Token
	_, err = xmlstream.Copy(tokenRecorder(func(tok xml.Token) error {
		toks = append(toks, xml.CopyToken(tok))
		return nil
	}), e.TokenReader())
	if err != nil {
		t.Fatalf("error writing tokens: %v", err)
	}
	// Three elements with a start and end each plus one text node.
	if len(toks) != 7 {
		t.Errorf("wrong number of tokens: want=7, got=%d", len(toks))
	}
}

type tokenRecorder func(xml.Token) error

func (f tokenRecorder) EncodeToken(t xml.Token) error { return f(t) }
func (tokenRecorder) Flush() error                    { return nil }

var _ xmlstream.TokenWriter = tokenRecorder(nil)

func TestIQ(t *testing.T) {
	iq := stanza.NewIQ("abc", stanza.ResultIQ)
	if s := iq.String(); s != `<iq id="abc" type="result"/>` {
		t.Errorf("wrong iq: got=%s", s)
	}
	if s := stanza.NewIQ("", stanza.SetIQ).String(); s != `<iq type="set"/>` {
		t.Errorf("empty id should be omitted: got=%s", s)
	}
	typ, ok := iq.IQ()
	if !ok || typ != stanza.ResultIQ {
		t.Errorf("wrong type: want=result, got=%q (%t)", typ, ok)
	}
	if _, ok := stanza.New("message").IQ(); ok {
		t.Errorf("message should not be an IQ")
	}
	if _, ok := stanza.New("x:iq").IQ(); ok {
		t.Errorf("prefixed element should not be an IQ")
	}
}

func TestIs(t *testing.T) {
	for i, tc := range [...]struct {
		qname string
		is    bool
	}{
		0: {qname: "iq", is: true},
		1: {qname: "message", is: true},
		2: {qname: "presence", is: true},
		3: {qname: "auth"},
		4: {qname: "stream:message"},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if is := stanza.Is(stanza.New(tc.qname)); is != tc.is {
				t.Errorf("wrong result for %s: want=%t, got=%t", tc.qname, tc.is, is)
			}
		})
	}
	if stanza.Is(nil) {
		t.Errorf("nil is not a stanza")
	}
}

func TestStartTag(t *testing.T) {
	e := stanza.New("stream:stream")
	e.SetAttr("from", "example.net")
	e.SetAttr("xmlns:stream", "http://etherx.jabber.org/streams")
	e.AppendChild(stanza.New("ignored"))
	const want = `<stream:stream from="example.net" xmlns:stream="http://etherx.jabber.org/streams">`
	if s := e.StartTag(); s != want {
		t.Errorf("wrong start tag: want=%s, got=%s", want, s)
	}
}

func TestIsStream(t *testing.T) {
	for i, tc := range [...]struct {
		in string
		is bool
	}{
		0: {in: `<stream:stream/>`, is: true},
		1: {in: `<stream xmlns="http://etherx.jabber.org/streams"/>`, is: true},
		2: {in: `<s:stream xmlns:s="http://etherx.jabber.org/streams"/>`, is: true},
		3: {in: `<stream/>`},
		4: {in: `<stream:features/>`},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if is := stanza.IsStream(stanza.MustParse(tc.in)); is != tc.is {
				t.Errorf("wrong result for %s: want=%t, got=%t", tc.in, tc.is, is)
			}
		})
	}
}

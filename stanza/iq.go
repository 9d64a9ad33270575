// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

// IQType is the type of an IQ stanza.
// It should normally be one of the constants defined in this package.
type IQType string

const (
	// GetIQ is used to query another entity for information.
	GetIQ IQType = "get"

	// SetIQ is used to provide data to another entity, set new values, and
	// replace existing values.
	SetIQ IQType = "set"

	// ResultIQ is sent in response to a successful get or set IQ.
	ResultIQ IQType = "result"

	// ErrorIQ is sent to report that an error occurred during the delivery or
	// processing of a get or set IQ.
	ErrorIQ IQType = "error"
)

// IQ returns the type of e if it is an <iq/> element.
// The second return value is false if e is not an IQ.
func (e *Element) IQ() (IQType, bool) {
	if e == nil || e.Name.Space != "" || e.Name.Local != "iq" {
		return "", false
	}
	return IQType(e.GetAttr("type")), true
}

// NewIQ returns an empty <iq/> of the given type.
// If id is not empty it is set as the id attribute.
func NewIQ(id string, typ IQType) *Element {
	iq := &Element{Name: Name("iq")}
	if id != "" {
		iq.SetAttr("id", id)
	}
	iq.SetAttr("type", string(typ))
	return iq
}

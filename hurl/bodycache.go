// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"encoding/json"
	"strings"

	"gopkg.in/xmlpath.v2"
)

// BodyCache holds the lazily-computed text/JSON/XML views of one
// response body, memoized so that at most one parse of each
// representation happens regardless of how many queries reference it
// (spec.md section 4.6's cache invariant).
type BodyCache struct {
	raw []byte

	textDone bool
	text     string

	jsonDone bool
	jsonVal  interface{}
	jsonErr  error

	xmlDone bool
	xmlRoot *xmlpath.Node
	xmlErr  error

	isHTML bool
}

// NewBodyCache wraps raw response bytes. isHTML should be true when
// the response's Content-Type is text/html, selecting the HTML parser
// for the Xpath query branch.
func NewBodyCache(raw []byte, isHTML bool) *BodyCache {
	return &BodyCache{raw: raw, isHTML: isHTML}
}

// Raw returns the unparsed response bytes.
func (c *BodyCache) Raw() []byte { return c.raw }

// Text decodes the body as text exactly once.
func (c *BodyCache) Text() string {
	if !c.textDone {
		c.text = string(c.raw)
		c.textDone = true
	}
	return c.text
}

// JSON parses the body as JSON exactly once, memoizing the error too
// so a second query against an invalid body does not reparse.
func (c *BodyCache) JSON() (interface{}, error) {
	if !c.jsonDone {
		c.jsonErr = json.Unmarshal(c.raw, &c.jsonVal)
		c.jsonDone = true
	}
	return c.jsonVal, c.jsonErr
}

// XML parses the body as XML (or HTML, per isHTML) exactly once.
func (c *BodyCache) XML() (*xmlpath.Node, error) {
	if !c.xmlDone {
		if c.isHTML {
			c.xmlRoot, c.xmlErr = xmlpath.ParseHTML(strings.NewReader(string(c.raw)))
		} else {
			c.xmlRoot, c.xmlErr = xmlpath.Parse(strings.NewReader(string(c.raw)))
		}
		c.xmlDone = true
	}
	return c.xmlRoot, c.xmlErr
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import "strings"

var queryByName = func() map[string]QueryKind {
	m := make(map[string]QueryKind, len(queryNames))
	for k, v := range queryNames {
		m[v] = k
	}
	return m
}()

// parseQuery parses one extractor expression, e.g. `header "Content-Type"`
// or `jsonpath "$.id"`, used by both the [Captures] and [Asserts]
// grammars.
func (p *parser) parseQuery() (*Query, error) {
	start := p.r.Pos()
	name := p.parseIdent()
	kind, ok := queryByName[name]
	if !ok {
		return nil, newParseError(start, ErrExpectingValue, false, "unknown query type %q", name)
	}
	q := &Query{Kind: kind}

	switch kind {
	case QueryHeader:
		p.skipSpaces()
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		q.HeaderName = t

	case QueryCookie:
		p.skipSpaces()
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		q.CookiePath = t

	case QueryXPath:
		p.skipSpaces()
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		q.XPathExpr = t

	case QueryJSONPath:
		p.skipSpaces()
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		q.JSONPathExpr = t

	case QueryRegex:
		save := p.r.Cursor()
		p.skipSpaces()
		c, ok2 := p.r.Peek()
		switch {
		case ok2 && c == '/':
			lit, err := p.parseRegexLiteral()
			if err != nil {
				return nil, err
			}
			q.RegexLiteral = lit
		case ok2 && c == '"':
			t, err := p.parseQuotedTemplate()
			if err != nil {
				return nil, err
			}
			q.RegexExpr = t
		default:
			p.r.Seek(save)
		}

	case QueryVariable:
		p.skipSpaces()
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		q.VariableName = t

	case QueryCertificate:
		p.skipSpaces()
		q.CertAttr = p.parseIdent()
	}

	q.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return q, nil
}

// parseRegexLiteral parses a `/pattern/` literal, honoring \/ as an
// escaped literal slash.
func (p *parser) parseRegexLiteral() (string, error) {
	start := p.r.Pos()
	c, ok := p.r.Peek()
	if !ok || c != '/' {
		return "", newParseError(start, ErrExpectingChar, false, "expected '/'")
	}
	p.r.Read()
	var b strings.Builder
	for {
		c, ok := p.r.Peek()
		if !ok {
			return "", newParseError(p.r.Pos(), ErrInvalidRegex, false, "unterminated regex literal")
		}
		if c == '/' {
			p.r.Read()
			break
		}
		if c == '\\' {
			p.r.Read()
			c2, ok2 := p.r.Read()
			if !ok2 {
				return "", newParseError(p.r.Pos(), ErrInvalidRegex, false, "trailing backslash in regex literal")
			}
			if c2 != '/' {
				b.WriteByte('\\')
			}
			b.WriteRune(c2)
			continue
		}
		r, _ := p.r.Read()
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import "strconv"

// parseFilterChain parses a repeated ` | filterName args...` pipeline,
// shared by placeholder expressions and the query-filters grammar of
// captures and asserts.
func (p *parser) parseFilterChain() ([]*Filter, error) {
	var filters []*Filter
	for {
		save := p.r.Cursor()
		p.skipSpaces()
		c, ok := p.r.Peek()
		if !ok || c != '|' {
			p.r.Seek(save)
			return filters, nil
		}
		p.r.Read()
		p.skipSpaces()
		f, err := p.parseOneFilter()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
}

func (p *parser) parseOneFilter() (*Filter, error) {
	start := p.r.Pos()
	name := p.parseIdent()
	kind, ok := filterByName[name]
	if !ok {
		return nil, newParseError(start, ErrExpectingValue, false, "unknown filter %q", name)
	}
	f := &Filter{Kind: kind}

	switch kind {
	case FilterNth:
		p.skipSpaces()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		f.Int = n

	case FilterReplace, FilterReplaceRegex:
		p.skipSpaces()
		s1, err := p.decodeQuotedLiteral()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		s2, err := p.decodeQuotedLiteral()
		if err != nil {
			return nil, err
		}
		f.Str, f.Str2 = s1, s2

	case FilterDecode, FilterFormat, FilterSplit, FilterRegex,
		FilterURLQueryParam, FilterToDate, FilterJsonpath, FilterXpath:
		p.skipSpaces()
		s, err := p.decodeQuotedLiteral()
		if err != nil {
			return nil, err
		}
		f.Str = s
	}

	f.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return f, nil
}

func (p *parser) parseIntLiteral() (int, error) {
	start := p.r.Pos()
	var sign string
	if c, ok := p.r.Peek(); ok && c == '-' {
		p.r.Read()
		sign = "-"
	}
	digits := p.r.ReadWhile(func(c rune) bool { return c >= '0' && c <= '9' })
	if digits == "" {
		return 0, newParseError(start, ErrExpectingValue, false, "expected an integer")
	}
	n, err := strconv.Atoi(sign + digits)
	if err != nil {
		return 0, newParseError(start, ErrExpectingValue, false, "invalid integer %q", sign+digits)
	}
	return n, nil
}

// decodeQuotedLiteral parses a double-quoted, escape-decoded literal
// string with no {{placeholder}} support: filter and query arguments
// are plain text, matching the Filter/Query struct's plain string
// fields.
func (p *parser) decodeQuotedLiteral() (string, error) {
	start := p.r.Pos()
	c, ok := p.r.Peek()
	if !ok || c != '"' {
		return "", newParseError(start, ErrExpectingChar, false, "expected '\"'")
	}
	p.r.Read()
	var buf []rune
	for {
		c, ok := p.r.Peek()
		if !ok {
			return "", newParseError(p.r.Pos(), ErrExpectingChar, false, "unterminated string")
		}
		if c == '"' {
			p.r.Read()
			break
		}
		if c == '\\' {
			escStart := p.r.Pos()
			p.r.Read()
			e, ok2 := p.r.Peek()
			if !ok2 {
				return "", newParseError(escStart, ErrInvalidEscape, false, "trailing backslash")
			}
			switch e {
			case '"', '\\', '/':
				p.r.Read()
				buf = append(buf, e)
			case 'n':
				p.r.Read()
				buf = append(buf, '\n')
			case 'r':
				p.r.Read()
				buf = append(buf, '\r')
			case 't':
				p.r.Read()
				buf = append(buf, '\t')
			default:
				return "", newParseError(escStart, ErrEscapeChar, false, "invalid escape \\%c", e)
			}
			continue
		}
		r, _ := p.r.Read()
		buf = append(buf, r)
	}
	return string(buf), nil
}

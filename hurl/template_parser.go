// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"strconv"
	"strings"
)

// parseTemplateUntil parses an unquoted template: raw literal text
// (no backslash-escape decoding) interspersed with {{placeholder}}
// occurrences, stopping at the first rune for which stop returns
// true, or the placeholder-consuming calls contained within). It is
// used for URLs, header values and KV-section values, none of which
// accept string-literal escaping.
func (p *parser) parseTemplateUntil(stop func(rune) bool) (*Template, error) {
	start := p.r.Pos()
	var parts []TemplatePart
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			s := lit.String()
			parts = append(parts, TemplatePart{String: StringPart{Source: s, Decoded: s}})
			lit.Reset()
		}
	}

	for {
		c, ok := p.r.Peek()
		if !ok || stop(c) {
			break
		}
		if c == '{' {
			if c2, ok2 := p.r.PeekN(1); ok2 && c2 == '{' {
				flush()
				ph, err := p.parsePlaceholder()
				if err != nil {
					return nil, err
				}
				parts = append(parts, TemplatePart{IsPlaceholder: true, Placeholder: *ph})
				continue
			}
		}
		r, _ := p.r.Read()
		lit.WriteRune(r)
	}
	flush()
	return &Template{Parts: parts, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

// parsePlaceholder parses one `{{ expr }}` occurrence. Nested "{{"
// before the closing "}}" is a non-recoverable error.
func (p *parser) parsePlaceholder() (*Placeholder, error) {
	start := p.r.Pos()
	p.r.Read()
	p.r.Read() // "{{"

	var buf strings.Builder
	for {
		c, ok := p.r.Peek()
		if !ok {
			return nil, newParseError(p.r.Pos(), ErrExpectingChar, false, "unterminated placeholder")
		}
		if c == '}' {
			if c2, ok2 := p.r.PeekN(1); ok2 && c2 == '}' {
				p.r.Read()
				p.r.Read()
				break
			}
		}
		if c == '{' {
			if c2, ok2 := p.r.PeekN(1); ok2 && c2 == '{' {
				return nil, newParseError(p.r.Pos(), ErrExpectingChar, false, "nested {{ inside placeholder")
			}
		}
		r, _ := p.r.Read()
		buf.WriteRune(r)
	}

	expr, err := parseExprString(strings.TrimSpace(buf.String()), start)
	if err != nil {
		return nil, err
	}
	return &Placeholder{Expr: expr, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

// parseExprString parses the trimmed content of one {{...}} against a
// throwaway Reader, requiring the whole text be consumed.
func parseExprString(src string, at Pos) (*Expr, error) {
	sp := &parser{r: NewReader(src)}
	root, err := sp.parseExprRoot()
	if err != nil {
		return nil, repositionErr(err, at)
	}
	sp.skipSpaces()
	filters, err := sp.parseFilterChain()
	if err != nil {
		return nil, repositionErr(err, at)
	}
	sp.skipSpaces()
	if !sp.r.IsEOF() {
		return nil, newParseError(at, ErrExpectingValue, false, "unexpected content in placeholder: %q", sp.r.Remaining())
	}
	return &Expr{Root: root, Filters: filters, Source: SourceInfo{Start: at, End: at}}, nil
}

// repositionErr re-anchors an error raised while parsing a
// placeholder's extracted substring at the placeholder's own position
// in the enclosing file, since the substring was parsed against its
// own zero-based Reader.
func repositionErr(err error, at Pos) error {
	if pe, ok := err.(*ParseError); ok {
		return newParseError(at, pe.Kind, pe.Recoverable, "%s", pe.Message)
	}
	return err
}

var knownZeroArgFunctions = map[string]bool{
	"newUuid": true,
	"newDate": true,
}

func (p *parser) parseExprRoot() (ExprRoot, error) {
	name := p.parseIdent()
	if name == "" {
		return ExprRoot{}, newParseError(p.r.Pos(), ErrExpectingValue, false, "expected a variable or function name")
	}
	return ExprRoot{IsFunction: knownZeroArgFunctions[name], Name: name}, nil
}

// parseQuotedTemplate parses a double-quoted string template: full
// backslash-escape decoding plus {{placeholder}} recognition. Used
// for JSON string leaves/keys, capture/assert string operands, basic
// auth credentials and multipart field names.
func (p *parser) parseQuotedTemplate() (*Template, error) {
	start := p.r.Pos()
	c, ok := p.r.Peek()
	if !ok || c != '"' {
		return nil, newParseError(p.r.Pos(), ErrExpectingChar, false, "expected '\"'")
	}
	p.r.Read()

	var parts []TemplatePart
	var srcBuf, decBuf strings.Builder
	flush := func() {
		if srcBuf.Len() > 0 {
			parts = append(parts, TemplatePart{String: StringPart{Source: srcBuf.String(), Decoded: decBuf.String()}})
			srcBuf.Reset()
			decBuf.Reset()
		}
	}

	for {
		c, ok := p.r.Peek()
		if !ok {
			return nil, newParseError(p.r.Pos(), ErrExpectingChar, false, "unterminated string")
		}
		if c == '"' {
			p.r.Read()
			break
		}
		if c == '{' {
			if c2, ok2 := p.r.PeekN(1); ok2 && c2 == '{' {
				flush()
				ph, err := p.parsePlaceholder()
				if err != nil {
					return nil, err
				}
				parts = append(parts, TemplatePart{IsPlaceholder: true, Placeholder: *ph})
				continue
			}
		}
		if c == '\\' {
			escStart := p.r.Pos()
			p.r.Read()
			e, ok2 := p.r.Peek()
			if !ok2 {
				return nil, newParseError(escStart, ErrInvalidEscape, false, "trailing backslash")
			}
			switch e {
			case '"', '\\', '/':
				p.r.Read()
				srcBuf.WriteByte('\\')
				srcBuf.WriteRune(e)
				decBuf.WriteRune(e)
			case 'n':
				p.r.Read()
				srcBuf.WriteString(`\n`)
				decBuf.WriteByte('\n')
			case 'r':
				p.r.Read()
				srcBuf.WriteString(`\r`)
				decBuf.WriteByte('\r')
			case 't':
				p.r.Read()
				srcBuf.WriteString(`\t`)
				decBuf.WriteByte('\t')
			case 'b':
				p.r.Read()
				srcBuf.WriteString(`\b`)
				decBuf.WriteByte('\b')
			case 'f':
				p.r.Read()
				srcBuf.WriteString(`\f`)
				decBuf.WriteByte('\f')
			case 'u':
				p.r.Read()
				var hex strings.Builder
				for i := 0; i < 4; i++ {
					d, ok3 := p.r.Read()
					if !ok3 {
						return nil, newParseError(escStart, ErrInvalidEscape, false, "short \\u escape")
					}
					hex.WriteRune(d)
				}
				n, perr := strconv.ParseInt(hex.String(), 16, 32)
				if perr != nil {
					return nil, newParseError(escStart, ErrInvalidEscape, false, "invalid \\u escape")
				}
				srcBuf.WriteString(`\u`)
				srcBuf.WriteString(hex.String())
				decBuf.WriteRune(rune(n))
			default:
				return nil, newParseError(escStart, ErrEscapeChar, false, "invalid escape \\%c", e)
			}
			continue
		}
		r, _ := p.r.Read()
		srcBuf.WriteRune(r)
		decBuf.WriteRune(r)
	}
	flush()
	return &Template{Parts: parts, Delimiter: `"`, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

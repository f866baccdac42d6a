// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"strconv"
	"strings"
)

// parser is the shared state of the hand-written recursive-descent
// parser: a Reader plus the original source text (for error
// snippets) and the file name being parsed.
type parser struct {
	r        *Reader
	filename string
	src      string
}

// ParseHurlFile parses the full text of one Hurl file into its AST.
// filename is used only for error messages.
func ParseHurlFile(filename, src string) (*HurlFile, error) {
	p := &parser{r: NewReader(src), filename: filename, src: src}
	file := &HurlFile{}
	start := p.r.Pos()

	p.skipBlankLinesAndComments()
	for !p.r.IsEOF() {
		entry, err := p.parseEntry()
		if err != nil {
			return nil, p.wrapErr(err)
		}
		file.Entries = append(file.Entries, entry)
		p.skipBlankLinesAndComments()
	}

	file.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return file, nil
}

func (p *parser) wrapErr(err error) error {
	pe, ok := err.(*ParseError)
	if !ok {
		return err
	}
	return &FileError{Filename: p.filename, Inner: pe, Pos: pe.Pos, Source: p.src}
}

// --- low level reader helpers -----------------------------------------

func isSpace(c rune) bool { return c == ' ' || c == '\t' }

func isIdentChar(c rune) bool {
	return c == '_' || c == '-' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *parser) skipSpaces() { p.r.ReadWhile(isSpace) }

// skipNewline consumes an optional \r followed by \n, or accepts EOF
// as a valid line ending (the file's last line need not end in a
// newline).
func (p *parser) skipNewline() error {
	c, ok := p.r.Peek()
	if !ok {
		return nil
	}
	if c == '\r' {
		p.r.Read()
		c, ok = p.r.Peek()
	}
	if ok && c == '\n' {
		p.r.Read()
		return nil
	}
	if !ok {
		return nil
	}
	return newParseError(p.r.Pos(), ErrExpectingChar, false, "expected newline")
}

// skipBlankLinesAndComments consumes any run of whitespace-only
// lines and full-line `#` comments, leaving the cursor at the start
// of the next line with content.
func (p *parser) skipBlankLinesAndComments() {
	for {
		save := p.r.Cursor()
		p.skipSpaces()
		c, ok := p.r.Peek()
		if ok && c == '#' {
			p.r.ReadWhile(func(r rune) bool { return r != '\n' })
			p.skipNewline()
			continue
		}
		if !ok {
			return
		}
		if c == '\n' || c == '\r' {
			p.skipNewline()
			continue
		}
		p.r.Seek(save)
		return
	}
}

func (p *parser) parseIdent() string {
	return p.r.ReadWhile(isIdentChar)
}

// peekIs reports whether the upcoming text equals s, without
// consuming anything.
func (p *parser) peekIs(s string) bool {
	save := p.r.Cursor()
	defer p.r.Seek(save)
	for _, want := range s {
		c, ok := p.r.Read()
		if !ok || c != want {
			return false
		}
	}
	return true
}

// consumeLiteral is peekIs, but on match it actually advances past s.
func (p *parser) consumeLiteral(s string) bool {
	if !p.peekIs(s) {
		return false
	}
	for range s {
		p.r.Read()
	}
	return true
}

var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
	"HEAD": true, "OPTIONS": true, "CONNECT": true, "TRACE": true,
}

// peekIsNextEntryStart reports whether the cursor sits at the
// beginning of the next entry's request line, distinguishing it from
// a response body that happens to start with capital letters.
func (p *parser) peekIsNextEntryStart() bool {
	save := p.r.Cursor()
	defer p.r.Seek(save)
	p.skipSpaces()
	word := p.r.ReadWhile(func(c rune) bool { return c >= 'A' && c <= 'Z' })
	if word == "" || !knownMethods[word] {
		return false
	}
	c, ok := p.r.Peek()
	return ok && (c == ' ' || c == '\t')
}

func (p *parser) peekLineHasColon() bool {
	save := p.r.Cursor()
	defer p.r.Seek(save)
	for {
		c, ok := p.r.Peek()
		if !ok || c == '\n' || c == '\r' {
			return false
		}
		if c == ':' {
			return true
		}
		p.r.Read()
	}
}

var sectionKindByName = func() map[string]SectionKind {
	m := make(map[string]SectionKind, len(sectionNames))
	for k, v := range sectionNames {
		m[v] = k
	}
	return m
}()

// peekIsSectionHeader reports whether the upcoming line is a
// `[KnownSectionName]` header.
func (p *parser) peekIsSectionHeader() bool {
	save := p.r.Cursor()
	defer p.r.Seek(save)
	p.skipSpaces()
	c, ok := p.r.Peek()
	if !ok || c != '[' {
		return false
	}
	p.r.Read()
	name := p.r.ReadWhile(func(r rune) bool { return r != ']' && r != '\n' })
	c2, ok2 := p.r.Peek()
	if !ok2 || c2 != ']' {
		return false
	}
	_, known := sectionKindByName[name]
	return known
}

func stopNewline(c rune) bool { return c == '\n' || c == '\r' }
func stopColon(c rune) bool   { return c == ':' }

// literalTemplate wraps a plain string as a one-part Template, used
// for AST fields the grammar fills with fixed (non-templated) text.
func literalTemplate(s string) *Template {
	return &Template{Parts: []TemplatePart{{String: StringPart{Source: s, Decoded: s}}}}
}

// --- entry / request / response ----------------------------------------

func (p *parser) parseEntry() (*Entry, error) {
	start := p.r.Pos()
	req, err := p.parseRequest()
	if err != nil {
		return nil, err
	}
	entry := &Entry{Request: req}

	p.skipBlankLinesAndComments()
	if p.peekIs("HTTP") {
		resp, err := p.parseResponse()
		if err != nil {
			return nil, err
		}
		entry.Response = resp
	}

	entry.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return entry, nil
}

func (p *parser) parseMethod() (string, error) {
	start := p.r.Pos()
	m := p.r.ReadWhile(func(c rune) bool { return c >= 'A' && c <= 'Z' })
	if m == "" {
		return "", newParseError(start, ErrExpectingValue, false, "expected HTTP method")
	}
	return m, nil
}

func (p *parser) parseRequest() (*Request, error) {
	start := p.r.Pos()
	method, err := p.parseMethod()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	urlTpl, err := p.parseTemplateUntil(stopNewline)
	if err != nil {
		return nil, err
	}
	if err := p.skipNewline(); err != nil {
		return nil, err
	}

	req := &Request{Method: method, URL: urlTpl}

	headers, err := p.parseHeaderLines()
	if err != nil {
		return nil, err
	}
	req.Headers = headers

	for p.peekIsSectionHeader() {
		sec, err := p.parseSection(true)
		if err != nil {
			return nil, err
		}
		req.Sections = append(req.Sections, sec)
	}

	if p.peekIsBodyStart() {
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		req.Body = body
	}

	req.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return req, nil
}

func (p *parser) parseResponse() (*ResponseSpec, error) {
	start := p.r.Pos()
	if !p.consumeLiteral("HTTP") {
		return nil, newParseError(start, ErrExpectingValue, false, "expected HTTP response line")
	}
	resp := &ResponseSpec{}

	if c, ok := p.r.Peek(); ok && c == '/' {
		p.r.Read()
		ver := p.r.ReadWhile(func(c rune) bool { return c != ' ' && c != '\t' })
		if ver == "*" {
			resp.VersionAny = true
		} else {
			resp.Version = ver
		}
	}

	p.skipSpaces()
	c, ok := p.r.Peek()
	switch {
	case ok && c == '*':
		p.r.Read()
		resp.Status = StatusMatch{Any: true}
	default:
		numTxt := p.r.ReadWhile(func(c rune) bool { return c >= '0' && c <= '9' })
		if numTxt == "" {
			return nil, newParseError(p.r.Pos(), ErrExpectingValue, false, "expected status code")
		}
		n, _ := strconv.Atoi(numTxt)
		resp.Status = StatusMatch{Code: n}
	}

	if err := p.skipNewline(); err != nil {
		return nil, err
	}

	headers, err := p.parseHeaderLines()
	if err != nil {
		return nil, err
	}
	resp.Headers = headers

	for p.peekIsSectionHeader() {
		sec, err := p.parseSection(false)
		if err != nil {
			return nil, err
		}
		resp.Sections = append(resp.Sections, sec)
	}

	if p.peekIsBodyStart() {
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		resp.Body = body
	}

	resp.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return resp, nil
}

func (p *parser) parseHeaderLine() (KV, error) {
	start := p.r.Pos()
	nameTpl, err := p.parseTemplateUntil(stopColon)
	if err != nil {
		return KV{}, err
	}
	c, ok := p.r.Peek()
	if !ok || c != ':' {
		return KV{}, newParseError(p.r.Pos(), ErrExpectingChar, false, "expected ':' after header name")
	}
	p.r.Read()
	p.skipSpaces()
	valTpl, err := p.parseTemplateUntil(stopNewline)
	if err != nil {
		return KV{}, err
	}
	if err := p.skipNewline(); err != nil {
		return KV{}, err
	}
	return KV{Name: nameTpl, Value: valTpl, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func (p *parser) parseHeaderLines() ([]KV, error) {
	var out []KV
	for {
		p.skipBlankLinesAndComments()
		if p.r.IsEOF() || p.peekIsSectionHeader() || p.peekIs("HTTP") || p.peekIsNextEntryStart() {
			return out, nil
		}
		if !p.peekLineHasColon() {
			return out, nil
		}
		kv, err := p.parseHeaderLine()
		if err != nil {
			return nil, err
		}
		out = append(out, kv)
	}
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// --- section dispatch ---------------------------------------------------

// requestSectionKinds and responseSectionKinds are the admissible
// section sets for each context (spec.md §4.2: the set depends on
// whether the section appears in a request or a response), mirroring
// the Rust parser's request_section/response_section split.
var requestSectionKinds = map[SectionKind]bool{
	SectionQueryParams:       true,
	SectionFormParams:        true,
	SectionMultipartFormData: true,
	SectionCookies:           true,
	SectionBasicAuth:         true,
	SectionOptions:           true,
}

var responseSectionKinds = map[SectionKind]bool{
	SectionCaptures: true,
	SectionAsserts:  true,
}

// parseSection parses one bracketed section header and body. forRequest
// selects which of the two admissible name sets applies; a section
// known globally but illegal in this context (e.g. [Asserts] in a
// request, or [BasicAuth] in a response) is a non-recoverable error,
// not silently accepted.
func (p *parser) parseSection(forRequest bool) (*Section, error) {
	start := p.r.Pos()
	p.skipSpaces()
	p.r.Read() // '['
	name := p.r.ReadWhile(func(r rune) bool { return r != ']' })
	p.r.Read() // ']'
	if err := p.skipNewline(); err != nil {
		return nil, err
	}

	errKind := ErrRequestSectionName
	if !forRequest {
		errKind = ErrResponseSectionName
	}

	kind, ok := sectionKindByName[name]
	if !ok {
		return nil, newParseError(start, errKind, false, "unknown section [%s]", name)
	}
	admissible := requestSectionKinds
	if !forRequest {
		admissible = responseSectionKinds
	}
	if !admissible[kind] {
		context := "response"
		if forRequest {
			context = "request"
		}
		return nil, newParseError(start, errKind, false, "section [%s] is not allowed in a %s", name, context)
	}
	sec := &Section{Kind: kind}

	switch kind {
	case SectionQueryParams, SectionFormParams, SectionCookies:
		kvs, err := p.parseKVLines()
		if err != nil {
			return nil, err
		}
		sec.KVs = kvs

	case SectionMultipartFormData:
		parts, err := p.parseMultipartLines()
		if err != nil {
			return nil, err
		}
		sec.MultipartParts = parts

	case SectionBasicAuth:
		user, pass, err := p.parseBasicAuthLine()
		if err != nil {
			return nil, err
		}
		sec.BasicAuthUser, sec.BasicAuthPass = user, pass

	case SectionOptions:
		opts, err := p.parseOptionLines()
		if err != nil {
			return nil, err
		}
		sec.Options = opts

	case SectionCaptures:
		caps, err := p.parseCaptureLines()
		if err != nil {
			return nil, err
		}
		sec.Captures = caps

	case SectionAsserts:
		asserts, err := p.parseAssertLines()
		if err != nil {
			return nil, err
		}
		sec.Asserts = asserts
	}

	sec.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return sec, nil
}

// atSectionEnd reports whether the cursor is at a point where a line
// loop inside a section (or the header loop) should stop.
func (p *parser) atSectionEnd() bool {
	return p.r.IsEOF() || p.peekIsSectionHeader() || p.peekIs("HTTP") || p.peekIsBodyStart() || p.peekIsNextEntryStart()
}

// --- KV sections: QueryStringParams / FormParams / Cookies -------------

func (p *parser) parseKVLine() (KV, error) {
	start := p.r.Pos()
	nameTpl, err := p.parseTemplateUntil(stopColon)
	if err != nil {
		return KV{}, err
	}
	c, ok := p.r.Peek()
	if !ok || c != ':' {
		return KV{}, newParseError(p.r.Pos(), ErrExpectingChar, false, "expected ':'")
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

func (p *parser) parseKVLines() ([]KV, error) {
	var out []KV
	for {
		p.skipBlankLinesAndComments()
		if p.atSectionEnd() {
			return out, nil
		}
		kv, err := p.parseKVLine()
		if err != nil {
			return nil, err
		}
		out = append(out, kv)
	}
}

// --- MultipartFormData ---------------------------------------------------

func stopSemicolonOrNewline(c rune) bool { return c == ';' || c == '\n' || c == '\r' }

func (p *parser) parseMultipartLine() (MultipartPart, error) {
	start := p.r.Pos()
	nameTpl, err := p.parseTemplateUntil(stopColon)
	if err != nil {
		return MultipartPart{}, err
	}
	c, ok := p.r.Peek()
	if !ok || c != ':' {
		return MultipartPart{}, newParseError(p.r.Pos(), ErrExpectingChar, false, "expected ':'")
	}
	p.r.Read()
	p.skipSpaces()

	if p.peekIs("file,") {
		p.consumeLiteral("file,")
		pathTpl, err := p.parseTemplateUntil(stopSemicolonOrNewline)
		if err != nil {
			return MultipartPart{}, err
		}
		part := MultipartPart{Name: nameTpl, FilePath: pathTpl}
		if c, ok := p.r.Peek(); ok && c == ';' {
			p.r.Read()
			p.skipSpaces()
			ctTpl, err := p.parseTemplateUntil(stopSemicolonOrNewline)
			if err != nil {
				return MultipartPart{}, err
			}
			if ctTpl.SourceText() != "" {
				part.ContentType = ctTpl
			}
			if c2, ok2 := p.r.Peek(); ok2 && c2 == ';' {
				p.r.Read()
			}
		}
		if err := p.skipNewline(); err != nil {
			return MultipartPart{}, err
		}
		part.Source = SourceInfo{Start: start, End: p.r.Pos()}
		return part, nil
	}

	valTpl, err := p.parseTemplateUntil(stopNewline)
	if err != nil {
		return MultipartPart{}, err
	}
	if err := p.skipNewline(); err != nil {
		return MultipartPart{}, err
	}
	return MultipartPart{Name: nameTpl, Value: valTpl, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func (p *parser) parseMultipartLines() ([]MultipartPart, error) {
	var out []MultipartPart
	for {
		p.skipBlankLinesAndComments()
		if p.atSectionEnd() {
			return out, nil
		}
		part, err := p.parseMultipartLine()
		if err != nil {
			return nil, err
		}
		out = append(out, part)
	}
}

// --- BasicAuth -----------------------------------------------------------

func (p *parser) parseBasicAuthLine() (*Template, *Template, error) {
	p.skipBlankLinesAndComments()
	if p.atSectionEnd() {
		return nil, nil, nil
	}
	userTpl, err := p.parseTemplateUntil(stopColon)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := p.r.Peek(); ok && c == ':' {
		p.r.Read()
	}
	passTpl, err := p.parseTemplateUntil(stopNewline)
	if err != nil {
		return nil, nil, err
	}
	if err := p.skipNewline(); err != nil {
		return nil, nil, err
	}
	return userTpl, passTpl, nil
}

// --- Options ---------------------------------------------------------

var durationOptionNames = map[string]bool{
	"connect-timeout": true, "max-time": true, "retry-interval": true, "delay": true,
}
var boolOptionNames = map[string]bool{
	"insecure": true, "compressed": true, "location": true, "follow-location": true,
	"continue-on-error": true, "ipv4": true, "ipv6": true,
}
var intOptionNames = map[string]bool{
	"retry": true, "max-redirs": true,
}

func (p *parser) parseOptionLine() (OptionEntry, error) {
	start := p.r.Pos()
	name := strings.TrimSpace(p.r.ReadWhile(func(c rune) bool { return c != ':' && c != '\n' && c != '\r' }))
	if c, ok := p.r.Peek(); ok && c == ':' {
		p.r.Read()
	}
	p.skipSpaces()
	raw := strings.TrimSpace(p.r.ReadWhile(func(c rune) bool { return c != '\n' && c != '\r' }))
	if err := p.skipNewline(); err != nil {
		return OptionEntry{}, err
	}

	opt := OptionEntry{Name: name}
	switch {
	case boolOptionNames[name]:
		opt.Kind = OptBool
		opt.Bool = raw == "true"
	case intOptionNames[name]:
		opt.Kind = OptInt
		opt.Int = atoiSafe(raw)
	case durationOptionNames[name]:
		opt.Kind = OptDuration
		opt.Duration = parseDurationMs(raw)
	default:
		opt.Kind = OptString
		opt.Str = raw
	}
	opt.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return opt, nil
}

func (p *parser) parseOptionLines() ([]OptionEntry, error) {
	var out []OptionEntry
	for {
		p.skipBlankLinesAndComments()
		if p.atSectionEnd() {
			return out, nil
		}
		opt, err := p.parseOptionLine()
		if err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
}

func atoiSafe(s string) int {
	n := 0
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		return -n
	}
	return n
}

func parseDurationMs(raw string) int64 {
	raw = strings.TrimSpace(raw)
	mult := int64(1)
	switch {
	case strings.HasSuffix(raw, "ms"):
		raw = strings.TrimSuffix(raw, "ms")
	case strings.HasSuffix(raw, "s"):
		raw = strings.TrimSuffix(raw, "s")
		mult = 1000
	case strings.HasSuffix(raw, "m"):
		raw = strings.TrimSuffix(raw, "m")
		mult = 60000
	}
	return int64(atoiSafe(raw)) * mult
}

// --- Captures / Asserts --------------------------------------------------

func (p *parser) parseCaptureLine() (*Capture, error) {
	start := p.r.Pos()
	name := strings.TrimSpace(p.r.ReadWhile(func(c rune) bool { return c != ':' && c != '\n' && c != '\r' }))
	if c, ok := p.r.Peek(); ok && c == ':' {
		p.r.Read()
	}
	p.skipSpaces()
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	filters, err := p.parseFilterChain()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	redact := p.parseKeyword("redact")
	if err := p.skipNewline(); err != nil {
		return nil, err
	}
	return &Capture{Name: name, Query: q, Filters: filters, Redact: redact, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func (p *parser) parseCaptureLines() ([]*Capture, error) {
	var out []*Capture
	for {
		p.skipBlankLinesAndComments()
		if p.atSectionEnd() {
			return out, nil
		}
		capture, err := p.parseCaptureLine()
		if err != nil {
			return nil, err
		}
		out = append(out, capture)
	}
}

func (p *parser) parseAssertLine() (*Assert, error) {
	start := p.r.Pos()
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	filters, err := p.parseFilterChain()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	pred, err := p.parsePredicate()
	if err != nil {
		return nil, err
	}
	if err := p.skipNewline(); err != nil {
		return nil, err
	}
	return &Assert{Query: q, Filters: filters, Predicate: pred, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func (p *parser) parseAssertLines() ([]*Assert, error) {
	var out []*Assert
	for {
		p.skipBlankLinesAndComments()
		if p.atSectionEnd() {
			return out, nil
		}
		a, err := p.parseAssertLine()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
}

// --- bodies ---------------------------------------------------------------

// peekIsBodyStart reports whether the upcoming (non-blank) content is
// the start of a request/response body rather than a section header,
// the next entry, or an expected-response line.
func (p *parser) peekIsBodyStart() bool {
	save := p.r.Cursor()
	defer p.r.Seek(save)
	p.skipBlankLinesAndComments()
	if p.r.IsEOF() {
		return false
	}
	if p.peekIsSectionHeader() || p.peekIs("HTTP") || p.peekIsNextEntryStart() {
		return false
	}
	return true
}

func (p *parser) parseBody() (*Body, error) {
	p.skipBlankLinesAndComments()
	start := p.r.Pos()

	switch {
	case p.peekIs("```"):
		return p.parseMultilineBody(start)
	case p.peekIs("base64,"):
		return p.parseBase64Body(start)
	case p.peekIs("file,"):
		return p.parseFileBody(start)
	case p.peekIs("hex,"):
		return p.parseHexBody(start)
	}

	c, _ := p.r.Peek()
	switch c {
	case '{', '[':
		jv, err := p.parseJSONValue()
		if err != nil {
			return nil, err
		}
		p.skipJSONWS()
		p.skipNewline()
		return &Body{Kind: BodyJSON, JSON: jv, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	case '<':
		xml := p.readRawLinesUntilBlank()
		return &Body{Kind: BodyXML, XML: xml, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	}

	tpl, err := p.parseTemplateUntil(stopNewline)
	if err != nil {
		return nil, err
	}
	if err := p.skipNewline(); err != nil {
		return nil, err
	}
	return &Body{Kind: BodyText, Text: tpl, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

// readRawLinesUntilBlank joins source lines verbatim (no template
// decoding, matching the Body.XML field's contract) until a blank
// line or EOF.
func (p *parser) readRawLinesUntilBlank() string {
	var lines []string
	for {
		save := p.r.Cursor()
		p.skipSpaces()
		if p.r.IsEOF() {
			break
		}
		if c, _ := p.r.Peek(); c == '\n' || c == '\r' {
			break
		}
		p.r.Seek(save)
		line := p.r.ReadWhile(func(c rune) bool { return c != '\n' && c != '\r' })
		lines = append(lines, line)
		p.skipNewline()
	}
	return strings.Join(lines, "\n")
}

func (p *parser) parseBase64Body(start Pos) (*Body, error) {
	p.consumeLiteral("base64,")
	raw := p.r.ReadWhile(func(c rune) bool { return c != ';' })
	if c, ok := p.r.Peek(); ok && c == ';' {
		p.r.Read()
	}
	p.skipNewline()
	clean := stripWhitespace(raw)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, newParseError(start, ErrBase64, false, "invalid base64 body: %v", err)
	}
	return &Body{Kind: BodyBase64, Bytes: data, SourceText: raw, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func (p *parser) parseHexBody(start Pos) (*Body, error) {
	p.consumeLiteral("hex,")
	raw := p.r.ReadWhile(func(c rune) bool { return c != ';' })
	if c, ok := p.r.Peek(); ok && c == ';' {
		p.r.Read()
	}
	p.skipNewline()
	clean := stripWhitespace(raw)
	if len(clean)%2 != 0 {
		return nil, newParseError(start, ErrOddNumberOfHexDigits, false, "odd number of hex digits")
	}
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, newParseError(start, ErrHex, false, "invalid hex body: %v", err)
	}
	return &Body{Kind: BodyHex, Bytes: data, SourceText: raw, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func (p *parser) parseFileBody(start Pos) (*Body, error) {
	p.consumeLiteral("file,")
	path := strings.TrimSpace(p.r.ReadWhile(func(c rune) bool { return c != ';' && c != '\n' && c != '\r' }))
	body := &Body{Kind: BodyFile, FilePath: literalTemplate(path)}
	if c, ok := p.r.Peek(); ok && c == ';' {
		p.r.Read()
		ct := strings.TrimSpace(p.r.ReadWhile(func(c rune) bool { return c != ';' && c != '\n' && c != '\r' }))
		if ct != "" {
			body.ContentType = literalTemplate(ct)
		}
		if c2, ok2 := p.r.Peek(); ok2 && c2 == ';' {
			p.r.Read()
		}
	}
	p.skipNewline()
	body.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return body, nil
}

// parseMultilineBody parses a fenced ```lang ... ``` body literal.
// The language hint selects how the runner later interprets Text;
// "raw" (the default, used when no hint is given) leaves it as plain
// text.
func (p *parser) parseMultilineBody(start Pos) (*Body, error) {
	p.consumeLiteral("```")
	lang := strings.TrimSpace(p.r.ReadWhile(stopNewlineNeg))
	if err := p.skipNewline(); err != nil {
		return nil, err
	}

	var content *Template
	if lang == "" || lang == "raw" {
		cstart := p.r.Pos()
		var lit strings.Builder
		for !(p.r.Pos().Column == 1 && p.peekIs("```")) {
			r, ok := p.r.Read()
			if !ok {
				return nil, newParseError(p.r.Pos(), ErrMultilineLanguageHint, false, "unterminated multiline string")
			}
			lit.WriteRune(r)
		}
		content = &Template{Parts: []TemplatePart{{String: StringPart{Source: lit.String(), Decoded: lit.String()}}}, Delimiter: "```", Source: SourceInfo{Start: cstart, End: p.r.Pos()}}
	} else {
		var err error
		if content, err = p.scanMultilineContent(); err != nil {
			return nil, err
		}
	}
	trimTrailingNewline(content)

	if !p.consumeLiteral("```") {
		return nil, newParseError(p.r.Pos(), ErrMultilineLanguageHint, false, "expected closing ``` fence")
	}
	p.skipNewline()

	if lang == "" {
		lang = "raw"
	}
	return &Body{Kind: BodyMultiline, Text: content, MultilineLang: lang, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

func stopNewlineNeg(c rune) bool { return c != '\n' && c != '\r' }

// scanMultilineContent reads raw text with embedded {{placeholders}}
// until it reaches a line whose first column holds a closing ``` fence.
func (p *parser) scanMultilineContent() (*Template, error) {
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
		if p.r.Pos().Column == 1 && p.peekIs("```") {
			break
		}
		c, ok := p.r.Peek()
		if !ok {
			return nil, newParseError(p.r.Pos(), ErrMultilineLanguageHint, false, "unterminated multiline string")
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
	return &Template{Parts: parts, Delimiter: "```", Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
}

// trimTrailingNewline drops the single newline that separates the
// last content line from the closing fence: it is formatting, not
// body content.
func trimTrailingNewline(t *Template) {
	if len(t.Parts) == 0 {
		return
	}
	last := &t.Parts[len(t.Parts)-1]
	if last.IsPlaceholder {
		return
	}
	last.String.Source = strings.TrimSuffix(last.String.Source, "\n")
	last.String.Decoded = strings.TrimSuffix(last.String.Decoded, "\n")
}

// --- JSON-with-templates body parser --------------------------------

func (p *parser) skipJSONWS() {
	p.r.ReadWhile(func(c rune) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' })
}

func isJSONNumberChar(c rune) bool {
	return c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' || (c >= '0' && c <= '9')
}

func (p *parser) parseJSONValue() (*JSONValue, error) {
	p.skipJSONWS()
	start := p.r.Pos()
	c, ok := p.r.Peek()
	if !ok {
		return nil, newParseError(p.r.Pos(), ErrJsonExpectingElement, false, "unexpected end of JSON body")
	}
	switch {
	case c == '{':
		return p.parseJSONObject(start)
	case c == '[':
		return p.parseJSONArray(start)
	case c == '"':
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		return &JSONValue{Kind: JSONString, Str: t, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	case c == 't':
		if !p.consumeLiteral("true") {
			return nil, newParseError(start, ErrJsonExpectingElement, false, "invalid literal")
		}
		return &JSONValue{Kind: JSONBool, Bool: true, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	case c == 'f':
		if !p.consumeLiteral("false") {
			return nil, newParseError(start, ErrJsonExpectingElement, false, "invalid literal")
		}
		return &JSONValue{Kind: JSONBool, Bool: false, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	case c == 'n':
		if !p.consumeLiteral("null") {
			return nil, newParseError(start, ErrJsonExpectingElement, false, "invalid literal")
		}
		return &JSONValue{Kind: JSONNull, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	case c == '-' || (c >= '0' && c <= '9'):
		lex := p.r.ReadWhile(isJSONNumberChar)
		if lex == "" {
			return nil, newParseError(start, ErrJsonExpectingElement, false, "invalid number")
		}
		return &JSONValue{Kind: JSONNumber, NumberLexical: lex, Source: SourceInfo{Start: start, End: p.r.Pos()}}, nil
	}
	return nil, newParseError(start, ErrJsonExpectingElement, false, "unexpected character %q", string(c))
}

func (p *parser) parseJSONObject(start Pos) (*JSONValue, error) {
	p.r.Read() // '{'
	obj := &JSONValue{Kind: JSONObject}
	p.skipJSONWS()
	if c, ok := p.r.Peek(); ok && c == '}' {
		p.r.Read()
		obj.Source = SourceInfo{Start: start, End: p.r.Pos()}
		return obj, nil
	}
	for {
		p.skipJSONWS()
		c, ok := p.r.Peek()
		if !ok || c != '"' {
			return nil, newParseError(p.r.Pos(), ErrJsonExpectingElement, false, "expected object key")
		}
		key, err := p.parseQuotedTemplate()
		if err != nil {
			return nil, err
		}
		p.skipJSONWS()
		c, ok = p.r.Peek()
		if !ok || c != ':' {
			return nil, newParseError(p.r.Pos(), ErrExpectingChar, false, "expected ':'")
		}
		p.r.Read()
		val, err := p.parseJSONValue()
		if err != nil {
			return nil, err
		}
		obj.Object = append(obj.Object, JSONMember{Key: key, Value: val})
		p.skipJSONWS()
		c, ok = p.r.Peek()
		if !ok {
			return nil, newParseError(p.r.Pos(), ErrJsonExpectingElement, false, "unterminated object")
		}
		if c == ',' {
			p.r.Read()
			p.skipJSONWS()
			if c2, ok2 := p.r.Peek(); ok2 && c2 == '}' {
				return nil, newParseError(p.r.Pos(), ErrJsonTrailingComma, false, "trailing comma in object")
			}
			continue
		}
		if c == '}' {
			p.r.Read()
			break
		}
		return nil, newParseError(p.r.Pos(), ErrJsonExpectingElement, false, "expected ',' or '}'")
	}
	obj.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return obj, nil
}

func (p *parser) parseJSONArray(start Pos) (*JSONValue, error) {
	p.r.Read() // '['
	arr := &JSONValue{Kind: JSONArray}
	p.skipJSONWS()
	if c, ok := p.r.Peek(); ok && c == ']' {
		p.r.Read()
		arr.Source = SourceInfo{Start: start, End: p.r.Pos()}
		return arr, nil
	}
	for {
		val, err := p.parseJSONValue()
		if err != nil {
			return nil, err
		}
		arr.Array = append(arr.Array, val)
		p.skipJSONWS()
		c, ok := p.r.Peek()
		if !ok {
			return nil, newParseError(p.r.Pos(), ErrJsonExpectingElement, false, "unterminated array")
		}
		if c == ',' {
			p.r.Read()
			p.skipJSONWS()
			if c2, ok2 := p.r.Peek(); ok2 && c2 == ']' {
				return nil, newParseError(p.r.Pos(), ErrJsonTrailingComma, false, "trailing comma in array")
			}
			continue
		}
		if c == ']' {
			p.r.Read()
			break
		}
		return nil, newParseError(p.r.Pos(), ErrJsonExpectingElement, false, "expected ',' or ']'")
	}
	arr.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return arr, nil
}

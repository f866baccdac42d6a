// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mgutz/ansi"
)

// JsonFmtErrorKind is the closed set of failures the streaming
// pretty-printer can report, each carrying the byte offset it was
// found at.
type JsonFmtErrorKind int

const (
	JsonFmtEof JsonFmtErrorKind = iota
	JsonFmtInvalidByte
	JsonFmtInvalidUtf8
	JsonFmtInvalidEscape
	JsonFmtMaxIndentLevel
	JsonFmtIo
)

func (k JsonFmtErrorKind) String() string {
	switch k {
	case JsonFmtEof:
		return "Eof"
	case JsonFmtInvalidByte:
		return "InvalidByte"
	case JsonFmtInvalidUtf8:
		return "InvalidUtf8"
	case JsonFmtInvalidEscape:
		return "InvalidEscape"
	case JsonFmtMaxIndentLevel:
		return "MaxIndentLevel"
	case JsonFmtIo:
		return "Io"
	}
	return "Unknown"
}

// JsonFmtError is raised by PrettyPrintJSON.
type JsonFmtError struct {
	Kind   JsonFmtErrorKind
	Offset int
	Message string
}

func (e *JsonFmtError) Error() string {
	return fmt.Sprintf("%s at byte %d: %s", e.Kind, e.Offset, e.Message)
}

const maxIndentLevel = 100

// jsonFmtScanner walks raw bytes and re-emits them as indented JSON,
// validating UTF-8 and escape sequences as it goes rather than
// building an intermediate tree: the pretty-printer mirrors what a
// response body actually contained, including each number's original
// lexical spelling, instead of round-tripping through encoding/json.
type jsonFmtScanner struct {
	src    []byte
	pos    int
	indent int
	out    strings.Builder
	color  bool
}

// PrettyPrintJSON reformats raw JSON bytes with a 2-space indent,
// skipping a leading UTF-8 BOM if present. When color is true, ANSI
// styling (via mgutz/ansi) is applied to keys, strings, numbers and
// literals, matching the CLI's --color output mode.
func PrettyPrintJSON(raw []byte, color bool) (string, error) {
	s := &jsonFmtScanner{src: raw, color: color}
	s.skipBOM()
	s.skipWhitespace()
	if err := s.scanValue(); err != nil {
		return "", err
	}
	s.skipWhitespace()
	if s.pos != len(s.src) {
		return "", &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "trailing data after JSON value"}
	}
	return s.out.String(), nil
}

func (s *jsonFmtScanner) skipBOM() {
	if len(s.src) >= 3 && s.src[0] == 0xEF && s.src[1] == 0xBB && s.src[2] == 0xBF {
		s.pos = 3
	}
}

func (s *jsonFmtScanner) skipWhitespace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *jsonFmtScanner) peek() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *jsonFmtScanner) writeIndent() {
	s.out.WriteString(strings.Repeat("  ", s.indent))
}

func (s *jsonFmtScanner) colorize(style, text string) string {
	if !s.color {
		return text
	}
	return ansi.Color(text, style)
}

func (s *jsonFmtScanner) scanValue() error {
	c, ok := s.peek()
	if !ok {
		return &JsonFmtError{Kind: JsonFmtEof, Offset: s.pos, Message: "unexpected end of input"}
	}
	switch {
	case c == '{':
		return s.scanObject()
	case c == '[':
		return s.scanArray()
	case c == '"':
		str, err := s.scanString()
		if err != nil {
			return err
		}
		s.out.WriteString(s.colorize("green", quoteJSON(str)))
		return nil
	case c == 't':
		return s.scanLiteral("true", "cyan")
	case c == 'f':
		return s.scanLiteral("false", "cyan")
	case c == 'n':
		return s.scanLiteral("null", "black+h")
	case c == '-' || (c >= '0' && c <= '9'):
		return s.scanNumber()
	}
	return &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: fmt.Sprintf("unexpected byte %q", c)}
}

func (s *jsonFmtScanner) scanLiteral(lit, style string) error {
	if s.pos+len(lit) > len(s.src) || string(s.src[s.pos:s.pos+len(lit)]) != lit {
		return &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "invalid literal"}
	}
	s.pos += len(lit)
	s.out.WriteString(s.colorize(style, lit))
	return nil
}

func (s *jsonFmtScanner) scanNumber() error {
	start := s.pos
	if b, ok := s.peek(); ok && b == '-' {
		s.pos++
	}
	for {
		b, ok := s.peek()
		if !ok || !(b >= '0' && b <= '9' || b == '.' || b == 'e' || b == 'E' || b == '+' || b == '-') {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "invalid number"}
	}
	s.out.WriteString(s.colorize("yellow", string(s.src[start:s.pos])))
	return nil
}

func (s *jsonFmtScanner) scanString() (string, error) {
	if b, _ := s.peek(); b != '"' {
		return "", &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "expected '\"'"}
	}
	s.pos++
	var raw []byte
	for {
		if s.pos >= len(s.src) {
			return "", &JsonFmtError{Kind: JsonFmtEof, Offset: s.pos, Message: "unterminated string"}
		}
		b := s.src[s.pos]
		if b == '"' {
			s.pos++
			break
		}
		if b == '\\' {
			if s.pos+1 >= len(s.src) {
				return "", &JsonFmtError{Kind: JsonFmtInvalidEscape, Offset: s.pos, Message: "trailing backslash"}
			}
			esc := s.src[s.pos+1]
			switch esc {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				raw = append(raw, b, esc)
				s.pos += 2
			case 'u':
				if s.pos+6 > len(s.src) {
					return "", &JsonFmtError{Kind: JsonFmtInvalidEscape, Offset: s.pos, Message: "short \\u escape"}
				}
				for _, h := range s.src[s.pos+2 : s.pos+6] {
					if !(h >= '0' && h <= '9' || h >= 'a' && h <= 'f' || h >= 'A' && h <= 'F') {
						return "", &JsonFmtError{Kind: JsonFmtInvalidEscape, Offset: s.pos, Message: "invalid \\u escape"}
					}
				}
				raw = append(raw, s.src[s.pos:s.pos+6]...)
				s.pos += 6
			default:
				return "", &JsonFmtError{Kind: JsonFmtInvalidEscape, Offset: s.pos, Message: fmt.Sprintf("invalid escape \\%c", esc)}
			}
			continue
		}
		if b < 0x20 {
			return "", &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "control character in string"}
		}
		r, size := utf8.DecodeRune(s.src[s.pos:])
		if r == utf8.RuneError && size <= 1 {
			return "", &JsonFmtError{Kind: JsonFmtInvalidUtf8, Offset: s.pos, Message: "invalid UTF-8 sequence"}
		}
		raw = append(raw, s.src[s.pos:s.pos+size]...)
		s.pos += size
	}
	return string(raw), nil
}

func (s *jsonFmtScanner) scanArray() error {
	s.pos++ // '['
	s.indent++
	if s.indent > maxIndentLevel {
		return &JsonFmtError{Kind: JsonFmtMaxIndentLevel, Offset: s.pos, Message: "maximum nesting depth exceeded"}
	}
	s.out.WriteByte('[')
	s.skipWhitespace()
	if b, ok := s.peek(); ok && b == ']' {
		s.pos++
		s.indent--
		s.out.WriteByte(']')
		return nil
	}
	s.out.WriteByte('\n')
	first := true
	for {
		s.skipWhitespace()
		if !first {
			s.out.WriteString(",\n")
		}
		first = false
		s.writeIndent()
		if err := s.scanValue(); err != nil {
			return err
		}
		s.skipWhitespace()
		b, ok := s.peek()
		if !ok {
			return &JsonFmtError{Kind: JsonFmtEof, Offset: s.pos, Message: "unterminated array"}
		}
		if b == ',' {
			s.pos++
			continue
		}
		if b == ']' {
			s.pos++
			break
		}
		return &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "expected ',' or ']'"}
	}
	s.indent--
	s.out.WriteByte('\n')
	s.writeIndent()
	s.out.WriteByte(']')
	return nil
}

func (s *jsonFmtScanner) scanObject() error {
	s.pos++ // '{'
	s.indent++
	if s.indent > maxIndentLevel {
		return &JsonFmtError{Kind: JsonFmtMaxIndentLevel, Offset: s.pos, Message: "maximum nesting depth exceeded"}
	}
	s.out.WriteByte('{')
	s.skipWhitespace()
	if b, ok := s.peek(); ok && b == '}' {
		s.pos++
		s.indent--
		s.out.WriteByte('}')
		return nil
	}
	s.out.WriteByte('\n')
	first := true
	for {
		s.skipWhitespace()
		if !first {
			s.out.WriteString(",\n")
		}
		first = false
		s.writeIndent()
		key, err := s.scanString()
		if err != nil {
			return err
		}
		s.out.WriteString(s.colorize("blue", quoteJSON(key)))
		s.skipWhitespace()
		b, ok := s.peek()
		if !ok || b != ':' {
			return &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "expected ':'"}
		}
		s.pos++
		s.out.WriteString(": ")
		s.skipWhitespace()
		if err := s.scanValue(); err != nil {
			return err
		}
		s.skipWhitespace()
		b, ok = s.peek()
		if !ok {
			return &JsonFmtError{Kind: JsonFmtEof, Offset: s.pos, Message: "unterminated object"}
		}
		if b == ',' {
			s.pos++
			continue
		}
		if b == '}' {
			s.pos++
			break
		}
		return &JsonFmtError{Kind: JsonFmtInvalidByte, Offset: s.pos, Message: "expected ',' or '}'"}
	}
	s.indent--
	s.out.WriteByte('\n')
	s.writeIndent()
	s.out.WriteByte('}')
	return nil
}

// quoteJSON re-wraps an already-escaped string body (as scanString
// returned it) in quotes; scanString preserves the original escape
// spelling rather than re-encoding, so no further escaping happens
// here.
func quoteJSON(body string) string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(body)
	b.WriteByte('"')
	return b.String()
}

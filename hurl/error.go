// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"fmt"
	"strings"
)

// ErrorKind is the closed set of diagnostic kinds this package can
// produce, per the error catalogue of the language and runtime.
type ErrorKind int

const (
	// Parse errors.
	ErrExpectingChar ErrorKind = iota
	ErrExpectingValue
	ErrInvalidRegex
	ErrInvalidEscape
	ErrEscapeChar
	ErrMultilineLanguageHint
	ErrGraphQlVariables
	ErrJsonEmptyElement
	ErrJsonTrailingComma
	ErrJsonExpectingElement
	ErrXml
	ErrBase64
	ErrHex
	ErrOddNumberOfHexDigits
	ErrRequestSectionName
	ErrResponseSectionName
	ErrFileContentType

	// Template errors.
	ErrTemplateVariableNotDefined
	ErrTemplateTypeError

	// Query errors.
	ErrQueryInvalidJson
	ErrQueryInvalidJsonpathExpression
	ErrQueryInvalidXml
	ErrQueryInvalidXpathEval
	ErrInvalidDecoding

	// Filter errors.
	ErrFilterTypeError
	ErrFilterInvalidInput
	ErrFilterMissingInput

	// Assert errors.
	ErrAssertFailure

	// HTTP errors.
	ErrLibcurl
	ErrTooManyRedirect
	ErrCouldNotParseResponse
	ErrUnsupportedContentEncoding

	// IO errors.
	ErrFileNotFound
	ErrFileWrite
)

var errorKindNames = map[ErrorKind]string{
	ErrExpectingChar:                  "ExpectingChar",
	ErrExpectingValue:                 "ExpectingValue",
	ErrInvalidRegex:                   "InvalidRegex",
	ErrInvalidEscape:                  "InvalidEscape",
	ErrEscapeChar:                     "EscapeChar",
	ErrMultilineLanguageHint:          "MultilineLanguageHint",
	ErrGraphQlVariables:               "GraphQlVariables",
	ErrJsonEmptyElement:               "Json.EmptyElement",
	ErrJsonTrailingComma:              "Json.TrailingComma",
	ErrJsonExpectingElement:           "Json.ExpectingElement",
	ErrXml:                            "Xml",
	ErrBase64:                         "Base64",
	ErrHex:                            "Hex",
	ErrOddNumberOfHexDigits:           "OddNumberOfHexDigits",
	ErrRequestSectionName:             "RequestSectionName",
	ErrResponseSectionName:            "ResponseSectionName",
	ErrFileContentType:                "FileContentType",
	ErrTemplateVariableNotDefined:     "TemplateVariableNotDefined",
	ErrTemplateTypeError:              "TemplateTypeError",
	ErrQueryInvalidJson:               "QueryInvalidJson",
	ErrQueryInvalidJsonpathExpression: "QueryInvalidJsonpathExpression",
	ErrQueryInvalidXml:                "QueryInvalidXml",
	ErrQueryInvalidXpathEval:          "QueryInvalidXpathEval",
	ErrInvalidDecoding:                "InvalidDecoding",
	ErrFilterTypeError:                "FilterTypeError",
	ErrFilterInvalidInput:             "FilterInvalidInput",
	ErrFilterMissingInput:             "FilterMissingInput",
	ErrAssertFailure:                  "AssertFailure",
	ErrLibcurl:                        "Libcurl",
	ErrTooManyRedirect:                "TooManyRedirect",
	ErrCouldNotParseResponse:          "CouldNotParseResponse",
	ErrUnsupportedContentEncoding:     "UnsupportedContentEncoding",
	ErrFileNotFound:                   "FileNotFound",
	ErrFileWrite:                      "FileWrite",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// ParseError is raised by the reader/parser combinators. Recoverable
// errors leave the reader's cursor untouched by try/choice so a
// sibling alternative can be attempted; non-recoverable errors abort
// parsing of the enclosing rule.
type ParseError struct {
	Pos         Pos
	Kind        ErrorKind
	Message     string
	Recoverable bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

func newParseError(pos Pos, kind ErrorKind, recoverable bool, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Pos:         pos,
		Kind:        kind,
		Message:     fmt.Sprintf(format, args...),
		Recoverable: recoverable,
	}
}

// FileError wraps a ParseError (or other error) with the file it was
// found in, rendering it as `filename:line:col: <kind>: <message>`
// optionally followed by the offending source line with a caret, per
// the error-format contract.
type FileError struct {
	Filename string
	Inner    error
	Pos      Pos
	Source   string // the full text of the file, for snippet rendering
	Long     bool    // long format includes the enclosing entry
	Entry    string  // enclosing entry text, used when Long is true
}

func (e *FileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s", e.Filename, e.Pos.Line, e.Pos.Column, e.Inner.Error())
	if line := sourceLine(e.Source, e.Pos.Line); line != "" {
		b.WriteByte('\n')
		b.WriteString(line)
		b.WriteByte('\n')
		if e.Pos.Column > 0 {
			b.WriteString(strings.Repeat(" ", e.Pos.Column-1))
		}
		b.WriteByte('^')
	}
	if e.Long && e.Entry != "" {
		b.WriteByte('\n')
		b.WriteString(e.Entry)
	}
	return b.String()
}

func (e *FileError) Unwrap() error { return e.Inner }

func sourceLine(src string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line-1 >= len(lines) {
		return ""
	}
	return lines[line-1]
}

// FormatError renders err (typically a ParseError, RunnerError or
// AssertError) the way the CLI's error-format option expects: "short"
// omits the source snippet, "long" includes the whole enclosing entry.
func FormatError(filename, source string, pos Pos, err error, long bool, entry string) string {
	fe := &FileError{Filename: filename, Inner: err, Pos: pos, Source: source, Long: long, Entry: entry}
	if !long {
		fe.Source = ""
	}
	return fe.Error()
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHurlFileErrorMessageIncludesPosition(t *testing.T) {
	src := "GET https://example.org/widgets\nHTTP 200\n[Asserts]\nbody matches /abc"
	_, err := ParseHurlFile("broken.hurl", src)
	require.Error(t, err)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "broken.hurl", fe.Filename)
	assert.Equal(t, 4, fe.Pos.Line)
	assert.Contains(t, err.Error(), "InvalidRegex")
}

func TestFormatErrorShortOmitsSourceSnippet(t *testing.T) {
	pe := &ParseError{Pos: Pos{Line: 2, Column: 5}, Kind: ErrExpectingValue, Message: "expected status code"}
	out := FormatError("f.hurl", "GET http://x\nHTTP abc\n", pe.Pos, pe, false, "")
	assert.NotContains(t, out, "HTTP abc")
	assert.Contains(t, out, "f.hurl:2:5:")
}

func TestFormatErrorLongIncludesSourceSnippetAndEntry(t *testing.T) {
	pe := &ParseError{Pos: Pos{Line: 2, Column: 6}, Kind: ErrExpectingValue, Message: "expected status code"}
	src := "GET http://x\nHTTP abc\n"
	out := FormatError("f.hurl", src, pe.Pos, pe, true, "GET http://x\nHTTP abc")
	assert.Contains(t, out, "HTTP abc")
	assert.Contains(t, out, "^")
}

func TestErrorKindStringUnknownFallback(t *testing.T) {
	assert.Equal(t, "Unknown", ErrorKind(9999).String())
}

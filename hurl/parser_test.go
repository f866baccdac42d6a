// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHurlFileMultipleEntries(t *testing.T) {
	src := `GET https://example.org/widgets
HTTP 200

POST https://example.org/widgets
{
  "name": "widget"
}
HTTP 201
`
	f, err := ParseHurlFile("two.hurl", src)
	require.NoError(t, err)
	require.Len(t, f.Entries, 2)
	assert.Equal(t, "GET", f.Entries[0].Request.Method)
	assert.Equal(t, "POST", f.Entries[1].Request.Method)
	require.NotNil(t, f.Entries[1].Request.Body)
	assert.Equal(t, BodyJSON, f.Entries[1].Request.Body.Kind)
}

func TestParseHurlFileHeadersAndQueryParams(t *testing.T) {
	src := `GET https://example.org/search
User-Agent: hurlgo-test
[QueryStringParams]
q: widgets
page: 2
HTTP 200
`
	f, err := ParseHurlFile("headers.hurl", src)
	require.NoError(t, err)
	require.Len(t, f.Entries, 1)
	req := f.Entries[0].Request
	require.Len(t, req.Headers, 1)
	assert.Equal(t, "User-Agent", req.Headers[0].Name.SourceText())
	require.Len(t, req.Sections, 1)
	assert.Equal(t, SectionQueryParams, req.Sections[0].Kind)
	assert.Len(t, req.Sections[0].KVs, 2)
}

func TestParseHurlFileCapturesAndAsserts(t *testing.T) {
	src := `GET https://example.org/widgets/1
HTTP 200
[Captures]
widget_name: jsonpath "$.name"
[Asserts]
status equal 200
jsonpath "$.name" isString
`
	f, err := ParseHurlFile("capture.hurl", src)
	require.NoError(t, err)
	resp := f.Entries[0].Response
	require.NotNil(t, resp)
	var captures *Section
	var asserts *Section
	for _, s := range resp.Sections {
		switch s.Kind {
		case SectionCaptures:
			captures = s
		case SectionAsserts:
			asserts = s
		}
	}
	require.NotNil(t, captures)
	require.Len(t, captures.Captures, 1)
	assert.Equal(t, "widget_name", captures.Captures[0].Name)

	require.NotNil(t, asserts)
	require.Len(t, asserts.Asserts, 2)
	assert.Equal(t, PredEqual, asserts.Asserts[0].Predicate.Kind)
	assert.Equal(t, PredIsString, asserts.Asserts[1].Predicate.Kind)
}

func TestParseHurlFileOptionsSection(t *testing.T) {
	src := `GET https://example.org/widgets
[Options]
retry: 3
insecure: true
HTTP 200
`
	f, err := ParseHurlFile("opts.hurl", src)
	require.NoError(t, err)
	req := f.Entries[0].Request
	require.Len(t, req.Sections, 1)
	opts := req.Sections[0].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "retry", opts[0].Name)
	assert.Equal(t, 3, opts[0].Int)
	assert.Equal(t, "insecure", opts[1].Name)
	assert.True(t, opts[1].Bool)
}

func TestParseHurlFileVariablePlaceholderInURL(t *testing.T) {
	src := `GET https://example.org/widgets/{{widget_id}}
HTTP 200
`
	f, err := ParseHurlFile("tmpl.hurl", src)
	require.NoError(t, err)
	assert.True(t, f.Entries[0].Request.URL.HasPlaceholders())
}

func TestParseHurlFileSkipsCommentsAndBlankLines(t *testing.T) {
	src := `# a leading comment

GET https://example.org/widgets
# another comment
HTTP 200

# trailing comment
`
	f, err := ParseHurlFile("comments.hurl", src)
	require.NoError(t, err)
	require.Len(t, f.Entries, 1)
}

func TestParseHurlFileEmptyFileIsNoEntries(t *testing.T) {
	f, err := ParseHurlFile("empty.hurl", "")
	require.NoError(t, err)
	assert.Empty(t, f.Entries)
}

func TestParseHurlFileRejectsAssertsSectionInRequest(t *testing.T) {
	src := `GET https://example.org/widgets
[Asserts]
status equal 200
HTTP 200
`
	_, err := ParseHurlFile("bad-request-section.hurl", src)
	require.Error(t, err)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrRequestSectionName, pe.Kind)
}

func TestParseHurlFileRejectsOptionsSectionInResponse(t *testing.T) {
	src := `GET https://example.org/widgets
HTTP 200
[Options]
retry: 3
`
	_, err := ParseHurlFile("bad-response-section.hurl", src)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrResponseSectionName, pe.Kind)
}

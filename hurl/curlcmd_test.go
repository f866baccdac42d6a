// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurlCommandBasicGet(t *testing.T) {
	spec := &RequestSpec{Method: "GET", URL: "https://example.org/widgets"}
	cmd := CurlCommand(spec, DefaultClientOptions())
	assert.Equal(t, "curl 'https://example.org/widgets'", cmd)
}

func TestCurlCommandNonGetMethodAndHeaders(t *testing.T) {
	spec := &RequestSpec{
		Method:  "POST",
		URL:     "https://example.org/widgets",
		Headers: []Param{{Name: "Content-Type", Value: "application/json"}},
		Body:    []byte(`{"name":"widget"}`),
	}
	cmd := CurlCommand(spec, DefaultClientOptions())
	assert.Contains(t, cmd, "--request POST")
	assert.Contains(t, cmd, "--header 'Content-Type: application/json'")
	assert.Contains(t, cmd, "--data")
}

func TestCurlCommandCookiesAndInsecure(t *testing.T) {
	spec := &RequestSpec{
		Method:  "GET",
		URL:     "https://example.org/widgets",
		Cookies: []Param{{Name: "session", Value: "abc"}},
	}
	opts := DefaultClientOptions()
	opts.Insecure = true
	opts.FollowLocation = true
	cmd := CurlCommand(spec, opts)
	assert.Contains(t, cmd, "--cookie 'session=abc'")
	assert.Contains(t, cmd, "--insecure")
	assert.Contains(t, cmd, "--location")
}

func TestCurlCommandGlobsOnTemplatedLeftoverBraces(t *testing.T) {
	spec := &RequestSpec{Method: "GET", URL: "https://example.org/widgets/{id}"}
	cmd := CurlCommand(spec, DefaultClientOptions())
	assert.Contains(t, cmd, "--globoff")
}

func TestCurlCommandMasksRedactedHeadersAndCookies(t *testing.T) {
	spec := &RequestSpec{
		Method:  "GET",
		URL:     "https://example.org/widgets",
		Headers: []Param{{Name: "Authorization", Value: "Bearer s3cr3t-token", Redacted: true}},
		Cookies: []Param{{Name: "session", Value: "s3cr3t-cookie", Redacted: true}},
	}
	cmd := CurlCommand(spec, DefaultClientOptions())
	assert.Contains(t, cmd, "--header 'Authorization: ***'")
	assert.Contains(t, cmd, "--cookie 'session=***'")
	assert.NotContains(t, cmd, "s3cr3t")
}

func TestShellQuoteEscapesSingleQuote(t *testing.T) {
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestCurlDataArgEscapesNonPrintable(t *testing.T) {
	out := curlDataArg([]byte{'a', 0x01, 'b'})
	assert.Equal(t, `a\x01b`, out)
}

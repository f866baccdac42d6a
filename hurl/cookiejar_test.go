// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieJarReadWriteNetscapeRoundTrip(t *testing.T) {
	jar, err := NewCookieJar()
	require.NoError(t, err)

	data := "example.org\tFALSE\t/\tFALSE\t0\tsession\tabc123\n"
	u, _ := url.Parse("http://example.org/")
	require.NoError(t, jar.ReadNetscapeFile(strings.NewReader(data), u))

	cookies := jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "abc123", cookies[0].Value)

	var buf bytes.Buffer
	require.NoError(t, jar.WriteNetscapeFile(&buf, u))
	assert.Contains(t, buf.String(), "session\tabc123")
}

func TestCookieJarReadNetscapeHttpOnlyPrefix(t *testing.T) {
	jar, err := NewCookieJar()
	require.NoError(t, err)

	data := "#HttpOnly_example.org\tFALSE\t/\tTRUE\t0\ttoken\tsecret\n"
	u, _ := url.Parse("https://example.org/")
	require.NoError(t, jar.ReadNetscapeFile(strings.NewReader(data), u))

	cookies := jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestCookieAttrValueAndMissingAttrs(t *testing.T) {
	c := &http.Cookie{Name: "session", Value: "abc", Path: "/app"}

	v, ok := cookieAttr(c, "Value")
	require.True(t, ok)
	assert.Equal(t, Str("abc"), v)

	v, ok = cookieAttr(c, "Path")
	require.True(t, ok)
	assert.Equal(t, Str("/app"), v)

	_, ok = cookieAttr(c, "Domain")
	assert.False(t, ok)

	_, ok = cookieAttr(c, "Secure")
	assert.False(t, ok)
}

func TestCookieAttrSameSite(t *testing.T) {
	c := &http.Cookie{Name: "s", Value: "v", SameSite: http.SameSiteStrictMode}
	v, ok := cookieAttr(c, "SameSite")
	require.True(t, ok)
	assert.Equal(t, Str("Strict"), v)
}

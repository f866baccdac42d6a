// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusFixture(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/fail":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunFileStopsOnFirstFailureByDefault(t *testing.T) {
	srv := statusFixture(t)
	src := `GET ` + srv.URL + `/ok
HTTP 200

GET ` + srv.URL + `/fail
HTTP 200

GET ` + srv.URL + `/ok
HTTP 200
`
	file, err := ParseHurlFile("stop.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	result := RunFile(context.Background(), "stop.hurl", file, client, NewVariableSet(), DefaultClientOptions(), "", make(chan struct{}))
	require.False(t, result.Success)
	assert.Len(t, result.Entries, 2)
}

func TestRunFileContinueOnErrorCLIDefault(t *testing.T) {
	srv := statusFixture(t)
	src := `GET ` + srv.URL + `/fail
HTTP 200

GET ` + srv.URL + `/ok
HTTP 200
`
	file, err := ParseHurlFile("continue.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	opts := DefaultClientOptions()
	opts.ContinueOnError = true
	result := RunFile(context.Background(), "continue.hurl", file, client, NewVariableSet(), opts, "", make(chan struct{}))
	require.False(t, result.Success)
	assert.Len(t, result.Entries, 2)
}

func TestRunFileEntryOptionOverridesCLIDefault(t *testing.T) {
	srv := statusFixture(t)
	src := `GET ` + srv.URL + `/fail
[Options]
continue-on-error: true
HTTP 200

GET ` + srv.URL + `/ok
HTTP 200
`
	file, err := ParseHurlFile("override.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	result := RunFile(context.Background(), "override.hurl", file, client, NewVariableSet(), DefaultClientOptions(), "", make(chan struct{}))
	require.False(t, result.Success)
	assert.Len(t, result.Entries, 2)
}

func TestRunFileFromToEntryRange(t *testing.T) {
	srv := statusFixture(t)
	src := `GET ` + srv.URL + `/ok
HTTP 200

GET ` + srv.URL + `/ok
HTTP 200

GET ` + srv.URL + `/ok
HTTP 200
`
	file, err := ParseHurlFile("range.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	opts := DefaultClientOptions()
	opts.FromEntry = 1
	opts.ToEntry = 2
	result := RunFile(context.Background(), "range.hurl", file, client, NewVariableSet(), opts, "", make(chan struct{}))
	require.True(t, result.Success)
	assert.Len(t, result.Entries, 1)
}

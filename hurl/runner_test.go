// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEntryRetriesUntilSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	src := `GET ` + srv.URL + `/
HTTP 200
`
	file, err := ParseHurlFile("retry.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	opts := DefaultClientOptions()
	opts.Retry = FiniteCount(5)
	opts.RetryInterval = time.Millisecond

	cfg := &RunConfig{Client: client, Vars: NewVariableSet(), Options: opts, Cancel: make(chan struct{})}
	result := RunEntry(context.Background(), file.Entries[0], 0, cfg)
	assert.True(t, result.Success())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRunEntryRetryExhaustedStillFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	src := `GET ` + srv.URL + `/
HTTP 200
`
	file, err := ParseHurlFile("exhausted.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	opts := DefaultClientOptions()
	opts.Retry = FiniteCount(2)
	opts.RetryInterval = time.Millisecond

	cfg := &RunConfig{Client: client, Vars: NewVariableSet(), Options: opts, Cancel: make(chan struct{})}
	result := RunEntry(context.Background(), file.Entries[0], 0, cfg)
	assert.False(t, result.Success())
	assert.Equal(t, 2, result.Retries)
}

func TestRunEntryCaptureFeedsSubsequentVariable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7}`))
	}))
	t.Cleanup(srv.Close)

	src := `GET ` + srv.URL + `/
HTTP 200
[Captures]
the_id: jsonpath "$.id"
`
	file, err := ParseHurlFile("cap.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	vars := NewVariableSet()
	cfg := &RunConfig{Client: client, Vars: vars, Options: DefaultClientOptions(), Cancel: make(chan struct{})}
	result := RunEntry(context.Background(), file.Entries[0], 0, cfg)
	require.True(t, result.Success())

	e, ok := vars.Lookup("the_id")
	require.True(t, ok)
	assert.Equal(t, Int(7), e.Value)
}

func TestRunEntryImplicitHeaderAssertFailsOnMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "actual-value")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	src := `GET ` + srv.URL + `/
HTTP 200
X-Custom: expected-value
`
	file, err := ParseHurlFile("header.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)

	cfg := &RunConfig{Client: client, Vars: NewVariableSet(), Options: DefaultClientOptions(), Cancel: make(chan struct{})}
	result := RunEntry(context.Background(), file.Entries[0], 0, cfg)
	assert.False(t, result.Success())
	assert.NotEmpty(t, result.AssertErrors)
}

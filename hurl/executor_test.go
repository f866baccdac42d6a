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

func TestRunFilesPreservesOriginalOrderRegardlessOfCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	mk := func(name string) *HurlFile {
		f, err := ParseHurlFile(name, "GET "+srv.URL+"/\nHTTP 200\n")
		require.NoError(t, err)
		return f
	}

	filenames := []string{"a.hurl", "b.hurl", "c.hurl", "d.hurl"}
	files := []*HurlFile{mk("a.hurl"), mk("b.hurl"), mk("c.hurl"), mk("d.hurl")}

	results, err := RunFiles(context.Background(), filenames, files, ExecutorConfig{
		Workers: 4,
		Options: DefaultClientOptions(),
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, filenames[i], r.File)
	}
}

func TestRunFilesFailFastCancelsRemainingWork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	mk := func(name string) *HurlFile {
		f, err := ParseHurlFile(name, "GET "+srv.URL+"/\nHTTP 200\n")
		require.NoError(t, err)
		return f
	}

	filenames := []string{"a.hurl", "b.hurl"}
	files := []*HurlFile{mk("a.hurl"), mk("b.hurl")}

	results, err := RunFiles(context.Background(), filenames, files, ExecutorConfig{
		Workers:  1,
		FailFast: true,
		Options:  DefaultClientOptions(),
	})
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
}

func TestRunFilesReportsAggregateErrorCount(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(okSrv.Close)
	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(failSrv.Close)

	ok, err := ParseHurlFile("ok.hurl", "GET "+okSrv.URL+"/\nHTTP 200\n")
	require.NoError(t, err)
	bad, err := ParseHurlFile("bad.hurl", "GET "+failSrv.URL+"/\nHTTP 200\n")
	require.NoError(t, err)

	results, err := RunFiles(context.Background(), []string{"ok.hurl", "bad.hurl"}, []*HurlFile{ok, bad}, ExecutorConfig{
		Workers: 2,
		Options: DefaultClientOptions(),
	})
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
}

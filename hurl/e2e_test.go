// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer stands up the small fixture server exercised by the
// end-to-end scenarios below: a JSON echo endpoint, a capture-fed
// greeting endpoint, and a redirect chain, routed through
// gorilla/mux the way the teacher's own demo server dispatches paths.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()

	r.HandleFunc("/echo", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id": 42, "name": "widget", "tags": ["a", "b"]}`)
	}).Methods("GET")

	r.HandleFunc("/greet/{name}", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"greeting": "hello %s"}`, mux.Vars(req)["name"])
	}).Methods("GET")

	r.HandleFunc("/redirect/{n}", func(w http.ResponseWriter, req *http.Request) {
		n := mux.Vars(req)["n"]
		if n == "0" {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "done")
			return
		}
		var k int
		fmt.Sscan(n, &k)
		http.Redirect(w, req, fmt.Sprintf("/redirect/%d", k-1), http.StatusFound)
	}).Methods("GET")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestEndToEndCaptureAndAssert(t *testing.T) {
	srv := newTestServer(t)

	src := fmt.Sprintf(`GET %s/echo
HTTP 200
[Captures]
item_id: jsonpath "$.id"
[Asserts]
jsonpath "$.name" equal "widget"
jsonpath "$.tags" count 2
header "Content-Type" contains "application/json"

GET %s/greet/{{item_id}}
HTTP 200
[Asserts]
jsonpath "$.greeting" equal "hello 42"
`, srv.URL, srv.URL)

	file, err := ParseHurlFile("capture.hurl", src)
	require.NoError(t, err)
	require.Len(t, file.Entries, 2)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)
	vars := NewVariableSet()
	cancel := make(chan struct{})

	result := RunFile(context.Background(), "capture.hurl", file, client, vars, DefaultClientOptions(), "", cancel)
	require.NotNil(t, result)
	for _, er := range result.Entries {
		assert.Empty(t, er.RuntimeErrors.AsStrings())
		assert.Empty(t, er.AssertErrors.AsStrings())
	}
	assert.True(t, result.Success)

	e, ok := vars.Lookup("item_id")
	require.True(t, ok)
	assert.Equal(t, int64(42), e.Value.Int)
}

func TestEndToEndFollowLocation(t *testing.T) {
	srv := newTestServer(t)

	src := fmt.Sprintf(`GET %s/redirect/2
[Options]
follow-location: true
HTTP 200
[Asserts]
body equal "done"
`, srv.URL)

	file, err := ParseHurlFile("redirect.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)
	vars := NewVariableSet()
	cancel := make(chan struct{})

	result := RunFile(context.Background(), "redirect.hurl", file, client, vars, DefaultClientOptions(), "", cancel)
	require.True(t, result.Success)
	require.Len(t, result.Entries, 1)
	assert.Len(t, result.Entries[0].Calls, 3)
}

func TestEndToEndAssertFailureSetsExitSignal(t *testing.T) {
	srv := newTestServer(t)

	src := fmt.Sprintf(`GET %s/echo
HTTP 200
[Asserts]
jsonpath "$.name" equal "gizmo"
`, srv.URL)

	file, err := ParseHurlFile("fail.hurl", src)
	require.NoError(t, err)

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)
	vars := NewVariableSet()
	cancel := make(chan struct{})

	result := RunFile(context.Background(), "fail.hurl", file, client, vars, DefaultClientOptions(), "", cancel)
	require.False(t, result.Success)
	require.Len(t, result.Entries, 1)
	assert.NotEmpty(t, result.Entries[0].AssertErrors.AsStrings())
}

func TestEndToEndParallelFiles(t *testing.T) {
	srv := newTestServer(t)

	mk := func(name string) *HurlFile {
		src := fmt.Sprintf(`GET %s/echo
HTTP 200
[Asserts]
status equal 200
`, srv.URL)
		f, err := ParseHurlFile(name, src)
		require.NoError(t, err)
		return f
	}

	filenames := []string{"a.hurl", "b.hurl", "c.hurl"}
	files := []*HurlFile{mk("a.hurl"), mk("b.hurl"), mk("c.hurl")}

	results, err := RunFiles(context.Background(), filenames, files, ExecutorConfig{
		Workers: 2,
		Options: DefaultClientOptions(),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, filenames[i], r.File)
		assert.True(t, r.Success)
	}
}

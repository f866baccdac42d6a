// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []*HurlResult {
	okEntry := &EntryResult{EntryIndex: 0, Duration: 10 * time.Millisecond}
	okEntry.Captures = []CaptureResult{{Name: "id", Value: Int(7)}, {Name: "token", Value: Str("s3cr3t"), Redacted: true}}

	failEntry := &EntryResult{EntryIndex: 0, Duration: 5 * time.Millisecond}
	failEntry.AssertErrors = failEntry.AssertErrors.Append(&AssertFailure{Actual: "500", Expected: "200"})

	return []*HurlResult{
		{File: "ok.hurl", Success: true, Duration: 10 * time.Millisecond, Entries: []*EntryResult{okEntry}},
		{File: "bad.hurl", Success: false, Duration: 5 * time.Millisecond, Entries: []*EntryResult{failEntry}},
	}
}

func TestBuildResultDocumentsRedactsSecretCaptures(t *testing.T) {
	docs := BuildResultDocuments(sampleResults())
	require.Len(t, docs, 2)
	assert.True(t, docs[0].Success)
	require.Len(t, docs[0].Entries[0].Captures, 2)
	assert.Equal(t, "***", docs[0].Entries[0].Captures[1].Value)
	assert.Equal(t, int64(7), docs[0].Entries[0].Captures[0].Value)

	assert.False(t, docs[1].Success)
	assert.NotEmpty(t, docs[1].Entries[0].Asserts)
}

func TestWriteJSONReportProducesValidJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONReport(&buf, sampleResults()))

	var docs []ResultDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "ok.hurl", docs[0].Filename)
}

func TestWriteJUnitReportCountsFailures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnitReport(&buf, sampleResults()))
	out := buf.String()
	assert.Contains(t, out, `<testsuites>`)
	assert.Contains(t, out, `failures="1"`)
}

func TestWriteTAPReportOkAndNotOk(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTAPReport(&buf, sampleResults()))
	out := buf.String()
	assert.Contains(t, out, "1..2\n")
	assert.Contains(t, out, "ok 1 -")
	assert.Contains(t, out, "not ok 2 -")
}

func TestWriteHTMLReportEscapesFilenames(t *testing.T) {
	results := []*HurlResult{{File: "<script>.hurl", Success: true}}
	var buf bytes.Buffer
	require.NoError(t, WriteHTMLReport(&buf, results))
	assert.Contains(t, buf.String(), "&lt;script&gt;.hurl")
}

func TestValueToJSONConvertsEveryKind(t *testing.T) {
	assert.Nil(t, valueToJSON(Null()))
	assert.Equal(t, true, valueToJSON(Bool(true)))
	assert.Equal(t, int64(5), valueToJSON(Int(5)))
	assert.Equal(t, "widget", valueToJSON(Str("widget")))
	assert.Equal(t, []interface{}{int64(1), int64(2)}, valueToJSON(List([]Value{Int(1), Int(2)})))
	obj := valueToJSON(Obj([]ObjectField{{Key: "a", Value: Int(1)}}))
	assert.Equal(t, map[string]interface{}{"a": int64(1)}, obj)
}

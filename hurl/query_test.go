// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCall(body string, headers map[string]string) *Call {
	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	return &Call{
		Request: ExecutedRequest{Method: "GET", URL: "http://example.test/widgets/42"},
		Response: Response{
			StatusCode: 200,
			Proto:      "HTTP/1.1",
			Headers:    h,
			Body:       NewBodyCache([]byte(body), false),
			Duration:   150 * time.Millisecond,
		},
	}
}

func TestEvalQueryStatus(t *testing.T) {
	call := newTestCall(`{}`, nil)
	v, err := EvalQuery(&Query{Kind: QueryStatus}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Int(200), *v)
}

func TestEvalQueryHeaderSingleAndMissing(t *testing.T) {
	call := newTestCall(`{}`, map[string]string{"Content-Type": "application/json"})

	v, err := EvalQuery(&Query{Kind: QueryHeader, HeaderName: literalTemplate("Content-Type")}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Str("application/json"), *v)

	v, err = EvalQuery(&Query{Kind: QueryHeader, HeaderName: literalTemplate("X-Missing")}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvalQueryBody(t *testing.T) {
	call := newTestCall(`hello world`, nil)
	v, err := EvalQuery(&Query{Kind: QueryBody}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Str("hello world"), *v)
}

func TestEvalQueryJSONPath(t *testing.T) {
	call := newTestCall(`{"id": 42, "tags": ["a", "b"]}`, nil)

	v, err := EvalQuery(&Query{Kind: QueryJSONPath, JSONPathExpr: literalTemplate("$.id")}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Int(42), *v)

	v, err = EvalQuery(&Query{Kind: QueryJSONPath, JSONPathExpr: literalTemplate("$.tags")}, call, NewVariableSet())
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	assert.Len(t, v.List, 2)
}

func TestEvalQueryJSONPathInvalidBody(t *testing.T) {
	call := newTestCall(`not json`, nil)
	_, err := EvalQuery(&Query{Kind: QueryJSONPath, JSONPathExpr: literalTemplate("$.id")}, call, NewVariableSet())
	require.Error(t, err)
}

func TestEvalQueryXPath(t *testing.T) {
	call := newTestCall(`<root><item id="1">widget</item></root>`, nil)
	v, err := EvalQuery(&Query{Kind: QueryXPath, XPathExpr: literalTemplate("//item/text()")}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Str("widget"), *v)
}

func TestEvalQueryRegex(t *testing.T) {
	call := newTestCall(`order id=ORD-4821 confirmed`, nil)
	v, err := EvalQuery(&Query{Kind: QueryRegex, RegexLiteral: `ORD-(\d+)`}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Str("4821"), *v)
}

func TestEvalQueryDuration(t *testing.T) {
	call := newTestCall(`{}`, nil)
	v, err := EvalQuery(&Query{Kind: QueryDuration}, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Int(150), *v)
}

func TestEvalQueryVariable(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("item_id", Int(42), SourceCapture, false)
	call := newTestCall(`{}`, nil)
	v, err := EvalQuery(&Query{Kind: QueryVariable, VariableName: literalTemplate("item_id")}, call, vars)
	require.NoError(t, err)
	assert.Equal(t, Int(42), *v)
}

func TestRunQueryFiltersChainsAfterQuery(t *testing.T) {
	call := newTestCall(`{"tags": ["a", "b", "c"]}`, nil)
	q := &Query{Kind: QueryJSONPath, JSONPathExpr: literalTemplate("$.tags")}
	filters := []*Filter{{Kind: FilterCount}}
	v, err := runQueryFilters(q, filters, call, NewVariableSet())
	require.NoError(t, err)
	assert.Equal(t, Int(3), *v)
}

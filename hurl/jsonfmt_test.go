// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyPrintJSONObjectAndArray(t *testing.T) {
	out, err := PrettyPrintJSON([]byte(`{"id":1,"tags":["a","b"]}`), false)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": 1,\n  \"tags\": [\n    \"a\",\n    \"b\"\n  ]\n}", out)
}

func TestPrettyPrintJSONEmptyObjectAndArray(t *testing.T) {
	out, err := PrettyPrintJSON([]byte(`{"a":{},"b":[]}`), false)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": {},\n  \"b\": []\n}", out)
}

func TestPrettyPrintJSONSkipsLeadingBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`"hi"`)...)
	out, err := PrettyPrintJSON(raw, false)
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, out)
}

func TestPrettyPrintJSONColorWrapsAnsiCodes(t *testing.T) {
	out, err := PrettyPrintJSON([]byte(`true`), true)
	require.NoError(t, err)
	assert.Contains(t, out, "true")
	assert.NotEqual(t, "true", out)
}

func TestPrettyPrintJSONRejectsTrailingData(t *testing.T) {
	_, err := PrettyPrintJSON([]byte(`1 2`), false)
	require.Error(t, err)
	var jerr *JsonFmtError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, JsonFmtInvalidByte, jerr.Kind)
}

func TestPrettyPrintJSONRejectsInvalidEscape(t *testing.T) {
	_, err := PrettyPrintJSON([]byte(`"bad \q escape"`), false)
	require.Error(t, err)
	var jerr *JsonFmtError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, JsonFmtInvalidEscape, jerr.Kind)
}

func TestPrettyPrintJSONRejectsMaxNestingDepth(t *testing.T) {
	open := ""
	closing := ""
	for i := 0; i < maxIndentLevel+1; i++ {
		open += "["
		closing += "]"
	}
	_, err := PrettyPrintJSON([]byte(open+closing), false)
	require.Error(t, err)
	var jerr *JsonFmtError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, JsonFmtMaxIndentLevel, jerr.Kind)
}

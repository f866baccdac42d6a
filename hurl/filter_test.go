// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFilterCount(t *testing.T) {
	f := &Filter{Kind: FilterCount}
	v, err := applyFilter(f, List([]Value{Str("a"), Str("b"), Str("c")}), nil)
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)
}

func TestApplyFilterCountWrongType(t *testing.T) {
	f := &Filter{Kind: FilterCount}
	_, err := applyFilter(f, Str("not a collection"), nil)
	require.Error(t, err)
	var ferr *FilterError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, ErrFilterTypeError, ferr.Kind)
}

func TestApplyFilterNthAndFirstLast(t *testing.T) {
	list := List([]Value{Int(10), Int(20), Int(30)})

	v, err := applyFilter(&Filter{Kind: FilterNth, Int: 1}, list, nil)
	require.NoError(t, err)
	assert.Equal(t, Int(20), v)

	v, err = applyFilter(&Filter{Kind: FilterFirst}, list, nil)
	require.NoError(t, err)
	assert.Equal(t, Int(10), v)

	v, err = applyFilter(&Filter{Kind: FilterLast}, list, nil)
	require.NoError(t, err)
	assert.Equal(t, Int(30), v)
}

func TestApplyFilterNthOutOfRange(t *testing.T) {
	_, err := applyFilter(&Filter{Kind: FilterNth, Int: 5}, List([]Value{Int(1)}), nil)
	require.Error(t, err)
}

func TestApplyFilterSplit(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterSplit, Str: ","}, Str("a,b,c"), nil)
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	assert.Equal(t, []Value{Str("a"), Str("b"), Str("c")}, v.List)
}

func TestApplyFilterReplaceAndReplaceRegex(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterReplace, Str: "foo", Str2: "bar"}, Str("foo baz foo"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("bar baz bar"), v)

	v, err = applyFilter(&Filter{Kind: FilterReplaceRegex, Str: `\d+`, Str2: "#"}, Str("a12b345"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("a#b#"), v)
}

func TestApplyFilterRegexCapture(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterRegex, Str: `id=(\d+)`}, Str("url?id=42&x=1"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("42"), v)
}

func TestApplyFilterRegexNoMatch(t *testing.T) {
	_, err := applyFilter(&Filter{Kind: FilterRegex, Str: `zzz`}, Str("no match here"), nil)
	require.Error(t, err)
}

func TestApplyFilterBase64RoundTrip(t *testing.T) {
	enc, err := applyFilter(&Filter{Kind: FilterBase64Encode}, Str("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("aGVsbG8="), enc)

	dec, err := applyFilter(&Filter{Kind: FilterBase64Decode}, enc, nil)
	require.NoError(t, err)
	assert.Equal(t, Bin([]byte("hello")), dec)
}

func TestApplyFilterURLEncodeDecode(t *testing.T) {
	enc, err := applyFilter(&Filter{Kind: FilterURLEncode}, Str("a b+c"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("a+b%2Bc"), enc)

	dec, err := applyFilter(&Filter{Kind: FilterURLDecode}, enc, nil)
	require.NoError(t, err)
	assert.Equal(t, Str("a b+c"), dec)
}

func TestApplyFilterURLQueryParam(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterURLQueryParam, Str: "q"}, Str("https://example.com/search?q=widgets&page=2"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("widgets"), v)
}

func TestApplyFilterToIntToFloatToString(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterToInt}, Str("42"), nil)
	require.NoError(t, err)
	assert.Equal(t, Int(42), v)

	v, err = applyFilter(&Filter{Kind: FilterToFloat}, Str("3.5"), nil)
	require.NoError(t, err)
	assert.Equal(t, Float(3.5), v)

	v, err = applyFilter(&Filter{Kind: FilterToString}, Int(9), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("9"), v)
}

func TestApplyFilterToHex(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterToHex}, Str("ab"), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("6162"), v)
}

func TestApplyFilterJsonpath(t *testing.T) {
	v, err := applyFilter(&Filter{Kind: FilterJsonpath, Str: "$.name"}, Str(`{"name": "widget"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("widget"), v)
}

func TestApplyFilterHTMLEscapeUnescape(t *testing.T) {
	esc, err := applyFilter(&Filter{Kind: FilterHTMLEscape}, Str(`<a href="x">`), nil)
	require.NoError(t, err)
	assert.Equal(t, Str("&lt;a href=&#34;x&#34;&gt;"), esc)

	unesc, err := applyFilter(&Filter{Kind: FilterHTMLUnescape}, esc, nil)
	require.NoError(t, err)
	assert.Equal(t, Str(`<a href="x">`), unesc)
}

func TestApplyFilterUnknownKind(t *testing.T) {
	_, err := applyFilter(&Filter{Kind: FilterKind(999)}, Str("x"), nil)
	require.Error(t, err)
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func jsonUnmarshal(b []byte, out interface{}) error {
	return json.Unmarshal(b, out)
}

// fromJSONInterface converts a decoded encoding/json value
// (map[string]interface{}, []interface{}, string, float64/json.Number,
// bool, nil) into our Value sum type, preserving object key order is
// not possible through the stdlib decoder, so jsonpath filter/query
// results intentionally drop object field ordering. Order is kept only
// by jsonfmt.go's pretty-printer and by the parser's JSON body AST
// (JSONValue), which never go through this conversion.
func fromJSONInterface(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return Str(t)
	case float64:
		return numberFromFloat(t)
	case json.Number:
		return numberFromLexical(t.String())
	case []interface{}:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = fromJSONInterface(e)
		}
		return List(vs)
	case map[string]interface{}:
		fs := make([]ObjectField, 0, len(t))
		for k, e := range t {
			fs = append(fs, ObjectField{Key: k, Value: fromJSONInterface(e)})
		}
		return Obj(fs)
	}
	return Null()
}

// ValueFromInterface converts a decoded JSON/Hjson value (as produced
// by encoding/json.Unmarshal or hjson.Unmarshal into an
// interface{}/map[string]interface{}) into a Value, for seeding
// variables from a --variables-file/--secrets-file.
func ValueFromInterface(v interface{}) Value {
	return fromJSONInterface(v)
}

func numberFromFloat(f float64) Value {
	if f == float64(int64(f)) {
		return Int(int64(f))
	}
	return Float(f)
}

func numberFromLexical(s string) Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if !strings.ContainsAny(s, ".eE") {
		return BigInt(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return Str(s)
}

// decodeCharset decodes b using the named charset. "utf-8" (the
// default) and "latin1"/"iso-8859-1" bypass the transform package;
// other charsets route through golang.org/x/text.
func decodeCharset(b []byte, charset string) (string, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return string(b), nil
	case "utf-16", "utf16":
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case "latin1", "iso-8859-1":
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return string(runes), nil
	default:
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", err
		}
		out, _, err := transform.Bytes(enc.NewDecoder(), b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

// JSONKind is the closed set of JSON node shapes in a [JsonValue]
// body literal. It mirrors RFC 8259 except that strings (both object
// keys and string values) are Templates rather than plain text, and
// numbers retain their original lexical spelling so that big integers
// and trailing-zero floats are not mangled by re-serialization.
type JSONKind int

const (
	JSONNull JSONKind = iota
	JSONBool
	JSONNumber
	JSONString
	JSONArray
	JSONObject
)

// JSONValue is one node of a Hurl JSON body: "JSON whose string leaves
// are templates and whose numbers are preserved as lexical text", per
// spec.md section 9.
type JSONValue struct {
	Kind JSONKind

	Bool          bool
	NumberLexical string // exact source text, e.g. "1.50" or a 40-digit integer
	Str           *Template
	Array         []*JSONValue
	Object        []JSONMember

	Source SourceInfo
}

// JSONMember is one key/value pair of a JSONObject node. The key is
// itself a Template so that object keys may embed {{placeholders}}.
type JSONMember struct {
	Key   *Template
	Value *JSONValue
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// ValueKind tags the closed set of runtime value shapes that flow
// through templates, queries, filters and predicates.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInteger
	KindBigInteger
	KindFloat
	KindString
	KindBytes
	KindList
	KindObject
	KindDate
	KindRegex
	KindNodeset
	KindUnit
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger, KindBigInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindDate:
		return "date"
	case KindRegex:
		return "regex"
	case KindNodeset:
		return "nodeset"
	case KindUnit:
		return "unit"
	}
	return "unknown"
}

// ObjectField is one key/value pair of a KindObject Value. Object
// values keep fields in declaration order so that equality and
// serialization are deterministic.
type ObjectField struct {
	Key   string
	Value Value
}

// Value is the tagged sum type produced by template evaluation,
// queries and filters. Only the fields relevant to Kind are
// meaningful; the rest are zero.
type Value struct {
	Kind ValueKind

	Bool  bool
	Int   int64
	Big   string // lexical digits for KindBigInteger, beyond int64 range
	Float float64
	Str   string
	Bytes []byte
	List  []Value
	Obj   []ObjectField
	Date  time.Time
	Regex *regexp.Regexp
	Count int // cardinality for KindNodeset

	// Redacted marks a value as sourced (directly or through a query/
	// filter pipeline) from a variable the run must never print in
	// plain text — a --secret CLI value or a capture flagged `redact`.
	// It rides along on the Value itself rather than a side channel so
	// every stringification point (assert messages, curl rendering)
	// can call RedactedString instead of CoerceString and there is no
	// call site where the bit can be silently dropped.
	Redacted bool
}

func Null() Value               { return Value{Kind: KindNull} }
func Unit() Value                { return Value{Kind: KindUnit} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Int(n int64) Value          { return Value{Kind: KindInteger, Int: n} }
func BigInt(digits string) Value { return Value{Kind: KindBigInteger, Big: digits} }
func Float(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func Str(s string) Value         { return Value{Kind: KindString, Str: s} }
func Bin(b []byte) Value         { return Value{Kind: KindBytes, Bytes: b} }
func List(vs []Value) Value      { return Value{Kind: KindList, List: vs} }
func Obj(fs []ObjectField) Value { return Value{Kind: KindObject, Obj: fs} }
func DateVal(t time.Time) Value  { return Value{Kind: KindDate, Date: t} }
func RegexVal(re *regexp.Regexp) Value { return Value{Kind: KindRegex, Regex: re} }
func Nodeset(count int) Value    { return Value{Kind: KindNodeset, Count: count} }

// IsNumber reports whether v is an Integer, BigInteger or Float.
func (v Value) IsNumber() bool {
	return v.Kind == KindInteger || v.Kind == KindBigInteger || v.Kind == KindFloat
}

// AsFloat converts a numeric Value to float64. ok is false for
// non-numeric values and for a BigInteger too large for float64 at
// all; a BigInteger beyond float64's exact range converts with ok
// true but rounded, so callers that need exactness should compare
// lexically instead.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	case KindBigInteger:
		f, err := strconv.ParseFloat(v.Big, 64)
		return f, err == nil
	}
	return 0, false
}

// CoerceString implements the fixed coercion table used when a
// template placeholder's final value must be rendered as text:
// numbers render as decimal text, booleans as "true"/"false", strings
// as themselves, and bytes are rejected (the caller must use a filter
// like toString / hex / base64Encode first).
func (v Value) CoerceString() (string, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindInteger:
		return strconv.FormatInt(v.Int, 10), nil
	case KindBigInteger:
		return v.Big, nil
	case KindFloat:
		return formatFloat(v.Float), nil
	case KindBool:
		return strconv.FormatBool(v.Bool), nil
	case KindNull:
		return "null", nil
	case KindDate:
		return v.Date.Format(time.RFC3339), nil
	case KindBytes:
		return "", &TemplateError{Kind: ErrTemplateTypeError, Message: "cannot coerce bytes to string without an explicit filter"}
	default:
		return "", &TemplateError{Kind: ErrTemplateTypeError, Message: fmt.Sprintf("cannot coerce %s to string", v.Kind)}
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}

// TemplateError is raised while evaluating a template placeholder:
// either the referenced variable is undefined, or a filter could not
// be applied to the value it received.
type TemplateError struct {
	Kind    ErrorKind
	Name    string
	Message string
	Source  SourceInfo
}

func (e *TemplateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Equal implements the type-aware equality used by the Equal/NotEqual
// predicates and by the `includes` predicate's element search.
// Mismatched domains report ok=false (a type mismatch) rather than
// simply "not equal".
func Equal(a, b Value) (equal bool, ok bool) {
	switch {
	case a.Kind == KindNull && b.Kind == KindNull:
		return true, true
	case a.Kind == KindBool && b.Kind == KindBool:
		return a.Bool == b.Bool, true
	case a.IsNumber() && b.IsNumber():
		return numericEqual(a, b), true
	case a.Kind == KindString && b.Kind == KindString:
		return a.Str == b.Str, true
	case a.Kind == KindBytes && b.Kind == KindBytes:
		return string(a.Bytes) == string(b.Bytes), true
	case a.Kind == KindList && b.Kind == KindList:
		return listEqual(a.List, b.List), true
	case a.Kind == KindObject && b.Kind == KindObject:
		return objectEqual(a.Obj, b.Obj), true
	case a.Kind == KindDate && b.Kind == KindDate:
		return a.Date.Equal(b.Date), true
	}
	return false, false
}

func numericEqual(a, b Value) bool {
	if a.Kind == KindBigInteger || b.Kind == KindBigInteger {
		// Open contract (spec.md Open Questions): BigInteger compares
		// lexically against BigInteger and refuses cross-compares with
		// Float; against Integer, widen the Integer to a decimal string.
		if a.Kind == KindBigInteger && b.Kind == KindBigInteger {
			return normalizeBigInt(a.Big) == normalizeBigInt(b.Big)
		}
		if a.Kind == KindFloat || b.Kind == KindFloat {
			return false
		}
		var big, other Value
		if a.Kind == KindBigInteger {
			big, other = a, b
		} else {
			big, other = b, a
		}
		return normalizeBigInt(big.Big) == normalizeBigInt(strconv.FormatInt(other.Int, 10))
	}
	af, _ := a.AsFloat()
	bf, _ := b.AsFloat()
	return af == bf
}

func normalizeBigInt(s string) string {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	s = trimLeadingZeros(s)
	if neg && s != "0" {
		return "-" + s
	}
	return s
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

func listEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		eq, ok := Equal(a[i], b[i])
		if !ok || !eq {
			return false
		}
	}
	return true
}

func objectEqual(a, b []ObjectField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
		eq, ok := Equal(a[i].Value, b[i].Value)
		if !ok || !eq {
			return false
		}
	}
	return true
}

// sortedObjectKeys returns the object's keys in sorted order; used
// only for diagnostic rendering, never for equality (which is
// order-sensitive per spec).
func sortedObjectKeys(fs []ObjectField) []string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key
	}
	sort.Strings(keys)
	return keys
}

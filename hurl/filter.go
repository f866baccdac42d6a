// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"gopkg.in/xmlpath.v2"
)

// FilterKind is the closed set of post-query transformations,
// shared between the {{var | filter}} template pipeline and the
// "query filters predicate"/"query filters" grammar of asserts and
// captures.
type FilterKind int

const (
	FilterDecode FilterKind = iota
	FilterFormat
	FilterHTMLEscape
	FilterHTMLUnescape
	FilterJsonpath
	FilterXpath
	FilterRegex
	FilterReplace
	FilterReplaceRegex
	FilterSplit
	FilterNth
	FilterFirst
	FilterLast
	FilterCount
	FilterBase64Encode
	FilterBase64Decode
	FilterBase64UrlSafeEncode
	FilterBase64UrlSafeDecode
	FilterURLEncode
	FilterURLDecode
	FilterURLQueryParam
	FilterToDate
	FilterToFloat
	FilterToHex
	FilterToInt
	FilterToString
	FilterDaysBeforeNow
	FilterDaysAfterNow
	FilterLocation
)

var filterNames = map[FilterKind]string{
	FilterDecode:              "decode",
	FilterFormat:              "format",
	FilterHTMLEscape:          "htmlEscape",
	FilterHTMLUnescape:        "htmlUnescape",
	FilterJsonpath:            "jsonpath",
	FilterXpath:               "xpath",
	FilterRegex:               "regex",
	FilterReplace:             "replace",
	FilterReplaceRegex:        "replaceRegex",
	FilterSplit:               "split",
	FilterNth:                 "nth",
	FilterFirst:               "first",
	FilterLast:                "last",
	FilterCount:               "count",
	FilterBase64Encode:        "base64Encode",
	FilterBase64Decode:        "base64Decode",
	FilterBase64UrlSafeEncode: "base64UrlSafeEncode",
	FilterBase64UrlSafeDecode: "base64UrlSafeDecode",
	FilterURLEncode:           "urlEncode",
	FilterURLDecode:           "urlDecode",
	FilterURLQueryParam:       "urlQueryParam",
	FilterToDate:              "toDate",
	FilterToFloat:             "toFloat",
	FilterToHex:               "toHex",
	FilterToInt:               "toInt",
	FilterToString:            "toString",
	FilterDaysBeforeNow:       "daysBeforeNow",
	FilterDaysAfterNow:        "daysAfterNow",
	FilterLocation:            "location",
}

var filterByName = func() map[string]FilterKind {
	m := make(map[string]FilterKind, len(filterNames))
	for k, v := range filterNames {
		m[v] = k
	}
	return m
}()

func (k FilterKind) String() string { return filterNames[k] }

// Filter is one element of a filter pipeline, carrying its typed
// argument(s).
type Filter struct {
	Kind FilterKind

	Str   string // charset, format, pattern, separator, ...
	Str2  string // second string arg (replace's new, ...)
	Int   int    // nth, count target
	Regex *regexp.Regexp

	Source SourceInfo
}

func (f *Filter) sourceText() string {
	switch f.Kind {
	case FilterNth:
		return fmt.Sprintf("nth %d", f.Int)
	case FilterReplace, FilterReplaceRegex:
		return fmt.Sprintf("%s %q %q", f.Kind, f.Str, f.Str2)
	case FilterDecode, FilterFormat, FilterSplit, FilterJsonpath, FilterXpath,
		FilterRegex, FilterToDate, FilterURLQueryParam:
		return fmt.Sprintf("%s %q", f.Kind, f.Str)
	default:
		return f.Kind.String()
	}
}

// FilterError is raised when a filter cannot be applied to the value
// it receives: wrong input type, or a malformed argument.
type FilterError struct {
	Kind    ErrorKind
	Filter  FilterKind
	Message string
	Source  SourceInfo
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: filter %s: %s", e.Kind, e.Filter, e.Message)
}

func filterTypeError(f *Filter, expected string, got Value) error {
	return &FilterError{
		Kind:    ErrFilterTypeError,
		Filter:  f.Kind,
		Message: fmt.Sprintf("expected %s, got %s", expected, got.Kind),
		Source:  f.Source,
	}
}

// applyFilter evaluates one filter of a pipeline, turning an input
// Value into an output Value or failing with a FilterError.
func applyFilter(f *Filter, v Value, vars *VariableSet) (Value, error) {
	switch f.Kind {
	case FilterCount:
		switch v.Kind {
		case KindList:
			return Int(int64(len(v.List))), nil
		case KindNodeset:
			return Int(int64(v.Count)), nil
		case KindObject:
			return Int(int64(len(v.Obj))), nil
		}
		return Value{}, filterTypeError(f, "collection", v)

	case FilterFirst:
		if v.Kind != KindList || len(v.List) == 0 {
			return Value{}, filterTypeError(f, "non-empty list", v)
		}
		return v.List[0], nil

	case FilterLast:
		if v.Kind != KindList || len(v.List) == 0 {
			return Value{}, filterTypeError(f, "non-empty list", v)
		}
		return v.List[len(v.List)-1], nil

	case FilterNth:
		if v.Kind != KindList {
			return Value{}, filterTypeError(f, "list", v)
		}
		if f.Int < 0 || f.Int >= len(v.List) {
			return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind,
				Message: fmt.Sprintf("index %d out of range (len %d)", f.Int, len(v.List)), Source: f.Source}
		}
		return v.List[f.Int], nil

	case FilterSplit:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		parts := strings.Split(s, f.Str)
		vs := make([]Value, len(parts))
		for i, p := range parts {
			vs[i] = Str(p)
		}
		return List(vs), nil

	case FilterReplace:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(strings.ReplaceAll(s, f.Str, f.Str2)), nil

	case FilterReplaceRegex:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		re, err := regexp.Compile(f.Str)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrInvalidRegex, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return Str(re.ReplaceAllString(s, f.Str2)), nil

	case FilterRegex:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		re := f.Regex
		var err2 error
		if re == nil {
			re, err2 = regexp.Compile(f.Str)
			if err2 != nil {
				return Value{}, &FilterError{Kind: ErrInvalidRegex, Filter: f.Kind, Message: err2.Error(), Source: f.Source}
			}
		}
		m := re.FindStringSubmatch(s)
		if m == nil {
			return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: "no match", Source: f.Source}
		}
		if len(m) > 1 {
			return Str(m[1]), nil
		}
		return Str(m[0]), nil

	case FilterHTMLEscape:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(html.EscapeString(s)), nil

	case FilterHTMLUnescape:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(html.UnescapeString(s)), nil

	case FilterURLEncode:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(url.QueryEscape(s)), nil

	case FilterURLDecode:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		out, err := url.QueryUnescape(s)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return Str(out), nil

	case FilterURLQueryParam:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		u, err := url.Parse(s)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		val := u.Query().Get(f.Str)
		return Str(val), nil

	case FilterBase64Encode:
		b, err := bytesArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(base64.StdEncoding.EncodeToString(b)), nil

	case FilterBase64Decode:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrBase64, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return Bin(b), nil

	case FilterBase64UrlSafeEncode:
		b, err := bytesArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(base64.URLEncoding.EncodeToString(b)), nil

	case FilterBase64UrlSafeDecode:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		b, err := base64.URLEncoding.DecodeString(s)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrBase64, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return Bin(b), nil

	case FilterToHex:
		b, err := bytesArg(f, v)
		if err != nil {
			return Value{}, err
		}
		return Str(hex.EncodeToString(b)), nil

	case FilterToInt:
		switch v.Kind {
		case KindInteger, KindBigInteger:
			return v, nil
		case KindFloat:
			return Int(int64(v.Float)), nil
		case KindString:
			n, err := strconv.ParseInt(v.Str, 10, 64)
			if err != nil {
				return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: err.Error(), Source: f.Source}
			}
			return Int(n), nil
		}
		return Value{}, filterTypeError(f, "number or string", v)

	case FilterToFloat:
		switch v.Kind {
		case KindFloat:
			return v, nil
		case KindInteger:
			return Float(float64(v.Int)), nil
		case KindString:
			fl, err := strconv.ParseFloat(v.Str, 64)
			if err != nil {
				return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: err.Error(), Source: f.Source}
			}
			return Float(fl), nil
		}
		return Value{}, filterTypeError(f, "number or string", v)

	case FilterToString:
		s, err := v.CoerceString()
		if err != nil {
			return Value{}, &FilterError{Kind: ErrFilterTypeError, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return Str(s), nil

	case FilterToDate:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		t, err := time.Parse(goTimeLayout(f.Str), s)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return DateVal(t), nil

	case FilterDaysAfterNow, FilterDaysBeforeNow:
		if v.Kind != KindDate {
			return Value{}, filterTypeError(f, "date", v)
		}
		d := time.Since(v.Date).Hours() / 24
		if f.Kind == FilterDaysAfterNow {
			d = -d
		}
		return Int(int64(d)), nil

	case FilterFormat:
		if v.Kind != KindDate {
			return Value{}, filterTypeError(f, "date", v)
		}
		return Str(v.Date.Format(goTimeLayout(f.Str))), nil

	case FilterDecode:
		b, err := bytesArg(f, v)
		if err != nil {
			return Value{}, err
		}
		s, err := decodeCharset(b, f.Str)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrInvalidDecoding, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return Str(s), nil

	case FilterJsonpath:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		var doc interface{}
		if err := jsonUnmarshal([]byte(s), &doc); err != nil {
			return Value{}, &FilterError{Kind: ErrQueryInvalidJson, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		result, err := jsonpath.Get(f.Str, doc)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrQueryInvalidJsonpathExpression, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		return fromJSONInterface(result), nil

	case FilterXpath:
		s, err := stringArg(f, v)
		if err != nil {
			return Value{}, err
		}
		root, err := xmlpath.Parse(strings.NewReader(s))
		if err != nil {
			return Value{}, &FilterError{Kind: ErrQueryInvalidXml, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		path, err := xmlpath.Compile(f.Str)
		if err != nil {
			return Value{}, &FilterError{Kind: ErrQueryInvalidXpathEval, Filter: f.Kind, Message: err.Error(), Source: f.Source}
		}
		result, ok := path.String(root)
		if !ok {
			return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: "no match", Source: f.Source}
		}
		return Str(result), nil

	case FilterLocation:
		// Resolved by the query engine, which has access to the
		// response's redirect chain; here it is a passthrough for a
		// Value already holding the final URL (used when chained after
		// a Query.Url capture).
		return v, nil
	}
	return Value{}, &FilterError{Kind: ErrFilterInvalidInput, Filter: f.Kind, Message: "unknown filter", Source: f.Source}
}

func stringArg(f *Filter, v Value) (string, error) {
	if v.Kind == KindString {
		return v.Str, nil
	}
	if v.Kind == KindBytes {
		return string(v.Bytes), nil
	}
	s, err := v.CoerceString()
	if err != nil {
		return "", filterTypeError(f, "string", v)
	}
	return s, nil
}

func bytesArg(f *Filter, v Value) ([]byte, error) {
	if v.Kind == KindBytes {
		return v.Bytes, nil
	}
	if v.Kind == KindString {
		return []byte(v.Str), nil
	}
	return nil, filterTypeError(f, "string or bytes", v)
}

// goTimeLayout accepts either a Go reference-time layout or passes
// the pattern through unchanged; Hurl files commonly use Go-style
// layouts for toDate/format since this is a Go implementation.
func goTimeLayout(pattern string) string {
	if pattern == "" {
		return time.RFC3339
	}
	return pattern
}

func hashSHA256(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func hashMD5(b []byte) []byte {
	h := md5.Sum(b)
	return h[:]
}

// evalFunctionCall implements the small set of zero/one-argument
// value-producing functions usable as a placeholder root, e.g.
// {{newUuid}}.
func evalFunctionCall(root ExprRoot, vars *VariableSet) (Value, error) {
	switch root.Name {
	case "newUuid":
		return Str(uuid.New().String()), nil
	case "newDate":
		return DateVal(time.Now()), nil
	default:
		return Value{}, &TemplateError{
			Kind:    ErrTemplateTypeError,
			Name:    root.Name,
			Message: "unknown function",
		}
	}
}

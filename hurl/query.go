// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"gopkg.in/xmlpath.v2"
)

// QueryKind is the closed set of extractors a Query may perform
// against a Response (spec.md section 3/4.6).
type QueryKind int

const (
	QueryStatus QueryKind = iota
	QueryVersion
	QueryURL
	QueryHeader
	QueryCookie
	QueryBody
	QueryXPath
	QueryJSONPath
	QueryRegex
	QueryVariable
	QueryDuration
	QueryBytes
	QuerySHA256
	QueryMD5
	QueryCertificate
	QueryIP
)

var queryNames = map[QueryKind]string{
	QueryStatus:      "status",
	QueryVersion:     "version",
	QueryURL:         "url",
	QueryHeader:      "header",
	QueryCookie:      "cookie",
	QueryBody:        "body",
	QueryXPath:       "xpath",
	QueryJSONPath:    "jsonpath",
	QueryRegex:       "regex",
	QueryVariable:    "variable",
	QueryDuration:    "duration",
	QueryBytes:       "bytes",
	QuerySHA256:      "sha256",
	QueryMD5:         "md5",
	QueryCertificate: "certificate",
	QueryIP:          "ip",
}

func (k QueryKind) String() string { return queryNames[k] }

// Query is the AST node for one extractor, carrying whichever typed
// argument its Kind requires.
type Query struct {
	Kind QueryKind

	HeaderName   *Template
	CookiePath   *Template // "name" or "name[Attr]"
	XPathExpr    *Template
	JSONPathExpr *Template
	RegexExpr    *Template // when the pattern itself is templated
	RegexLiteral string    // when written as a bare /pattern/ literal
	VariableName *Template
	CertAttr     string // "Subject", "Issuer", "ExpireDate", "SerialNumber"

	Source SourceInfo
}

// QueryError is raised when a query cannot produce a value at all
// (as opposed to producing "no result", which is a nil Value).
type QueryError struct {
	Kind    ErrorKind
	Message string
	Source  SourceInfo
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// EvalQuery extracts q's value from resp/call, per spec.md section
// 4.6. A nil *Value with a nil error means "no result" (e.g. a
// missing header); non-nil error means the query itself failed.
func EvalQuery(q *Query, call *Call, vars *VariableSet) (*Value, error) {
	resp := &call.Response
	switch q.Kind {
	case QueryStatus:
		v := Int(int64(resp.StatusCode))
		return &v, nil

	case QueryVersion:
		v := Str(strings.TrimPrefix(resp.Proto, "HTTP/"))
		return &v, nil

	case QueryURL:
		v := Str(call.Request.URL)
		return &v, nil

	case QueryHeader:
		name, err := EvalTemplateString(q.HeaderName, vars)
		if err != nil {
			return nil, err
		}
		vals := resp.Headers.Values(name)
		if len(vals) == 0 {
			return nil, nil
		}
		if len(vals) == 1 {
			v := Str(vals[0])
			return &v, nil
		}
		vs := make([]Value, len(vals))
		for i, s := range vals {
			vs[i] = Str(s)
		}
		v := List(vs)
		return &v, nil

	case QueryCookie:
		path, err := EvalTemplateString(q.CookiePath, vars)
		if err != nil {
			return nil, err
		}
		name, attr := splitCookiePath(path)
		for _, c := range resp.Cookies {
			if c.Name == name {
				v, ok := cookieAttr(c, attr)
				if !ok {
					return nil, nil
				}
				return &v, nil
			}
		}
		return nil, nil

	case QueryBody:
		v := Str(resp.Body.Text())
		return &v, nil

	case QueryXPath:
		expr, err := EvalTemplateString(q.XPathExpr, vars)
		if err != nil {
			return nil, err
		}
		root, err := resp.Body.XML()
		if err != nil {
			return nil, &QueryError{Kind: ErrQueryInvalidXml, Message: err.Error(), Source: q.Source}
		}
		path, err := xmlpath.Compile(expr)
		if err != nil {
			return nil, &QueryError{Kind: ErrQueryInvalidXpathEval, Message: err.Error(), Source: q.Source}
		}
		iter := path.Iter(root)
		count := 0
		var first string
		for iter.Next() {
			if count == 0 {
				first = iter.Node().String()
			}
			count++
		}
		if count == 1 {
			v := Str(first)
			return &v, nil
		}
		v := Nodeset(count)
		return &v, nil

	case QueryJSONPath:
		expr, err := EvalTemplateString(q.JSONPathExpr, vars)
		if err != nil {
			return nil, err
		}
		doc, err := resp.Body.JSON()
		if err != nil {
			return nil, &QueryError{Kind: ErrQueryInvalidJson, Message: err.Error(), Source: q.Source}
		}
		result, err := jsonpath.Get(expr, doc)
		if err != nil {
			return nil, &QueryError{Kind: ErrQueryInvalidJsonpathExpression, Message: err.Error(), Source: q.Source}
		}
		if list, ok := result.([]interface{}); ok && len(list) == 1 {
			v := fromJSONInterface(list[0])
			return &v, nil
		}
		v := fromJSONInterface(result)
		return &v, nil

	case QueryRegex:
		pattern := q.RegexLiteral
		if q.RegexExpr != nil {
			p, err := EvalTemplateString(q.RegexExpr, vars)
			if err != nil {
				return nil, err
			}
			pattern = p
		}
		re, err := compileRegex(pattern)
		if err != nil {
			return nil, &QueryError{Kind: ErrInvalidRegex, Message: err.Error(), Source: q.Source}
		}
		m := re.FindStringSubmatch(resp.Body.Text())
		if m == nil {
			return nil, nil
		}
		if len(m) > 1 {
			v := Str(m[1])
			return &v, nil
		}
		v := Str(m[0])
		return &v, nil

	case QueryVariable:
		name, err := EvalTemplateString(q.VariableName, vars)
		if err != nil {
			return nil, err
		}
		e, ok := vars.Lookup(name)
		if !ok {
			return nil, nil
		}
		v := e.Value
		v.Redacted = e.Redacted
		return &v, nil

	case QueryDuration:
		v := Int(resp.Duration.Milliseconds())
		return &v, nil

	case QueryBytes:
		v := Bin(resp.Body.Raw())
		return &v, nil

	case QuerySHA256:
		h := sha256.Sum256(resp.Body.Raw())
		v := Bin(h[:])
		return &v, nil

	case QueryMD5:
		h := md5.Sum(resp.Body.Raw())
		v := Bin(h[:])
		return &v, nil

	case QueryCertificate:
		if resp.TLS == nil {
			return nil, nil
		}
		switch q.CertAttr {
		case "Subject":
			v := Str(resp.TLS.Subject)
			return &v, nil
		case "Issuer":
			v := Str(resp.TLS.Issuer)
			return &v, nil
		case "ExpireDate":
			v := DateVal(resp.TLS.ExpireDate)
			return &v, nil
		case "SerialNumber":
			v := Str(resp.TLS.SerialNumber)
			return &v, nil
		}
		return nil, nil

	case QueryIP:
		v := Str(resp.RemoteIP)
		return &v, nil
	}
	return nil, &QueryError{Kind: ErrQueryInvalidJson, Message: "unknown query", Source: q.Source}
}

func splitCookiePath(path string) (name, attr string) {
	i := strings.IndexByte(path, '[')
	if i < 0 {
		return path, ""
	}
	name = path[:i]
	rest := path[i+1:]
	j := strings.IndexByte(rest, ']')
	if j < 0 {
		return name, ""
	}
	return name, rest[:j]
}

// runQueryFilters evaluates a query and applies its filter chain to
// the result — shared by Assert and Capture; the caller evaluates any
// predicate.
func runQueryFilters(q *Query, filters []*Filter, call *Call, vars *VariableSet) (*Value, error) {
	v, err := EvalQuery(q, call, vars)
	if err != nil || v == nil {
		return v, err
	}
	cur := *v
	redacted := cur.Redacted
	for _, f := range filters {
		cur, err = applyFilter(f, cur, vars)
		if err != nil {
			return nil, err
		}
		cur.Redacted = redacted
	}
	return &cur, nil
}


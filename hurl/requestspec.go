// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Param is a name/value pair produced by evaluating a KV section
// (query string, form, cookies) against the VariableSet. Redacted
// mirrors the sourcing variable's redaction flag (see Value.Redacted)
// so renderers like CurlCommand can mask it without re-deriving it.
type Param struct {
	Name     string
	Value    string
	Redacted bool
}

// MultipartFieldSpec is one resolved part of a multipart/form-data
// body.
type MultipartFieldSpec struct {
	Name        string
	Value       string // for inline fields
	Redacted    bool
	IsFile      bool
	FileName    string
	FileContent []byte
	ContentType string
}

// RequestSpec is the fully-resolved request the transport will send,
// built by substituting every template in an ast.Request against the
// current VariableSet (spec.md section 4.4).
type RequestSpec struct {
	Method              string
	URL                 string
	Headers             []Param
	Form                []Param
	Multipart           []MultipartFieldSpec
	Cookies             []Param
	Body                []byte
	ImplicitContentType string
}

// BuildRequestSpec evaluates req's templates and sections against
// vars, applying the implicit Content-Type rules of spec.md section
// 4.4. fileRoot is the base directory for `file,` body/part
// references (the CLI's --file-root).
func BuildRequestSpec(req *Request, vars *VariableSet, fileRoot string) (*RequestSpec, error) {
	spec := &RequestSpec{Method: req.Method}

	rawURL, err := EvalTemplateString(req.URL, vars)
	if err != nil {
		return nil, err
	}

	for _, h := range req.Headers {
		name, err := EvalTemplateString(h.Name, vars)
		if err != nil {
			return nil, err
		}
		val, redacted, err := EvalTemplateStringRedacted(h.Value, vars)
		if err != nil {
			return nil, err
		}
		spec.Headers = append(spec.Headers, Param{Name: name, Value: val, Redacted: redacted})
	}

	var queryParams []Param
	for _, sec := range req.Sections {
		switch sec.Kind {
		case SectionQueryParams:
			ps, err := evalKVs(sec.KVs, vars)
			if err != nil {
				return nil, err
			}
			queryParams = append(queryParams, ps...)

		case SectionFormParams:
			ps, err := evalKVs(sec.KVs, vars)
			if err != nil {
				return nil, err
			}
			spec.Form = append(spec.Form, ps...)

		case SectionCookies:
			ps, err := evalKVs(sec.KVs, vars)
			if err != nil {
				return nil, err
			}
			spec.Cookies = append(spec.Cookies, ps...)

		case SectionMultipartFormData:
			for _, p := range sec.MultipartParts {
				name, err := EvalTemplateString(p.Name, vars)
				if err != nil {
					return nil, err
				}
				part := MultipartFieldSpec{Name: name}
				if p.FilePath != nil {
					path, err := EvalTemplateString(p.FilePath, vars)
					if err != nil {
						return nil, err
					}
					data, err := os.ReadFile(resolvePath(fileRoot, path))
					if err != nil {
						return nil, &RunnerError{Kind: ErrFileNotFound, Message: path, Source: p.Source, Cause: err}
					}
					part.IsFile = true
					part.FileName = filepath.Base(path)
					part.FileContent = data
					if p.ContentType != nil {
						ct, err := EvalTemplateString(p.ContentType, vars)
						if err != nil {
							return nil, err
						}
						part.ContentType = ct
					}
				} else {
					val, redacted, err := EvalTemplateStringRedacted(p.Value, vars)
					if err != nil {
						return nil, err
					}
					part.Value = val
					part.Redacted = redacted
				}
				spec.Multipart = append(spec.Multipart, part)
			}

		case SectionBasicAuth:
			user, userRedacted, err := EvalTemplateStringRedacted(sec.BasicAuthUser, vars)
			if err != nil {
				return nil, err
			}
			pass, passRedacted, err := EvalTemplateStringRedacted(sec.BasicAuthPass, vars)
			if err != nil {
				return nil, err
			}
			token := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
			spec.Headers = append(spec.Headers, Param{Name: "Authorization", Value: "Basic " + token, Redacted: userRedacted || passRedacted})
		}
	}

	spec.URL = appendQueryString(rawURL, queryParams)

	if req.Body != nil {
		body, implicitCT, err := evalBody(req.Body, vars, fileRoot)
		if err != nil {
			return nil, err
		}
		spec.Body = body
		spec.ImplicitContentType = implicitCT
	} else if len(spec.Form) > 0 {
		spec.ImplicitContentType = "application/x-www-form-urlencoded"
		spec.Body = []byte(encodeForm(spec.Form))
	} else if len(spec.Multipart) > 0 {
		spec.ImplicitContentType = "multipart/form-data"
	}

	return spec, nil
}

func evalKVs(kvs []KV, vars *VariableSet) ([]Param, error) {
	out := make([]Param, 0, len(kvs))
	for _, kv := range kvs {
		name, err := EvalTemplateString(kv.Name, vars)
		if err != nil {
			return nil, err
		}
		val, redacted, err := EvalTemplateStringRedacted(kv.Value, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, Param{Name: name, Value: val, Redacted: redacted})
	}
	return out, nil
}

func appendQueryString(rawURL string, params []Param) string {
	if len(params) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(rawURL)
	for i, p := range params {
		if i == 0 {
			b.WriteString(sep)
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func encodeForm(params []Param) string {
	v := url.Values{}
	for _, p := range params {
		v.Add(p.Name, p.Value)
	}
	return v.Encode()
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

// evalBody resolves a request/response Body literal against vars,
// returning its wire bytes and the implicit Content-Type it implies
// when no explicit header overrides it (spec.md section 4.4).
func evalBody(b *Body, vars *VariableSet, fileRoot string) ([]byte, string, error) {
	switch b.Kind {
	case BodyText:
		s, err := EvalTemplateString(b.Text, vars)
		if err != nil {
			return nil, "", err
		}
		return []byte(s), "", nil

	case BodyJSON:
		s, err := renderJSONValue(b.JSON, vars)
		if err != nil {
			return nil, "", err
		}
		return []byte(s), "application/json", nil

	case BodyXML:
		return []byte(b.XML), "application/xml", nil

	case BodyMultiline:
		if b.MultilineLang == "graphql" {
			s, err := EvalTemplateString(b.Text, vars)
			if err != nil {
				return nil, "", err
			}
			return []byte(fmt.Sprintf(`{"query":%q}`, s)), "application/json", nil
		}
		s, err := EvalTemplateString(b.Text, vars)
		if err != nil {
			return nil, "", err
		}
		ct := ""
		if b.MultilineLang == "json" {
			ct = "application/json"
		} else if b.MultilineLang == "xml" {
			ct = "application/xml"
		}
		return []byte(s), ct, nil

	case BodyFile:
		path, err := EvalTemplateString(b.FilePath, vars)
		if err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(resolvePath(fileRoot, path))
		if err != nil {
			return nil, "", &RunnerError{Kind: ErrFileNotFound, Message: path, Source: b.Source, Cause: err}
		}
		ct := ""
		if b.ContentType != nil {
			ct, err = EvalTemplateString(b.ContentType, vars)
			if err != nil {
				return nil, "", err
			}
		}
		return data, ct, nil

	case BodyBase64:
		return b.Bytes, "", nil

	case BodyHex:
		return b.Bytes, "", nil
	}
	return nil, "", fmt.Errorf("unknown body kind %v", b.Kind)
}

// renderJSONValue serializes a JSONValue<Template> body to its final
// JSON text, evaluating every template leaf (string values and object
// keys) and preserving every number's original lexical spelling.
func renderJSONValue(v *JSONValue, vars *VariableSet) (string, error) {
	var b strings.Builder
	if err := writeJSONValue(&b, v, vars); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSONValue(b *strings.Builder, v *JSONValue, vars *VariableSet) error {
	switch v.Kind {
	case JSONNull:
		b.WriteString("null")
	case JSONBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case JSONNumber:
		b.WriteString(v.NumberLexical)
	case JSONString:
		s, err := EvalTemplateString(v.Str, vars)
		if err != nil {
			return err
		}
		writeJSONString(b, s)
	case JSONArray:
		b.WriteByte('[')
		for i, e := range v.Array {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeJSONValue(b, e, vars); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case JSONObject:
		b.WriteByte('{')
		for i, m := range v.Object {
			if i > 0 {
				b.WriteByte(',')
			}
			key, err := EvalTemplateString(m.Key, vars)
			if err != nil {
				return err
			}
			writeJSONString(b, key)
			b.WriteByte(':')
			if err := writeJSONValue(b, m.Value, vars); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	}
	return nil
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

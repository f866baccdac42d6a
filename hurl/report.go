// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"
)

// ResultDocument mirrors spec.md section 6's "Hurl result JSON" shape:
// one object per file with a stable field set, so the same conversion
// backs both `--json` (stdout) and `--report-json` (file).
type ResultDocument struct {
	Filename string        `json:"filename"`
	Success  bool          `json:"success"`
	Time     float64       `json:"time"` // seconds
	Entries  []EntryDoc    `json:"entries"`
	Cookies  []CookieDoc   `json:"cookies,omitempty"`
}

type EntryDoc struct {
	Index    int          `json:"index"`
	Calls    []CallDoc    `json:"calls"`
	Captures []CaptureDoc `json:"captures,omitempty"`
	Asserts  []string     `json:"asserts,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
	Success  bool         `json:"success"`
}

type CallDoc struct {
	Request  RequestDoc  `json:"request"`
	Response ResponseDoc `json:"response"`
	Timings  TimingsDoc  `json:"timings"`
}

type RequestDoc struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers,omitempty"`
}

type ResponseDoc struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"`
}

type TimingsDoc struct {
	TotalMs int64 `json:"total_ms"`
}

type CaptureDoc struct {
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
	Redacted bool        `json:"redacted,omitempty"`
}

type CookieDoc struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BuildResultDocuments converts runner results into the stable
// reporting shape, redacting captures flagged Redacted the same way
// RedactedString does for log lines.
func BuildResultDocuments(results []*HurlResult) []ResultDocument {
	docs := make([]ResultDocument, 0, len(results))
	for _, r := range results {
		docs = append(docs, buildResultDocument(r))
	}
	return docs
}

func buildResultDocument(r *HurlResult) ResultDocument {
	doc := ResultDocument{
		Filename: r.File,
		Success:  r.Success,
		Time:     r.Duration.Seconds(),
	}
	for _, c := range r.Cookies {
		doc.Cookies = append(doc.Cookies, CookieDoc{Name: c.Name, Value: c.Value})
	}
	for _, er := range r.Entries {
		doc.Entries = append(doc.Entries, buildEntryDoc(er))
	}
	return doc
}

func buildEntryDoc(er *EntryResult) EntryDoc {
	ed := EntryDoc{Index: er.EntryIndex, Success: er.Success()}
	for _, call := range er.Calls {
		ed.Calls = append(ed.Calls, CallDoc{
			Request: RequestDoc{
				Method:  call.Request.Method,
				URL:     call.Request.URL,
				Headers: map[string][]string(call.Request.Headers),
			},
			Response: ResponseDoc{
				Status:  call.Response.StatusCode,
				Headers: map[string][]string(call.Response.Headers),
				Body:    call.Response.Body.Text(),
			},
			Timings: TimingsDoc{TotalMs: call.Timings.Total.Milliseconds()},
		})
	}
	for _, cap := range er.Captures {
		var v interface{}
		if cap.Redacted {
			v = "***"
		} else {
			v = valueToJSON(cap.Value)
		}
		ed.Captures = append(ed.Captures, CaptureDoc{Name: cap.Name, Value: v, Redacted: cap.Redacted})
	}
	ed.Asserts = er.AssertErrors.AsStrings()
	ed.Errors = er.RuntimeErrors.AsStrings()
	return ed
}

// valueToJSON converts a runtime Value into a plain Go value suitable
// for encoding/json, matching the same textual rendering CoerceString
// uses for scalars.
func valueToJSON(v Value) interface{} {
	switch v.Kind {
	case KindNull, KindUnit:
		return nil
	case KindBool:
		return v.Bool
	case KindInteger:
		return v.Int
	case KindBigInteger:
		return v.Big
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = valueToJSON(e)
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Obj))
		for _, f := range v.Obj {
			out[f.Key] = valueToJSON(f.Value)
		}
		return out
	case KindDate:
		return v.Date.Format("2006-01-02T15:04:05Z07:00")
	case KindRegex:
		if v.Regex != nil {
			return v.Regex.String()
		}
		return nil
	case KindNodeset:
		return v.Count
	}
	return nil
}

// WriteJSONReport writes the stable result-document array, used by
// both `--json` and `--report-json`.
func WriteJSONReport(w io.Writer, results []*HurlResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildResultDocuments(results))
}

// junit XML shape, modeled on the subset every CI system's JUnit
// parser actually reads: testsuites > testsuite > testcase, with a
// failure or error child element when applicable.
type junitTestsuites struct {
	XMLName xml.Name       `xml:"testsuites"`
	Suites  []junitSuite   `xml:"testsuite"`
}

type junitSuite struct {
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Time     float64          `xml:"time,attr"`
	Cases    []junitTestcase  `xml:"testcase"`
}

type junitTestcase struct {
	Name    string        `xml:"name,attr"`
	Time    float64       `xml:"time,attr"`
	Failure *junitMessage `xml:"failure,omitempty"`
	Error   *junitMessage `xml:"error,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnitReport renders one testsuite per file and one testcase
// per entry.
func WriteJUnitReport(w io.Writer, results []*HurlResult) error {
	out := junitTestsuites{}
	for _, r := range results {
		suite := junitSuite{Name: r.File, Time: r.Duration.Seconds()}
		for _, er := range r.Entries {
			tc := junitTestcase{
				Name: fmt.Sprintf("%s#%d", r.File, er.EntryIndex),
				Time: er.Duration.Seconds(),
			}
			suite.Tests++
			if errs := er.RuntimeErrors.AsStrings(); len(errs) > 0 {
				suite.Errors++
				tc.Error = &junitMessage{Message: errs[0], Body: strings.Join(errs, "\n")}
			} else if asserts := er.AssertErrors.AsStrings(); len(asserts) > 0 {
				suite.Failures++
				tc.Failure = &junitMessage{Message: asserts[0], Body: strings.Join(asserts, "\n")}
			}
			suite.Cases = append(suite.Cases, tc)
		}
		out.Suites = append(out.Suites, suite)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(out)
}

// WriteTAPReport renders the Test Anything Protocol format, one line
// per entry across every file.
func WriteTAPReport(w io.Writer, results []*HurlResult) error {
	total := 0
	for _, r := range results {
		total += len(r.Entries)
	}
	if _, err := fmt.Fprintf(w, "1..%d\n", total); err != nil {
		return err
	}
	n := 0
	for _, r := range results {
		for _, er := range r.Entries {
			n++
			name := fmt.Sprintf("%s entry %d", r.File, er.EntryIndex)
			if er.Success() {
				fmt.Fprintf(w, "ok %d - %s\n", n, name)
				continue
			}
			fmt.Fprintf(w, "not ok %d - %s\n", n, name)
			for _, msg := range append(er.RuntimeErrors.AsStrings(), er.AssertErrors.AsStrings()...) {
				fmt.Fprintf(w, "# %s\n", msg)
			}
		}
	}
	return nil
}

// WriteHTMLReport renders a minimal standalone HTML summary: one
// table row per file, expandable detail isn't attempted here, the
// point is a readable CI artifact rather than a full dashboard.
func WriteHTMLReport(w io.Writer, results []*HurlResult) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>hurl report</title>")
	b.WriteString("<style>body{font-family:sans-serif}td,th{padding:4px 8px;border:1px solid #ccc}" +
		".ok{color:green}.fail{color:#b00}</style></head><body>\n")
	b.WriteString("<h1>hurl run report</h1>\n<table>\n<tr><th>file</th><th>status</th><th>entries</th><th>time</th></tr>\n")
	for _, r := range results {
		status, class := "ok", "ok"
		if !r.Success {
			status, class = "fail", "fail"
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td class=%q>%s</td><td>%d</td><td>%.3fs</td></tr>\n",
			html.EscapeString(r.File), class, status, len(r.Entries), r.Duration.Seconds())
	}
	b.WriteString("</table>\n</body></html>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrorList collects the independent runtime/assert errors one Hurl
// entry can accumulate under continue_on_error: a capture or assert
// failure does not necessarily stop the entry, so the runner gathers
// every failure into a list instead of returning on the first one.
type ErrorList []error

// Append adds err to el. A nil err is a no-op; an ErrorList argument
// is flattened rather than nested, so AsStrings never prints a
// list-within-a-list.
func (el ErrorList) Append(err error) ErrorList {
	if err == nil {
		return el
	}
	if list, ok := err.(ErrorList); ok {
		return append(el, list...)
	}
	return append(el, err)
}

// Error implements the error interface, joining every entry with
// ";  " so a multi-failure entry still prints as one
// error value when passed to log.Print or wrapped by another error.
func (el ErrorList) Error() string {
	return strings.Join(el.AsStrings(), ";  ")
}

// AsError returns el, or nil for an empty list, so a freshly
// zero-valued ErrorList can be returned directly from a function
// whose caller checks err != nil.
func (el ErrorList) AsError() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// AsStrings renders el's (flattened) entries, one per assert or
// runtime failure, for the JSON/HTML/JUnit/TAP report writers in
// report.go and for --error-format's one-line-per-failure rendering.
func (el ErrorList) AsStrings() []string {
	s := []string{}
	for _, e := range el {
		if nel, ok := e.(ErrorList); ok {
			s = append(s, nel.AsStrings()...)
		} else {
			s = append(s, e.Error())
		}
	}
	return s
}

// PrintlnStderr prints el's failures to stderr, one per line, the way
// the CLI reports a failed entry's asserts when not writing --json.
func (el ErrorList) PrintlnStderr() {
	for _, msg := range el.AsStrings() {
		fmt.Fprintln(os.Stderr, msg)
	}
}

// ExecutedRequest records the request as actually sent over the wire,
// after template substitution, query-string/body construction and
// header merging.
type ExecutedRequest struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response captures one HTTP response together with its lazily
// parsed body views.
type Response struct {
	StatusCode int
	Proto      string // e.g. "HTTP/1.1"
	Headers    http.Header
	Cookies    []*http.Cookie
	Body       *BodyCache
	Duration   time.Duration
	RemoteIP   string
	TLS        *TLSInfo
}

// TLSInfo is the subset of connection-state certificate data exposed
// to the Certificate query.
type TLSInfo struct {
	Subject       string
	Issuer        string
	ExpireDate    time.Time
	SerialNumber  string
}

// Call is one request/response pair. An entry produces more than one
// Call when it is retried or when redirects are followed.
type Call struct {
	Request  ExecutedRequest
	Response Response
	Timings  Timings
}

// Timings breaks a call's duration into standard phases; transport
// internals (DNS, TCP, TLS handshake) are owned by net/http and
// reported only in aggregate here.
type Timings struct {
	Total time.Duration
}

// AssertFailure is the result of a failed predicate evaluation.
type AssertFailure struct {
	Actual       string
	Expected     string
	TypeMismatch bool
	Source       SourceInfo
}

func (f *AssertFailure) Error() string {
	if f.TypeMismatch {
		return "assert failure (type mismatch): actual=" + f.Actual + " expected=" + f.Expected
	}
	return "assert failure: actual=" + f.Actual + " expected=" + f.Expected
}

// RunnerError is a runtime error encountered while building, sending
// or inspecting one entry: a template, query, filter, HTTP transport
// or IO failure.
type RunnerError struct {
	Kind    ErrorKind
	Message string
	Source  SourceInfo
	Cause   error
}

func (e *RunnerError) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *RunnerError) Unwrap() error { return e.Cause }

// CaptureResult is one named value extracted during an entry's
// Inspect phase.
type CaptureResult struct {
	Name     string
	Value    Value
	Redacted bool
}

// EntryResult is the outcome of running one entry, possibly across
// several Calls (retries).
type EntryResult struct {
	EntryIndex    int
	Calls         []Call
	Captures      []CaptureResult
	AssertErrors  ErrorList
	RuntimeErrors ErrorList
	Retries       int
	Duration      time.Duration
	Cancelled     bool
}

// Success reports whether the entry produced no runtime or assertion
// errors and was not cancelled.
func (r *EntryResult) Success() bool {
	return !r.Cancelled && len(r.AssertErrors) == 0 && len(r.RuntimeErrors) == 0
}

// HurlResult is the outcome of running one whole Hurl file.
type HurlResult struct {
	File      string
	Entries   []*EntryResult
	Success   bool
	Duration  time.Duration
	Cookies   []*http.Cookie
	Variables *VariableSet
}

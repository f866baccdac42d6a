// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"context"
	"time"
)

// RunConfig bundles everything a per-entry run needs beyond the
// Entry AST node itself: the shared mutable state (VariableSet,
// Client) and the options in effect for this file.
type RunConfig struct {
	Client       *Client
	Vars         *VariableSet
	Options      ClientOptions
	FileRoot     string
	ContinueOnErr bool
	Cancel       <-chan struct{} // closed to request cooperative cancellation
}

// RunEntry executes one entry's Idle -> Build -> Execute -> Inspect ->
// (Retry|Done) state machine (spec.md section 4.5).
func RunEntry(ctx context.Context, entry *Entry, index int, cfg *RunConfig) *EntryResult {
	result := &EntryResult{EntryIndex: index}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	select {
	case <-cfg.Cancel:
		result.Cancelled = true
		return result
	default:
	}

	opts, err := ApplyEntryOptions(cfg.Options, entryOptions(entry), cfg.Vars)
	if err != nil {
		result.RuntimeErrors = result.RuntimeErrors.Append(err)
		return result
	}

	tried := 0
	for {
		select {
		case <-cfg.Cancel:
			result.Cancelled = true
			return result
		default:
		}

		spec, err := BuildRequestSpec(entry.Request, cfg.Vars, cfg.FileRoot)
		if err != nil {
			result.RuntimeErrors = result.RuntimeErrors.Append(err)
			tried++
			if opts.Retry.Exhausted(tried) {
				return result
			}
			sleep(opts.RetryInterval, cfg.Cancel)
			continue
		}

		calls, err := cfg.Client.Execute(ctx, spec, opts)
		result.Calls = append(result.Calls, calls...)
		if err != nil {
			result.RuntimeErrors = ErrorList{err}
			tried++
			if opts.Retry.Exhausted(tried) {
				return result
			}
			sleep(opts.RetryInterval, cfg.Cancel)
			continue
		}

		lastCall := &result.Calls[len(result.Calls)-1]
		assertErrs, runtimeErrs, captures := inspect(entry, lastCall, cfg.Vars)
		result.AssertErrors = assertErrs
		result.RuntimeErrors = runtimeErrs
		result.Captures = captures
		for _, cap := range captures {
			cfg.Vars.Set(cap.Name, cap.Value, SourceCapture, cap.Redacted)
		}

		if len(assertErrs) == 0 && len(runtimeErrs) == 0 {
			return result
		}
		tried++
		result.Retries = tried
		if opts.Retry.Exhausted(tried) {
			return result
		}
		sleep(opts.RetryInterval, cfg.Cancel)
	}
}

func sleep(d time.Duration, cancel <-chan struct{}) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-cancel:
	}
}

func entryOptions(entry *Entry) []OptionEntry {
	for _, sec := range entry.Request.Sections {
		if sec.Kind == SectionOptions {
			return sec.Options
		}
	}
	return nil
}

// inspect runs every capture, then every assert, then the implicit
// asserts a declared ResponseSpec carries (status/version/headers/
// body), per spec.md section 4.5's Inspect phase.
func inspect(entry *Entry, call *Call, vars *VariableSet) (ErrorList, ErrorList, []CaptureResult) {
	var assertErrs, runtimeErrs ErrorList
	var captures []CaptureResult

	if entry.Response == nil {
		return assertErrs, runtimeErrs, captures
	}

	for _, sec := range entry.Response.Sections {
		if sec.Kind != SectionCaptures {
			continue
		}
		for _, cap := range sec.Captures {
			v, err := runQueryFilters(cap.Query, cap.Filters, call, vars)
			if err != nil {
				runtimeErrs = runtimeErrs.Append(err)
				continue
			}
			if v == nil {
				runtimeErrs = runtimeErrs.Append(&RunnerError{Kind: ErrQueryInvalidJson, Message: "capture query produced no value", Source: cap.Source})
				continue
			}
			captures = append(captures, CaptureResult{Name: cap.Name, Value: *v, Redacted: cap.Redact})
		}
	}

	for _, sec := range entry.Response.Sections {
		if sec.Kind != SectionAsserts {
			continue
		}
		for _, a := range sec.Asserts {
			v, err := runQueryFilters(a.Query, a.Filters, call, vars)
			if err != nil {
				runtimeErrs = runtimeErrs.Append(err)
				continue
			}
			res, err := EvalPredicate(a.Predicate, v, vars)
			if err != nil {
				runtimeErrs = runtimeErrs.Append(err)
				continue
			}
			if !res.Success {
				assertErrs = assertErrs.Append(&AssertFailure{
					Actual:       res.ActualStr,
					Expected:     res.ExpectedStr,
					TypeMismatch: res.TypeMismatch,
					Source:       a.Source,
				})
			}
		}
	}

	assertErrs = append(assertErrs, implicitAsserts(entry.Response, call, vars)...)

	return assertErrs, runtimeErrs, captures
}

// implicitAsserts checks the response's declared status/version/
// headers/body against the actual response, independent of any
// explicit [Asserts] section.
func implicitAsserts(spec *ResponseSpec, call *Call, vars *VariableSet) ErrorList {
	var errs ErrorList

	if !spec.Status.Any {
		if call.Response.StatusCode != spec.Status.Code {
			errs = errs.Append(&AssertFailure{
				Actual:   itoa(call.Response.StatusCode),
				Expected: itoa(spec.Status.Code),
				Source:   spec.Source,
			})
		}
	}

	if spec.Version != "" && !spec.VersionAny {
		actual := trimHTTPPrefix(call.Response.Proto)
		if actual != spec.Version {
			errs = errs.Append(&AssertFailure{Actual: actual, Expected: spec.Version, Source: spec.Source})
		}
	}

	for _, h := range spec.Headers {
		name, err := EvalTemplateString(h.Name, vars)
		if err != nil {
			errs = errs.Append(err)
			continue
		}
		want, err := EvalTemplateString(h.Value, vars)
		if err != nil {
			errs = errs.Append(err)
			continue
		}
		got := call.Response.Headers.Get(name)
		if got != want {
			errs = errs.Append(&AssertFailure{Actual: got, Expected: want, Source: h.Source})
		}
	}

	if spec.Body != nil {
		want, _, err := evalBody(spec.Body, vars, "")
		if err != nil {
			errs = errs.Append(err)
		} else if string(want) != call.Response.Body.Text() {
			errs = errs.Append(&AssertFailure{Actual: call.Response.Body.Text(), Expected: string(want), Source: spec.Body.Source})
		}
	}

	return errs
}

func trimHTTPPrefix(proto string) string {
	const prefix = "HTTP/"
	if len(proto) > len(prefix) && proto[:len(prefix)] == prefix {
		return proto[len(prefix):]
	}
	return proto
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

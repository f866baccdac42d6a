// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"fmt"
	"strings"
)

// CurlCommand renders spec as the equivalent curl command line, using
// a deterministic flag ordering: method and headers first, then body,
// then cookies, then every other supported curl flag in a fixed order,
// URL last.
func CurlCommand(spec *RequestSpec, opts ClientOptions) string {
	var parts []string
	parts = append(parts, "curl")

	if spec.Method != "GET" {
		parts = append(parts, "--request", spec.Method)
	}

	for _, h := range spec.Headers {
		parts = append(parts, "--header", shellQuote(h.Name+": "+curlMask(h.Value, h.Redacted)))
	}

	if len(spec.Body) > 0 {
		data := curlDataArg(spec.Body)
		if data == string(spec.Body) {
			parts = append(parts, "--data", shellQuote(data))
		} else {
			parts = append(parts, "--data", "$'"+data+"'")
		}
	}

	for _, c := range spec.Cookies {
		parts = append(parts, "--cookie", shellQuote(c.Name+"="+curlMask(c.Value, c.Redacted)))
	}

	// Transport flags follow the canonical curl-option ordering (spec.md
	// section 6): ... compressed, connect-timeout, connect-to, cookie,
	// http-version, insecure, ip, location, ..., max-redirs, ..., proxy,
	// resolve, ..., timeout, ..., user, ...
	if opts.Compressed {
		parts = append(parts, "--compressed")
	}
	if opts.ConnectTimeout > 0 {
		parts = append(parts, "--connect-timeout", fmt.Sprintf("%d", int(opts.ConnectTimeout.Seconds())))
	}
	if opts.Insecure {
		parts = append(parts, "--insecure")
	}
	if opts.FollowLocation {
		parts = append(parts, "--location")
	}
	if opts.MaxRedirs > 0 && opts.MaxRedirs != 50 {
		parts = append(parts, "--max-redirs", fmt.Sprintf("%d", opts.MaxRedirs))
	}
	if opts.Proxy != "" {
		parts = append(parts, "--proxy", shellQuote(opts.Proxy))
	}
	for _, r := range opts.Resolve {
		parts = append(parts, "--resolve", shellQuote(r))
	}
	if opts.MaxTime > 0 {
		parts = append(parts, "--max-time", fmt.Sprintf("%d", int(opts.MaxTime.Seconds())))
	}
	if opts.User != "" {
		parts = append(parts, "--user", shellQuote(opts.User))
	}

	url := spec.URL
	if strings.ContainsAny(url, "{}[]") {
		parts = append(parts, "--globoff")
	}
	parts = append(parts, shellQuote(url))

	return strings.Join(parts, " ")
}

// curlDataArg renders a request body as curl's --data argument,
// escaping non-printable bytes as \xHH so the command stays on one
// line and is safe to paste into a shell.
func curlDataArg(body []byte) string {
	var b strings.Builder
	for _, c := range body {
		if c >= 0x20 && c < 0x7f && c != '\'' && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	return b.String()
}

// shellQuote wraps s in single quotes, escaping any embedded single
// quote the POSIX-shell way ('\'').
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// curlMask replaces value with "***" when it was sourced from a
// redacted variable, per spec.md section 7/9: a --curl rendering is a
// log artifact like any other and must never leak a secret.
func curlMask(value string, redacted bool) string {
	if redacted {
		return "***"
	}
	return value
}

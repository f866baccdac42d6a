// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import "time"

// Count is the retry/repeat count type: a finite non-negative number
// or "infinite" (spec.md section 4.5, CLI `--retry -1`).
type Count struct {
	Infinite bool
	N        int
}

func FiniteCount(n int) Count { return Count{N: n} }
func InfiniteCount() Count    { return Count{Infinite: true} }

// Exhausted reports whether `tried` attempts have used up c.
func (c Count) Exhausted(tried int) bool {
	if c.Infinite {
		return false
	}
	return tried >= c.N
}

// ClientOptions mirrors the CLI surface of spec.md section 6 that
// affects how a single entry is built and sent. Per-entry [Options]
// overrides are merged onto a copy of the run's global ClientOptions
// before each entry's Build phase (scalar options replace, list
// options append, per spec.md section 4.4).
type ClientOptions struct {
	ConnectTimeout  time.Duration
	MaxTime         time.Duration
	Retry           Count
	RetryInterval   time.Duration
	FollowLocation  bool
	MaxRedirs       int
	Insecure        bool
	User            string // "user:pass" for implicit basic auth, CLI --user
	Compressed      bool
	Proxy           string
	Resolve         []string
	Variables       map[string]string
	Secrets         map[string]string // like Variables, but seeded with Redacted=true
	Delay           time.Duration
	FromEntry       int
	ToEntry         int // 0 means "to the end"
	ContinueOnError bool
}

// DefaultClientOptions returns the options in effect when neither the
// CLI nor an [Options] section overrides them.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		ConnectTimeout: 0,
		MaxTime:        0,
		Retry:          FiniteCount(0),
		RetryInterval:  1 * time.Second,
		FollowLocation: false,
		MaxRedirs:      50,
	}
}

// ApplyEntryOptions returns a copy of base with the entry's [Options]
// section overrides merged in.
func ApplyEntryOptions(base ClientOptions, opts []OptionEntry, vars *VariableSet) (ClientOptions, error) {
	out := base
	for _, o := range opts {
		if err := applyOneOption(&out, o, vars); err != nil {
			return out, err
		}
	}
	return out, nil
}

func applyOneOption(out *ClientOptions, o OptionEntry, vars *VariableSet) error {
	switch o.Name {
	case "connect-timeout":
		out.ConnectTimeout = time.Duration(o.Duration) * time.Millisecond
	case "max-time":
		out.MaxTime = time.Duration(o.Duration) * time.Millisecond
	case "retry":
		if o.Int < 0 {
			out.Retry = InfiniteCount()
		} else {
			out.Retry = FiniteCount(o.Int)
		}
	case "retry-interval":
		out.RetryInterval = time.Duration(o.Duration) * time.Millisecond
	case "follow-location", "location":
		out.FollowLocation = o.Bool
	case "max-redirs":
		out.MaxRedirs = o.Int
	case "insecure":
		out.Insecure = o.Bool
	case "user":
		out.User = o.Str
	case "compressed":
		out.Compressed = o.Bool
	case "proxy":
		out.Proxy = o.Str
	case "resolve":
		out.Resolve = append(out.Resolve, o.Str)
	case "delay":
		out.Delay = time.Duration(o.Duration) * time.Millisecond
	case "variable":
		// "name=value", type-inferred the same way as --variable.
		name, val := splitNameValue(o.Str)
		if name != "" {
			vars.Set(name, InferVariableValue(val), SourceOption, false)
		}
	}
	return nil
}

func splitNameValue(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:]
		}
	}
	return "", ""
}

// InferVariableValue implements the CLI's `--variable K=V` type
// inference: bool/number literals become their typed Value, "null"
// becomes Null, everything else is a string.
func InferVariableValue(s string) Value {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	}
	if looksLikeNumber(s) {
		return numberFromLexical(s)
	}
	return Str(s)
}

func looksLikeNumber(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i++
	}
	if i == len(s) {
		return false
	}
	seenDot := false
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' && !seenDot {
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

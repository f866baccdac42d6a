// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"context"
	"net/url"
	"time"
)

// RunFile runs every entry of file in order, sharing one VariableSet
// and one Client (and therefore one cookie jar) across the whole
// file, per spec.md section 4.5/5's "one runner per file" model.
func RunFile(ctx context.Context, filename string, file *HurlFile, client *Client, vars *VariableSet, opts ClientOptions, fileRoot string, cancel <-chan struct{}) *HurlResult {
	result := &HurlResult{File: filename, Success: true, Variables: vars}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	from := opts.FromEntry
	to := opts.ToEntry
	if to <= 0 || to > len(file.Entries) {
		to = len(file.Entries)
	}
	if from < 0 {
		from = 0
	}

	cfg := &RunConfig{Client: client, Vars: vars, Options: opts, FileRoot: fileRoot, Cancel: cancel}

	var lastURL *url.URL
	for i := from; i < to; i++ {
		entry := file.Entries[i]

		select {
		case <-cancel:
			result.Success = false
			return result
		default:
		}

		if opts.Delay > 0 && i > from {
			t := time.NewTimer(opts.Delay)
			select {
			case <-t.C:
			case <-cancel:
				t.Stop()
				result.Success = false
				return result
			}
			t.Stop()
		}

		er := RunEntry(ctx, entry, i, cfg)
		result.Entries = append(result.Entries, er)
		if len(er.Calls) > 0 {
			if u, err := url.Parse(er.Calls[len(er.Calls)-1].Request.URL); err == nil {
				lastURL = u
			}
		}

		if !er.Success() {
			result.Success = false
			if !continueOnError(entry, opts.ContinueOnError) {
				break
			}
		}
	}

	if client.Jar != nil && lastURL != nil {
		result.Cookies = client.Jar.Jar.Cookies(lastURL)
	}

	return result
}

// continueOnError reports whether the file should keep running past a
// failed entry: entry's own [Options] section, if it sets
// continue-on-error, wins; otherwise the run's global default applies.
func continueOnError(entry *Entry, fallback bool) bool {
	for _, o := range entryOptions(entry) {
		if o.Name == "continue-on-error" {
			return o.Bool
		}
	}
	return fallback
}

// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hurl runs Hurl files: plain-text HTTP request/response
// scripts with captures and assertions (see the hurl package).
//
// This binary is deliberately thin: it owns flag parsing, file
// loading and exit-code selection, and delegates every actual
// decision to the hurl package's typed Options/RunConfig structs, the
// way cmd/ht delegates to the ht package.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/hjson/hjson-go/v4"

	"github.com/vdobler/hurlgo/hurl"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hurl", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: hurl [flags] FILE.hurl...\n\n")
		fs.PrintDefaults()
	}
	addVariableFlags(fs)

	test := fs.Bool("test", false, "test mode: suppress body output, enable progress bar, set exit code from failures")
	parallel := fs.Bool("parallel", false, "run files through the parallel executor")
	jobs := fs.Int("jobs", 0, "number of parallel workers (0 = min(8, NumCPU))")
	connectTimeout := fs.Float64("connect-timeout", 0, "connection timeout in seconds")
	maxTime := fs.Float64("max-time", 0, "overall request timeout in seconds")
	retry := fs.Int("retry", 0, "retry count per entry, -1 for infinite")
	retryInterval := fs.Int("retry-interval", 1000, "milliseconds between retries")
	repeat := fs.Int("repeat", 1, "repeat the whole input sequence N times")
	continueOnError := fs.Bool("continue-on-error", false, "keep running entries past a failure within one file")
	followLocation := fs.Bool("follow-location", false, "follow redirects")
	maxRedirs := fs.Int("max-redirs", 50, "maximum redirects to follow")
	insecure := fs.Bool("insecure", false, "disable TLS certificate verification")
	compressed := fs.Bool("compressed", false, "request a compressed response")
	proxy := fs.String("proxy", "", "HTTP proxy to use")
	user := fs.String("user", "", "user:password for implicit Basic auth")
	fileRoot := fs.String("file-root", "", "base directory for file, references in bodies")
	reportHTML := fs.String("report-html", "", "write an HTML report to `dir|file`")
	reportJSON := fs.String("report-json", "", "write a JSON report to `dir|file`")
	reportJUnit := fs.String("report-junit", "", "write a JUnit XML report to `dir|file`")
	reportTAP := fs.String("report-tap", "", "write a TAP report to `dir|file`")
	curlFile := fs.String("curl", "", "also write equivalent curl commands to `file`")
	jsonOut := fs.Bool("json", false, "emit a JSON result document to stdout instead of bodies")
	output := fs.String("output", "", "redirect response bodies to `file` instead of stdout")
	noOutput := fs.Bool("no-output", false, "suppress response body output entirely")
	includeHeaders := fs.Bool("include", false, "include response headers in body output")
	verbose := fs.Bool("verbose", false, "print request/response summaries")
	veryVerbose := fs.Bool("very-verbose", false, "print full request/response detail")
	pretty := fs.Bool("pretty", false, "pretty-print JSON response bodies")
	noPretty := fs.Bool("no-pretty", false, "disable JSON pretty-printing")
	color := fs.Bool("color", false, "force colored output")
	noColor := fs.Bool("no-color", false, "disable colored output")
	errorFormat := fs.String("error-format", "short", "error rendering: short|long")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	filenames := fs.Args()
	if len(filenames) == 0 {
		fmt.Fprintln(os.Stderr, "hurl: no input files")
		fs.Usage()
		return 1
	}
	if *errorFormat != "short" && *errorFormat != "long" {
		fmt.Fprintf(os.Stderr, "hurl: invalid -error-format %q\n", *errorFormat)
		return 1
	}
	_, _, _ = includeHeaders, verbose, veryVerbose // output-shaping flags for a verbose body dump, not yet exercised by writeBodies

	vars := hurl.NewVariableSet()
	if err := loadVariableFiles(vars, variableFiles, hurl.SourceFile, false); err != nil {
		log.Print(err)
		return 1
	}
	secretVars := hurl.NewVariableSet()
	if err := loadVariableFiles(secretVars, secretFiles, hurl.SourceFile, true); err != nil {
		log.Print(err)
		return 1
	}
	for name, val := range variablesFlag {
		vars.Set(name, hurl.InferVariableValue(val), hurl.SourceCLI, false)
	}
	for name, val := range secretsFlag {
		secretVars.Set(name, hurl.InferVariableValue(val), hurl.SourceCLI, true)
	}

	cliVars := coerceVars(vars)
	cliSecrets := coerceVars(secretVars)

	opts := hurl.DefaultClientOptions()
	opts.ConnectTimeout = time.Duration(*connectTimeout * float64(time.Second))
	opts.MaxTime = time.Duration(*maxTime * float64(time.Second))
	if *retry < 0 {
		opts.Retry = hurl.InfiniteCount()
	} else {
		opts.Retry = hurl.FiniteCount(*retry)
	}
	opts.RetryInterval = time.Duration(*retryInterval) * time.Millisecond
	opts.ContinueOnError = *continueOnError
	opts.FollowLocation = *followLocation
	opts.MaxRedirs = *maxRedirs
	opts.Insecure = *insecure
	opts.Compressed = *compressed
	opts.Proxy = *proxy
	opts.User = *user
	opts.Variables = cliVars
	opts.Secrets = cliSecrets

	files := make([]*hurl.HurlFile, len(filenames))
	for i, fn := range filenames {
		src, err := os.ReadFile(fn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hurl: %s: %v\n", fn, err)
			return 1
		}
		hf, err := hurl.ParseHurlFile(fn, string(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, renderError(err, *errorFormat == "long"))
			return 2
		}
		files[i] = hf
	}

	workers := *jobs
	if !*parallel {
		workers = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var progress *os.File
	if *test && isTerminal(os.Stderr) && os.Getenv("CI") == "" {
		progress = os.Stderr
	}

	var allResults []*hurl.HurlResult
	n := *repeat
	if n < 1 {
		n = 1
	}
	for round := 0; round < n; round++ {
		results, _ := hurl.RunFiles(ctx, filenames, files, hurl.ExecutorConfig{
			Workers:     workers,
			FileRoot:    *fileRoot,
			Options:     opts,
			Progress:    progressWriter(progress),
			ProgressTTY: progress != nil,
		})
		allResults = append(allResults, results...)
	}

	if !*noOutput && !*jsonOut {
		writeBodies(allResults, *output, *pretty && !*noPretty, (*color && !*noColor))
	}
	if !*jsonOut {
		printFailures(allResults)
	}
	if *jsonOut {
		if err := hurl.WriteJSONReport(os.Stdout, allResults); err != nil {
			log.Print(err)
		}
	}
	if *curlFile != "" {
		if err := writeCurlFile(*curlFile, files, filenames, allResults, opts, *fileRoot); err != nil {
			log.Print(err)
		}
	}
	if err := writeReports(allResults, reportHTML, reportJSON, reportJUnit, reportTAP); err != nil {
		log.Print(err)
	}

	return exitCode(allResults)
}

// progressWriter converts a possibly-nil *os.File into a genuinely
// nil io.Writer: assigning a nil *os.File straight to an io.Writer
// field would produce a non-nil interface wrapping a nil pointer.
func progressWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}

// exitCode implements spec.md section 6's priority rule: parse errors
// cannot reach here (they return 2 directly above); among run
// results, any runtime/transport error dominates any assertion
// failure, which in turn dominates plain success.
func exitCode(results []*hurl.HurlResult) int {
	sawRuntimeErr := false
	sawAssertErr := false
	for _, r := range results {
		for _, er := range r.Entries {
			if len(er.RuntimeErrors) > 0 {
				sawRuntimeErr = true
			}
			if len(er.AssertErrors) > 0 {
				sawAssertErr = true
			}
		}
	}
	switch {
	case sawRuntimeErr:
		return 3
	case sawAssertErr:
		return 4
	default:
		return 0
	}
}

func renderError(err error, long bool) string {
	if fe, ok := err.(*hurl.FileError); ok {
		fe.Long = long
		if !long {
			fe.Source = ""
		}
		return fe.Error()
	}
	return err.Error()
}

// loadVariableFiles reads each path in paths as either a JSON/Hjson
// object or a plain `name=value` line file (the teacher's suite
// loader accepts the analogous dual format via internal/hjson), and
// seeds every key into vars.
func loadVariableFiles(vars *hurl.VariableSet, paths []string, source hurl.VariableSource, redacted bool) error {
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("hurl: %s: %w", path, err)
		}
		trimmed := strings.TrimSpace(string(raw))
		if strings.HasPrefix(trimmed, "{") {
			var obj map[string]interface{}
			if err := hjson.Unmarshal(raw, &obj); err != nil {
				return fmt.Errorf("hurl: %s: %w", path, err)
			}
			for k, v := range obj {
				vars.Set(k, hurl.ValueFromInterface(v), source, redacted)
			}
			continue
		}
		for _, line := range strings.Split(trimmed, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("hurl: %s: bad line %q, want name=value", path, line)
			}
			vars.Set(strings.TrimSpace(parts[0]), hurl.InferVariableValue(strings.TrimSpace(parts[1])), source, redacted)
		}
	}
	return nil
}

// coerceVars renders a VariableSet's values back to strings for the
// executor's per-worker Options.Variables/Secrets seeding, which only
// needs the textual form since InferVariableValue re-derives the type.
func coerceVars(vars *hurl.VariableSet) map[string]string {
	out := make(map[string]string, len(vars.Names()))
	for _, name := range vars.Names() {
		e, _ := vars.Lookup(name)
		if s, err := e.Value.CoerceString(); err == nil {
			out[name] = s
		}
	}
	return out
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func writeBodies(results []*hurl.HurlResult, outputPath string, pretty, color bool) {
	w := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Print(err)
			return
		}
		defer f.Close()
		w = f
	}
	for _, r := range results {
		for _, er := range r.Entries {
			for _, call := range er.Calls {
				body := call.Response.Body.Text()
				if pretty {
					if pp, err := hurl.PrettyPrintJSON(call.Response.Body.Raw(), color); err == nil {
						body = pp
					}
				}
				fmt.Fprint(w, body)
			}
		}
	}
}

// printFailures prints every entry's runtime and assert errors to
// stderr, one per line, mirroring the teacher's practice of a one-shot
// CLI writing its own diagnostics directly rather than deferring
// everything to a report file.
func printFailures(results []*hurl.HurlResult) {
	for _, r := range results {
		for _, er := range r.Entries {
			er.RuntimeErrors.PrintlnStderr()
			er.AssertErrors.PrintlnStderr()
		}
	}
}

func writeCurlFile(path string, files []*hurl.HurlFile, filenames []string, results []*hurl.HurlResult, opts hurl.ClientOptions, fileRoot string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for fi, hf := range files {
		var r *hurl.HurlResult
		for _, res := range results {
			if res.File == filenames[fi] {
				r = res
				break
			}
		}
		vars := hurl.NewVariableSet()
		if r != nil && r.Variables != nil {
			vars = r.Variables
		}
		for _, entry := range hf.Entries {
			spec, err := hurl.BuildRequestSpec(entry.Request, vars, fileRoot)
			if err != nil {
				continue
			}
			fmt.Fprintln(f, hurl.CurlCommand(spec, opts))
		}
	}
	return nil
}

func writeReports(results []*hurl.HurlResult, htmlPath, jsonPath, junitPath, tapPath *string) error {
	writers := []struct {
		path string
		fn   func(*os.File) error
	}{
		{*htmlPath, func(f *os.File) error { return hurl.WriteHTMLReport(f, results) }},
		{*jsonPath, func(f *os.File) error { return hurl.WriteJSONReport(f, results) }},
		{*junitPath, func(f *os.File) error { return hurl.WriteJUnitReport(f, results) }},
		{*tapPath, func(f *os.File) error { return hurl.WriteTAPReport(f, results) }},
	}
	for _, w := range writers {
		if w.path == "" {
			continue
		}
		if err := writeReportFile(w.path, w.fn); err != nil {
			return err
		}
	}
	return nil
}

// writeReportFile writes to path directly when it looks like a file
// name (has an extension); otherwise it is treated as a directory and
// the report is written to a conventional file name inside it.
func writeReportFile(path string, fn func(*os.File) error) error {
	target := path
	if filepath.Ext(path) == "" {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
		target = filepath.Join(path, "report")
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

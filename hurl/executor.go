// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
)

// ExecutorConfig configures a parallel run over several Hurl files.
type ExecutorConfig struct {
	Workers     int           // 0 means runtime.NumCPU() capped at 8
	FailFast    bool
	FileRoot    string
	Options     ClientOptions
	Progress    io.Writer     // nil disables progress rendering
	ProgressTTY bool
}

// fileJob is one unit of work handed to a worker.
type fileJob struct {
	index    int
	filename string
	file     *HurlFile
}

// RunFiles executes files in parallel across a bounded worker pool,
// each worker owning its own Client (and cookie jar) so cookies never
// leak between files, and emits results in the files' original order
// regardless of completion order (spec.md section 5's reorder
// buffer), while honoring fail_fast cooperative cancellation.
func RunFiles(ctx context.Context, filenames []string, files []*HurlFile, cfg ExecutorConfig) ([]*HurlResult, error) {
	n := len(files)
	results := make([]*HurlResult, n)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
		if workers < 1 {
			workers = 1
		}
	}
	if workers > n && n > 0 {
		workers = n
	}

	jobs := make(chan fileJob)
	cancel := make(chan struct{})
	var cancelOnce sync.Once
	doCancel := func() { cancelOnce.Do(func() { close(cancel) }) }

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := false

	var progress *progressReporter
	if cfg.Progress != nil {
		progress = newProgressReporter(cfg.Progress, n, cfg.ProgressTTY)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := NewClient(cfg.Options)
			if err != nil {
				return
			}
			for job := range jobs {
				select {
				case <-cancel:
					return
				default:
				}

				vars := NewVariableSet()
				for k, val := range cfg.Options.Variables {
					vars.Set(k, InferVariableValue(val), SourceCLI, false)
				}
				for k, val := range cfg.Options.Secrets {
					vars.Set(k, InferVariableValue(val), SourceCLI, true)
				}

				res := RunFile(ctx, job.filename, job.file, client, vars, cfg.Options, cfg.FileRoot, cancel)

				mu.Lock()
				results[job.index] = res
				if !res.Success {
					failed = true
					if cfg.FailFast {
						mu.Unlock()
						doCancel()
						if progress != nil {
							progress.done(job.index, job.filename, res.Success)
						}
						continue
					}
				}
				mu.Unlock()
				if progress != nil {
					progress.done(job.index, job.filename, res.Success)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, f := range files {
			select {
			case jobs <- fileJob{index: i, filename: filenames[i], file: f}:
			case <-cancel:
				return
			}
		}
	}()

	wg.Wait()
	if progress != nil {
		progress.finish()
	}

	for i, r := range results {
		if r == nil {
			results[i] = &HurlResult{File: filenames[i], Success: false}
		}
	}

	if failed {
		return results, fmt.Errorf("%d of %d files failed", countFailed(results), n)
	}
	return results, nil
}

func countFailed(results []*HurlResult) int {
	n := 0
	for _, r := range results {
		if r == nil || !r.Success {
			n++
		}
	}
	return n
}

// progressReporter renders a single-line "done/total" counter to
// stderr at a bounded rate, matching the CLI's behavior of only doing
// so when attached to a terminal and not running under CI (spec.md
// section 5).
type progressReporter struct {
	w        io.Writer
	total    int
	doneCount    int
	mu       sync.Mutex
	tty      bool
	lastDraw time.Time
}

func newProgressReporter(w io.Writer, total int, tty bool) *progressReporter {
	return &progressReporter{w: w, total: total, tty: tty}
}

func (p *progressReporter) done(index int, filename string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doneCount++
	if !p.tty {
		return
	}
	if time.Since(p.lastDraw) < 100*time.Millisecond && p.doneCount != p.total {
		return
	}
	p.lastDraw = time.Now()
	status := "ok"
	if !ok {
		status = "error"
	}
	fmt.Fprintf(p.w, "\r[%d/%d] %s: %s", p.doneCount, p.total, filename, status)
	if p.doneCount == p.total {
		fmt.Fprintln(p.w)
	}
}

func (p *progressReporter) finish() {
	if !p.tty {
		return
	}
	fmt.Fprintln(p.w)
}

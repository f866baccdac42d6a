// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hurl implements the Hurl plain-text HTTP scripting language:
// a hand-written parser turning a Hurl file into a typed syntax tree, a
// template/filter/query/predicate pipeline for verifying responses, and
// a runner that executes entries sequentially within a file and files
// concurrently across a run.
//
// A Hurl file is a sequence of entries, each pairing a request with an
// optional expected response. Running a file evaluates every entry in
// order against a shared VariableSet and CookieJar, capturing values
// from responses for later entries and checking assertions with the
// query/filter/predicate pipeline in query.go, filter.go and
// predicate.go.
package hurl

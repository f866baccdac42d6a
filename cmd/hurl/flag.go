// Copyright 2015 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"strings"
)

// cmdlVar captures repeated `name=value` pairs settable on the
// command line via -variable/-secret. For this cmdlVar satisfies the
// flag.Value interface, directly modeled on the teacher's cmdlVar in
// cmd/ht/flag.go.
type cmdlVar map[string]string

func (v *cmdlVar) String() string { return "" }
func (v *cmdlVar) Set(s string) error {
	part := strings.SplitN(s, "=", 2)
	if len(part) != 2 {
		return fmt.Errorf("bad argument %q, want name=value", s)
	}
	(*v)[part[0]] = part[1]
	return nil
}

// cmdlFileList captures a repeatable path-valued flag such as
// multiple -variables-file occurrences.
type cmdlFileList []string

func (f *cmdlFileList) String() string { return "" }
func (f *cmdlFileList) Set(s string) error {
	*f = append(*f, s)
	return nil
}

// The common flags.
var (
	variablesFlag cmdlVar      = make(cmdlVar) // -variable
	secretsFlag   cmdlVar      = make(cmdlVar) // -secret
	variableFiles cmdlFileList                // -variables-file
	secretFiles   cmdlFileList                // -secrets-file
)

func addVariableFlags(fs *flag.FlagSet) {
	fs.Var(&variablesFlag, "variable", "set `name=value` (repeatable), type inferred from value")
	fs.Var(&secretsFlag, "secret", "set `name=value` (repeatable), redacted in logs and reports")
	fs.Var(&variableFiles, "variables-file", "load variables from `file` (JSON, Hjson or name=value lines)")
	fs.Var(&secretFiles, "secrets-file", "load redacted variables from `file`")
}

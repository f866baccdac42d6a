// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import "fmt"

// Pos is a 1-based line/column position in a Hurl source file.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SourceInfo is the span of an AST node in its originating source text.
type SourceInfo struct {
	Start Pos
	End   Pos
}

// Cursor is a saved Reader position allowing combinators to backtrack.
type Cursor struct {
	index int
	pos   Pos
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func varTemplate(name string) *Template {
	return &Template{Parts: []TemplatePart{{
		IsPlaceholder: true,
		Placeholder:   Placeholder{Expr: &Expr{Root: ExprRoot{Name: name}}},
	}}}
}

func TestEvalTemplateLiteral(t *testing.T) {
	vars := NewVariableSet()
	v, err := EvalTemplate(literalTemplate("plain text"), vars)
	require.NoError(t, err)
	assert.Equal(t, Str("plain text"), v)
}

func TestEvalTemplateVariableSubstitution(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("name", Str("widget"), SourceCLI, false)
	v, err := EvalTemplate(varTemplate("name"), vars)
	require.NoError(t, err)
	assert.Equal(t, Str("widget"), v)
}

func TestEvalTemplateUndefinedVariable(t *testing.T) {
	vars := NewVariableSet()
	_, err := EvalTemplate(varTemplate("missing"), vars)
	require.Error(t, err)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrTemplateVariableNotDefined, terr.Kind)
}

func TestEvalTemplateMixedTextAndPlaceholder(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("id", Int(42), SourceCLI, false)
	tmpl := &Template{Parts: []TemplatePart{
		{String: StringPart{Source: "item-", Decoded: "item-"}},
		{IsPlaceholder: true, Placeholder: Placeholder{Expr: &Expr{Root: ExprRoot{Name: "id"}}}},
	}}
	v, err := EvalTemplate(tmpl, vars)
	require.NoError(t, err)
	assert.Equal(t, Str("item-42"), v)
}

func TestEvalTemplateSingleNonStringPlaceholderKeepsNativeKind(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("n", Int(7), SourceCLI, false)
	v, err := EvalTemplate(varTemplate("n"), vars)
	require.NoError(t, err)
	assert.Equal(t, KindInteger, v.Kind)
	assert.Equal(t, int64(7), v.Int)
}

func TestEvalTemplateWithFilterPipeline(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("raw", Str("  hello  "), SourceCLI, false)
	tmpl := &Template{Parts: []TemplatePart{{
		IsPlaceholder: true,
		Placeholder: Placeholder{Expr: &Expr{
			Root:    ExprRoot{Name: "raw"},
			Filters: []*Filter{{Kind: FilterReplace, Str: "  ", Str2: ""}},
		}},
	}}}
	v, err := EvalTemplate(tmpl, vars)
	require.NoError(t, err)
	assert.Equal(t, Str("hello"), v)
}

func TestEvalTemplateNewUuidFunction(t *testing.T) {
	vars := NewVariableSet()
	tmpl := &Template{Parts: []TemplatePart{{
		IsPlaceholder: true,
		Placeholder:   Placeholder{Expr: &Expr{Root: ExprRoot{IsFunction: true, Name: "newUuid"}}},
	}}}
	v, err := EvalTemplate(tmpl, vars)
	require.NoError(t, err)
	require.Equal(t, KindString, v.Kind)
	assert.Len(t, v.Str, 36)
}

func TestEvalTemplateUnknownFunction(t *testing.T) {
	vars := NewVariableSet()
	tmpl := &Template{Parts: []TemplatePart{{
		IsPlaceholder: true,
		Placeholder:   Placeholder{Expr: &Expr{Root: ExprRoot{IsFunction: true, Name: "bogus"}}},
	}}}
	_, err := EvalTemplate(tmpl, vars)
	require.Error(t, err)
}

func TestValueCoerceStringRejectsBytes(t *testing.T) {
	_, err := Bin([]byte("x")).CoerceString()
	require.Error(t, err)
}

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import "strings"

// StringPart is a literal run of text inside a Template. Source
// preserves the user's exact spelling (escape sequences intact);
// Decoded is the already-unescaped text. Concatenating every part's
// Source reproduces the template's original input exactly.
type StringPart struct {
	Source  string
	Decoded string
}

// Placeholder is one `{{ expr }}` occurrence inside a Template.
type Placeholder struct {
	Expr   *Expr
	Source SourceInfo
}

// TemplatePart is either a StringPart or a Placeholder.
type TemplatePart struct {
	IsPlaceholder bool
	String        StringPart
	Placeholder   Placeholder
}

// Template is an ordered sequence of literal text and placeholders,
// e.g. the value of a header, URL or quoted string literal.
// Delimiter records how the template was spelled ("\"", "" for
// unquoted contexts, or "```" for multiline strings) purely for
// round-tripping/diagnostics; it plays no role in evaluation.
type Template struct {
	Parts     []TemplatePart
	Delimiter string
	Source    SourceInfo
}

// SourceText reconstructs the exact original spelling of t.
func (t *Template) SourceText() string {
	var b strings.Builder
	for _, p := range t.Parts {
		if p.IsPlaceholder {
			b.WriteString("{{")
			b.WriteString(p.Placeholder.Expr.sourceText())
			b.WriteString("}}")
		} else {
			b.WriteString(p.String.Source)
		}
	}
	return b.String()
}

// HasPlaceholders reports whether t contains at least one {{...}}.
func (t *Template) HasPlaceholders() bool {
	for _, p := range t.Parts {
		if p.IsPlaceholder {
			return true
		}
	}
	return false
}

// ExprRoot is the root of a placeholder expression: either a bare
// variable reference or a zero/one-argument function call such as
// {{newUuid}} or {{newDate}}.
type ExprRoot struct {
	IsFunction bool
	Name       string
	Args       []ExprArg
}

// ExprArg is one argument of a function-call expression root: either
// a variable reference or a literal value.
type ExprArg struct {
	IsVariable bool
	Variable   string
	Literal    Value
}

// Expr is the content of a placeholder: a root (variable or function
// call) followed by an optional filter pipeline applied to the
// resolved value before it is rendered or used as a query/capture
// input.
type Expr struct {
	Root    ExprRoot
	Filters []*Filter
	Source  SourceInfo
}

func (e *Expr) sourceText() string {
	var b strings.Builder
	if e.Root.IsFunction {
		b.WriteString(e.Root.Name)
	} else {
		b.WriteString(e.Root.Name)
	}
	for _, f := range e.Filters {
		b.WriteString(" | ")
		b.WriteString(f.sourceText())
	}
	return b.String()
}

// EvalTemplate concatenates t's literal parts with the evaluated
// placeholders against vars, per spec.md section 4.3. A template with
// no placeholders evaluates to its own source text unchanged
// (testable property 4).
func EvalTemplate(t *Template, vars *VariableSet) (Value, error) {
	if len(t.Parts) == 1 && !t.Parts[0].IsPlaceholder {
		return Str(t.Parts[0].Decoded), nil
	}
	if !t.HasPlaceholders() {
		var b strings.Builder
		for _, p := range t.Parts {
			b.WriteString(p.String.Decoded)
		}
		return Str(b.String()), nil
	}

	// A template with exactly one placeholder and no surrounding text
	// evaluates to the placeholder's native value (so that e.g. a
	// capture query result of a non-string Value, used directly as a
	// header, still renders through CoerceString but callers that want
	// the raw Value - like [Options] values - get it undecorated).
	if len(t.Parts) == 1 && t.Parts[0].IsPlaceholder {
		return evalExpr(t.Parts[0].Placeholder.Expr, vars)
	}

	var b strings.Builder
	redacted := false
	for _, p := range t.Parts {
		if !p.IsPlaceholder {
			b.WriteString(p.String.Decoded)
			continue
		}
		v, err := evalExpr(p.Placeholder.Expr, vars)
		if err != nil {
			return Value{}, err
		}
		if v.Redacted {
			redacted = true
		}
		s, err := v.CoerceString()
		if err != nil {
			return Value{}, err
		}
		b.WriteString(s)
	}
	out := Str(b.String())
	out.Redacted = redacted
	return out, nil
}

// EvalTemplateString is a convenience wrapper returning the final
// string coercion of t, the common case for URLs, headers and body
// text.
func EvalTemplateString(t *Template, vars *VariableSet) (string, error) {
	v, err := EvalTemplate(t, vars)
	if err != nil {
		return "", err
	}
	return v.CoerceString()
}

// EvalTemplateStringRedacted is EvalTemplateString but also reports
// whether the evaluated value was sourced, even partially, from a
// variable marked Redacted (a --secret value or a `redact`-flagged
// capture). Callers that render text for humans rather than the wire
// (curl command lines, request-spec fields feeding --curl output)
// should use this and call RedactedString instead of printing the
// returned string outright.
func EvalTemplateStringRedacted(t *Template, vars *VariableSet) (string, bool, error) {
	v, err := EvalTemplate(t, vars)
	if err != nil {
		return "", false, err
	}
	s, err := v.CoerceString()
	if err != nil {
		return "", false, err
	}
	return s, v.Redacted, nil
}

func evalExpr(e *Expr, vars *VariableSet) (Value, error) {
	var v Value
	if e.Root.IsFunction {
		fv, err := evalFunctionCall(e.Root, vars)
		if err != nil {
			return Value{}, err
		}
		v = fv
	} else {
		entry, ok := vars.Lookup(e.Root.Name)
		if !ok {
			return Value{}, &TemplateError{
				Kind:    ErrTemplateVariableNotDefined,
				Name:    e.Root.Name,
				Message: "variable not defined",
				Source:  e.Source,
			}
		}
		v = entry.Value
		v.Redacted = entry.Redacted
	}
	redacted := v.Redacted
	for _, f := range e.Filters {
		nv, err := applyFilter(f, v, vars)
		if err != nil {
			return Value{}, err
		}
		nv.Redacted = redacted
		v = nv
	}
	return v, nil
}

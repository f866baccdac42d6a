// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

var predicateByName = func() map[string]PredicateKind {
	m := make(map[string]PredicateKind, len(predicateNames))
	for k, v := range predicateNames {
		m[v] = k
	}
	return m
}()

func isNumberLeadChar(c rune) bool { return c == '-' || (c >= '0' && c <= '9') }
func isNumberBodyChar(c rune) bool {
	return c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' || (c >= '0' && c <= '9')
}

// parsePredicate parses `[not] kind [operand]`.
func (p *parser) parsePredicate() (*Predicate, error) {
	start := p.r.Pos()
	not := p.parseKeyword("not")
	if not {
		p.skipSpaces()
	}

	name := p.parseIdent()
	kind, ok := predicateByName[name]
	if !ok {
		return nil, newParseError(start, ErrExpectingValue, false, "unknown predicate %q", name)
	}
	pred := &Predicate{Not: not, Kind: kind}

	switch kind {
	case PredEqual, PredNotEqual, PredGreaterThan, PredGreaterThanOrEqual,
		PredLessThan, PredLessThanOrEqual, PredStartsWith, PredEndsWith,
		PredContains, PredIncludes, PredCount:
		p.skipSpaces()
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		pred.Operand = op

	case PredMatches:
		p.skipSpaces()
		op, err := p.parseRegexOperand()
		if err != nil {
			return nil, err
		}
		pred.Operand = op
	}

	pred.Source = SourceInfo{Start: start, End: p.r.Pos()}
	return pred, nil
}

func (p *parser) parseKeyword(kw string) bool {
	save := p.r.Cursor()
	id := p.parseIdent()
	if id == kw {
		return true
	}
	p.r.Seek(save)
	return false
}

func (p *parser) parseOperand() (PredicateOperand, error) {
	c, ok := p.r.Peek()
	if !ok {
		return PredicateOperand{}, newParseError(p.r.Pos(), ErrExpectingValue, false, "expected a predicate operand")
	}
	switch {
	case c == '"':
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return PredicateOperand{}, err
		}
		return PredicateOperand{Kind: OperandString, Template: t}, nil

	case c == '{':
		t, err := p.parseTemplateUntil(stopOperandEnd)
		if err != nil {
			return PredicateOperand{}, err
		}
		return PredicateOperand{Kind: OperandString, Template: t}, nil

	case isNumberLeadChar(c):
		start := p.r.Pos()
		txt := p.r.ReadWhile(isNumberBodyChar)
		if txt == "" || txt == "-" {
			return PredicateOperand{}, newParseError(start, ErrExpectingValue, false, "invalid numeric operand")
		}
		return PredicateOperand{Kind: OperandNumber, Template: literalTemplate(txt)}, nil

	default:
		start := p.r.Pos()
		word := p.parseIdent()
		switch word {
		case "true", "false":
			return PredicateOperand{Kind: OperandBool, Template: literalTemplate(word)}, nil
		case "null":
			return PredicateOperand{Kind: OperandNull}, nil
		}
		return PredicateOperand{}, newParseError(start, ErrExpectingValue, false, "invalid predicate operand %q", word)
	}
}

func (p *parser) parseRegexOperand() (PredicateOperand, error) {
	c, ok := p.r.Peek()
	if ok && c == '/' {
		lit, err := p.parseRegexLiteral()
		if err != nil {
			return PredicateOperand{}, err
		}
		return PredicateOperand{Kind: OperandRegex, Template: literalTemplate(lit)}, nil
	}
	if ok && c == '"' {
		t, err := p.parseQuotedTemplate()
		if err != nil {
			return PredicateOperand{}, err
		}
		return PredicateOperand{Kind: OperandRegex, Template: t}, nil
	}
	return PredicateOperand{}, newParseError(p.r.Pos(), ErrExpectingValue, false, "expected a regex operand")
}

func stopOperandEnd(c rune) bool { return c == '\n' || c == '\r' }

// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/asaskevich/govalidator"
)

// PredicateKind is the closed set of boolean tests a predicate may
// perform against a query's (filtered) result.
type PredicateKind int

const (
	PredEqual PredicateKind = iota
	PredNotEqual
	PredGreaterThan
	PredGreaterThanOrEqual
	PredLessThan
	PredLessThanOrEqual
	PredStartsWith
	PredEndsWith
	PredContains
	PredIncludes
	PredMatches
	PredIsInteger
	PredIsFloat
	PredIsBoolean
	PredIsString
	PredIsCollection
	PredIsDate
	PredIsEmpty
	PredExist
	PredIsIPv4
	PredIsIPv6
	PredIsNumber
	PredCount
)

var predicateNames = map[PredicateKind]string{
	PredEqual:              "equal",
	PredNotEqual:           "notEqual",
	PredGreaterThan:        "greaterThan",
	PredGreaterThanOrEqual: "greaterThanOrEqual",
	PredLessThan:           "lessThan",
	PredLessThanOrEqual:    "lessThanOrEqual",
	PredStartsWith:         "startsWith",
	PredEndsWith:           "endsWith",
	PredContains:           "contains",
	PredIncludes:           "includes",
	PredMatches:            "matches",
	PredIsInteger:          "isInteger",
	PredIsFloat:            "isFloat",
	PredIsBoolean:          "isBoolean",
	PredIsString:           "isString",
	PredIsCollection:       "isCollection",
	PredIsDate:             "isDate",
	PredIsEmpty:            "isEmpty",
	PredExist:              "exist",
	PredIsIPv4:             "isIpv4",
	PredIsIPv6:             "isIpv6",
	PredIsNumber:           "isNumber",
	PredCount:              "count",
}

func (k PredicateKind) String() string { return predicateNames[k] }

// OperandKind is the lexical shape of a predicate's literal operand,
// recorded by the parser so evaluation knows how to interpret the
// (possibly templated) operand text.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandString
	OperandNumber
	OperandBool
	OperandNull
	OperandRegex
)

// PredicateOperand is the expected-value half of a predicate. Most
// kinds carry a Template (so the expected value itself may embed
// {{variables}}); Kind tells EvalPredicate how to parse the
// evaluated text back into a typed Value.
type PredicateOperand struct {
	Kind     OperandKind
	Template *Template
}

// Predicate is `[not] kind [operand]`.
type Predicate struct {
	Not     bool
	Kind    PredicateKind
	Operand PredicateOperand
	Source  SourceInfo

	compiledOnce sync.Once
	compiled     *regexp.Regexp
	compileErr   error
}

// AssertResult is the outcome of evaluating one predicate against one
// actual value.
type AssertResult struct {
	Success      bool
	TypeMismatch bool
	ActualStr    string
	ExpectedStr  string
}

func resolveOperand(op PredicateOperand, vars *VariableSet) (Value, error) {
	switch op.Kind {
	case OperandNone:
		return Value{}, nil
	case OperandNull:
		return Null(), nil
	case OperandBool:
		v, err := EvalTemplate(op.Template, vars)
		if err != nil {
			return Value{}, err
		}
		s, err := v.CoerceString()
		if err != nil {
			return Value{}, err
		}
		out := Bool(s == "true")
		out.Redacted = v.Redacted
		return out, nil
	case OperandNumber:
		v, err := EvalTemplate(op.Template, vars)
		if err != nil {
			return Value{}, err
		}
		s, err := v.CoerceString()
		if err != nil {
			return Value{}, err
		}
		out := numberFromLexical(s)
		out.Redacted = v.Redacted
		return out, nil
	case OperandRegex, OperandString:
		v, err := EvalTemplate(op.Template, vars)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != KindString {
			s, cerr := v.CoerceString()
			if cerr != nil {
				return Value{}, cerr
			}
			out := Str(s)
			out.Redacted = v.Redacted
			return out, nil
		}
		return v, nil
	}
	return Value{}, nil
}

// EvalPredicate implements the type-aware comparisons of spec.md
// section 4.7. `not` inverts Success but preserves TypeMismatch: a
// type-mismatched predicate is still a failure after negation.
func EvalPredicate(p *Predicate, actual *Value, vars *VariableSet) (AssertResult, error) {
	var expected Value
	if p.Operand.Kind != OperandNone {
		var err error
		expected, err = resolveOperand(p.Operand, vars)
		if err != nil {
			return AssertResult{}, err
		}
	}

	success, mismatch, err := evalPredicateCore(p, actual, expected, vars)
	if err != nil {
		return AssertResult{}, err
	}

	res := AssertResult{
		Success:      success,
		TypeMismatch: mismatch,
		ActualStr:    describeActual(actual),
		ExpectedStr:  describeExpected(p, expected),
	}
	if p.Not && !res.TypeMismatch {
		res.Success = !res.Success
	}
	return res, nil
}

// describeActual renders the queried value for an assert-failure
// message. A Redacted value (spec.md section 7/9: redacted variable
// values never appear in any error or log, including assertion
// messages) is always rendered as "***" via RedactedString, never by
// coercing it to its real string first.
func describeActual(actual *Value) string {
	if actual == nil {
		return "<none>"
	}
	if actual.Redacted {
		return RedactedString(*actual, true)
	}
	s, err := actual.CoerceString()
	if err != nil {
		return fmt.Sprintf("<%s>", actual.Kind)
	}
	return s
}

func describeExpected(p *Predicate, expected Value) string {
	if p.Operand.Kind == OperandNone {
		return ""
	}
	if expected.Redacted {
		return RedactedString(expected, true)
	}
	s, err := expected.CoerceString()
	if err != nil {
		return fmt.Sprintf("<%s>", expected.Kind)
	}
	return s
}

func evalPredicateCore(p *Predicate, actualPtr *Value, expected Value, vars *VariableSet) (success, typeMismatch bool, err error) {
	// exist and isEmpty must handle a nil actual (missing query result)
	// without treating it as a type mismatch.
	switch p.Kind {
	case PredExist:
		if actualPtr == nil {
			return false, false, nil
		}
		if actualPtr.Kind == KindNodeset && actualPtr.Count == 0 {
			return false, false, nil
		}
		return true, false, nil
	}

	if actualPtr == nil {
		return false, false, nil
	}
	actual := *actualPtr

	switch p.Kind {
	case PredEqual:
		eq, ok := Equal(actual, expected)
		return eq, !ok, nil
	case PredNotEqual:
		eq, ok := Equal(actual, expected)
		return !eq, !ok, nil
	case PredGreaterThan, PredGreaterThanOrEqual, PredLessThan, PredLessThanOrEqual:
		if !actual.IsNumber() || !expected.IsNumber() {
			return false, true, nil
		}
		af, _ := actual.AsFloat()
		ef, _ := expected.AsFloat()
		switch p.Kind {
		case PredGreaterThan:
			return af > ef, false, nil
		case PredGreaterThanOrEqual:
			return af >= ef, false, nil
		case PredLessThan:
			return af < ef, false, nil
		case PredLessThanOrEqual:
			return af <= ef, false, nil
		}
	case PredStartsWith:
		if actual.Kind != KindString || expected.Kind != KindString {
			return false, true, nil
		}
		return strings.HasPrefix(actual.Str, expected.Str), false, nil
	case PredEndsWith:
		if actual.Kind != KindString || expected.Kind != KindString {
			return false, true, nil
		}
		return strings.HasSuffix(actual.Str, expected.Str), false, nil
	case PredContains:
		if actual.Kind != KindString || expected.Kind != KindString {
			return false, true, nil
		}
		return strings.Contains(actual.Str, expected.Str), false, nil
	case PredIncludes:
		if actual.Kind != KindList {
			return false, true, nil
		}
		for _, elt := range actual.List {
			if eq, ok := Equal(elt, expected); ok && eq {
				return true, false, nil
			}
		}
		return false, false, nil
	case PredMatches:
		if actual.Kind != KindString {
			return false, true, nil
		}
		re, cerr := p.compileRegex(expected.Str)
		if cerr != nil {
			return false, false, cerr
		}
		return re.MatchString(actual.Str), false, nil
	case PredIsInteger:
		return actual.Kind == KindInteger || actual.Kind == KindBigInteger, false, nil
	case PredIsFloat:
		return actual.Kind == KindFloat, false, nil
	case PredIsNumber:
		return actual.IsNumber(), false, nil
	case PredIsBoolean:
		return actual.Kind == KindBool, false, nil
	case PredIsString:
		return actual.Kind == KindString, false, nil
	case PredIsCollection:
		return actual.Kind == KindList || actual.Kind == KindObject || actual.Kind == KindNodeset, false, nil
	case PredIsDate:
		return actual.Kind == KindDate, false, nil
	case PredIsEmpty:
		switch actual.Kind {
		case KindString:
			return actual.Str == "", false, nil
		case KindList:
			return len(actual.List) == 0, false, nil
		case KindObject:
			return len(actual.Obj) == 0, false, nil
		case KindBytes:
			return len(actual.Bytes) == 0, false, nil
		case KindNodeset:
			return actual.Count == 0, false, nil
		}
		return false, true, nil
	case PredIsIPv4:
		return actual.Kind == KindString && govalidator.IsIPv4(actual.Str), false, nil
	case PredIsIPv6:
		return actual.Kind == KindString && govalidator.IsIPv6(actual.Str), false, nil
	case PredCount:
		var n int
		switch actual.Kind {
		case KindList:
			n = len(actual.List)
		case KindNodeset:
			n = actual.Count
		case KindObject:
			n = len(actual.Obj)
		default:
			return false, true, nil
		}
		if !expected.IsNumber() {
			return false, true, nil
		}
		ef, _ := expected.AsFloat()
		return float64(n) == ef, false, nil
	}
	return false, false, fmt.Errorf("unknown predicate kind %v", p.Kind)
}

func (p *Predicate) compileRegex(pattern string) (*regexp.Regexp, error) {
	p.compiledOnce.Do(func() {
		p.compiled, p.compileErr = regexp.Compile(pattern)
	})
	if p.compileErr != nil {
		return nil, &ParseError{Pos: p.Source.Start, Kind: ErrInvalidRegex, Message: p.compileErr.Error(), Recoverable: false}
	}
	return p.compiled, nil
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

package descriptor

import (
	"strings"
)

// Identities resolves the class and enum identities named in type expressions.
type Identities interface {
	Lookup(identity string) (Type, bool)
}

// Expression is a parsed type expression.
type Expression struct {
	Types    []Type
	Nullable bool
}

var scalarNames = map[string]ScalarKind{
	"null":     ScalarNull,
	"bool":     ScalarBool,
	"boolean":  ScalarBool,
	"int":      ScalarInt,
	"integer":  ScalarInt,
	"float":    ScalarFloat,
	"double":   ScalarFloat,
	"number":   ScalarFloat,
	"string":   ScalarString,
	"object":   ScalarObject,
	"datetime": ScalarDateTime,
	"date":     ScalarDate,
}

// ParseType parses a type expression such as "?string", "string|int|null" or "array<App\Data\Song>".
//
// A leading "?" or a "null" member makes the expression nullable; a "null" member is also kept as a type.
// Names that are not scalar types are resolved through identities.
func ParseType(expr string, identities Identities) (Expression, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Expression{}, ErrInvalidTypeExpression.Wrapf("expression is empty")
	}

	var out Expression

	if rest, ok := strings.CutPrefix(s, "?"); ok {
		out.Nullable = true
		s = strings.TrimSpace(rest)
	}

	members, err := splitUnion(s)
	if err != nil {
		return Expression{}, err
	}
	if out.Nullable && len(members) > 1 {
		return Expression{}, ErrInvalidTypeExpression.Wrapf("%q: a nullable shorthand cannot be combined with a union", expr)
	}

	for _, member := range members {
		t, err := parseMember(member, identities)
		if err != nil {
			return Expression{}, err
		}
		if t.Kind == KindScalar && t.Scalar == ScalarNull {
			out.Nullable = true
		}
		out.Types = append(out.Types, t)
	}

	return out, nil
}

func splitUnion(s string) ([]string, error) {
	var (
		members []string
		depth   int
		start   int
	)

	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, ErrInvalidTypeExpression.Wrapf("%q: unbalanced '>'", s)
			}
		case '|':
			if depth == 0 {
				members = append(members, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, ErrInvalidTypeExpression.Wrapf("%q: unbalanced '<'", s)
	}
	members = append(members, s[start:])

	for i, m := range members {
		members[i] = strings.TrimSpace(m)
		if members[i] == "" {
			return nil, ErrInvalidTypeExpression.Wrapf("%q: empty union member", s)
		}
	}

	return members, nil
}

func parseMember(s string, identities Identities) (Type, error) {
	if kind, ok := scalarNames[strings.ToLower(s)]; ok {
		return Scalar(kind), nil
	}

	if strings.EqualFold(s, "array") {
		return ArrayOf(nil), nil
	}

	if len(s) > len("array<") && strings.EqualFold(s[:len("array<")], "array<") {
		if !strings.HasSuffix(s, ">") {
			return Type{}, ErrInvalidTypeExpression.Wrapf("%q: missing closing '>'", s)
		}
		inner := strings.TrimSpace(s[len("array<") : len(s)-1])
		if inner == "" || strings.ContainsAny(inner, "?") {
			return Type{}, ErrInvalidTypeExpression.Wrapf("%q: element type must be a single non-null type", s)
		}
		if members, err := splitUnion(inner); err != nil {
			return Type{}, err
		} else if len(members) > 1 {
			return Type{}, ErrInvalidTypeExpression.Wrapf("%q: element type must be a single non-null type", s)
		}

		elem, err := parseMember(inner, identities)
		if err != nil {
			return Type{}, err
		}
		if elem.Kind == KindScalar && elem.Scalar == ScalarNull {
			return Type{}, ErrInvalidTypeExpression.Wrapf("%q: element type must be a single non-null type", s)
		}
		return ArrayOf(&elem), nil
	}

	if strings.ContainsAny(s, "<>|? ") {
		return Type{}, ErrInvalidTypeExpression.Wrapf("%q", s)
	}

	if identities != nil {
		if t, ok := identities.Lookup(s); ok {
			return t, nil
		}
	}

	return Type{}, ErrUnknownIdentity.Wrapf("%q", s)
}

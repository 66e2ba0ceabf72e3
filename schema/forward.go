package schema

import "github.com/speakeasy-api/dtoschema/errors"

// Forwarded aggregates an operation attempted against every constituent of a union.
type Forwarded[T any] struct {
	Outcome Outcome
	// Results holds the value returned by each accepting constituent, in constituent order.
	Results []T
	// Matched holds the accepting constituents, aligned with Results.
	Matched []SingleTypeSchema
}

// Forward attempts op against every constituent of u.
//
// Each attempt either succeeds or is unsupported (op returned ErrUnsupportedKeyword); any other
// error aborts the forward and is returned as is. The attempts aggregate as follows:
//   - all succeed: Applied
//   - exactly one succeeds: Single
//   - more than one but not all succeed: Ambiguous
//   - none succeed: ErrUnsupportedKeyword
func Forward[T any](u *UnionSchema, op func(SingleTypeSchema) (T, error)) (Forwarded[T], error) {
	var fw Forwarded[T]

	for _, c := range u.constituents {
		res, err := op(c)
		if err != nil {
			if errors.Is(err, ErrUnsupportedKeyword) {
				continue
			}
			return Forwarded[T]{}, err
		}

		fw.Results = append(fw.Results, res)
		fw.Matched = append(fw.Matched, c)
	}

	switch {
	case len(fw.Matched) == 0:
		return Forwarded[T]{}, ErrUnsupportedKeyword.Wrapf("none of the %d union constituents accept the operation", len(u.constituents))
	case len(fw.Matched) == len(u.constituents):
		fw.Outcome = Applied
	case len(fw.Matched) == 1:
		fw.Outcome = Single
	default:
		fw.Outcome = Ambiguous
	}

	return fw, nil
}

// result converts the aggregate into the Result of a keyword operation on u.
func (f Forwarded[T]) result(u *UnionSchema) Result {
	switch f.Outcome {
	case Single:
		return Result{Outcome: Single, Schema: f.Matched[0], Matches: f.Matched}
	case Ambiguous:
		return Result{Outcome: Ambiguous, Matches: f.Matched}
	default:
		return Result{Outcome: Applied, Schema: u, Matches: f.Matched}
	}
}

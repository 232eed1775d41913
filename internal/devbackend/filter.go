package devbackend

import (
	"errors"
	"strings"
)

var (
	// ErrUnsupportedOperator is returned for any filter operator other than eq.
	ErrUnsupportedOperator = errors.New("unsupported filter operator")
	// ErrMalformedFilter is returned when a filter has no "<op>." prefix.
	ErrMalformedFilter = errors.New("malformed filter")
)

// ParseEq extracts the operand of an "eq.<value>" filter. The value is
// returned as-is (already query-decoded), including an empty string and any
// dots it contains.
func ParseEq(filter string) (string, error) {
	op, value, ok := strings.Cut(filter, ".")
	if !ok {
		return "", ErrMalformedFilter
	}
	if op != "eq" {
		return "", ErrUnsupportedOperator
	}
	return value, nil
}

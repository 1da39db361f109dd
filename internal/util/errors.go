// Package util collects small ambient helpers shared across the
// expression, dataset, config and registry packages: multi-error
// accumulation, approximate deep-size measurement and random token
// generation.
package util

import "fmt"

// ErrorSet replaces the "error" return value in functions that can fail in
// more than one independent way at once (e.g. validating every named
// search definition in a dataset config). It provides convenience
// functions for easily adding errors to the set.
type ErrorSet []error

// Add adds the given error to the set if it is non-nil.
func (errs *ErrorSet) Add(err error) {
	if err != nil {
		*errs = append(*errs, err)
	}
}

// Addf is a shorthand for errs.Add(fmt.Errorf(...)).
func (errs *ErrorSet) Addf(msg string, args ...any) {
	*errs = append(*errs, fmt.Errorf(msg, args...))
}

// Append adds all errors from the `other` ErrorSet to this one.
func (errs *ErrorSet) Append(other ErrorSet) {
	*errs = append(*errs, other...)
}

// IsEmpty returns true if no errors are in the set.
func (errs ErrorSet) IsEmpty() bool {
	return len(errs) == 0
}

// Join renders all errors as a single string, separated by sep.
func (errs ErrorSet) Join(sep string) string {
	var out string
	for i, err := range errs {
		if i > 0 {
			out += sep
		}
		out += err.Error()
	}
	return out
}

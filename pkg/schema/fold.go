package schema

import "golang.org/x/text/cases"

// Fold returns the case-insensitive lookup key for a member or argument name
func Fold(name string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(name)
}

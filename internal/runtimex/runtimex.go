// Package runtimex contains helpers to panic on conditions that
// indicate a programming error rather than a runtime failure.
package runtimex

import "fmt"

// Assert calls panic with the given message if the given statement is false.
func Assert(stmt bool, message string) {
	if !stmt {
		panic(message)
	}
}

// PanicOnError calls panic if the given error is not nil. The panic
// message includes both the given context and the error text.
func PanicOnError(err error, message string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %s", message, err.Error()))
	}
}

// Package retry provides exponential backoff for transient failures.
//
// [Do] retries an operation until it succeeds, returns a [Fatal] error,
// exhausts its attempts or the context ends. helmsync uses it to wait for
// the desired-state store at startup.
package retry

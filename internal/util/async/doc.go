// Package async provides a bounded parallel task runner.
//
// [Run] executes independent tasks with at most a given number in flight,
// and reports the outcome of each task separately. A failing or panicking
// task never stops its siblings. The reconciler uses it to fan out a sweep
// across records.
package async

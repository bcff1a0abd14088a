// Package apps defines the desired-state model for managed helm releases.
//
// A [ManagedApplication] records which chart, version, namespace and values a
// release should run with, and whether it should exist at all. Records are
// keyed by release name, which never changes once created. Removal is a
// one-way status transition to [StatusDeleted]; the reconciler uninstalls the
// release and the record stays behind for inspection until it is purged.
//
// [Service] is the only writer of records. It owns validation and the
// updatedAt clock that the reconciler uses to detect drift.
package apps

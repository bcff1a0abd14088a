// Package testing provides test utilities and builders shared by unit and
// integration tests.
//
//   - AppBuilder: fluent builder for desired-state records
//   - TestContext: context bounded by a test-friendly timeout
//
// Usage:
//
//	app := testing.NewAppBuilder("nginx").
//	    WithNamespace("web").
//	    WithValue("replicaCount", 2).
//	    Build()
package testing

// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - InstanceBuilder: Fluent builder for described EC2 instances
//   - Catalog, RawSpec, Spec: a lookup catalog and a machine spec that resolve against each other
//   - RecordingObserver: an Observer that keeps every event for assertions
//   - MockOutputFetcher: testify mock for full command output downloads
//
// Usage:
//
//	inst := testing.NewInstanceBuilder("i-123").
//	    WithName("web-Test", "Test").
//	    Running().
//	    Build()
package testing

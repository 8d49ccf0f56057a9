// Package testutil provides test helpers and assertion utilities used across
// the module's test suites.
//
// This is an internal package and is not part of the public API.
//
// # Assertion Helpers
//
// The package provides lightweight assertion functions that fail the test
// immediately on mismatch:
//
//   - [AssertNoError] — fails if err is non-nil
//   - [AssertError] — fails if err is nil
//   - [AssertEqual] — performs deep equality comparison
//   - [AssertContains] — checks string containment
//
// Example:
//
//	result, err := rt.Perform(ctx, "weather/current", "Current", input, executor.PerformOptions{})
//	testutil.AssertNoError(t, err)
//
// # Test Doubles
//
// This package has no mock sub-packages. Fakes for the executor's external
// collaborators are defined in the tests that use them, e.g. fakeRegistry,
// fakeInterpreter and fakeValidator in executor/executor_test.go.
package testutil

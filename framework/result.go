package framework

import "strings"

// Results accumulates the outcome of every test in one suite run against a
// target workspace. Failures holds the subset of Tests that failed, in run
// order, so the runner can print them and build a rerun command.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  int
}

// TestResult is the recorded outcome of a single test or subtest.
type TestResult struct {
	TestID TestID
	Errors []error
}

// OK reports whether the run had no failures. Skipped tests do not count
// against it.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// TestID identifies a test as the path of nested Run names that reach it,
// e.g. "document records/create and get by ID". Its string form is what the
// -run and -skip filters match against.
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

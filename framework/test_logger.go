package framework

// TestLogger receives notifications as the suite runs. The console
// implementation lives in the runner's main package; programmatic runs and
// the framework's own tests fall back to the null implementation.
type TestLogger interface {
	// TestStarted is called before the run filter is consulted, so every
	// test appears in the output even when it ends up skipped.
	TestStarted(id TestID)

	// TestError is called once per recorded failure, as it happens.
	TestError(id TestID, err error)

	// TestFinished is called after a test ran to completion, with the debug
	// output captured while it was running.
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)

	// TestSkipped is called instead of TestFinished when a test was excluded
	// by a filter or skipped itself over a missing resource family.
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                        {}
func (n nullTestLogger) TestError(TestID, error)                   {}
func (n nullTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                {}

package apitests

import (
	"github.com/Atractapp/legito-api-testing-sub002/framework"
)

// RunTestSuite runs every correctness suite against the harness's target API
// and returns the aggregated results.
func RunTestSuite(
	harness *framework.TestHarness,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, harness)

		t.Run("document records", DoDocumentRecordTests)
		t.Run("object records", DoObjectRecordTests)
		t.Run("reference data", DoReferenceDataTests)
	})
}

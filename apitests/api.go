package apitests

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
	"github.com/Atractapp/legito-api-testing-sub002/endpoints"
	"github.com/Atractapp/legito-api-testing-sub002/framework"
)

const defaultCallTimeout = time.Second * 30

// AllCapabilities lists every resource family any suite may require. It is
// printed at startup alongside whichever ones the target workspace is missing.
var AllCapabilities = []string{
	"document-records",
	"object-records",
	"reference-data",
	"tags",
	"search",
}

// T represents a test or subtest in the API test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an
// environment outside the Go test runner, with per-test debug capture provided
// by the framework package. To make assertions, pass the *T to the assert and
// require packages as if it were a *testing.T.
//
// Every T shares the harness's single client session, so rate-limit buckets
// and the cached credential behave exactly as they will under load.
type T struct {
	context *framework.Context
	harness *framework.TestHarness
}

func newTestScope(c *framework.Context, harness *framework.TestHarness) *T {
	return &T{context: c, harness: harness}
}

// Errorf is called by assertions to log a test failure. It does not cause an
// immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately
// exit. The methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest, equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.harness))
	})
}

// Debug logs debug output for the test, shown only per the test logger's
// policy (normally, only when the test fails).
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// RequireCapability skips this test if the target workspace does not expose
// the named resource family.
func (t *T) RequireCapability(capability string) {
	if !t.harness.HasCapability(capability) {
		t.context.SkipWithReason("workspace does not expose " + capability)
	}
}

// Context returns a context bounding one API call within this test.
func (t *T) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultCallTimeout)
}

// DocumentRecords returns an endpoint client for document records, bound to
// the shared session.
func (t *T) DocumentRecords() *endpoints.DocumentRecordsClient {
	return endpoints.NewDocumentRecordsClient(t.harness.Session())
}

// ObjectRecords returns an endpoint client for object records.
func (t *T) ObjectRecords() *endpoints.ObjectRecordsClient {
	return endpoints.NewObjectRecordsClient(t.harness.Session())
}

// ReferenceData returns an endpoint client for reference data.
func (t *T) ReferenceData() *endpoints.ReferenceDataClient {
	return endpoints.NewReferenceDataClient(t.harness.Session())
}

// recordView is the subset of record fields the suites assert on. Body schemas
// are otherwise the tests' own business, per the harness contract.
type recordView struct {
	ID     string                 `json:"id"`
	Code   string                 `json:"code"`
	Fields map[string]interface{} `json:"fields"`
	Tags   []string               `json:"tags"`
}

// requireStatus fails the test unless the call succeeded with one of the given
// status codes, logging the response body for diagnosis.
func (t *T) requireStatus(resp *apiclient.Response, err error, expected ...int) *apiclient.Response {
	if err != nil {
		t.Errorf("request failed: %s", err)
		t.FailNow()
	}
	for _, status := range expected {
		if resp.Status == status {
			return resp
		}
	}
	t.Debug("unexpected response body: %s", string(resp.Body))
	t.Errorf("expected status in %v, got %d", expected, resp.Status)
	t.FailNow()
	return nil
}

// parseRecord decodes a single-record response body.
func (t *T) parseRecord(resp *apiclient.Response) recordView {
	var rec recordView
	if err := json.Unmarshal(resp.Body, &rec); err != nil {
		t.Errorf("malformed record body %q: %s", string(resp.Body), err)
		t.FailNow()
	}
	return rec
}

// parseRecords decodes a record-list response body.
func (t *T) parseRecords(resp *apiclient.Response) []recordView {
	var recs []recordView
	if err := json.Unmarshal(resp.Body, &recs); err != nil {
		t.Errorf("malformed record list body %q: %s", string(resp.Body), err)
		t.FailNow()
	}
	return recs
}

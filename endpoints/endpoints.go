// Package endpoints contains the per-resource API clients used by the test
// suites and the load runner. Each client is a stateless façade over a shared
// apiclient.Client session: it declares its resource paths and, per operation,
// the rate-limit category and idempotency flag, and delegates everything else
// (auth, rate limiting, retries) to the session pipeline.
package endpoints

import (
	"net/url"
)

// Rate-limit categories, one per resource family. These are the keys expected
// in the session configuration's category map.
const (
	CategoryDocumentRecords = "document-records"
	CategoryObjectRecords   = "object-records"
	CategoryReferenceData   = "reference-data"
)

func recordPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

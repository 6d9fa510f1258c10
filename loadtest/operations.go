package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
	"github.com/Atractapp/legito-api-testing-sub002/endpoints"
)

// StandardOperations is the default operation mix for a load run: a write
// path (create then delete, so the workspace is left clean), a keyed read,
// and a list read, spread across two rate-limit categories.
func StandardOperations(session *apiclient.Client) []Operation {
	docs := endpoints.NewDocumentRecordsClient(session)
	refs := endpoints.NewReferenceDataClient(session)

	return []Operation{
		{
			Name: "document-records/create-delete",
			Run: func(ctx context.Context) error {
				resp, err := docs.Create(ctx, map[string]interface{}{
					"code": "LOAD-" + uuid.NewString()[:8],
					"name": "load test record",
				})
				if err != nil {
					return err
				}
				var created struct {
					ID string `json:"id"`
				}
				if err := json.Unmarshal(resp.Body, &created); err != nil {
					return fmt.Errorf("malformed create response: %w", err)
				}
				_, err = docs.DeleteByID(ctx, created.ID)
				return err
			},
		},
		{
			Name: "document-records/list",
			Run: func(ctx context.Context) error {
				_, err := docs.List(ctx, url.Values{})
				return err
			},
		},
		{
			Name: "reference-data/list",
			Run: func(ctx context.Context) error {
				_, err := refs.List(ctx, url.Values{})
				return err
			},
		},
	}
}

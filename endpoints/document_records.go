package endpoints

import (
	"context"
	"net/url"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
)

const documentRecordsBasePath = "/document-records"

// DocumentRecordsClient exposes the document-record resource family. Create
// and bulk-create are the only operations here that are not safe to repeat;
// everything else is keyed by ID or has set semantics, so a retried call has
// the same net effect as the first.
type DocumentRecordsClient struct {
	api *apiclient.Client
}

func NewDocumentRecordsClient(api *apiclient.Client) *DocumentRecordsClient {
	return &DocumentRecordsClient{api: api}
}

func (c *DocumentRecordsClient) opts(idempotent bool) apiclient.RequestOpts {
	return apiclient.RequestOpts{Category: CategoryDocumentRecords, Idempotent: idempotent}
}

// Create creates a new document record from the given payload.
func (c *DocumentRecordsClient) Create(ctx context.Context, record interface{}) (*apiclient.Response, error) {
	o := c.opts(false)
	o.Data = record
	return c.api.Post(ctx, documentRecordsBasePath, o)
}

// GetByID fetches a single document record by its numeric or system ID.
func (c *DocumentRecordsClient) GetByID(ctx context.Context, id string) (*apiclient.Response, error) {
	return c.api.Get(ctx, recordPath(documentRecordsBasePath, id), c.opts(true))
}

// GetByCode fetches a single document record by its workspace code.
func (c *DocumentRecordsClient) GetByCode(ctx context.Context, code string) (*apiclient.Response, error) {
	return c.api.Get(ctx, documentRecordsBasePath+"/code/"+url.PathEscape(code), c.opts(true))
}

// List fetches document records, optionally filtered/paged by query params.
func (c *DocumentRecordsClient) List(ctx context.Context, params url.Values) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Params = params
	return c.api.Get(ctx, documentRecordsBasePath, o)
}

// Update replaces a document record wholesale.
func (c *DocumentRecordsClient) Update(ctx context.Context, id string, record interface{}) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = record
	return c.api.Put(ctx, recordPath(documentRecordsBasePath, id), o)
}

// Patch applies a partial update. The target API documents last-write-wins
// semantics for record patches, which is what makes this safe to retry.
func (c *DocumentRecordsClient) Patch(ctx context.Context, id string, fields interface{}) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = fields
	return c.api.Patch(ctx, recordPath(documentRecordsBasePath, id), o)
}

// DeleteByID deletes a single document record.
func (c *DocumentRecordsClient) DeleteByID(ctx context.Context, id string) (*apiclient.Response, error) {
	return c.api.Delete(ctx, recordPath(documentRecordsBasePath, id), c.opts(true))
}

// BulkCreate creates many document records in one call.
func (c *DocumentRecordsClient) BulkCreate(ctx context.Context, records interface{}) (*apiclient.Response, error) {
	o := c.opts(false)
	o.Data = records
	return c.api.Post(ctx, documentRecordsBasePath+"/bulk", o)
}

// BulkDelete deletes the records with the given IDs. Deleting an already
// deleted ID is a no-op on the target API, so the operation is idempotent.
func (c *DocumentRecordsClient) BulkDelete(ctx context.Context, ids []string) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = map[string][]string{"ids": ids}
	return c.api.Post(ctx, documentRecordsBasePath+"/bulk-delete", o)
}

// AddTags adds tags to a record. Tags are a set on the server side.
func (c *DocumentRecordsClient) AddTags(ctx context.Context, id string, tags []string) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = map[string][]string{"tags": tags}
	return c.api.Post(ctx, recordPath(documentRecordsBasePath, id)+"/tags", o)
}

// RemoveTags removes tags from a record.
func (c *DocumentRecordsClient) RemoveTags(ctx context.Context, id string, tags []string) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = map[string][]string{"tags": tags}
	return c.api.Delete(ctx, recordPath(documentRecordsBasePath, id)+"/tags", o)
}

// Search runs a structured search. The API uses POST for searches, but the
// operation is read-only and therefore idempotent.
func (c *DocumentRecordsClient) Search(ctx context.Context, query interface{}) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = query
	return c.api.Post(ctx, documentRecordsBasePath+"/search", o)
}

package endpoints

import (
	"context"
	"net/url"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
)

const objectRecordsBasePath = "/object-records"

// ObjectRecordsClient exposes the object-record resource family. The operation
// surface mirrors DocumentRecordsClient; only the base path and rate-limit
// category differ.
type ObjectRecordsClient struct {
	api *apiclient.Client
}

func NewObjectRecordsClient(api *apiclient.Client) *ObjectRecordsClient {
	return &ObjectRecordsClient{api: api}
}

func (c *ObjectRecordsClient) opts(idempotent bool) apiclient.RequestOpts {
	return apiclient.RequestOpts{Category: CategoryObjectRecords, Idempotent: idempotent}
}

func (c *ObjectRecordsClient) Create(ctx context.Context, record interface{}) (*apiclient.Response, error) {
	o := c.opts(false)
	o.Data = record
	return c.api.Post(ctx, objectRecordsBasePath, o)
}

func (c *ObjectRecordsClient) GetByID(ctx context.Context, id string) (*apiclient.Response, error) {
	return c.api.Get(ctx, recordPath(objectRecordsBasePath, id), c.opts(true))
}

func (c *ObjectRecordsClient) GetByCode(ctx context.Context, code string) (*apiclient.Response, error) {
	return c.api.Get(ctx, objectRecordsBasePath+"/code/"+url.PathEscape(code), c.opts(true))
}

func (c *ObjectRecordsClient) List(ctx context.Context, params url.Values) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Params = params
	return c.api.Get(ctx, objectRecordsBasePath, o)
}

func (c *ObjectRecordsClient) Update(ctx context.Context, id string, record interface{}) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = record
	return c.api.Put(ctx, recordPath(objectRecordsBasePath, id), o)
}

func (c *ObjectRecordsClient) Patch(ctx context.Context, id string, fields interface{}) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = fields
	return c.api.Patch(ctx, recordPath(objectRecordsBasePath, id), o)
}

func (c *ObjectRecordsClient) DeleteByID(ctx context.Context, id string) (*apiclient.Response, error) {
	return c.api.Delete(ctx, recordPath(objectRecordsBasePath, id), c.opts(true))
}

func (c *ObjectRecordsClient) BulkCreate(ctx context.Context, records interface{}) (*apiclient.Response, error) {
	o := c.opts(false)
	o.Data = records
	return c.api.Post(ctx, objectRecordsBasePath+"/bulk", o)
}

func (c *ObjectRecordsClient) BulkDelete(ctx context.Context, ids []string) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = map[string][]string{"ids": ids}
	return c.api.Post(ctx, objectRecordsBasePath+"/bulk-delete", o)
}

func (c *ObjectRecordsClient) AddTags(ctx context.Context, id string, tags []string) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = map[string][]string{"tags": tags}
	return c.api.Post(ctx, recordPath(objectRecordsBasePath, id)+"/tags", o)
}

func (c *ObjectRecordsClient) RemoveTags(ctx context.Context, id string, tags []string) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = map[string][]string{"tags": tags}
	return c.api.Delete(ctx, recordPath(objectRecordsBasePath, id)+"/tags", o)
}

func (c *ObjectRecordsClient) Search(ctx context.Context, query interface{}) (*apiclient.Response, error) {
	o := c.opts(true)
	o.Data = query
	return c.api.Post(ctx, objectRecordsBasePath+"/search", o)
}

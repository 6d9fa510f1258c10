package endpoints

import (
	"context"
	"net/url"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
)

const referenceDataBasePath = "/reference-data"

// ReferenceDataClient exposes the read-only reference-data family (currencies,
// countries, workspace enumerations). Every operation is idempotent.
type ReferenceDataClient struct {
	api *apiclient.Client
}

func NewReferenceDataClient(api *apiclient.Client) *ReferenceDataClient {
	return &ReferenceDataClient{api: api}
}

func (c *ReferenceDataClient) opts() apiclient.RequestOpts {
	return apiclient.RequestOpts{Category: CategoryReferenceData, Idempotent: true}
}

func (c *ReferenceDataClient) List(ctx context.Context, params url.Values) (*apiclient.Response, error) {
	o := c.opts()
	o.Params = params
	return c.api.Get(ctx, referenceDataBasePath, o)
}

func (c *ReferenceDataClient) GetByCode(ctx context.Context, code string) (*apiclient.Response, error) {
	return c.api.Get(ctx, referenceDataBasePath+"/code/"+url.PathEscape(code), c.opts())
}

func (c *ReferenceDataClient) Search(ctx context.Context, query interface{}) (*apiclient.Response, error) {
	o := c.opts()
	o.Data = query
	return c.api.Post(ctx, referenceDataBasePath+"/search", o)
}

package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	barsPath          = "/bars"
	defaultHealthWait = 30 * time.Second
)

type BarClient struct {
	httpClient *HttpClient
}

func NewBarClient(baseURL string) *BarClient {
	return &BarClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// WithToken sends a bearer token so the server can resolve the current user.
func (c *BarClient) WithToken(token string) *BarClient {
	c.httpClient.SetHeader("Authorization", "Bearer "+token)
	return c
}

func (c *BarClient) WaitForHealthy(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return c.httpClient.WaitForHealthy(defaultHealthWait)
	}
	return c.httpClient.WaitForHealthy(time.Until(deadline))
}

func (c *BarClient) List(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, barsPath)
}

func (c *BarClient) Create(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, barsPath, body)
}

func (c *BarClient) Get(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, barPath(id))
}

func (c *BarClient) Replace(ctx context.Context, id string, body any) (*Response, error) {
	return c.httpClient.PUT(ctx, barPath(id), body)
}

func (c *BarClient) Patch(ctx context.Context, id string, ops any) (*Response, error) {
	return c.httpClient.PATCH(ctx, barPath(id), ops)
}

func (c *BarClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, barPath(id))
}

func (c *BarClient) ToggleVisitor(ctx context.Context, externalID, userID string) (*Response, error) {
	path := fmt.Sprintf("%s/%s/visit/%s", barsPath, url.PathEscape(externalID), url.PathEscape(userID))
	return c.httpClient.PUT(ctx, path, nil)
}

func (c *BarClient) Search(ctx context.Context, location string) (*Response, error) {
	return c.httpClient.GET(ctx, barsPath+"/search/"+url.PathEscape(location))
}

func barPath(id string) string {
	return barsPath + "/" + url.PathEscape(id)
}

// file: internal/httpclient/client.go

package httpclient

import (
	"context"
	"io"
	"net/http"

	"token-keeper/internal/authorizer"
)

// Client is a façade over http.Client that keeps every request
// authorized. Responses and transport errors pass through unchanged.
type Client struct {
	hc *http.Client
}

// New creates a Client around the given authorizer. A nil base uses a
// zero-value http.Client.
func New(a authorizer.Authorizer, base *http.Client) *Client {
	var inner http.Client
	if base != nil {
		inner = *base
	}
	inner.Transport = &Transport{
		Base:       inner.Transport,
		Authorizer: a,
	}
	return &Client{hc: &inner}
}

// Do sends the request, injecting the authorization header if absent.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.hc.Do(req)
}

// Get issues a GET request to the URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url, "", nil)
}

// Head issues a HEAD request to the URL.
func (c *Client) Head(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodHead, url, "", nil)
}

// Post issues a POST request to the URL with the given body.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, url, contentType, body)
}

// Put issues a PUT request to the URL with the given body.
func (c *Client) Put(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, url, contentType, body)
}

// Patch issues a PATCH request to the URL with the given body.
func (c *Client) Patch(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPatch, url, contentType, body)
}

// Delete issues a DELETE request to the URL.
func (c *Client) Delete(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, url, "", nil)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.hc.Do(req)
}

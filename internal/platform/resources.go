package platform

import (
	"context"
	"net/http"
)

// Generic JSON verbs for the /admin/* resource endpoints. The CRUD pages
// (organizations, plans, subscriptions, users, audit, analytics) consume
// the backend through these; they carry no authorization logic beyond
// the bearer header and 401 handling of the gateway itself.

// Get performs a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, callOpts{})
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, callOpts{})
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out, callOpts{})
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, callOpts{})
}

package qrm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Endpoint is one of the provider's status lookup routes. The provider does
// not document which one is authoritative, so callers try them in order.
type Endpoint struct {
	Name string
	path func(id string) string
}

var (
	EndpointQRStatus = Endpoint{Name: "qr-status", path: func(id string) string {
		return "/operations/" + url.PathEscape(id) + "/qr-status/"
	}}
	EndpointStatus = Endpoint{Name: "status", path: func(id string) string {
		return "/operations/" + url.PathEscape(id) + "/status/"
	}}
	EndpointOperation = Endpoint{Name: "operations", path: func(id string) string {
		return "/operations/" + url.PathEscape(id) + "/"
	}}
	EndpointSearch = Endpoint{Name: "operations-search", path: func(id string) string {
		return "/operations/?" + url.Values{"search": {id}}.Encode()
	}}
)

// StatusEndpoints returns the lookup routes in probing order.
func StatusEndpoints() []Endpoint {
	return []Endpoint{EndpointQRStatus, EndpointStatus, EndpointOperation, EndpointSearch}
}

// FetchStatus returns the raw body of a successful status lookup.
func (c *Client) FetchStatus(ctx context.Context, ep Endpoint, operationID string) ([]byte, error) {
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return nil, fmt.Errorf("operation id is required")
	}
	if ep.path == nil {
		return nil, fmt.Errorf("unknown endpoint %q", ep.Name)
	}
	body, err := c.do(ctx, http.MethodGet, ep.path(operationID), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.Name, err)
	}
	return body, nil
}

// file: internal/httpclient/transport.go

// Package httpclient provides a drop-in wrapper over a generic HTTP
// client that ensures every outgoing request carries an authorization
// header. A request that already has one is forwarded unchanged.
package httpclient

import (
	"fmt"
	"net/http"

	"token-keeper/internal/authorizer"
)

// Transport is an http.RoundTripper that injects the current
// authorization header into outgoing requests.
type Transport struct {
	// Base is the underlying transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Authorizer provides the current header value.
	Authorizer authorizer.Authorizer
}

// RoundTrip implements http.RoundTripper. If the request already carries
// an authorization header, it is forwarded untouched and the Authorizer
// is not consulted. If the Authorizer reports failure, the request fails
// fast instead of being sent without credentials.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Authorizer == nil {
		return nil, fmt.Errorf("httpclient: authorizer is nil")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if req.Header.Get(authorizer.HeaderName) != "" {
		return base.RoundTrip(req)
	}

	header, err := t.Authorizer.AuthorizationHeader()
	if err != nil {
		return nil, fmt.Errorf("httpclient: unauthenticated: %w", err)
	}

	// Clone the request; RoundTrippers must not modify the original.
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set(authorizer.HeaderName, header)

	return base.RoundTrip(reqClone)
}

// file: internal/authorizer/authorizer.go

// Package authorizer issues and maintains bearer credentials for outbound
// HTTP and gRPC clients. The ManagedAuthorizer keeps a single cached token
// fresh with a background refresh loop; readers never touch the network.
package authorizer

import (
	"fmt"
)

// HeaderName is the HTTP header the authorization value is carried in.
const HeaderName = "Authorization"

// Authorizer provides the current authorization header value for outbound
// requests. Implementations must be safe for concurrent use and must not
// block on network I/O.
type Authorizer interface {
	// AuthorizationHeader returns the value to place in the Authorization
	// header, e.g. "Bearer <token>". It returns an UnavailableError when
	// no valid token is available.
	AuthorizationHeader() (string, error)
}

// bearerHeader formats a token with the bearer scheme, rejecting tokens
// that cannot be represented as a header value.
func bearerHeader(token string) (string, error) {
	if token == "" {
		return "", &EncodingError{Reason: "token is empty"}
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c < 0x21 || c > 0x7e {
			return "", &EncodingError{Reason: fmt.Sprintf("byte 0x%02x at position %d is not printable ASCII", c, i)}
		}
	}
	return "Bearer " + token, nil
}

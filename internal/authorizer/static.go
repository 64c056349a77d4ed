// file: internal/authorizer/static.go

package authorizer

// StaticTokenAuthorizer attaches a fixed token to outgoing requests with
// the Bearer scheme. It never refreshes and never fails after construction.
type StaticTokenAuthorizer struct {
	header string
}

// NewStaticToken creates an authorizer for a fixed token. Pass only the
// token, without the "Bearer " prefix.
func NewStaticToken(token string) (*StaticTokenAuthorizer, error) {
	header, err := bearerHeader(token)
	if err != nil {
		return nil, err
	}
	return &StaticTokenAuthorizer{header: header}, nil
}

// AuthorizationHeader returns the fixed header value.
func (a *StaticTokenAuthorizer) AuthorizationHeader() (string, error) {
	return a.header, nil
}

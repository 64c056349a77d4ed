// file: internal/authorizer/exchange.go

package authorizer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Grant is the result of one token exchange.
type Grant struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time // zero when the token does not expire
}

// TokenExchanger performs one token-issuing exchange against an external
// endpoint. Implementations adapt their endpoint shape to this interface;
// the cache and refresh loop only ever see a Grant.
type TokenExchanger interface {
	Exchange(ctx context.Context) (Grant, error)
}

// OAuth2Exchanger performs the OAuth2 client credentials flow.
type OAuth2Exchanger struct {
	conf   *clientcredentials.Config
	client *http.Client
}

// NewOAuth2Exchanger creates an exchanger for the client credentials flow.
// A nil httpClient gets a default client with redirects disabled.
func NewOAuth2Exchanger(tokenURL, clientID, clientSecret string, scopes []string, extraParams map[string]string, httpClient *http.Client) *OAuth2Exchanger {
	var endpointParams url.Values
	if len(extraParams) > 0 {
		endpointParams = url.Values{}
		for name, value := range extraParams {
			endpointParams.Set(name, value)
		}
	}

	if httpClient == nil {
		httpClient = DefaultHTTPClient(defaultRequestTimeout)
	}

	return &OAuth2Exchanger{
		conf: &clientcredentials.Config{
			ClientID:       clientID,
			ClientSecret:   clientSecret,
			TokenURL:       tokenURL,
			Scopes:         scopes,
			EndpointParams: endpointParams,
			// Pin basic auth so a failing endpoint is not probed twice
			// per attempt with both credential placements.
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		client: httpClient,
	}
}

// Exchange requests a new token from the endpoint.
func (e *OAuth2Exchanger) Exchange(ctx context.Context) (Grant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)

	tok, err := e.conf.Token(ctx)
	if err != nil {
		return Grant{}, classifyOAuth2Error(err)
	}
	if tok.AccessToken == "" {
		return Grant{}, &ProtocolError{Cause: errors.New("no access token in response")}
	}

	return Grant{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Expiry:      tok.Expiry,
	}, nil
}

// classifyOAuth2Error maps x/oauth2 failures onto the error taxonomy.
func classifyOAuth2Error(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &ProtocolError{StatusCode: status, Cause: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &TransportError{Cause: err}
	}
	return &ProtocolError{Cause: err}
}

// defaultRequestTimeout bounds a single token exchange when no custom
// client is supplied.
const defaultRequestTimeout = 30 * time.Second

// DefaultHTTPClient returns the client used for token requests when none
// is configured: bounded request timeout, redirects disabled.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// file: internal/authorizer/endpoint.go

package authorizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// EndpointExchanger obtains tokens from arbitrary HTTP token endpoints
// that do not speak the OAuth2 token protocol. The request body is a
// template with ${VAR} environment placeholders; the token and optional
// lifetime are extracted from the JSON response with dot-notation paths.
type EndpointExchanger struct {
	authURL      string
	method       string
	headers      map[string]string
	bodyTemplate string
	tokenPath    string
	expiryPath   string // path to a lifetime in seconds; empty or absent means the token does not expire
	httpClient   *http.Client
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// NewEndpointExchanger creates an exchanger for a custom token endpoint.
// A nil httpClient gets a default client with redirects disabled.
func NewEndpointExchanger(authURL, method string, headers map[string]string, bodyTemplate, tokenPath, expiryPath string, httpClient *http.Client) *EndpointExchanger {
	if method == "" {
		method = http.MethodPost
	}
	if httpClient == nil {
		httpClient = DefaultHTTPClient(defaultRequestTimeout)
	}
	return &EndpointExchanger{
		authURL:      authURL,
		method:       method,
		headers:      headers,
		bodyTemplate: bodyTemplate,
		tokenPath:    tokenPath,
		expiryPath:   expiryPath,
		httpClient:   httpClient,
	}
}

// Exchange performs the HTTP exchange and extracts the token.
func (e *EndpointExchanger) Exchange(ctx context.Context) (Grant, error) {
	body := expandEnvVars(e.bodyTemplate)

	req, err := http.NewRequestWithContext(ctx, e.method, e.authURL, bytes.NewBufferString(body))
	if err != nil {
		return Grant{}, &TransportError{Cause: err}
	}
	for key, value := range e.headers {
		req.Header.Set(key, value)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Grant{}, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Grant{}, &ProtocolError{
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("authentication failed: %s", strings.TrimSpace(string(respBody))),
		}
	}

	var result interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Grant{}, &ProtocolError{Cause: fmt.Errorf("failed to parse JSON response: %w", err)}
	}

	token, err := extractStringPath(result, e.tokenPath)
	if err != nil {
		return Grant{}, &ProtocolError{Cause: fmt.Errorf("failed to extract token at path '%s': %w", e.tokenPath, err)}
	}
	if token == "" {
		return Grant{}, &ProtocolError{Cause: fmt.Errorf("extracted token is empty")}
	}

	grant := Grant{AccessToken: token}

	if e.expiryPath != "" {
		seconds, found, err := extractNumberPath(result, e.expiryPath)
		if err != nil {
			return Grant{}, &ProtocolError{Cause: fmt.Errorf("failed to extract lifetime at path '%s': %w", e.expiryPath, err)}
		}
		// A missing lifetime field means the token does not expire.
		if found {
			grant.Expiry = time.Now().Add(time.Duration(seconds * float64(time.Second)))
		}
	}

	return grant, nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(template string) string {
	return envVarPattern.ReplaceAllStringFunc(template, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// lookupPath walks parsed JSON using dot notation, e.g. "data.access_token".
func lookupPath(data interface{}, path string) (interface{}, bool, error) {
	if path == "" {
		return nil, false, fmt.Errorf("empty path")
	}

	current := data
	for i, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false, fmt.Errorf("cannot traverse into %T at path segment %d", current, i)
		}
		val, exists := obj[part]
		if !exists {
			return nil, false, nil
		}
		current = val
	}
	return current, true, nil
}

// extractStringPath extracts a string value; the path must resolve.
func extractStringPath(data interface{}, path string) (string, error) {
	val, found, err := lookupPath(data, path)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("path not found")
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return "", fmt.Errorf("value is not a string, got %T", val)
	}
}

// extractNumberPath extracts a numeric value; a missing path is not an error.
func extractNumberPath(data interface{}, path string) (float64, bool, error) {
	val, found, err := lookupPath(data, path)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}

	switch v := val.(type) {
	case float64:
		return v, true, nil
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(v, "%g", &parsed); err != nil {
			return 0, false, fmt.Errorf("value %q is not numeric", v)
		}
		return parsed, true, nil
	default:
		return 0, false, fmt.Errorf("value is not numeric, got %T", val)
	}
}

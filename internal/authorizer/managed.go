// file: internal/authorizer/managed.go

package authorizer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"token-keeper/internal/logger"
	"token-keeper/internal/metrics"
)

// Defaults for the fetch and refresh discipline.
const (
	DefaultMaxRetries       = 3
	DefaultRetryInterval    = 10 * time.Millisecond
	DefaultRefreshTolerance = 30 * time.Second
)

// ManagedAuthorizer holds one token obtained through a TokenExchanger and
// keeps it fresh with a background refresh loop. Readers only ever see
// the cached state; they never wait on the exchange.
type ManagedAuthorizer struct {
	name      string
	cache     cache
	fetcher   *fetcher
	tolerance time.Duration
	onRefresh func(token string, expiry time.Time)
	logger    *logger.Logger
	metrics   *metrics.Metrics

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type options struct {
	name           string
	maxRetries     int
	retryInterval  time.Duration
	tolerance      time.Duration
	disableRefresh bool
	requestTimeout time.Duration
	httpClient     *http.Client
	scopes         []string
	extraParams    map[string]string
	onRefresh      func(token string, expiry time.Time)
	logger         *logger.Logger
	metrics        *metrics.Metrics
}

// Option configures a ManagedAuthorizer.
type Option func(*options)

// WithName sets the credential name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMaxRetries sets how many additional exchange attempts are made
// after a failure. Zero disables retries. Default is 3.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxRetries = n
	}
}

// WithRetryInterval sets the fixed sleep between exchange attempts.
// Default is 10ms.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) { o.retryInterval = d }
}

// WithRefreshTolerance sets how long before expiry the token is
// refreshed. Default is 30s.
func WithRefreshTolerance(d time.Duration) Option {
	return func(o *options) { o.tolerance = d }
}

// WithoutRefresh disables the background refresh loop entirely.
func WithoutRefresh() Option {
	return func(o *options) { o.disableRefresh = true }
}

// WithRequestTimeout bounds a single token exchange request. Only applies
// when no custom HTTP client is set. Default is 30s.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithHTTPClient sets a custom client for token requests. When setting
// one, keep redirects disabled to avoid leaking credentials.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithScopes sets the scopes requested in the token exchange.
func WithScopes(scopes ...string) Option {
	return func(o *options) { o.scopes = scopes }
}

// WithExtraParam appends an extra parameter to the token request.
func WithExtraParam(name, value string) Option {
	return func(o *options) {
		if o.extraParams == nil {
			o.extraParams = make(map[string]string)
		}
		o.extraParams[name] = value
	}
}

// WithOnRefresh registers a hook invoked synchronously by the refresh
// loop after every successful token store, including the initial one.
func WithOnRefresh(fn func(token string, expiry time.Time)) Option {
	return func(o *options) { o.onRefresh = fn }
}

// WithLogger sets the logger. Default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		name:           "default",
		maxRetries:     DefaultMaxRetries,
		retryInterval:  DefaultRetryInterval,
		tolerance:      DefaultRefreshTolerance,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	return o
}

// NewClientCredentials creates a ManagedAuthorizer for the OAuth2 client
// credentials flow. It performs one synchronous token fetch; if that
// fetch fails, construction fails and no background state is created.
func NewClientCredentials(ctx context.Context, tokenURL, clientID, clientSecret string, opts ...Option) (*ManagedAuthorizer, error) {
	o := buildOptions(opts)

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = DefaultHTTPClient(o.requestTimeout)
	}

	exchanger := NewOAuth2Exchanger(tokenURL, clientID, clientSecret, o.scopes, o.extraParams, httpClient)
	return newManaged(ctx, exchanger, o)
}

// NewManagedAuthorizer creates a ManagedAuthorizer on top of any
// TokenExchanger. Scope and HTTP client options are ignored here; they
// belong to the exchanger.
func NewManagedAuthorizer(ctx context.Context, exchanger TokenExchanger, opts ...Option) (*ManagedAuthorizer, error) {
	return newManaged(ctx, exchanger, buildOptions(opts))
}

func newManaged(ctx context.Context, exchanger TokenExchanger, o options) (*ManagedAuthorizer, error) {
	a := &ManagedAuthorizer{
		name: o.name,
		fetcher: &fetcher{
			name:          o.name,
			exchanger:     exchanger,
			maxRetries:    o.maxRetries,
			retryInterval: o.retryInterval,
			logger:        o.logger,
			metrics:       o.metrics,
		},
		tolerance: o.tolerance,
		onRefresh: o.onRefresh,
		logger:    o.logger,
		metrics:   o.metrics,
	}

	// Initial populate. A fetch failure aborts construction; an encoding
	// failure does not, it is recorded as the failed cache state.
	grant, err := a.fetcher.fetch(ctx)
	if err != nil {
		return nil, err
	}
	a.storeGrant(grant)

	if o.disableRefresh || grant.Expiry.IsZero() {
		a.logger.Debug("background refresh not started",
			"credential", a.name,
			"disabled", o.disableRefresh,
			"expires", !grant.Expiry.IsZero())
		return a, nil
	}

	// The loop outlives the constructor's context; it stops on Close.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.wg.Add(1)
	go a.refreshLoop(loopCtx)

	return a, nil
}

// AuthorizationHeader returns the current bearer header value, or an
// UnavailableError wrapping the last fetch failure. It never blocks on
// network I/O.
func (a *ManagedAuthorizer) AuthorizationHeader() (string, error) {
	ent, err := a.cache.snapshot()
	if err != nil {
		if a.metrics != nil {
			a.metrics.IncUnavailableRead(a.name)
		}
		return "", &UnavailableError{Cause: err}
	}
	if a.metrics != nil {
		a.metrics.IncHeaderRead(a.name)
	}
	return ent.header, nil
}

// Close stops the background refresh loop and waits for it to exit. No
// cache replacements happen after Close returns. The token is not
// revoked at the endpoint.
func (a *ManagedAuthorizer) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()
	})
}

// storeGrant encodes a fetched grant into the cache. A token that cannot
// be carried as a header value is recorded as a failure even though the
// exchange succeeded.
func (a *ManagedAuthorizer) storeGrant(grant Grant) {
	header, err := bearerHeader(grant.AccessToken)
	if err != nil {
		a.cache.replace(entry{}, err)
		if a.metrics != nil {
			a.metrics.IncRefreshFailure(a.name)
		}
		a.logger.Error("issued token is not header-safe",
			"credential", a.name,
			"error", err)
		return
	}

	a.cache.replace(entry{header: header, expiry: grant.Expiry}, nil)
	if a.metrics != nil {
		a.metrics.IncRefreshSuccess(a.name)
	}
	if grant.Expiry.IsZero() {
		a.logger.Debug("token stored", "credential", a.name, "expires", "never")
	} else {
		a.logger.Debug("token stored", "credential", a.name, "expiry", grant.Expiry)
	}

	if a.onRefresh != nil {
		a.onRefresh(grant.AccessToken, grant.Expiry)
	}
}

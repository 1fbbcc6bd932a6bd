package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is Reddit's OAuth2 token endpoint
const DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// ErrMissingCredentials is returned when client id or secret is empty
var ErrMissingCredentials = errors.New("reddit client id and secret are required")

// Credentials are the three opaque values identifying a Reddit script app
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Complete reports whether id and secret are both set
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Manager builds authenticated HTTP clients for the Reddit API
type Manager struct {
	creds    Credentials
	tokenURL string
	timeout  time.Duration
}

// NewManager creates a new auth manager
func NewManager(creds Credentials, timeout time.Duration) *Manager {
	return &Manager{
		creds:    creds,
		tokenURL: DefaultTokenURL,
		timeout:  timeout,
	}
}

// WithTokenURL overrides the token endpoint (for testing)
func (m *Manager) WithTokenURL(url string) *Manager {
	m.tokenURL = url
	return m
}

// Client returns an HTTP client that obtains and refreshes an application-only
// bearer token and stamps every request with the configured User-Agent.
// Token failures surface on the first request made with the client.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	if !m.creds.Complete() {
		return nil, ErrMissingCredentials
	}

	base := &http.Client{
		Timeout:   m.timeout,
		Transport: &UserAgentTransport{Agent: m.creds.UserAgent},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	cc := &clientcredentials.Config{
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		TokenURL:     m.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	client := cc.Client(ctx)
	client.Timeout = m.timeout
	return client, nil
}

// UserAgentTransport sets the User-Agent header on outgoing requests.
// Reddit throttles requests that use generic agents.
type UserAgentTransport struct {
	Agent string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Agent == "" {
		return base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.Agent)
	return base.RoundTrip(clone)
}

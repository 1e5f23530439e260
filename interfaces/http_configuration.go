package interfaces

import "net/http"

// HTTPConfiguration encapsulates the HTTP transport settings used by every component that makes
// network calls: the streaming/polling data sources, the event sender, and the diagnostic task.
type HTTPConfiguration struct {
	// HTTPClientFactory creates a new *http.Client configured with the connect/socket timeouts,
	// proxy, and TLS settings chosen at startup.
	HTTPClientFactory func() *http.Client
	// DefaultHeaders are applied to every outgoing request: Authorization, User-Agent, and
	// optionally X-LaunchDarkly-Tags / X-LaunchDarkly-Wrapper.
	DefaultHeaders http.Header
}

// CreateHTTPClient returns a new HTTP client configured per this HTTPConfiguration, or
// http.DefaultClient's zero value settings if no factory was supplied.
func (c HTTPConfiguration) CreateHTTPClient() *http.Client {
	if c.HTTPClientFactory == nil {
		client := *http.DefaultClient
		return &client
	}
	return c.HTTPClientFactory()
}

// GetDefaultHeaders returns a copy of the headers that should be applied to every outgoing
// request made by an SDK component.
func (c HTTPConfiguration) GetDefaultHeaders() http.Header {
	headers := make(http.Header, len(c.DefaultHeaders))
	for k, vv := range c.DefaultHeaders {
		headers[k] = vv
	}
	return headers
}

// HTTPConfigurationFactory is implemented by ldcomponents.HTTPConfigurationBuilder.
type HTTPConfigurationFactory interface {
	CreateHTTPConfiguration(basic BasicConfiguration) (HTTPConfiguration, error)
}

package ldcomponents

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// DefaultConnectTimeout is the default connection timeout for the SDK's HTTP transport.
const DefaultConnectTimeout = 3 * time.Second

const sdkVersion = "1.0.0"

// HTTPConfigurationBuilder configures the HTTP client used by every network-facing component:
// the streaming/polling data sources, the event sender, and the diagnostics task.
type HTTPConfigurationBuilder struct {
	connectTimeout    time.Duration
	httpClientFactory func() *http.Client
	caCertPool        *x509.CertPool
	proxyURL          *url.URL
	userAgent         string
	wrapperName       string
	wrapperVersion    string
}

// HTTPConfiguration returns a configuration builder with the default HTTP transport settings.
func HTTPConfiguration() *HTTPConfigurationBuilder {
	return &HTTPConfigurationBuilder{
		connectTimeout: DefaultConnectTimeout,
	}
}

// ConnectTimeout sets the maximum time to wait for a TCP connection to be established. Values
// less than or equal to zero reset it to DefaultConnectTimeout.
func (b *HTTPConfigurationBuilder) ConnectTimeout(timeout time.Duration) *HTTPConfigurationBuilder {
	if timeout <= 0 {
		b.connectTimeout = DefaultConnectTimeout
	} else {
		b.connectTimeout = timeout
	}
	return b
}

// CACert adds a CA certificate, in PEM format, to be trusted in addition to the platform's root
// CAs. Useful for connecting through a corporate proxy with an internally-signed certificate.
func (b *HTTPConfigurationBuilder) CACert(certPEM []byte) *HTTPConfigurationBuilder {
	if b.caCertPool == nil {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		b.caCertPool = pool
	}
	b.caCertPool.AppendCertsFromPEM(certPEM)
	return b
}

// ProxyURL sets an explicit HTTP proxy URL, overriding the HTTP_PROXY/HTTPS_PROXY environment
// variables that net/http.ProxyFromEnvironment would otherwise use.
func (b *HTTPConfigurationBuilder) ProxyURL(proxyURL string) *HTTPConfigurationBuilder {
	parsed, err := url.Parse(proxyURL)
	if err == nil {
		b.proxyURL = parsed
	}
	return b
}

// HTTPClientFactory overrides the transport entirely with an application-supplied *http.Client
// factory. When set, ConnectTimeout/CACert/ProxyURL are ignored.
func (b *HTTPConfigurationBuilder) HTTPClientFactory(factory func() *http.Client) *HTTPConfigurationBuilder {
	b.httpClientFactory = factory
	return b
}

// UserAgent sets a custom string to be prepended to the SDK's User-Agent header, separated by a
// space: "extra-agent-info GoClient/<version>".
func (b *HTTPConfigurationBuilder) UserAgent(userAgent string) *HTTPConfigurationBuilder {
	b.userAgent = userAgent
	return b
}

// Wrapper sets the name (and optionally version) of a wrapper library or framework that is using
// this SDK, reported via the X-LaunchDarkly-Wrapper header for usage diagnostics.
func (b *HTTPConfigurationBuilder) Wrapper(wrapperName, wrapperVersion string) *HTTPConfigurationBuilder {
	b.wrapperName = wrapperName
	b.wrapperVersion = wrapperVersion
	return b
}

func (b *HTTPConfigurationBuilder) isProxyEnabled() bool {
	if b.proxyURL != nil {
		return true
	}
	return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != ""
}

// CreateHTTPConfiguration is called internally by the SDK.
func (b *HTTPConfigurationBuilder) CreateHTTPConfiguration(
	basic interfaces.BasicConfiguration,
) (interfaces.HTTPConfiguration, error) {
	headers := make(http.Header)
	headers.Set("Authorization", basic.SDKKey)
	userAgent := "GoClient/" + sdkVersion
	if b.userAgent != "" {
		userAgent = b.userAgent + " " + userAgent
	}
	headers.Set("User-Agent", userAgent)
	if b.wrapperName != "" {
		wrapperHeader := b.wrapperName
		if b.wrapperVersion != "" {
			wrapperHeader = fmt.Sprintf("%s/%s", b.wrapperName, b.wrapperVersion)
		}
		headers.Set("X-LaunchDarkly-Wrapper", wrapperHeader)
	}

	factory := b.httpClientFactory
	if factory == nil {
		factory = b.defaultClientFactory()
	}

	return interfaces.HTTPConfiguration{
		HTTPClientFactory: factory,
		DefaultHeaders:    headers,
	}, nil
}

func (b *HTTPConfigurationBuilder) defaultClientFactory() func() *http.Client {
	connectTimeout := b.connectTimeout
	caCertPool := b.caCertPool
	proxyURL := b.proxyURL
	return func() *http.Client {
		dialer := &net.Dialer{Timeout: connectTimeout}
		transport := &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			Proxy:               http.ProxyFromEnvironment,
		}
		if proxyURL != nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		if caCertPool != nil {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
		return &http.Client{Transport: transport}
	}
}

// DescribeConfiguration is used internally by the SDK diagnostic event logic.
func (b *HTTPConfigurationBuilder) DescribeConfiguration(basic interfaces.BasicConfiguration) interface{} {
	return ldvalue.ObjectBuild().
		Set("connectTimeoutMillis", durationToMillisValue(b.connectTimeout)).
		Set("socketTimeoutMillis", durationToMillisValue(b.connectTimeout)).
		Set("usingProxy", ldvalue.Bool(b.isProxyEnabled())).
		Set("usingProxyAuthenticator", ldvalue.Bool(false)).
		Build()
}

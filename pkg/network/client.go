package network

import (
	"net/http"
	"net/url"
	"time"

	"github.com/Noooste/azuretls-client"
)

// ClientFactory creates HTTP clients with proxy configuration.
type ClientFactory struct {
	proxyURL       string
	testTransport  http.RoundTripper // For testing only
	testHTTPClient *http.Client      // For testing only
}

// NewClientFactory creates a factory that routes requests through proxyURL
// when it is non-empty.
func NewClientFactory(proxyURL string) *ClientFactory {
	return &ClientFactory{proxyURL: proxyURL}
}

// NewClientFactoryForTest creates a client factory that uses the given http.Client for testing.
// This is only for use in tests.
func NewClientFactoryForTest(client *http.Client) *ClientFactory {
	return &ClientFactory{testHTTPClient: client}
}

// NewHTTPClient creates a standard http.Client with proxy configuration.
func (f *ClientFactory) NewHTTPClient(timeout time.Duration) *http.Client {
	// For testing: return the injected client
	if f.testHTTPClient != nil {
		return f.testHTTPClient
	}

	client := &http.Client{Timeout: timeout}

	// For testing: use injected transport
	if f.testTransport != nil {
		client.Transport = f.testTransport
		return client
	}

	if f.proxyURL != "" {
		if parsed, err := url.Parse(f.proxyURL); err == nil {
			client.Transport = &http.Transport{
				Proxy: http.ProxyURL(parsed),
			}
		}
	}

	return client
}

// NewAzureSession creates an azuretls.Session with a Chrome fingerprint and
// proxy configuration.
func (f *ClientFactory) NewAzureSession(timeout time.Duration) *azuretls.Session {
	session := azuretls.NewSession()
	session.Browser = azuretls.Chrome
	session.SetTimeout(timeout)

	if f.proxyURL != "" {
		_ = session.SetProxy(f.proxyURL)
	}

	return session
}

// ProxyURL returns the configured proxy URL.
func (f *ClientFactory) ProxyURL() string {
	return f.proxyURL
}

// ExtractHost returns the host part of a URL for log fields; the input is
// returned unchanged when it does not parse.
func ExtractHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return parsed.Host
}

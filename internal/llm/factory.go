package llm

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// newHTTPClient builds the transport shared by all vendor clients: connect is
// bounded by connectTimeout and the whole exchange by timeout.
func newHTTPClient(connectTimeout, timeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// NewClientFactory returns a factory producing vendor clients for desc.
func NewClientFactory(desc *ProviderDescriptor, apiKey string) (ClientFactory, error) {
	switch desc.Driver {
	case DriverAnthropic:
		return func(timeout time.Duration) (Client, error) {
			return newAnthropicClient(desc, apiKey, timeout), nil
		}, nil
	case DriverOpenAI:
		return func(timeout time.Duration) (Client, error) {
			return newOpenAIClient(desc, apiKey, timeout), nil
		}, nil
	case DriverXAI:
		return func(timeout time.Duration) (Client, error) {
			return newXAIClient(desc, apiKey, timeout)
		}, nil
	case DriverGemini:
		return func(timeout time.Duration) (Client, error) {
			return newGeminiClient(desc, apiKey, timeout)
		}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", desc.Driver)
	}
}

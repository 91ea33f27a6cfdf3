package relay

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// DefaultUpstreamTimeout bounds how long a single upstream fetch may
// take, sized to fit inside typical edge-runtime execution limits.
const DefaultUpstreamTimeout = 25 * time.Second

// UpstreamClient performs the outbound fetch for one proxied exchange.
type UpstreamClient struct {
	client *http.Client
	policy *HeaderPolicy
}

func NewUpstreamClient(policy *HeaderPolicy, timeout time.Duration) *UpstreamClient {
	if policy == nil {
		policy = DefaultHeaderPolicy()
	}
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &UpstreamClient{
		client: &http.Client{Timeout: timeout},
		policy: policy,
	}
}

// Fetch issues the upstream request with the merged header set. The
// caller owns the response body.
func (u *UpstreamClient) Fetch(ctx context.Context, method string, target *url.URL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, err
	}
	for key, value := range buildUpstreamHeaders(u.policy, target.Hostname(), rangeHeader) {
		req.Header.Set(key, value)
	}
	return u.client.Do(req)
}

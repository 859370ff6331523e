package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single request made through DefaultFetcher.
	DefaultTimeout = 30 * time.Second

	userAgent = "stargate-client/1"
)

// RestyClient is the default Client. It never retries.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client whose requests time out after timeout (none when <= 0).
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient returns the underlying resty client for callers that send
// other verbs, such as the webhook publisher.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetHeader("Accept", "application/json")
	c.SetHeader("User-Agent", userAgent)
	return c
}

// Get issues one GET. Per-request headers override the client defaults.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

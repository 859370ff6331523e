package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Fetcher performs a GET and decodes the JSON body into out.
// Implementations issue exactly one request per call and never retry.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string, headers map[string]string, out any) error
}

// Validator is implemented by response types that have required fields.
// A Validate failure after decoding is reported as a *DecodeError.
type Validator interface {
	Validate() error
}

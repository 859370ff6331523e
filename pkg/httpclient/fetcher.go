package httpclient

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonFetcher implements Fetcher on top of a raw Client.
type jsonFetcher struct {
	client Client
}

var _ Fetcher = (*jsonFetcher)(nil)

// NewFetcher wraps client with status checking and JSON decoding.
// A nil client falls back to a RestyClient with DefaultTimeout.
func NewFetcher(client Client) Fetcher {
	if client == nil {
		client = NewRestyClient(DefaultTimeout)
	}
	return &jsonFetcher{client: client}
}

// DefaultFetcher returns the resty-backed Fetcher used when none is injected.
func DefaultFetcher() Fetcher { return NewFetcher(nil) }

// FetchJSON issues one GET to url and decodes a 2xx body into out.
func (f *jsonFetcher) FetchJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return &canceledError{URL: url, cause: err}
	}

	resp, err := f.client.Get(ctx, url, headers)
	if err != nil {
		return classifyRequestError(ctx, url, err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return &StatusError{URL: url, StatusCode: code, Body: BodySnippet(body)}
	}

	return decode(url, body, out)
}

func decode(url string, body []byte, out any) error {
	if out == nil {
		return &DecodeError{URL: url, Body: BodySnippet(body), Err: fmt.Errorf("nil decode target")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: url, Body: BodySnippet(body), Err: err}
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{URL: url, Body: BodySnippet(body), Err: err}
		}
	}
	return nil
}

// GetJSON fetches url and decodes it as a T. On failure no value is returned.
func GetJSON[T any](ctx context.Context, f Fetcher, url string, headers map[string]string) (*T, error) {
	var out T
	if err := f.FetchJSON(ctx, url, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

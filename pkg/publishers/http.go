package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/stargate-client/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// Routing headers set on every webhook delivery so receivers can filter
// without decoding the body.
const (
	headerEventID = "X-Stargate-Event-Id"
	headerNodeID  = "X-Stargate-Node-Id"
	headerChainID = "X-Stargate-Chain-Id"
	headerHeight  = "X-Stargate-Height"
)

// httpPublisher delivers tx events as JSON to a webhook.
type httpPublisher struct {
	id         string
	method     string
	url        string
	headers    map[string]string
	skipFailed bool
	client     *resty.Client
	log        Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	return &httpPublisher{
		id:         cfg.ID,
		method:     cfg.HTTP.Method,
		url:        cfg.HTTP.URL,
		headers:    cfg.HTTP.Headers,
		skipFailed: cfg.HTTP.SkipFailedTxs,
		client:     httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:        ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish posts evt. Txs with a non-zero code are dropped silently when
// skip_failed_txs is set.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	if h.skipFailed && evt.Code != 0 {
		h.log.DebugObj("http publisher skipped failed tx", "publisher_http_skip", map[string]any{
			"publisher_id": h.id,
			"txhash":       evt.TxHash,
			"code":         evt.Code,
		})
		return nil
	}

	attrs := evt.Attributes()
	req := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerEventID, evt.ID).
		SetHeader(headerNodeID, attrs["node_id"]).
		SetHeader(headerChainID, attrs["chain_id"]).
		SetHeader(headerHeight, attrs["height"]).
		SetBody(evt)
	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return &httpclient.TransportError{URL: h.url, Err: err}
	}
	if !resp.IsSuccess() {
		h.log.WarnObj("http publisher rejected event", "publisher_http_error", map[string]any{
			"publisher_id": h.id,
			"status":       resp.StatusCode(),
			"txhash":       evt.TxHash,
		})
		return &httpclient.StatusError{URL: h.url, StatusCode: resp.StatusCode(), Body: httpclient.BodySnippet(resp.Body())}
	}
	return nil
}

// Package stargate is a typed client for the REST (grpc-gateway) interface of a
// Cosmos SDK node. Every query is a single GET through an injectable
// httpclient.Fetcher; results and errors are returned unchanged.
package stargate

import (
	"context"
	"maps"
	"net/url"
	"strconv"

	"github.com/Adda-Baaj/stargate-client/pkg/httpclient"
)

const (
	accountPath       = "/cosmos/auth/v1beta1/accounts/"
	balancePath       = "/cosmos/bank/v1beta1/balances/"
	latestBlockPath   = "/cosmos/base/tendermint/v1beta1/blocks/latest"
	txSearchPath      = "/cosmos/tx/v1beta1/txs"
	txByHashPath      = "/cosmos/tx/v1beta1/txs/"
	blockHeightFilter = "tx.height="
)

// API exposes the node's query endpoints. It holds no mutable state and is
// safe for concurrent use.
type API struct {
	cfg     Config
	headers map[string]string
	fetcher httpclient.Fetcher
	log     Logger
}

// Option customises an API.
type Option func(*API)

// WithFetcher replaces the default resty-backed fetcher.
func WithFetcher(f httpclient.Fetcher) Option {
	return func(a *API) {
		if f != nil {
			a.fetcher = f
		}
	}
}

// WithLogger attaches a logger for request tracing at debug level.
func WithLogger(log Logger) Option {
	return func(a *API) { a.log = ensureLogger(log) }
}

// New builds an API for cfg.
func New(cfg Config, opts ...Option) *API {
	cfg = cfg.clone()
	a := &API{
		cfg:     cfg,
		headers: cfg.Headers(),
		log:     noopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fetcher == nil {
		a.fetcher = httpclient.DefaultFetcher()
	}
	return a
}

// Endpoint returns the configured base URL.
func (a *API) Endpoint() string { return a.cfg.HTTPEndpoint }

// GetAccount looks up an account by address.
func (a *API) GetAccount(ctx context.Context, address string) (*AccountInfo, error) {
	return get[AccountInfo](ctx, a, "get_account", a.cfg.HTTPEndpoint+accountPath+address)
}

// GetAccountBalanceLegacy queries a balance on nodes running cosmos-sdk before v0.44.4.
// The denom is a path segment, so IBC denoms ("ibc/...") are misrouted by the node.
func (a *API) GetAccountBalanceLegacy(ctx context.Context, address, denom string) (*BalanceResponse, error) {
	return get[BalanceResponse](ctx, a, "get_account_balance_legacy", a.cfg.HTTPEndpoint+balancePath+address+"/"+denom)
}

// GetAccountBalance queries a balance on nodes running cosmos-sdk v0.44.4 or later.
// The denom travels as an escaped query parameter and may contain '/'.
func (a *API) GetAccountBalance(ctx context.Context, address, denom string) (*BalanceResponse, error) {
	query := url.Values{"denom": []string{denom}}.Encode()
	return get[BalanceResponse](ctx, a, "get_account_balance", a.cfg.HTTPEndpoint+balancePath+address+"/by_denom?"+query)
}

// GetLatestBlock returns the most recent block.
func (a *API) GetLatestBlock(ctx context.Context) (*BlockInfo, error) {
	return get[BlockInfo](ctx, a, "get_latest_block", a.cfg.HTTPEndpoint+latestBlockPath)
}

// GetBlock searches the transactions included at height. The result is a
// transaction search, not a block header.
func (a *API) GetBlock(ctx context.Context, height uint64) (*BlockDetail, error) {
	u := a.cfg.HTTPEndpoint + txSearchPath + "?events=" + blockHeightFilter + strconv.FormatUint(height, 10)
	return get[BlockDetail](ctx, a, "get_block", u)
}

// GetTx returns a transaction by hash.
func (a *API) GetTx(ctx context.Context, hash string) (*Transaction, error) {
	return get[Transaction](ctx, a, "get_tx", a.cfg.HTTPEndpoint+txByHashPath+hash)
}

func get[T any](ctx context.Context, a *API, op, u string) (*T, error) {
	a.log.DebugObj("stargate request", "stargate_request", map[string]any{
		"operation": op,
		"url":       u,
	})
	out, err := httpclient.GetJSON[T](ctx, a.fetcher, u, maps.Clone(a.headers))
	if err != nil {
		a.log.DebugObj("stargate request failed", "stargate_error", map[string]any{
			"operation": op,
			"url":       u,
			"error":     err.Error(),
		})
		return nil, err
	}
	return out, nil
}

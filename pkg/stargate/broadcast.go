package stargate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned by BroadcastTx for every input.
var ErrNotReady = errors.New("stargate: broadcast not ready, yet")

// BroadcastMode is how long the node waits before answering a broadcast.
type BroadcastMode int

const (
	// BroadcastModeSync returns after the mempool check.
	BroadcastModeSync BroadcastMode = iota + 1
	// BroadcastModeAsync returns immediately.
	BroadcastModeAsync
	// BroadcastModeBlock returns after the tx is included in a block.
	BroadcastModeBlock
)

var broadcastModeNames = map[BroadcastMode]string{
	BroadcastModeSync:  "BROADCAST_MODE_SYNC",
	BroadcastModeAsync: "BROADCAST_MODE_ASYNC",
	BroadcastModeBlock: "BROADCAST_MODE_BLOCK",
}

func (m BroadcastMode) String() string {
	if name, ok := broadcastModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("BROADCAST_MODE_UNSPECIFIED(%d)", int(m))
}

// ParseBroadcastMode accepts "sync", "async", "block" or the BROADCAST_MODE_* names.
func ParseBroadcastMode(s string) (BroadcastMode, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "BROADCAST_MODE_")
	switch v {
	case "SYNC":
		return BroadcastModeSync, nil
	case "ASYNC":
		return BroadcastModeAsync, nil
	case "BLOCK":
		return BroadcastModeBlock, nil
	default:
		return 0, fmt.Errorf("unknown broadcast mode %q", s)
	}
}

// StdFee is the fee attached to a signed transaction.
type StdFee struct {
	Amount []Coin `json:"amount"`
	Gas    uint64 `json:"gas,string"`
}

// StdSignature is one signature over the sign bytes.
type StdSignature struct {
	PubKey    *PubKey `json:"pub_key"`
	Signature string  `json:"signature"`
}

// StdTx pairs messages of type M with signing metadata.
type StdTx[M any] struct {
	Msgs       []M            `json:"msg"`
	Fee        StdFee         `json:"fee"`
	Signatures []StdSignature `json:"signatures"`
	Memo       string         `json:"memo"`
}

// BroadcastTx will submit signed to the node. Signing and broadcast encoding
// are not designed yet, so it fails with ErrNotReady without touching the network.
// TODO: encode tx_bytes and POST to /cosmos/tx/v1beta1/txs once the signing path exists.
func BroadcastTx[M any](_ context.Context, _ *API, _ StdTx[M], _ BroadcastMode) (*BroadcastTxResponse, error) {
	return nil, ErrNotReady
}

package publishers

import (
	"strconv"
	"time"

	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	"github.com/google/uuid"
)

// Event is one executed transaction observed on a node.
type Event struct {
	ID          string    `json:"id"`
	NodeID      string    `json:"node_id"`
	ChainID     string    `json:"chain_id"`
	Height      int64     `json:"height"`
	TxHash      string    `json:"txhash"`
	Code        uint32    `json:"code"`
	Codespace   string    `json:"codespace,omitempty"`
	GasWanted   int64     `json:"gas_wanted"`
	GasUsed     int64     `json:"gas_used"`
	Memo        string    `json:"memo,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewEvent constructs an Event for a transaction result seen on nodeID.
func NewEvent(nodeID, chainID string, resp stargate.TxResponse, memo string) Event {
	return Event{
		ID:          uuid.NewString(),
		NodeID:      nodeID,
		ChainID:     chainID,
		Height:      resp.Height,
		TxHash:      resp.TxHash,
		Code:        resp.Code,
		Codespace:   resp.Codespace,
		GasWanted:   resp.GasWanted,
		GasUsed:     resp.GasUsed,
		Memo:        memo,
		Timestamp:   resp.Timestamp,
		CollectedAt: time.Now().UTC(),
	}
}

// Attributes are the routing attributes attached to queue/topic messages.
func (e Event) Attributes() map[string]string {
	return map[string]string{
		"node_id":  e.NodeID,
		"chain_id": e.ChainID,
		"height":   strconv.FormatInt(e.Height, 10),
		"code":     strconv.FormatUint(uint64(e.Code), 10),
	}
}

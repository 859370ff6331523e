package stargate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PubKey is the Any-encoded public key attached to an account.
type PubKey struct {
	Type string `json:"@type"`
	Key  string `json:"key"`
}

// AccountInfo is the account returned by the auth module.
type AccountInfo struct {
	Type          string  `json:"@type"`
	Address       string  `json:"address"`
	PubKey        *PubKey `json:"pub_key"`
	AccountNumber uint64  `json:"account_number,string"`
	Sequence      uint64  `json:"sequence,string"`

	hasAccountNumber bool
	hasSequence      bool
}

// rawAccount mirrors AccountInfo with presence tracking for required fields.
// Module and vesting accounts nest the base account one or two levels down.
type rawAccount struct {
	Type               string       `json:"@type"`
	Address            string       `json:"address"`
	PubKey             *PubKey      `json:"pub_key"`
	AccountNumber      *json.Number `json:"account_number"`
	Sequence           *json.Number `json:"sequence"`
	BaseAccount        *rawAccount  `json:"base_account"`
	BaseVestingAccount *struct {
		BaseAccount *rawAccount `json:"base_account"`
	} `json:"base_vesting_account"`
}

// base returns the object carrying account_number/sequence: r itself when it
// has either field, else base_account, else base_vesting_account.base_account.
func (r *rawAccount) base() *rawAccount {
	if r.AccountNumber != nil || r.Sequence != nil {
		return r
	}
	if r.BaseAccount != nil {
		return r.BaseAccount
	}
	if r.BaseVestingAccount != nil && r.BaseVestingAccount.BaseAccount != nil {
		return r.BaseVestingAccount.BaseAccount
	}
	return r
}

// UnmarshalJSON accepts the node's {"account":{...}} envelope as well as a bare
// account object. Type keeps the outer @type of module and vesting accounts.
func (a *AccountInfo) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Account json.RawMessage `json:"account"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if len(envelope.Account) > 0 && string(envelope.Account) != "null" {
		data = envelope.Account
	}

	var raw rawAccount
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	base := raw.base()
	out := AccountInfo{Type: raw.Type, Address: base.Address, PubKey: base.PubKey}
	if out.Address == "" {
		out.Address = raw.Address
	}
	if out.PubKey == nil {
		out.PubKey = raw.PubKey
	}
	if base.AccountNumber != nil {
		n, err := parseUint(*base.AccountNumber)
		if err != nil {
			return fmt.Errorf("account_number: %w", err)
		}
		out.AccountNumber, out.hasAccountNumber = n, true
	}
	if base.Sequence != nil {
		n, err := parseUint(*base.Sequence)
		if err != nil {
			return fmt.Errorf("sequence: %w", err)
		}
		out.Sequence, out.hasSequence = n, true
	}
	*a = out
	return nil
}

// Validate requires the replay-protection fields.
func (a *AccountInfo) Validate() error {
	if !a.hasAccountNumber {
		return errors.New("account: account_number is required")
	}
	if !a.hasSequence {
		return errors.New("account: sequence is required")
	}
	return nil
}

// Coin is a denom/amount pair. Amount stays a string to keep arbitrary precision.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Decimal parses Amount.
func (c Coin) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q for %s: %w", c.Amount, c.Denom, err)
	}
	return d, nil
}

// BalanceResponse is returned by both balance endpoints.
type BalanceResponse struct {
	Balance *Coin `json:"balance"`
}

func (b *BalanceResponse) Validate() error {
	if b.Balance == nil {
		return errors.New("balance is required")
	}
	return nil
}

// PartSetHeader identifies the block parts.
type PartSetHeader struct {
	Total uint32 `json:"total"`
	Hash  string `json:"hash"`
}

// BlockID identifies a block by hash.
type BlockID struct {
	Hash          string        `json:"hash"`
	PartSetHeader PartSetHeader `json:"part_set_header"`
}

// Header is the tendermint block header.
type Header struct {
	Version struct {
		Block string `json:"block"`
		App   string `json:"app"`
	} `json:"version"`
	ChainID            string    `json:"chain_id"`
	Height             int64     `json:"height,string"`
	Time               time.Time `json:"time"`
	LastBlockID        BlockID   `json:"last_block_id"`
	LastCommitHash     string    `json:"last_commit_hash"`
	DataHash           string    `json:"data_hash"`
	ValidatorsHash     string    `json:"validators_hash"`
	NextValidatorsHash string    `json:"next_validators_hash"`
	ConsensusHash      string    `json:"consensus_hash"`
	AppHash            string    `json:"app_hash"`
	LastResultsHash    string    `json:"last_results_hash"`
	EvidenceHash       string    `json:"evidence_hash"`
	ProposerAddress    string    `json:"proposer_address"`
}

// CommitSig is a single validator signature in a commit.
type CommitSig struct {
	BlockIDFlag      string    `json:"block_id_flag"`
	ValidatorAddress string    `json:"validator_address"`
	Timestamp        time.Time `json:"timestamp"`
	Signature        string    `json:"signature"`
}

// Commit is the last commit carried by a block.
type Commit struct {
	Height     int64       `json:"height,string"`
	Round      int32       `json:"round"`
	BlockID    BlockID     `json:"block_id"`
	Signatures []CommitSig `json:"signatures"`
}

// Block is a tendermint block with base64 encoded transactions.
type Block struct {
	Header Header `json:"header"`
	Data   struct {
		Txs []string `json:"txs"`
	} `json:"data"`
	Evidence   json.RawMessage `json:"evidence"`
	LastCommit *Commit         `json:"last_commit"`
}

// BlockInfo is the latest-block response.
type BlockInfo struct {
	BlockID BlockID `json:"block_id"`
	Block   *Block  `json:"block"`
}

func (b *BlockInfo) Validate() error {
	if b.Block == nil {
		return errors.New("block is required")
	}
	return nil
}

// Height returns the header height.
func (b *BlockInfo) Height() int64 {
	if b == nil || b.Block == nil {
		return 0
	}
	return b.Block.Header.Height
}

// Pagination is the page info attached to list responses.
type Pagination struct {
	NextKey string `json:"next_key"`
	Total   uint64 `json:"total,string"`
}

// BlockDetail is the result of searching transactions at a given height.
type BlockDetail struct {
	Txs         []Tx         `json:"txs"`
	TxResponses []TxResponse `json:"tx_responses"`
	Pagination  *Pagination  `json:"pagination"`
}

// Fee is the fee section of a transaction's auth info.
type Fee struct {
	Amount   []Coin `json:"amount"`
	GasLimit uint64 `json:"gas_limit,string"`
	Payer    string `json:"payer"`
	Granter  string `json:"granter"`
}

// SignerInfo describes one signer.
type SignerInfo struct {
	PublicKey *PubKey         `json:"public_key"`
	ModeInfo  json.RawMessage `json:"mode_info"`
	Sequence  uint64          `json:"sequence,string"`
}

// AuthInfo carries signers and fee.
type AuthInfo struct {
	SignerInfos []SignerInfo `json:"signer_infos"`
	Fee         Fee          `json:"fee"`
}

// TxBody holds the Any-encoded messages. Messages are left raw; callers decode by @type.
type TxBody struct {
	Messages      []json.RawMessage `json:"messages"`
	Memo          string            `json:"memo"`
	TimeoutHeight uint64            `json:"timeout_height,string"`
}

// Tx is a decoded transaction.
type Tx struct {
	Body       TxBody   `json:"body"`
	AuthInfo   AuthInfo `json:"auth_info"`
	Signatures []string `json:"signatures"`
}

// EventAttribute is a single key/value of an ABCI event.
type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Index bool   `json:"index"`
}

// Event is an ABCI event emitted during execution.
type Event struct {
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

// TxResponse is the execution result of a transaction.
type TxResponse struct {
	Height    int64           `json:"height,string"`
	TxHash    string          `json:"txhash"`
	Codespace string          `json:"codespace"`
	Code      uint32          `json:"code"`
	Data      string          `json:"data"`
	RawLog    string          `json:"raw_log"`
	Logs      json.RawMessage `json:"logs"`
	Info      string          `json:"info"`
	GasWanted int64           `json:"gas_wanted,string"`
	GasUsed   int64           `json:"gas_used,string"`
	Tx        json.RawMessage `json:"tx"`
	Timestamp string          `json:"timestamp"`
	Events    []Event         `json:"events"`
}

// Succeeded reports whether the transaction executed with code 0.
func (r TxResponse) Succeeded() bool { return r.Code == 0 }

// Transaction is the get-tx-by-hash response.
type Transaction struct {
	Tx         *Tx         `json:"tx"`
	TxResponse *TxResponse `json:"tx_response"`
}

func (t *Transaction) Validate() error {
	if t.TxResponse == nil {
		return errors.New("tx_response is required")
	}
	return nil
}

// BroadcastTxResponse is the broadcast result.
type BroadcastTxResponse struct {
	TxResponse *TxResponse `json:"tx_response"`
}

func parseUint(n json.Number) (uint64, error) {
	return strconv.ParseUint(n.String(), 10, 64)
}

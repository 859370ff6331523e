package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Adda-Baaj/stargate-client/pkg/nodes"
	"github.com/Adda-Baaj/stargate-client/pkg/publishers"
	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
)

// fakeAPI serves a fixed tip and per-height tx hashes.
type fakeAPI struct {
	tip       int64
	chainID   string
	txs       map[uint64][]string
	failAt    uint64
	latestErr error
	requested []uint64
}

func (f *fakeAPI) GetLatestBlock(context.Context) (*stargate.BlockInfo, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	blk := &stargate.Block{}
	blk.Header.Height = f.tip
	blk.Header.ChainID = f.chainID
	return &stargate.BlockInfo{Block: blk}, nil
}

func (f *fakeAPI) GetBlock(_ context.Context, height uint64) (*stargate.BlockDetail, error) {
	f.requested = append(f.requested, height)
	if f.failAt != 0 && height == f.failAt {
		return nil, errors.New("node unavailable")
	}
	detail := &stargate.BlockDetail{}
	for _, hash := range f.txs[height] {
		detail.Txs = append(detail.Txs, stargate.Tx{Body: stargate.TxBody{Memo: "memo-" + hash}})
		detail.TxResponses = append(detail.TxResponses, stargate.TxResponse{Height: int64(height), TxHash: hash})
	}
	return detail, nil
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu          sync.Mutex
	events      []publishers.Event
	errOnTx     string
	partialOnTx string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if evt.TxHash == f.errOnTx {
		return 0, errors.New("boom")
	}
	if evt.TxHash == f.partialOnTx {
		f.events = append(f.events, evt)
		return 1, errors.New("sqs publisher[queue]: throttled")
	}
	f.events = append(f.events, evt)
	return 1, nil
}

// memStore is an in-memory Checkpoints.
type memStore struct {
	heights map[string]uint64
	seen    map[string]bool
	seenErr error
}

func newMemStore() *memStore {
	return &memStore{heights: map[string]uint64{}, seen: map[string]bool{}}
}

func (m *memStore) LastHeight(nodeID string) (uint64, bool, error) {
	h, ok := m.heights[nodeID]
	return h, ok, nil
}

func (m *memStore) SetLastHeight(nodeID string, height uint64) error {
	m.heights[nodeID] = height
	return nil
}

func (m *memStore) SeenTx(nodeID, hash string) (bool, error) {
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.seen[nodeID+"/"+hash], nil
}

func (m *memStore) MarkTx(nodeID, hash string) error {
	m.seen[nodeID+"/"+hash] = true
	return nil
}

func factoryFor(apis map[string]*fakeAPI) APIFactory {
	return func(node nodes.Node) NodeAPI { return apis[node.ID] }
}

var hub = nodes.Node{ID: "hub", Endpoint: "https://lcd.example.com", PollDelayMs: 1}

func TestRunStartsAtTipWithoutCheckpoint(t *testing.T) {
	api := &fakeAPI{tip: 100, chainID: "cosmoshub-4", txs: map[uint64][]string{100: {"A", "B"}}}
	pub := &fakePublisher{}
	store := newMemStore()

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), pub, nil, store, 10)
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(api.requested) != 1 || api.requested[0] != 100 {
		t.Fatalf("expected only the tip to be queried, got %v", api.requested)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.TxHash != "A" || evt.ChainID != "cosmoshub-4" || evt.NodeID != "hub" || evt.Memo != "memo-A" || evt.ID == "" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if store.heights["hub"] != 100 {
		t.Fatalf("expected checkpoint at 100, got %d", store.heights["hub"])
	}
}

func TestRunCatchesUpFromCheckpointAndSkipsSeen(t *testing.T) {
	api := &fakeAPI{tip: 13, txs: map[uint64][]string{11: {"old", "new"}, 13: {"late"}}}
	pub := &fakePublisher{}
	store := newMemStore()
	store.heights["hub"] = 10
	store.seen["hub/old"] = true

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), pub, nil, store, 10)
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := api.requested; len(got) != 3 || got[0] != 11 || got[2] != 13 {
		t.Fatalf("unexpected heights %v", got)
	}
	if len(pub.events) != 2 || pub.events[0].TxHash != "new" || pub.events[1].TxHash != "late" {
		t.Fatalf("unexpected events %+v", pub.events)
	}
	if !store.seen["hub/new"] || !store.seen["hub/late"] {
		t.Fatalf("published txs must be marked")
	}
	if store.heights["hub"] != 13 {
		t.Fatalf("expected checkpoint at 13, got %d", store.heights["hub"])
	}
}

func TestRunBoundsCatchup(t *testing.T) {
	api := &fakeAPI{tip: 1000}
	store := newMemStore()
	store.heights["hub"] = 1

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), &fakePublisher{}, nil, store, 5)
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(api.requested) != 5 || api.requested[0] != 996 {
		t.Fatalf("expected the last 5 heights, got %v", api.requested)
	}
}

func TestRunNothingNewAtTip(t *testing.T) {
	api := &fakeAPI{tip: 50}
	store := newMemStore()
	store.heights["hub"] = 50

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), &fakePublisher{}, nil, store, 10)
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(api.requested) != 0 {
		t.Fatalf("expected no height queries, got %v", api.requested)
	}
}

func TestRunKeepsCheckpointOnFailure(t *testing.T) {
	api := &fakeAPI{tip: 5, failAt: 4}
	store := newMemStore()
	store.heights["hub"] = 2

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), &fakePublisher{}, nil, store, 10)
	err := svc.Run(context.Background(), []nodes.Node{hub})
	if err == nil || !strings.Contains(err.Error(), "height 4") {
		t.Fatalf("expected failure at height 4, got %v", err)
	}
	if store.heights["hub"] != 3 {
		t.Fatalf("expected checkpoint to stop at 3, got %d", store.heights["hub"])
	}
}

func TestRunAggregatesNodeErrors(t *testing.T) {
	osmo := nodes.Node{ID: "osmo", Endpoint: "https://osmo.example.com"}
	apis := map[string]*fakeAPI{
		"hub":  {latestErr: errors.New("hub down")},
		"osmo": {latestErr: errors.New("osmo down")},
	}
	svc := NewService(factoryFor(apis), &fakePublisher{}, nil, newMemStore(), 10)
	err := svc.Run(context.Background(), []nodes.Node{hub, osmo})
	if err == nil || !strings.Contains(err.Error(), "hub down") || !strings.Contains(err.Error(), "osmo down") {
		t.Fatalf("expected both node errors, got %v", err)
	}
}

func TestRunPublishErrorDoesNotAdvance(t *testing.T) {
	api := &fakeAPI{tip: 7, txs: map[uint64][]string{7: {"ok", "bad"}}}
	pub := &fakePublisher{errOnTx: "bad"}
	store := newMemStore()

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), pub, nil, store, 10)
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected publish error mentioning bad, got %v", err)
	}
	if _, ok := store.heights["hub"]; ok {
		t.Fatalf("checkpoint must not advance past a failed publish")
	}
	if !store.seen["hub/ok"] || store.seen["hub/bad"] {
		t.Fatalf("only the delivered tx should be marked, got %v", store.seen)
	}
}

func TestRunPartialPublishMarksSeen(t *testing.T) {
	api := &fakeAPI{tip: 9, txs: map[uint64][]string{9: {"split"}}}
	pub := &fakePublisher{partialOnTx: "split"}
	store := newMemStore()

	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), pub, nil, store, 10)
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err != nil {
		t.Fatalf("partial delivery must not fail the pass: %v", err)
	}
	if !store.seen["hub/split"] {
		t.Fatalf("tx accepted by some publishers must be marked seen")
	}
	if store.heights["hub"] != 9 {
		t.Fatalf("expected checkpoint at 9, got %d", store.heights["hub"])
	}

	// A retry of the same height must not hand the tx to the publishers again.
	delete(store.heights, "hub")
	if err := svc.Run(context.Background(), []nodes.Node{hub}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected a single delivery, got %d", len(pub.events))
	}
}

func TestFilterNewEventsHandlesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.seenErr = errors.New("lookup failed")
	svc := NewService(factoryFor(nil), nil, nil, store, 10)

	filtered := svc.filterNewEvents("hub", []publishers.Event{{TxHash: "a"}, {TxHash: "b"}})
	if len(filtered) != 2 {
		t.Fatalf("expected lookup failures to keep events, got %d", len(filtered))
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakeAPI{tip: 10}
	svc := NewService(factoryFor(map[string]*fakeAPI{"hub": api}), nil, nil, newMemStore(), 10)
	if errs := svc.runAll(ctx, []nodes.Node{hub}); len(errs) != 0 {
		t.Fatalf("expected no errors on cancelled context, got %v", errs)
	}
}

func TestRunRequiresNodes(t *testing.T) {
	svc := NewService(factoryFor(nil), nil, nil, newMemStore(), 10)
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when node list empty")
	}
}

package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/stargate-client/internal/logger"
	"github.com/Adda-Baaj/stargate-client/pkg/httpclient"
	"github.com/Adda-Baaj/stargate-client/pkg/nodes"
	"github.com/Adda-Baaj/stargate-client/pkg/publishers"
	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
)

const defaultMaxCatchup = 50

// Service polls nodes for new heights and publishes the transactions found there.
type Service struct {
	newAPI     APIFactory
	publisher  EventPublisher
	store      Checkpoints
	log        logger.Logger
	maxCatchup uint64
}

// NewService wires a watcher. maxCatchup bounds the heights processed per node per pass.
func NewService(factory APIFactory, pub EventPublisher, log logger.Logger, store Checkpoints, maxCatchup uint64) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if maxCatchup == 0 {
		maxCatchup = defaultMaxCatchup
	}
	return &Service{
		newAPI:     factory,
		publisher:  pub,
		store:      store,
		log:        log,
		maxCatchup: maxCatchup,
	}
}

// Run executes one pass over all nodes. Per-node failures are joined; a
// cancelled context ends the pass without error.
func (s *Service) Run(ctx context.Context, list []nodes.Node) error {
	if s == nil || s.newAPI == nil || s.store == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no nodes configured for watching")
	}

	errs := s.runAll(ctx, list)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, list []nodes.Node) []error {
	errs := make([]error, 0, len(list))

	for _, node := range list {
		if ctx.Err() != nil {
			break
		}
		if err := s.runNode(ctx, node); err != nil {
			if ctx.Err() != nil || httpclient.IsCanceled(err) {
				break
			}
			errs = append(errs, err)
			s.log.ErrorObj("node watch failed", "node_error", map[string]any{
				"node_id": node.ID,
				"error":   err.Error(),
			})
		}
	}

	return errs
}

func (s *Service) runNode(ctx context.Context, node nodes.Node) error {
	api := s.newAPI(node)

	latest, err := api.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("latest block for node %s: %w", node.ID, err)
	}
	tip := latest.Height()
	if tip <= 0 {
		return fmt.Errorf("node %s reported non-positive height %d", node.ID, tip)
	}
	chainID := node.ChainID
	if chainID == "" {
		chainID = latest.Block.Header.ChainID
	}

	start, end, ok, err := s.heightRange(node.ID, uint64(tip))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	published := 0
	for height := start; height <= end; height++ {
		if height > start {
			if err := sleepCtx(ctx, node.PollDelay()); err != nil {
				return err
			}
		}

		n, err := s.processHeight(ctx, api, node.ID, chainID, height)
		published += n
		if err != nil {
			return err
		}
		if err := s.store.SetLastHeight(node.ID, height); err != nil {
			return fmt.Errorf("checkpoint node %s at %d: %w", node.ID, height, err)
		}
	}

	s.log.InfoObj("node watch completed", "node_result", map[string]any{
		"node_id":       node.ID,
		"from_height":   start,
		"to_height":     end,
		"txs_published": published,
	})
	return nil
}

// heightRange decides which heights to process. A node without a checkpoint
// starts at the tip; a gap larger than maxCatchup is skipped.
func (s *Service) heightRange(nodeID string, tip uint64) (start, end uint64, ok bool, err error) {
	last, found, err := s.store.LastHeight(nodeID)
	if err != nil {
		return 0, 0, false, fmt.Errorf("load checkpoint for node %s: %w", nodeID, err)
	}

	start = tip
	if found {
		if last >= tip {
			return 0, 0, false, nil
		}
		start = last + 1
	}
	if tip-start+1 > s.maxCatchup {
		skipped := tip - s.maxCatchup + 1 - start
		start = tip - s.maxCatchup + 1
		s.log.WarnObj("node too far behind; skipping heights", "node_catchup", map[string]any{
			"node_id": nodeID,
			"skipped": skipped,
			"resume":  start,
		})
	}
	return start, tip, true, nil
}

// processHeight publishes unseen txs at height. It returns the number of txs published.
func (s *Service) processHeight(ctx context.Context, api NodeAPI, nodeID, chainID string, height uint64) (int, error) {
	detail, err := api.GetBlock(ctx, height)
	if err != nil {
		return 0, fmt.Errorf("txs at height %d for node %s: %w", height, nodeID, err)
	}

	fresh := s.filterNewEvents(nodeID, buildEvents(nodeID, chainID, detail))
	if len(fresh) == 0 || s.publisher == nil {
		return 0, nil
	}

	var errs []error
	published := 0
	for _, evt := range fresh {
		accepted, err := s.publisher.Publish(ctx, evt)
		if err != nil && accepted == 0 {
			errs = append(errs, fmt.Errorf("publish tx %s: %w", evt.TxHash, err))
			continue
		}
		if err != nil {
			// Some sinks took it; republishing would duplicate it there.
			s.log.WarnObj("tx delivered to some publishers only", "publish_partial", map[string]any{
				"node_id":  nodeID,
				"txhash":   evt.TxHash,
				"accepted": accepted,
				"error":    err.Error(),
			})
		}
		published++
		if err := s.store.MarkTx(nodeID, evt.TxHash); err != nil {
			s.log.WarnObj("mark tx failed", "store_error", map[string]any{
				"node_id": nodeID,
				"txhash":  evt.TxHash,
				"error":   err.Error(),
			})
		}
	}
	return published, errors.Join(errs...)
}

// filterNewEvents drops txs already published. Lookup failures keep the event.
func (s *Service) filterNewEvents(nodeID string, events []publishers.Event) []publishers.Event {
	out := make([]publishers.Event, 0, len(events))
	for _, evt := range events {
		seen, err := s.store.SeenTx(nodeID, evt.TxHash)
		if err != nil {
			s.log.WarnObj("seen lookup failed", "store_error", map[string]any{
				"node_id": nodeID,
				"txhash":  evt.TxHash,
				"error":   err.Error(),
			})
		}
		if seen {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func buildEvents(nodeID, chainID string, detail *stargate.BlockDetail) []publishers.Event {
	if detail == nil {
		return nil
	}
	events := make([]publishers.Event, 0, len(detail.TxResponses))
	for i, resp := range detail.TxResponses {
		if resp.TxHash == "" {
			continue
		}
		memo := ""
		if i < len(detail.Txs) {
			memo = detail.Txs[i].Body.Memo
		}
		events = append(events, publishers.NewEvent(nodeID, chainID, resp, memo))
	}
	return events
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

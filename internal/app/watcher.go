package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Adda-Baaj/stargate-client/internal/config"
	"github.com/Adda-Baaj/stargate-client/internal/logger"
	"github.com/Adda-Baaj/stargate-client/internal/storage"
	"github.com/Adda-Baaj/stargate-client/internal/watcher"
	"github.com/Adda-Baaj/stargate-client/pkg/httpclient"
	"github.com/Adda-Baaj/stargate-client/pkg/nodes"
	"github.com/Adda-Baaj/stargate-client/pkg/publishers"
)

// defaultNodeID names the node built from node_endpoint when no nodes file exists.
const defaultNodeID = "default"

// Watcher is the block watcher runtime. It owns the poll loop, the publisher
// fanout and the checkpoint store.
type Watcher struct {
	cfg          *config.Config
	nodes        []nodes.Node
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	nodeList, err := loadNodes(cfg)
	if err != nil {
		return nil, err
	}
	nodeIDs := make([]string, 0, len(nodeList))
	for _, n := range nodeList {
		nodeIDs = append(nodeIDs, n.ID)
	}
	log.InfoObj("nodes loaded", "nodes_meta", map[string]any{
		"count": len(nodeIDs),
		"ids":   nodeIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		TxTTL:           cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"tx_ttl_seconds":           int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fetcher := httpclient.NewFetcher(httpclient.NewRestyClient(cfg.RequestTimeout))
	service := watcher.NewService(watcher.DefaultAPIFactory(fetcher, log), fanout, log, store, cfg.MaxCatchupBlocks)

	return &Watcher{
		cfg:          cfg,
		nodes:        nodeList,
		fanout:       fanout,
		service:      service,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// loadNodes reads the enabled nodes from the nodes file. A missing file falls
// back to a single node built from node_endpoint.
func loadNodes(cfg *config.Config) ([]nodes.Node, error) {
	reg, err := nodes.LoadRegistry(cfg.NodesFile)
	if err == nil {
		enabled := reg.Enabled()
		if len(enabled) == 0 {
			return nil, fmt.Errorf("no enabled nodes in %s", cfg.NodesFile)
		}
		return enabled, nil
	}
	if !errors.Is(err, os.ErrNotExist) || cfg.NodeEndpoint == "" {
		return nil, fmt.Errorf("load nodes registry: %w", err)
	}

	reg, err = nodes.NewRegistry(nodes.Node{
		ID:       defaultNodeID,
		Name:     defaultNodeID,
		Endpoint: cfg.NodeEndpoint,
		Headers:  cfg.NodeHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("node_endpoint: %w", err)
	}
	return reg.Enabled(), nil
}

// Run starts the poll loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"nodes_count":      len(w.nodes),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx); err != nil {
		w.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) error {
	start := time.Now()
	w.log.DebugObj("pass started", "pass_meta", map[string]any{
		"nodes_count": len(w.nodes),
		"started_at":  start.UTC(),
	})
	if err := w.service.Run(ctx, w.nodes); err != nil {
		return err
	}
	w.log.DebugObj("pass completed", "pass_meta", map[string]any{
		"nodes_count": len(w.nodes),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and the publishers, logging failures.
func (w *Watcher) close() {
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if w.fanout != nil {
		if err := w.fanout.Close(); err != nil {
			w.log.ErrorObj("publishers close failed", "error", err)
		}
	}
}

// Package storage keeps the watcher's progress between runs.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks, per node, the last processed height and the tx hashes already published.
type Store interface {
	Close() error
	LastHeight(nodeID string) (uint64, bool, error)
	SetLastHeight(nodeID string, height uint64) error
	SeenTx(nodeID, hash string) (bool, error)
	MarkTx(nodeID, hash string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TxTTL           time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTxTTL           = 2 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TxTTL <= 0 {
		opts.TxTTL = defaultTxTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore remembers nothing; every run starts at the chain tip.
type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) LastHeight(string) (uint64, bool, error) { return 0, false, nil }
func (noopStore) SetLastHeight(string, uint64) error      { return nil }
func (noopStore) SeenTx(string, string) (bool, error)     { return false, nil }
func (noopStore) MarkTx(string, string) error             { return nil }

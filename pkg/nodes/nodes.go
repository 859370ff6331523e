// Package nodes loads the registry of named node endpoints from YAML/JSON files.
package nodes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	"gopkg.in/yaml.v3"
)

const defaultPollDelayMs = 250

// Node is one REST endpoint of a chain.
type Node struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	ChainID     string            `json:"chain_id" yaml:"chain_id"`
	Endpoint    string            `json:"endpoint" yaml:"endpoint"`
	Headers     map[string]string `json:"headers" yaml:"headers"`
	PollDelayMs int               `json:"poll_delay_ms" yaml:"poll_delay_ms"`
	Enabled     *bool             `json:"enabled" yaml:"enabled"`
}

type registryFile struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// Registry is the loaded, validated set of nodes in file order.
type Registry struct {
	mu    sync.RWMutex
	nodes []Node
	idx   map[string]Node
}

// LoadRegistry loads the node registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("nodes file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nodes file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read nodes file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Nodes) == 0 {
		return nil, errors.New("nodes file contains no nodes entries")
	}
	return NewRegistry(parsed.Nodes...)
}

// NewRegistry sanitises and validates nodes; duplicate ids are rejected.
func NewRegistry(nodes ...Node) (*Registry, error) {
	reg := &Registry{
		nodes: make([]Node, 0, len(nodes)),
		idx:   make(map[string]Node, len(nodes)),
	}
	for i := range nodes {
		n := sanitizeNode(nodes[i])
		if err := validateNode(n); err != nil {
			return nil, fmt.Errorf("node[%d]: %w", i, err)
		}
		if _, exists := reg.idx[n.ID]; exists {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		reg.nodes = append(reg.nodes, n)
		reg.idx[n.ID] = n
	}
	return reg, nil
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("nodes file format not recognized (expected YAML or JSON)")
}

func sanitizeNode(n Node) Node {
	n.ID = strings.TrimSpace(n.ID)
	n.Name = strings.TrimSpace(n.Name)
	n.ChainID = strings.TrimSpace(n.ChainID)
	n.Endpoint = strings.TrimSpace(n.Endpoint)
	n.Headers = sanitizeHeaders(n.Headers)

	if n.Name == "" {
		n.Name = n.ID
	}
	if n.PollDelayMs <= 0 {
		n.PollDelayMs = defaultPollDelayMs
	}
	if n.Enabled == nil {
		def := true
		n.Enabled = &def
	}
	return n
}

// sanitizeHeaders trims and removes headers with an empty name.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateNode(n Node) error {
	if n.ID == "" {
		return errors.New("id is required")
	}
	if n.Endpoint == "" {
		return fmt.Errorf("endpoint is required for node %q", n.ID)
	}
	if !strings.HasPrefix(n.Endpoint, "http://") && !strings.HasPrefix(n.Endpoint, "https://") {
		return fmt.Errorf("endpoint for node %q must be an http(s) URL", n.ID)
	}
	return nil
}

// ByID returns the node with the given id.
func (r *Registry) ByID(id string) (Node, bool) {
	if r == nil {
		return Node{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Node{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.idx[id]
	return n, ok
}

// All returns every node in file order.
func (r *Registry) All() []Node {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Enabled returns nodes that are enabled.
func (r *Registry) Enabled() []Node {
	all := r.All()
	out := make([]Node, 0, len(all))
	for _, n := range all {
		if n.EnabledValue() {
			out = append(out, n)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (n Node) EnabledValue() bool {
	if n.Enabled == nil {
		return true
	}
	return *n.Enabled
}

// PollDelay returns the pause between consecutive height queries against this node.
func (n Node) PollDelay() time.Duration {
	if n.PollDelayMs <= 0 {
		return time.Duration(defaultPollDelayMs) * time.Millisecond
	}
	return time.Duration(n.PollDelayMs) * time.Millisecond
}

// Config converts the node into a client configuration. Headers are ordered by name.
func (n Node) Config() stargate.Config {
	names := make([]string, 0, len(n.Headers))
	for name := range n.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := stargate.Config{HTTPEndpoint: n.Endpoint}
	for _, name := range names {
		cfg.HeaderKeyValues = append(cfg.HeaderKeyValues, stargate.HeaderKeyValue{Key: name, Value: n.Headers[name]})
	}
	return cfg
}

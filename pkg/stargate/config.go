package stargate

import "strings"

// HeaderKeyValue is one header attached to every request.
type HeaderKeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Config is the node endpoint and the headers sent with each query.
// HTTPEndpoint is used as given; paths are appended directly.
type Config struct {
	HTTPEndpoint    string
	HeaderKeyValues []HeaderKeyValue
}

// NewConfig builds a Config from an endpoint and alternating header name/value pairs.
// A trailing name without a value is ignored.
func NewConfig(endpoint string, headerPairs ...string) Config {
	cfg := Config{HTTPEndpoint: endpoint}
	for i := 0; i+1 < len(headerPairs); i += 2 {
		cfg.HeaderKeyValues = append(cfg.HeaderKeyValues, HeaderKeyValue{Key: headerPairs[i], Value: headerPairs[i+1]})
	}
	return cfg
}

// Headers flattens HeaderKeyValues in order; a later entry for the same
// name (case-insensitive) replaces an earlier one. Empty names are skipped.
func (c Config) Headers() map[string]string {
	if len(c.HeaderKeyValues) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.HeaderKeyValues))
	names := make(map[string]string, len(c.HeaderKeyValues))
	for _, kv := range c.HeaderKeyValues {
		key := strings.TrimSpace(kv.Key)
		if key == "" {
			continue
		}
		folded := strings.ToLower(key)
		if prev, ok := names[folded]; ok {
			delete(out, prev)
		}
		names[folded] = key
		out[key] = kv.Value
	}
	return out
}

// clone copies the header slice so later edits by the caller do not leak into a client.
func (c Config) clone() Config {
	cp := Config{HTTPEndpoint: c.HTTPEndpoint}
	if len(c.HeaderKeyValues) > 0 {
		cp.HeaderKeyValues = append([]HeaderKeyValue(nil), c.HeaderKeyValues...)
	}
	return cp
}

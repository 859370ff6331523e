package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NODE_ENDPOINT", "https://lcd.example.com")
	t.Setenv("NODE_HEADERS", "X-Api-Key=abc, Authorization=Bearer t")
	t.Setenv("POLL_INTERVAL", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("unexpected poll interval %v", cfg.PollInterval)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected request timeout %v", cfg.RequestTimeout)
	}

	node := cfg.NodeConfig()
	if node.HTTPEndpoint != "https://lcd.example.com" {
		t.Fatalf("unexpected endpoint %q", node.HTTPEndpoint)
	}
	if len(node.HeaderKeyValues) != 2 || node.HeaderKeyValues[0].Key != "Authorization" || node.HeaderKeyValues[1].Value != "abc" {
		t.Fatalf("unexpected headers %+v", node.HeaderKeyValues)
	}
}

func TestLoadRejectsInvalidPollInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders(`{"X-Api-Key":"abc"}`)
	if err != nil || h["X-Api-Key"] != "abc" {
		t.Fatalf("json headers: %v %v", h, err)
	}

	h, err = ParseHeaders(map[string]interface{}{"Authorization": "Bearer t"})
	if err != nil || h["Authorization"] != "Bearer t" {
		t.Fatalf("map headers: %v %v", h, err)
	}

	if _, err := ParseHeaders("missing-value"); err == nil {
		t.Fatalf("expected error for malformed header list")
	}

	h, err = ParseHeaders("")
	if err != nil || h != nil {
		t.Fatalf("empty headers: %v %v", h, err)
	}
}

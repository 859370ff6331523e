package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adda-Baaj/stargate-client/internal/config"
	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

type request struct {
	uri     string
	headers http.Header
}

func newNode(t *testing.T, requests *[]request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, request{uri: r.URL.RequestURI(), headers: r.Header.Clone()})
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/cosmos/auth/v1beta1/accounts/"):
			_, _ = w.Write([]byte(`{"account":{"@type":"/cosmos.auth.v1beta1.BaseAccount","address":"cosmos1abc","account_number":"5","sequence":"2"}}`))
		case strings.HasSuffix(r.URL.Path, "/by_denom"):
			_, _ = w.Write([]byte(`{"balance":{"denom":"` + r.URL.Query().Get("denom") + `","amount":"1500000"}}`))
		case strings.HasPrefix(r.URL.Path, "/cosmos/bank/v1beta1/balances/"):
			_, _ = w.Write([]byte(`{"balance":{"denom":"uatom","amount":"42"}}`))
		case r.URL.Path == "/cosmos/base/tendermint/v1beta1/blocks/latest":
			_, _ = w.Write([]byte(`{"block":{"header":{"chain_id":"testchain","height":"77"}}}`))
		case r.URL.Path == "/cosmos/tx/v1beta1/txs":
			_, _ = w.Write([]byte(`{"txs":[],"tx_responses":[],"pagination":{"total":"0"}}`))
		default:
			http.Error(w, `{"code":5,"message":"not found"}`, http.StatusNotFound)
		}
	}))
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAccountCommand(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	out, err := execute(t, nil, "--endpoint", srv.URL, "--header", "X-Api-Key=secret", "account", "cosmos1abc")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !strings.Contains(out, `"account_number": "5"`) || !strings.Contains(out, `"sequence": "2"`) {
		t.Fatalf("unexpected output %s", out)
	}
	if len(reqs) != 1 || reqs[0].uri != "/cosmos/auth/v1beta1/accounts/cosmos1abc" {
		t.Fatalf("unexpected requests %+v", reqs)
	}
	if got := reqs[0].headers.Get("X-Api-Key"); got != "secret" {
		t.Fatalf("expected header to be sent, got %q", got)
	}
}

func TestBalanceCommandVariants(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	out, err := execute(t, nil, "--endpoint", srv.URL, "balance", "cosmos1abc", "ibc/27394FB0")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if reqs[0].uri != "/cosmos/bank/v1beta1/balances/cosmos1abc/by_denom?denom=ibc%2F27394FB0" {
		t.Fatalf("unexpected uri %s", reqs[0].uri)
	}
	if !strings.Contains(out, "1500000 ibc/27394FB0") {
		t.Fatalf("expected decimal amount line, got %s", out)
	}

	out, err = execute(t, nil, "--endpoint", srv.URL, "balance", "--legacy", "cosmos1abc", "uatom")
	if err != nil {
		t.Fatalf("legacy balance: %v", err)
	}
	if reqs[1].uri != "/cosmos/bank/v1beta1/balances/cosmos1abc/uatom" {
		t.Fatalf("unexpected uri %s", reqs[1].uri)
	}
	if !strings.Contains(out, "42 uatom") {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestBalanceCommandUnparsableAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance":{"denom":"uatom","amount":""}}`))
	}))
	defer srv.Close()

	out, err := execute(t, nil, "--endpoint", srv.URL, "balance", "cosmos1abc", "uatom")
	if err != nil {
		t.Fatalf("balance with empty amount must succeed, got %v", err)
	}
	if !strings.Contains(out, `"denom": "uatom"`) {
		t.Fatalf("expected JSON result, got %s", out)
	}
	if strings.HasSuffix(strings.TrimSpace(out), "uatom") {
		t.Fatalf("expected no decimal summary line, got %s", out)
	}
}

func TestBlockCommand(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	out, err := execute(t, nil, "--endpoint", srv.URL, "block", "latest")
	if err != nil {
		t.Fatalf("block latest: %v", err)
	}
	if !strings.Contains(out, `"chain_id": "testchain"`) {
		t.Fatalf("unexpected output %s", out)
	}

	if _, err := execute(t, nil, "--endpoint", srv.URL, "block", "1234"); err != nil {
		t.Fatalf("block 1234: %v", err)
	}
	if reqs[1].uri != "/cosmos/tx/v1beta1/txs?events=tx.height=1234" {
		t.Fatalf("unexpected uri %s", reqs[1].uri)
	}

	if _, err := execute(t, nil, "--endpoint", srv.URL, "block", "tip"); err == nil {
		t.Fatalf("expected invalid height error")
	}
	if len(reqs) != 2 {
		t.Fatalf("invalid height must not reach the node, got %d requests", len(reqs))
	}
}

func TestTxCommandNotFound(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	_, err := execute(t, nil, "--endpoint", srv.URL, "tx", "DEADBEEF")
	if err == nil {
		t.Fatalf("expected error for unknown tx")
	}
	if msg := describeError(err); !strings.Contains(msg, "HTTP 404") {
		t.Fatalf("expected status in message, got %q", msg)
	}
}

func TestBroadcastCommandNotReady(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "tx.json")
	body := `{"msg":[{"@type":"/cosmos.bank.v1beta1.MsgSend"}],"fee":{"amount":[{"denom":"uatom","amount":"500"}],"gas":"200000"},"signatures":[],"memo":"hi"}`
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatalf("write tx file: %v", err)
	}

	_, err := execute(t, nil, "--endpoint", srv.URL, "broadcast", "--file", file, "--mode", "block")
	if !errors.Is(err, stargate.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if len(reqs) != 0 {
		t.Fatalf("broadcast must not reach the node, got %d requests", len(reqs))
	}

	if _, err := execute(t, nil, "--endpoint", srv.URL, "broadcast", "--mode", "fast"); err == nil || errors.Is(err, stargate.ErrNotReady) {
		t.Fatalf("expected mode parse error, got %v", err)
	}
}

func TestNodeFlagUsesRegistry(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "nodes.yaml")
	content := "nodes:\n  - id: local\n    endpoint: " + srv.URL + "\n    headers:\n      X-Api-Key: from-file\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write nodes file: %v", err)
	}

	_, err := execute(t, nil, "--nodes-file", file, "--node", "local", "--header", "x-api-key=override", "account", "cosmos1abc")
	if err != nil {
		t.Fatalf("account via node: %v", err)
	}
	if got := reqs[0].headers.Values("X-Api-Key"); len(got) != 1 || got[0] != "override" {
		t.Fatalf("expected --header to override file header, got %v", got)
	}

	if _, err := execute(t, nil, "--nodes-file", file, "--node", "missing", "account", "cosmos1abc"); err == nil {
		t.Fatalf("expected unknown node error")
	}
}

func TestConfigDefaultsEndpointAndHeaders(t *testing.T) {
	var reqs []request
	srv := newNode(t, &reqs)
	defer srv.Close()

	cfg := &config.Config{NodeEndpoint: srv.URL, NodeHeaders: map[string]string{"X-Tenant": "t1"}}
	if _, err := execute(t, cfg, "block", "latest"); err != nil {
		t.Fatalf("block latest: %v", err)
	}
	if got := reqs[0].headers.Get("X-Tenant"); got != "t1" {
		t.Fatalf("expected configured header, got %q", got)
	}
}

func TestMissingEndpoint(t *testing.T) {
	if _, err := execute(t, nil, "account", "cosmos1abc"); err == nil || !strings.Contains(err.Error(), "no endpoint") {
		t.Fatalf("expected missing endpoint error, got %v", err)
	}
}

func TestParseHeaderFlags(t *testing.T) {
	got, err := parseHeaderFlags([]string{"A=1", "B=x=y", "C="})
	if err != nil {
		t.Fatalf("parseHeaderFlags: %v", err)
	}
	want := []stargate.HeaderKeyValue{{Key: "A", Value: "1"}, {Key: "B", Value: "x=y"}, {Key: "C", Value: ""}}
	if len(got) != len(want) {
		t.Fatalf("unexpected headers %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("header %d: got %+v want %+v", i, got[i], want[i])
		}
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseHeaderFlags([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPrintErrorFormatsCancellation(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCmd(&config.Config{NodeEndpoint: "http://127.0.0.1:1"})
	cmd.SetArgs([]string{"block", "latest"})
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		t.Fatalf("expected error")
	}
	_ = printError(&buf, err)
	if got := buf.String(); got != "error: request canceled\n" {
		t.Fatalf("unexpected message %q", got)
	}
}

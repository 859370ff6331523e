// Package cli implements the stargate command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Adda-Baaj/stargate-client/internal/config"
	"github.com/Adda-Baaj/stargate-client/internal/logger"
	"github.com/Adda-Baaj/stargate-client/pkg/httpclient"
	"github.com/Adda-Baaj/stargate-client/pkg/nodes"
	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// options holds the persistent flags shared by every subcommand.
type options struct {
	cfg       *config.Config
	endpoint  string
	headers   []string
	node      string
	nodesFile string
	timeout   time.Duration
	verbose   bool

	// fetcher overrides the HTTP fetcher; tests only.
	fetcher httpclient.Fetcher
}

// Execute runs the CLI against os.Args and prints failures in red on stderr.
func Execute(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return printError(os.Stderr, fmt.Errorf("load config: %w", err))
	}
	root := NewRootCmd(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		return printError(os.Stderr, err)
	}
	return nil
}

// NewRootCmd builds the command tree. cfg supplies flag defaults and may be nil.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	return newRootCmd(&options{cfg: cfg})
}

func newRootCmd(o *options) *cobra.Command {
	if o.cfg == nil {
		o.cfg = &config.Config{}
	}

	root := &cobra.Command{
		Use:   "stargate",
		Short: "Query a Cosmos SDK node over its REST interface",
		Long: `stargate queries accounts, balances, blocks and transactions from a
Cosmos SDK node's REST (grpc-gateway) endpoint and prints the JSON result.

Examples:
  stargate --endpoint https://lcd.example.com account cosmos1...
  stargate --node hub balance cosmos1... uatom
  stargate --node hub block latest
  stargate --node hub block 12345
  stargate --node hub tx 0A1B...`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	timeout := o.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	nodesFile := o.cfg.NodesFile
	if nodesFile == "" {
		nodesFile = "./configs/nodes.yaml"
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.endpoint, "endpoint", o.cfg.NodeEndpoint, "node REST endpoint, e.g. https://lcd.example.com")
	flags.StringArrayVar(&o.headers, "header", nil, "extra request header as Name=value (repeatable)")
	flags.StringVar(&o.node, "node", "", "node id from the nodes file")
	flags.StringVar(&o.nodesFile, "nodes-file", nodesFile, "path to the nodes registry")
	flags.DurationVar(&o.timeout, "timeout", timeout, "HTTP request timeout")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newAccountCmd(o),
		newBalanceCmd(o),
		newBlockCmd(o),
		newTxCmd(o),
		newBroadcastCmd(o),
	)
	return root
}

// clientConfig resolves the endpoint and headers from --node, --endpoint and config.
// --header values are applied last so they override anything else.
func (o *options) clientConfig() (stargate.Config, error) {
	var cfg stargate.Config
	if o.node != "" {
		reg, err := nodes.LoadRegistry(o.nodesFile)
		if err != nil {
			return stargate.Config{}, err
		}
		node, ok := reg.ByID(o.node)
		if !ok {
			return stargate.Config{}, fmt.Errorf("node %q not found in %s", o.node, o.nodesFile)
		}
		cfg = node.Config()
	} else {
		cfg = o.cfg.NodeConfig()
		cfg.HTTPEndpoint = o.endpoint
	}

	extra, err := parseHeaderFlags(o.headers)
	if err != nil {
		return stargate.Config{}, err
	}
	cfg.HeaderKeyValues = append(cfg.HeaderKeyValues, extra...)

	if strings.TrimSpace(cfg.HTTPEndpoint) == "" {
		return stargate.Config{}, errors.New("no endpoint: pass --endpoint or --node, or set NODE_ENDPOINT")
	}
	return cfg, nil
}

func (o *options) api() (*stargate.API, error) {
	cfg, err := o.clientConfig()
	if err != nil {
		return nil, err
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = httpclient.NewFetcher(httpclient.NewRestyClient(o.timeout))
	}
	opts := []stargate.Option{stargate.WithFetcher(fetcher)}
	if o.verbose {
		log, err := logger.InitLevel("debug")
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		opts = append(opts, stargate.WithLogger(log))
	}
	return stargate.New(cfg, opts...), nil
}

func parseHeaderFlags(values []string) ([]stargate.HeaderKeyValue, error) {
	out := make([]stargate.HeaderKeyValue, 0, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --header %q (want Name=value)", v)
		}
		out = append(out, stargate.HeaderKeyValue{Key: name, Value: value})
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printError(w io.Writer, err error) error {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprint(w, "error: ")
	_, _ = fmt.Fprintln(w, describeError(err))
	return err
}

// describeError adds the HTTP status to node failures.
func describeError(err error) string {
	var se *httpclient.StatusError
	switch {
	case httpclient.IsCanceled(err):
		return "request canceled"
	case errors.As(err, &se):
		return fmt.Sprintf("node returned HTTP %d: %s", se.StatusCode, se.Body)
	default:
		return err.Error()
	}
}

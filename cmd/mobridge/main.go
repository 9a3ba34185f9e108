package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/config"
	"github.com/opentrade-labs/mobridge/internal/desk"
	"github.com/opentrade-labs/mobridge/internal/logger"
	"github.com/opentrade-labs/mobridge/internal/registry"
	"github.com/opentrade-labs/mobridge/internal/session"
	"github.com/opentrade-labs/mobridge/internal/types"
	"github.com/opentrade-labs/mobridge/internal/version"
)

func main() {
	// Define command-line flags
	configFlag := flag.String("config", "", "Path to YAML config file (required)")
	opFlag := flag.String("op", "", "Operation: orders, positions, holdings, place, modify, cancel, close (required)")
	inputFlag := flag.String("input", "", "Path to JSON input file for place/modify/cancel/close, '-' for stdin")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetVersion())

		return
	}

	// Validate required flags
	if *configFlag == "" {
		fmt.Println("Error: --config flag is required")
		flag.Usage()
		os.Exit(1)
	}
	if *opFlag == "" {
		fmt.Println("Error: --op flag is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger()
	if err != nil {
		fmt.Printf("Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	dialer := broker.NewRESTDialer(broker.RESTOptions{
		BaseURL:        cfg.BaseURL,
		SourceID:       cfg.SourceID,
		Browser:        cfg.Browser,
		BrowserVersion: cfg.BrowserVersion,
		HTTPClient:     nil,
	})

	reg := registry.NewRegistry(cfg.ClientsDir, log)
	sessions := session.NewManager(dialer, log)
	d := desk.New(reg, sessions, log, cfg)

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	output, err := run(ctx, d, *opFlag, *inputFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printJSON(output)
}

func run(ctx context.Context, d *desk.Desk, op, input string) (any, error) {
	switch op {
	case "orders":
		return d.FetchOrders(ctx), nil
	case "positions":
		return d.FetchPositions(ctx), nil
	case "holdings":
		return d.FetchHoldings(ctx), nil
	case "place":
		var orders []types.OrderRequest
		if err := readInput(input, &orders); err != nil {
			return nil, err
		}

		return d.PlaceOrders(ctx, orders), nil
	case "modify":
		var reqs []types.ModifyRequest
		if err := readInput(input, &reqs); err != nil {
			return nil, err
		}

		return d.ModifyOrders(ctx, reqs), nil
	case "cancel":
		var reqs []types.CancelRequest
		if err := readInput(input, &reqs); err != nil {
			return nil, err
		}

		return d.CancelOrders(ctx, reqs), nil
	case "close":
		var reqs []types.CloseRequest
		if err := readInput(input, &reqs); err != nil {
			return nil, err
		}

		return d.ClosePositions(ctx, reqs), nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// readInput decodes the JSON input file (or stdin) for a batch mutator.
func readInput(input string, target any) error {
	if input == "" {
		return fmt.Errorf("--input flag is required for this operation")
	}

	var data []byte

	var err error

	if input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}

	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error: failed to encode output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(data))
}

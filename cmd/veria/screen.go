package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/veriahq/sdk/pkg/audit"
	"github.com/veriahq/sdk/pkg/client"
	"github.com/veriahq/sdk/pkg/core"
	"github.com/veriahq/sdk/pkg/credentials"
	"github.com/veriahq/sdk/pkg/screening"
)

var (
	flagAPIKey   string
	flagBaseURL  string
	flagTimeout  time.Duration
	flagFile     string
	flagRate     float64
	flagJSON     bool
	flagVerbose  bool
	flagAuditLog string
)

var screenCmd = &cobra.Command{
	Use:   "screen [input]",
	Short: "Screen an address, ENS name, tx hash or IBAN",
	Long: `Screen a single input passed as an argument, or a file of inputs
(one per line) with --file. Lines starting with # are skipped.

With --file, --rate bounds the request rate in requests per second so
batch runs stay inside the service's rate limits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFile == "" && len(args) == 0 {
			return fmt.Errorf("provide an input argument or --file")
		}
		if flagFile != "" && len(args) > 0 {
			return fmt.Errorf("provide either an input argument or --file, not both")
		}

		blocked, err := runScreen(cmd.Context(), args)
		if err != nil {
			return err
		}
		if blocked {
			os.Exit(exitBlocked)
		}
		return nil
	},
}

func init() {
	screenCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Veria API key (default $VERIA_API_KEY)")
	screenCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "API base URL")
	screenCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (default 30s)")
	screenCmd.Flags().StringVar(&flagFile, "file", "", "screen inputs from a file, one per line")
	screenCmd.Flags().Float64Var(&flagRate, "rate", 0, "max requests per second in batch mode (0 = unlimited)")
	screenCmd.Flags().BoolVar(&flagJSON, "json", false, "emit results as JSON lines")
	screenCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	screenCmd.Flags().StringVar(&flagAuditLog, "audit-log", "", "append audit events to this file")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(ctx context.Context, args []string) (blocked bool, err error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiKey := flagAPIKey
	if apiKey == "" {
		apiKey, err = credentials.Resolve(ctx, credentials.KeyAPIKey, credentials.NewEnvStore())
		if err != nil {
			return false, fmt.Errorf("no API key: pass --api-key or set VERIA_API_KEY")
		}
	}

	var logger core.Logger = core.NewNopLogger()
	if flagVerbose {
		zl, zerr := core.NewProductionZapLogger()
		if zerr != nil {
			return false, fmt.Errorf("init logger: %w", zerr)
		}
		defer zl.Sync()
		logger = zl
	}

	var auditor *audit.Logger
	if flagAuditLog != "" {
		auditor, err = audit.NewLogger(&audit.LoggerConfig{LogFile: flagAuditLog})
		if err != nil {
			return false, fmt.Errorf("open audit log: %w", err)
		}
		auditor.Start()
		defer auditor.Stop()
	}

	opts := []client.Option{
		client.WithAPIKey(apiKey),
		client.WithLogger(logger),
	}
	if flagBaseURL != "" {
		opts = append(opts, client.WithBaseURL(flagBaseURL))
	}
	if flagTimeout > 0 {
		opts = append(opts, client.WithTimeout(flagTimeout))
	}

	c, err := client.NewWithOptions(opts...)
	if err != nil {
		return false, err
	}
	defer c.Close()

	if auditor != nil {
		auditor.ClientCreated(c.BaseURL())
		defer auditor.ClientClosed()
	}

	inputs, err := collectInputs(args)
	if err != nil {
		return false, err
	}

	var limiter *rate.Limiter
	if flagRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(flagRate), 1)
	}

	for _, input := range inputs {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return blocked, err
			}
		}

		start := time.Now()
		if auditor != nil {
			auditor.ScreenStarted("", input)
		}

		result, err := c.Screen(ctx, input)
		if err != nil {
			if auditor != nil {
				auditor.ScreenFailed("", input, err, time.Since(start))
			}
			return blocked, fmt.Errorf("screen %s: %w", input, err)
		}
		if auditor != nil {
			auditor.ScreenCompleted("", input, result, time.Since(start))
		}

		if result.ShouldBlock() {
			blocked = true
		}
		if err := printResult(input, result); err != nil {
			return blocked, err
		}
	}

	return blocked, nil
}

// collectInputs returns the inputs to screen, from the argument or --file.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 1 {
		return args, nil
	}

	f, err := os.Open(flagFile)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs in %s", flagFile)
	}
	return inputs, nil
}

func printResult(input string, result *screening.ScreenResult) error {
	if flagJSON {
		out := struct {
			Input string `json:"input"`
			*screening.ScreenResult
			Block bool `json:"block"`
		}{input, result, result.ShouldBlock()}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	decision := "ALLOW"
	if result.ShouldBlock() {
		decision = "BLOCK"
	}

	fmt.Printf("%s  %s\n", decision, input)
	fmt.Printf("  risk: %s (score %d)  chain: %s  resolved: %s\n",
		result.Risk, result.Score, result.Chain, result.Resolved)
	fmt.Printf("  sanctions: %v  pep: %v  watchlist: %v\n",
		result.Details.SanctionsHit, result.Details.PEPHit, result.Details.WatchlistHit)
	fmt.Printf("  lists: %s  type: %s  latency: %dms\n",
		strings.Join(result.Details.CheckedLists, ", "), result.Details.AddressType, result.LatencyMS)
	return nil
}
